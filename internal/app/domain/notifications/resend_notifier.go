package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	"github.com/atlvibes/atl-vibes-views/internal/app/observability/metrics"
)

var _ Notifier = (*ResendNotifier)(nil)

// emailSender is the subset of the resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

var emailTemplates = map[models.NotificationKind]*template.Template{
	models.NotificationSubmissionConfirmation: template.Must(template.New("confirmation").Parse(
		`<p>Hi {{.SubmitterName}},</p>
<p>Thanks for submitting your {{.SubmissionType}} to ATL Vibes &amp; Views. Our team will review it shortly.</p>`)),
	models.NotificationAdminNewSubmission: template.Must(template.New("admin").Parse(
		`<p>A new {{.SubmissionType}} submission from {{.SubmitterName}} is waiting for review.</p>`)),
}

var emailSubjects = map[models.NotificationKind]string{
	models.NotificationSubmissionConfirmation: "We received your submission",
	models.NotificationAdminNewSubmission:     "New submission pending review",
}

// ResendNotifier emails the recipient directly through Resend.
type ResendNotifier struct {
	emails emailSender
	from   string
	logger *zap.Logger
}

func NewResendNotifier(apiKey, from string, logger *zap.Logger) *ResendNotifier {
	client := resend.NewClient(apiKey)
	return &ResendNotifier{
		emails: client.Emails,
		from:   from,
		logger: logger,
	}
}

func (n *ResendNotifier) Notify(ctx context.Context, msg models.Notification) {
	l := n.logger.With(zap.String("method", "Notify"), zap.String("type", string(msg.Type)))
	kind := attribute.String("type", string(msg.Type))

	html, err := renderEmail(msg)
	if err != nil {
		l.Error("Failed to render notification email", zap.Error(err))
		metrics.Get().NotificationFailuresTotal.Add(ctx, 1, metric.WithAttributes(kind))
		return
	}

	resp, err := n.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{msg.ToEmail},
		Subject: emailSubjects[msg.Type],
		Html:    html,
	})
	if err != nil {
		l.Error("Failed to send notification email", zap.Error(err))
		metrics.Get().NotificationFailuresTotal.Add(ctx, 1, metric.WithAttributes(kind))
		return
	}

	l.Debug("Notification email sent", zap.String("message_id", resp.Id))
	metrics.Get().NotificationsSentTotal.Add(ctx, 1, metric.WithAttributes(kind))
}

func renderEmail(msg models.Notification) (string, error) {
	tmpl, ok := emailTemplates[msg.Type]
	if !ok {
		return "", fmt.Errorf("no email template for %s", msg.Type)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", err
	}
	return buf.String(), nil
}
