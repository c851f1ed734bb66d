package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	"github.com/atlvibes/atl-vibes-views/internal/app/observability/metrics"
)

var _ Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier posts the notification payload to an email automation endpoint.
type WebhookNotifier struct {
	url    string
	client *retryablehttp.Client
	logger *zap.Logger
}

// NewWebhookNotifier builds the relay. maxRetries of zero sends exactly one request.
func NewWebhookNotifier(url string, maxRetries int, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = &retryableLogger{logger: logger.Named("notifications")}
	// keep the final response so non-2xx codes are logged with their status
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &WebhookNotifier{
		url:    url,
		client: client,
		logger: logger,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg models.Notification) {
	ctx, span := otel.Tracer("NotificationService").Start(ctx, "Notify", trace.WithAttributes(
		attribute.String("notification.type", string(msg.Type)),
		attribute.String("submission.type", string(msg.SubmissionType)),
	))
	defer span.End()

	l := n.logger.With(zap.String("method", "Notify"), zap.String("type", string(msg.Type)))

	if n.url == "" {
		l.Warn("NOTIFICATION_WEBHOOK_URL not set, skipping notification")
		span.SetStatus(codes.Unset, "notifications not configured")
		return
	}

	if err := n.post(ctx, msg); err != nil {
		l.Error("Failed to deliver notification", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification delivery failed")
		metrics.Get().NotificationFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(msg.Type))))
		return
	}

	l.Debug("Notification delivered")
	span.SetStatus(codes.Ok, "notification delivered")
	metrics.Get().NotificationsSentTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(msg.Type))))
}

func (n *WebhookNotifier) post(ctx context.Context, msg models.Notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// retryableLogger adapts zap to go-retryablehttp's Printf logger.
type retryableLogger struct {
	logger *zap.Logger
}

func (r *retryableLogger) Printf(format string, v ...interface{}) {
	r.logger.Debug(fmt.Sprintf(format, v...))
}
