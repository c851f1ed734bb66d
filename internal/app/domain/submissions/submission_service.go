package submissions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/domain/notifications"
	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	"github.com/atlvibes/atl-vibes-views/internal/app/observability/metrics"
	"github.com/atlvibes/atl-vibes-views/internal/pkg/background"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the submission intake contract.
type Service interface {
	CreateSubmission(ctx context.Context, input models.CreateSubmissionInput) (*models.Submission, error)
	GetSubmissionBySession(ctx context.Context, sessionID string) (*models.SubmissionStatusView, error)
}

// Dispatcher starts detached work; satisfied by *background.Runner.
type Dispatcher interface {
	Go(parent context.Context, name string, task background.Task)
}

type ServiceImpl struct {
	logger     *zap.Logger
	repo       Repository
	notifier   notifications.Notifier
	dispatcher Dispatcher
	adminEmail string
	now        func() time.Time
}

func NewService(repo Repository, notifier notifications.Notifier, dispatcher Dispatcher, adminEmail string, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		notifier:   notifier,
		dispatcher: dispatcher,
		adminEmail: adminEmail,
		now:        time.Now,
	}
}

// CreateSubmission validates, normalizes and stores a pending submission, then hands
// both notifications to the dispatcher without waiting for them.
func (s *ServiceImpl) CreateSubmission(ctx context.Context, input models.CreateSubmissionInput) (*models.Submission, error) {
	ctx, span := otel.Tracer("SubmissionService").Start(ctx, "CreateSubmission", trace.WithAttributes(
		attribute.String("submission.type", input.SubmissionType),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreateSubmission"), zap.String("submission_type", input.SubmissionType))
	l.Debug("Creating submission")

	if err := validateSubmission(input); err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			metrics.Get().SubmissionsRejectedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(vErr.Code))))
		}
		l.Info("Submission rejected", zap.Error(err))
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	tier := strings.ToLower(strings.TrimSpace(input.Tier))
	if tier == "" {
		tier = models.TierFree
	}

	now := s.now().UTC()
	submission := &models.Submission{
		ID:             uuid.New(),
		SubmissionType: models.SubmissionType(input.SubmissionType),
		SubmitterName:  strings.TrimSpace(input.SubmitterName),
		SubmitterEmail: strings.ToLower(strings.TrimSpace(input.SubmitterEmail)),
		Data:           input.Data,
		Tier:           tier,
		Status:         models.SubmissionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, submission); err != nil {
		l.Error("Failed to persist submission", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist submission")
		metrics.Get().DBQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "create_submission")))
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	s.notify(ctx, models.Notification{
		Type:           models.NotificationSubmissionConfirmation,
		ToEmail:        submission.SubmitterEmail,
		SubmitterName:  submission.SubmitterName,
		SubmissionType: submission.SubmissionType,
	})
	s.notify(ctx, models.Notification{
		Type:           models.NotificationAdminNewSubmission,
		ToEmail:        s.adminEmail,
		SubmitterName:  submission.SubmitterName,
		SubmissionType: submission.SubmissionType,
	})

	metrics.Get().SubmissionsCreatedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(submission.SubmissionType))))
	l.Info("Submission created", zap.String("submission_id", submission.ID.String()))
	span.SetStatus(codes.Ok, "Submission created")
	return submission, nil
}

func (s *ServiceImpl) notify(ctx context.Context, n models.Notification) {
	s.dispatcher.Go(ctx, string(n.Type), func(taskCtx context.Context) error {
		s.notifier.Notify(taskCtx, n)
		return nil
	})
}

// GetSubmissionBySession returns the public status of the submission a checkout session belongs to.
func (s *ServiceImpl) GetSubmissionBySession(ctx context.Context, sessionID string) (*models.SubmissionStatusView, error) {
	ctx, span := otel.Tracer("SubmissionService").Start(ctx, "GetSubmissionBySession")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", models.ErrBadRequest)
	}

	view, err := s.repo.GetStatusBySessionID(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load submission status")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return view, nil
}

// validateSubmission applies the intake rules in a fixed order so the first failing
// rule determines the message.
func validateSubmission(in models.CreateSubmissionInput) error {
	if in.SubmissionType == "" || strings.TrimSpace(in.SubmitterName) == "" ||
		strings.TrimSpace(in.SubmitterEmail) == "" || !hasData(in.Data) {
		return &models.ValidationError{
			Code:    models.ValidationMissingFields,
			Message: "Missing required fields: submission_type, submitter_name, submitter_email, data",
		}
	}
	if !models.SubmissionType(in.SubmissionType).Listable() {
		return &models.ValidationError{
			Code:    models.ValidationInvalidType,
			Message: "submission_type must be 'business' or 'event'",
		}
	}
	// Deliberately loose: the confirmation email is the real deliverability check.
	if !strings.Contains(in.SubmitterEmail, "@") {
		return &models.ValidationError{
			Code:    models.ValidationInvalidEmail,
			Message: "Invalid email address",
		}
	}
	return nil
}

func hasData(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
