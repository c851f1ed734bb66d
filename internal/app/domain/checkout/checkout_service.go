package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/domain/pricing"
	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	"github.com/atlvibes/atl-vibes-views/internal/app/observability/metrics"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error)
}

// PaymentProvider is the slice of the payment processor the initiator needs.
type PaymentProvider interface {
	Enabled() bool
	FindOrCreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, params models.CheckoutSessionParams) (*models.CheckoutSession, error)
}

// SubmissionStore loads the submission being paid for and records the session on it.
type SubmissionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	AttachCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
}

type PriceResolver interface {
	Resolve(submissionType, tier, billingCycle string) (string, bool)
}

type ServiceImpl struct {
	logger      *zap.Logger
	payments    PaymentProvider
	submissions SubmissionStore
	prices      PriceResolver
	validate    *validator.Validate
	baseURL     string
}

func NewService(payments PaymentProvider, submissions SubmissionStore, prices PriceResolver, publicBaseURL string, logger *zap.Logger) *ServiceImpl {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ServiceImpl{
		logger:      logger,
		payments:    payments,
		submissions: submissions,
		prices:      prices,
		validate:    v,
		baseURL:     strings.TrimRight(publicBaseURL, "/"),
	}
}

// CreateCheckoutSession resolves the price for the request, makes sure the processor
// knows the customer and opens a hosted checkout page for the submission.
func (s *ServiceImpl) CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	ctx, span := otel.Tracer("CheckoutService").Start(ctx, "CreateCheckoutSession", trace.WithAttributes(
		attribute.String("submission.type", req.SubmissionType),
		attribute.String("submission.tier", req.Tier),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreateCheckoutSession"),
		zap.String("submission_type", req.SubmissionType),
		zap.String("submission_id", req.SubmissionID))

	session, err := s.createSession(ctx, l, req)
	outcome := "created"
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create checkout session")
	} else {
		span.SetStatus(codes.Ok, "Checkout session created")
	}
	metrics.Get().CheckoutSessionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", req.SubmissionType),
		attribute.String("outcome", outcome),
	))
	return session, err
}

func (s *ServiceImpl) createSession(ctx context.Context, l *zap.Logger, req models.CheckoutRequest) (*models.CheckoutSession, error) {
	if s.payments == nil || !s.payments.Enabled() {
		l.Warn("STRIPE_SECRET_KEY not set, refusing checkout")
		return nil, models.ErrPaymentsUnavailable
	}

	req.SubmissionType = strings.ToLower(strings.TrimSpace(req.SubmissionType))
	req.Tier = strings.ToLower(strings.TrimSpace(req.Tier))
	req.BillingCycle = strings.ToLower(strings.TrimSpace(req.BillingCycle))
	req.SubmitterEmail = strings.TrimSpace(req.SubmitterEmail)
	req.SubmissionID = strings.TrimSpace(req.SubmissionID)

	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	priceID, ok := s.prices.Resolve(req.SubmissionType, req.Tier, req.BillingCycle)
	if !ok {
		key, _ := pricing.Key(req.SubmissionType, req.Tier, req.BillingCycle)
		l.Error("No price configured", zap.String("price_key", key))
		return nil, &models.PriceNotConfiguredError{Key: key}
	}

	submissionType := models.SubmissionType(req.SubmissionType)
	var submissionID uuid.UUID
	if submissionType.Listable() {
		sub, err := s.loadPendingSubmission(ctx, req)
		if err != nil {
			l.Info("Checkout refused for submission", zap.Error(err))
			return nil, err
		}
		submissionID = sub.ID
	}

	customerID, err := s.payments.FindOrCreateCustomer(ctx, req.SubmitterEmail, strings.TrimSpace(req.SubmitterName))
	if err != nil {
		l.Error("Failed to find or create customer", zap.Error(err))
		return nil, err
	}

	mode := models.CheckoutModePayment
	if submissionType == models.SubmissionTypeBusiness {
		mode = models.CheckoutModeSubscription
	}

	session, err := s.payments.CreateCheckoutSession(ctx, models.CheckoutSessionParams{
		CustomerID: customerID,
		PriceID:    priceID,
		Mode:       mode,
		SuccessURL: s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/checkout/cancel",
		Metadata: map[string]string{
			models.MetadataSubmissionID:   req.SubmissionID,
			models.MetadataSubmissionType: req.SubmissionType,
			models.MetadataTier:           req.Tier,
		},
	})
	if err != nil {
		l.Error("Failed to create checkout session", zap.Error(err))
		return nil, err
	}

	if submissionID != uuid.Nil {
		if err := s.submissions.AttachCheckoutSession(ctx, submissionID, session.ID); err != nil {
			l.Warn("Failed to record checkout session on submission", zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	l.Info("Checkout session created", zap.String("session_id", session.ID), zap.String("mode", string(mode)))
	return session, nil
}

// loadPendingSubmission checks the request against the stored submission so the
// metadata echoed back on completion can only describe a real pending submission.
func (s *ServiceImpl) loadPendingSubmission(ctx context.Context, req models.CheckoutRequest) (*models.Submission, error) {
	id, err := uuid.Parse(req.SubmissionID)
	if err != nil {
		return nil, &models.ValidationError{Code: models.ValidationMissingFields, Message: "submission_id must be a valid id"}
	}

	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubmissionStatusPending {
		return nil, fmt.Errorf("submission %s is %s: %w", id, sub.Status, models.ErrSubmissionNotPending)
	}
	if string(sub.SubmissionType) != req.SubmissionType || !strings.EqualFold(sub.Tier, req.Tier) {
		return nil, &models.ValidationError{
			Code:    models.ValidationTierMismatch,
			Message: "submission_type and tier must match the submission",
		}
	}
	return sub, nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &models.ValidationError{Code: models.ValidationMissingFields, Message: "Invalid checkout request"}
	}

	var missing []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return &models.ValidationError{
			Code:    models.ValidationMissingFields,
			Message: "Missing required fields: " + strings.Join(missing, ", "),
		}
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "submitter_email":
		return &models.ValidationError{Code: models.ValidationInvalidEmail, Message: "Invalid email address"}
	case "submission_type":
		return &models.ValidationError{Code: models.ValidationInvalidType, Message: "submission_type must be one of: business, event, sponsor"}
	default:
		return &models.ValidationError{Code: models.ValidationMissingFields, Message: fmt.Sprintf("Invalid value for %s", fe.Field())}
	}
}
