// Package webhooks applies signed payment-processor events to local state.
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	"github.com/atlvibes/atl-vibes-views/internal/app/observability/metrics"
)

var errMissingSignature = errors.New("missing signature header")

// EventVerifier authenticates a delivery and decodes it into an event.
type EventVerifier interface {
	WebhookEnabled() bool
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

type SubmissionApprover interface {
	Approve(ctx context.Context, approval models.SubmissionApproval) (bool, error)
}

type BillingStore interface {
	DowngradeByCustomer(ctx context.Context, customerID string) (int64, error)
	MarkPastDue(ctx context.Context, customerID string) (int64, error)
}

type Processor struct {
	logger      *zap.Logger
	verifier    EventVerifier
	submissions SubmissionApprover
	billing     BillingStore
	ledger      EventLedger
}

func NewProcessor(verifier EventVerifier, submissions SubmissionApprover, billing BillingStore, ledger EventLedger, logger *zap.Logger) *Processor {
	return &Processor{
		logger:      logger,
		verifier:    verifier,
		submissions: submissions,
		billing:     billing,
		ledger:      ledger,
	}
}

// HandleEvent verifies the delivery, skips events already applied, and applies the
// transition for the event type. A nil return means the delivery can be acknowledged.
func (p *Processor) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	ctx, span := otel.Tracer("WebhookProcessor").Start(ctx, "HandleEvent")
	defer span.End()

	l := p.logger.With(zap.String("method", "HandleEvent"))

	if p.verifier == nil || !p.verifier.WebhookEnabled() ||
		p.submissions == nil || p.billing == nil || p.ledger == nil {
		l.Error("Webhook received but processing is not configured")
		span.SetStatus(codes.Error, "not configured")
		return models.ErrWebhookUnavailable
	}

	if signature == "" {
		l.Warn("Webhook rejected", zap.Error(errMissingSignature))
		p.count(ctx, "unknown", "rejected")
		return &models.SignatureError{Reason: errMissingSignature}
	}

	event, err := p.verifier.ConstructEvent(payload, signature)
	if err != nil {
		l.Warn("Webhook signature verification failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "signature verification failed")
		p.count(ctx, "unknown", "rejected")
		return err
	}

	eventType := string(event.Type)
	span.SetAttributes(attribute.String("event.id", event.ID), attribute.String("event.type", eventType))
	l = l.With(zap.String("event_id", event.ID), zap.String("event_type", eventType))

	processed, err := p.ledger.IsProcessed(ctx, event.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger lookup failed")
		p.count(ctx, eventType, "failed")
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	if processed {
		l.Info("Duplicate webhook event acknowledged")
		p.count(ctx, eventType, "duplicate")
		return nil
	}

	handled, err := p.apply(ctx, l, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to apply event")
		p.count(ctx, eventType, "failed")
		return err
	}
	if !handled {
		l.Debug("Unhandled webhook event type acknowledged")
		p.count(ctx, eventType, "ignored")
		return nil
	}

	if err := p.ledger.MarkProcessed(ctx, event.ID, eventType); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger write failed")
		p.count(ctx, eventType, "failed")
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	p.count(ctx, eventType, "applied")
	span.SetStatus(codes.Ok, "event applied")
	return nil
}

// apply reports whether the event type is one this service acts on.
func (p *Processor) apply(ctx context.Context, l *zap.Logger, event stripe.Event) (bool, error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			l.Error("Malformed checkout session in signed event, acknowledging", zap.Error(err))
			return true, nil
		}
		return true, p.completeCheckout(ctx, l, &session)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			l.Error("Malformed subscription in signed event, acknowledging", zap.Error(err))
			return true, nil
		}
		customerID := customerIDOf(sub.Customer)
		if customerID == "" {
			l.Warn("Subscription deleted without customer")
			return true, nil
		}
		n, err := p.billing.DowngradeByCustomer(ctx, customerID)
		if err != nil {
			return true, fmt.Errorf("%w: %w", models.ErrPersistence, err)
		}
		l.Info("Listings downgraded", zap.String("customer_id", customerID), zap.Int64("rows", n))
		return true, nil

	case stripe.EventTypeInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			l.Error("Malformed invoice in signed event, acknowledging", zap.Error(err))
			return true, nil
		}
		customerID := customerIDOf(invoice.Customer)
		if customerID == "" {
			l.Warn("Invoice payment failed without customer")
			return true, nil
		}
		n, err := p.billing.MarkPastDue(ctx, customerID)
		if err != nil {
			return true, fmt.Errorf("%w: %w", models.ErrPersistence, err)
		}
		l.Info("Subscriptions marked past due", zap.String("customer_id", customerID), zap.Int64("rows", n))
		return true, nil

	default:
		return false, nil
	}
}

func (p *Processor) completeCheckout(ctx context.Context, l *zap.Logger, session *stripe.CheckoutSession) error {
	rawID := session.Metadata[models.MetadataSubmissionID]
	if rawID == "" {
		l.Warn("Checkout completed without submission_id", zap.String("session_id", session.ID))
		return nil
	}

	submissionType := models.SubmissionType(session.Metadata[models.MetadataSubmissionType])
	if !submissionType.Listable() {
		l.Info("Checkout completed for non-listing submission", zap.String("submission_type", string(submissionType)))
		return nil
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		l.Warn("Checkout completed with invalid submission_id", zap.String("submission_id", rawID))
		return nil
	}

	tier := session.Metadata[models.MetadataTier]
	if tier == "" {
		tier = models.TierFree
	}

	matched, err := p.submissions.Approve(ctx, models.SubmissionApproval{
		SubmissionID:     id,
		SubmissionType:   submissionType,
		Tier:             tier,
		StripeSessionID:  session.ID,
		StripeCustomerID: customerIDOf(session.Customer),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	if !matched {
		l.Warn("No approvable submission matched checkout metadata",
			zap.String("submission_id", rawID), zap.String("submission_type", string(submissionType)))
		return nil
	}

	l.Info("Submission approved", zap.String("submission_id", rawID), zap.String("tier", tier))
	return nil
}

func (p *Processor) count(ctx context.Context, eventType, outcome string) {
	metrics.Get().WebhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("outcome", outcome),
	))
}

func customerIDOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
