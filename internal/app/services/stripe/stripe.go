// Package stripe wraps the Stripe API calls used by checkout and webhook processing.
package stripe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
	"github.com/atlvibes/atl-vibes-views/internal/app/observability/metrics"
)

const customerCacheTTL = 10 * time.Minute

// StripeProvider talks to Stripe with the configured secret key and verifies
// webhook deliveries with the endpoint secret.
type StripeProvider struct {
	apiKey        string
	webhookSecret string
	customers     *cache.Cache
	logger        *zap.Logger
}

// NewStripeProvider creates a new Stripe payment provider.
func NewStripeProvider(apiKey, webhookSecret string, logger *zap.Logger) *StripeProvider {
	if apiKey != "" {
		stripe.Key = apiKey
	}
	return &StripeProvider{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		customers:     cache.New(customerCacheTTL, 2*customerCacheTTL),
		logger:        logger,
	}
}

// Enabled reports whether API calls can be made.
func (s *StripeProvider) Enabled() bool {
	return s.apiKey != ""
}

// WebhookEnabled reports whether deliveries can be verified.
func (s *StripeProvider) WebhookEnabled() bool {
	return s.apiKey != "" && s.webhookSecret != ""
}

// FindOrCreateCustomer returns the id of the first customer registered under email,
// creating one when none exists.
func (s *StripeProvider) FindOrCreateCustomer(ctx context.Context, email, name string) (string, error) {
	ctx, span := otel.Tracer("StripeProvider").Start(ctx, "FindOrCreateCustomer")
	defer span.End()

	key := strings.ToLower(strings.TrimSpace(email))
	if id, ok := s.customers.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return id.(string), nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	listParams := &stripe.CustomerListParams{Email: stripe.String(key)}
	listParams.Limit = stripe.Int64(1)
	listParams.Context = ctx
	iter := customer.List(listParams)
	var customerID string
	if iter.Next() {
		customerID = iter.Customer().ID
	}
	s.observe(ctx, "customer.list", start)
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "customer lookup failed")
		return "", fmt.Errorf("failed to list customers: %w", err)
	}

	if customerID == "" {
		start = time.Now()
		params := &stripe.CustomerParams{Email: stripe.String(key)}
		if name != "" {
			params.Name = stripe.String(name)
		}
		params.Context = ctx
		c, err := customer.New(params)
		s.observe(ctx, "customer.create", start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "customer creation failed")
			return "", fmt.Errorf("failed to create customer: %w", err)
		}
		customerID = c.ID
		s.logger.Debug("Created Stripe customer", zap.String("customer_id", customerID))
	}

	s.customers.Set(key, customerID, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "")
	return customerID, nil
}

// CreateCheckoutSession opens a hosted checkout page with a single line item.
// In subscription mode the metadata is copied onto the subscription as well.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, p models.CheckoutSessionParams) (*models.CheckoutSession, error) {
	ctx, span := otel.Tracer("StripeProvider").Start(ctx, "CreateCheckoutSession")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.mode", string(p.Mode)))

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(p.Mode)),
		Customer: stripe.String(p.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.Mode == models.CheckoutModeSubscription {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: p.Metadata,
		}
	}
	params.Context = ctx

	start := time.Now()
	sess, err := session.New(params)
	s.observe(ctx, "checkout.session.create", start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout session creation failed")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return &models.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw payload and
// only then decodes the event.
func (s *StripeProvider) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, &models.SignatureError{Reason: err}
	}
	return event, nil
}

func (s *StripeProvider) observe(ctx context.Context, op string, start time.Time) {
	metrics.Get().StripeRequestDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("operation", op)))
}
