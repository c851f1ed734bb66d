package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ListingTierFree     = "Free"
	MapPinStyleDefault  = "gray"
	BillingCycleMonthly = "monthly"
	BillingCycleAnnual  = "annual"
)

// BusinessListing is a published directory entry. Only the billing-related columns are mapped.
type BusinessListing struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Tier             string    `json:"tier"`
	MapPinStyle      string    `json:"map_pin_style"`
	StripeCustomerID *string   `json:"stripe_customer_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription is the recurring-billing record for a business tier.
type Subscription struct {
	ID                   uuid.UUID          `json:"id"`
	StripeCustomerID     string             `json:"stripe_customer_id"`
	StripeSubscriptionID *string            `json:"stripe_subscription_id"`
	Status               SubscriptionStatus `json:"status"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// CheckoutRequest is the body of POST /checkout-sessions.
type CheckoutRequest struct {
	SubmissionType string `json:"submission_type" validate:"required,oneof=business event sponsor"`
	Tier           string `json:"tier" validate:"required"`
	BillingCycle   string `json:"billing_cycle,omitempty"`
	SubmitterEmail string `json:"submitter_email" validate:"required,contains=@"`
	SubmitterName  string `json:"submitter_name,omitempty"`
	SubmissionID   string `json:"submission_id" validate:"required"`
}

type CheckoutMode string

const (
	CheckoutModeSubscription CheckoutMode = "subscription"
	CheckoutModePayment      CheckoutMode = "payment"
)

// CheckoutSessionParams is what the initiator asks the payment processor to open.
type CheckoutSessionParams struct {
	CustomerID string
	PriceID    string
	Mode       CheckoutMode
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession is the processor-hosted page returned to the client.
type CheckoutSession struct {
	ID  string `json:"-"`
	URL string `json:"url"`
}

// Checkout metadata keys round-tripped through the processor.
const (
	MetadataSubmissionID   = "submission_id"
	MetadataSubmissionType = "submission_type"
	MetadataTier           = "tier"
)
