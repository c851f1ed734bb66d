package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type SubmissionType string

const (
	SubmissionTypeBusiness SubmissionType = "business"
	SubmissionTypeEvent    SubmissionType = "event"
	SubmissionTypeSponsor  SubmissionType = "sponsor"
)

// Listable reports whether the type can be submitted through the intake form.
func (t SubmissionType) Listable() bool {
	return t == SubmissionTypeBusiness || t == SubmissionTypeEvent
}

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

const TierFree = "free"

// Submission is a prospective business or event listing awaiting review or payment.
type Submission struct {
	ID               uuid.UUID        `json:"id"`
	SubmissionType   SubmissionType   `json:"submission_type"`
	SubmitterName    string           `json:"submitter_name"`
	SubmitterEmail   string           `json:"submitter_email"`
	Data             json.RawMessage  `json:"data"`
	Tier             string           `json:"tier"`
	Status           SubmissionStatus `json:"status"`
	StripeSessionID  *string          `json:"stripe_session_id"`
	StripeCustomerID *string          `json:"stripe_customer_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CreateSubmissionInput is the raw intake request body.
type CreateSubmissionInput struct {
	SubmissionType string          `json:"submission_type"`
	SubmitterName  string          `json:"submitter_name"`
	SubmitterEmail string          `json:"submitter_email"`
	Data           json.RawMessage `json:"data"`
	Tier           string          `json:"tier,omitempty"`
}

// SubmissionApproval carries the fields written when a checkout completes.
type SubmissionApproval struct {
	SubmissionID     uuid.UUID
	SubmissionType   SubmissionType
	Tier             string
	StripeSessionID  string
	StripeCustomerID string
}

// SubmissionStatusView is the public projection returned to the checkout success page.
type SubmissionStatusView struct {
	ID             uuid.UUID        `json:"id"`
	SubmissionType SubmissionType   `json:"submission_type"`
	Status         SubmissionStatus `json:"status"`
	Tier           string           `json:"tier"`
}
