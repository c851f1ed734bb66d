package models

import (
	"errors"
	"fmt"
)

// Domain specific errors for the submission and payment flows.
var (
	ErrNotFound             = errors.New("requested item not found")
	ErrConflict             = errors.New("item already exists or conflict")
	ErrBadRequest           = errors.New("bad request")
	ErrValidation           = errors.New("validation failed")
	ErrPaymentsUnavailable  = errors.New("payment processing is not configured")
	ErrWebhookUnavailable   = errors.New("webhook processing is not configured")
	ErrDatabaseUnavailable  = errors.New("database is not configured")
	ErrSubmissionNotPending = errors.New("submission is no longer pending")
	ErrPersistence          = errors.New("persistence failure")
)

// ValidationCode identifies which submission rule failed.
type ValidationCode string

const (
	ValidationMissingFields ValidationCode = "missing_fields"
	ValidationInvalidType   ValidationCode = "invalid_type"
	ValidationInvalidEmail  ValidationCode = "invalid_email"
	ValidationTierMismatch  ValidationCode = "tier_mismatch"
)

// ValidationError is a client-caused failure whose message is shown to the end user verbatim.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PriceNotConfiguredError names the price key that has no configured identifier.
type PriceNotConfiguredError struct {
	Key string
}

func (e *PriceNotConfiguredError) Error() string {
	return fmt.Sprintf("no price configured for %s", e.Key)
}

// SignatureError is returned when a webhook payload fails verification.
type SignatureError struct {
	Reason error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Reason)
}

func (e *SignatureError) Unwrap() error { return e.Reason }
