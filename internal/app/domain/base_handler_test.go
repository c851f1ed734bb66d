package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", &models.ValidationError{Code: models.ValidationInvalidEmail, Message: "Invalid email address"}, http.StatusBadRequest, "Invalid email address"},
		{"price", fmt.Errorf("resolve: %w", &models.PriceNotConfiguredError{Key: "EVENT_GOLD"}), http.StatusBadRequest, "no price configured for EVENT_GOLD"},
		{"signature", &models.SignatureError{Reason: errors.New("bad mac")}, http.StatusBadRequest, "Invalid signature"},
		{"not found", fmt.Errorf("submission x: %w", models.ErrNotFound), http.StatusNotFound, "Not found"},
		{"not pending", models.ErrSubmissionNotPending, http.StatusConflict, "submission is no longer pending"},
		{"payments off", models.ErrPaymentsUnavailable, http.StatusServiceUnavailable, "Payment processing is not configured"},
		{"webhook off", models.ErrWebhookUnavailable, http.StatusServiceUnavailable, "Webhook processing is not configured"},
		{"persistence", fmt.Errorf("%w: timeout", models.ErrPersistence), http.StatusInternalServerError, "Internal server error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
