package domain

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/models"
)

// BaseHandler carries what every JSON handler needs to report errors consistently.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// ErrorResponse is the only error body shape the API returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondError maps a domain error onto a status code and the {error} body.
// Client-caused errors echo their message; everything else is reported generically.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	status, msg := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// StatusFor resolves the HTTP status and client-visible message for err.
func StatusFor(err error) (int, string) {
	var (
		vErr     *models.ValidationError
		priceErr *models.PriceNotConfiguredError
		sigErr   *models.SignatureError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Message
	case errors.As(err, &priceErr):
		return http.StatusBadRequest, priceErr.Error()
	case errors.As(err, &sigErr):
		return http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrSubmissionNotPending), errors.Is(err, models.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrPaymentsUnavailable):
		return http.StatusServiceUnavailable, "Payment processing is not configured"
	case errors.Is(err, models.ErrWebhookUnavailable):
		return http.StatusServiceUnavailable, "Webhook processing is not configured"
	case errors.Is(err, models.ErrDatabaseUnavailable):
		return http.StatusServiceUnavailable, "Database is not configured"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
