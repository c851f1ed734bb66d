package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/domain"
)

const (
	SignatureHeader = "Stripe-Signature"
	maxBodyBytes    = int64(65536)
)

type EventHandler interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type Handler struct {
	*domain.BaseHandler
	processor EventHandler
}

func NewHandler(processor EventHandler, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		processor:   processor,
	}
}

// HandlePaymentWebhook handles POST /webhooks/payment. The body is passed through
// untouched since the signature covers the exact bytes received.
func (h *Handler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Logger.Warn("Webhook payload too large", zap.Int64("limit_bytes", tooLarge.Limit))
			c.AbortWithStatusJSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Payload too large"})
			return
		}
		h.Logger.Warn("Failed to read webhook body", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Invalid body"})
		return
	}

	if err := h.processor.HandleEvent(c.Request.Context(), payload, c.GetHeader(SignatureHeader)); err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
