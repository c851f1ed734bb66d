package checkout

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atlvibes/atl-vibes-views/internal/app/domain"
	"github.com/atlvibes/atl-vibes-views/internal/app/models"
)

type Handler struct {
	*domain.BaseHandler
	service Service
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		service:     service,
	}
}

// CreateCheckoutSession handles POST /checkout-sessions.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	session, err := h.service.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
