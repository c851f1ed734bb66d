package submissions

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

// CreateSubmission handles POST /submissions.
func (h *Handler) CreateSubmission(c *gin.Context) {
	var input models.CreateSubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.Logger.Debug("Invalid submission body", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	submission, err := h.service.CreateSubmission(c.Request.Context(), input)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// GetSubmissionBySession handles GET /checkout-sessions/:session_id/submission.
func (h *Handler) GetSubmissionBySession(c *gin.Context) {
	view, err := h.service.GetSubmissionBySession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
