package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/middleware"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/pkg/logger"
	"github.com/mvibe/marketplace/pkg/response"
	"gorm.io/gorm"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	hub           *services.SSEHub
}

func NewReviewHandler(db *gorm.DB, hub *services.SSEHub) *ReviewHandler {
	return &ReviewHandler{
		reviewService: services.NewReviewService(db),
		hub:           hub,
	}
}

// List returns the reviews of a project, newest first.
// GET /api/projects/:id/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	projectID := c.Param("id")
	reviews, err := h.reviewService.List(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "Failed to load reviews")
		return
	}

	summary, err := h.reviewService.Summary(c.Request.Context(), projectID)
	if err != nil {
		logger.FromGin(c).Error().Err(err).Msg("Error fetching rating summary")
		summary = services.RatingSummary{ProjectID: projectID}
	}

	response.Success(c, gin.H{"items": reviews, "summary": summary})
}

// Submit records the viewer's review and returns the refreshed list.
// POST /api/projects/:id/reviews
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	projectID := c.Param("id")
	result, err := h.reviewService.Submit(c.Request.Context(), userID, projectID, &req)
	if err != nil {
		respondError(c, err, MsgReviewFailed)
		return
	}

	h.hub.Notify(services.EventReviewCreated, projectID, userID)
	response.Created(c, result)
}
