package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/middleware"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/pkg/response"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	profileService   *services.ProfileService
	systemLogService *services.SystemLogService
	hub              *services.SSEHub
}

func NewProfileHandler(db *gorm.DB, hub *services.SSEHub) *ProfileHandler {
	return &ProfileHandler{
		profileService:   services.NewProfileService(db),
		systemLogService: services.NewSystemLogService(db),
		hub:              hub,
	}
}

// Get returns the viewer's profile, creating it on first access.
// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profileService.Ensure(c.Request.Context(), middleware.GetAuthUser(c))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	response.Success(c, profile)
}

// GetByID returns another user's public profile.
// GET /api/profiles/:id
func (h *ProfileHandler) GetByID(c *gin.Context) {
	profile, err := h.profileService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	response.Success(c, profile)
}

// Palette lists the selectable card colors.
// GET /api/profile/palette
func (h *ProfileHandler) Palette(c *gin.Context) {
	response.Success(c, gin.H{"colors": services.Palette})
}

type colorRequest struct {
	Color string `json:"color" binding:"required"`
}

// UpdateColor persists the viewer's card color.
// PUT /api/profile/color
func (h *ProfileHandler) UpdateColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user := middleware.GetAuthUser(c)
	profile, changed, err := h.profileService.UpdateColor(c.Request.Context(), user, req.Color)
	if err != nil {
		respondError(c, err, MsgColorFailed)
		return
	}

	if changed {
		h.hub.Notify(services.EventProfileColor, "", user.ID)
	}
	response.Success(c, profile)
}

// Activity pages through the viewer's own audit trail.
// GET /api/profile/activity
func (h *ProfileHandler) Activity(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.systemLogService.ListByUser(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "Failed to load activity")
		return
	}
	response.Success(c, resp)
}
