package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/middleware"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/pkg/logger"
	"github.com/mvibe/marketplace/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService    *services.AuthService
	profileService *services.ProfileService
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		authService:    services.NewAuthService(db),
		profileService: services.NewProfileService(db),
	}
}

// GetCurrentUser returns the signed-in user and their profile.
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user := middleware.GetAuthUser(c)

	profile, err := h.profileService.Ensure(c.Request.Context(), user)
	if err != nil {
		// the token is still authoritative for identity
		logger.FromGin(c).Error().Err(err).Str("user_id", user.ID).Msg("Error fetching profile")
		response.Success(c, gin.H{"user": user, "profile": nil})
		return
	}

	response.Success(c, gin.H{"user": user, "profile": profile})
}

// Logout revokes the presented access token until it expires.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Revoke(c.Request.Context(), middleware.GetToken(c), middleware.GetClaims(c)); err != nil {
		respondError(c, err, "Failed to sign out")
		return
	}
	response.Success(c, gin.H{"message": "signed out"})
}
