package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mvibe/marketplace/internal/models"
	"github.com/mvibe/marketplace/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuthUser is the signed-in user as described by the auth provider's token.
type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

func AuthUserFromClaims(claims *utils.Claims) *AuthUser {
	return &AuthUser{
		ID:        claims.Subject,
		Email:     claims.Email,
		AvatarURL: claims.UserMetadata.AvatarURL,
		FullName:  claims.UserMetadata.FullName,
		UserName:  claims.UserMetadata.UserName,
	}
}

// AuthService tracks signed-out tokens. Tokens are issued and refreshed by
// the external provider; this service only remembers which ones the user
// gave up before they expired.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Revoke marks token as signed out until its own expiry.
func (s *AuthService) Revoke(ctx context.Context, token string, claims *utils.Claims) error {
	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	record := models.RevokedToken{
		TokenHash: utils.HashToken(token),
		UserID:    claims.Subject,
		ExpiresAt: expiresAt,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token_hash"}}, DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether token was signed out.
func (s *AuthService) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("token_hash = ?", utils.HashToken(token)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpired drops revocations whose token has expired anyway.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
