package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mvibe/marketplace/internal/models"
	"gorm.io/gorm"
)

// Palette is the fixed set of card background colors a profile can pick.
var Palette = []string{
	"#eec9d2",
	"#f4b6c2",
	"#f6eac2",
	"#eee6ab",
	"#a8e6cf",
	"#dcedc1",
	"#ffd3b6",
	"#ffaaa5",
	"#ff8b94",
}

// NormalizeColor lowercases c and reports whether it is a palette entry.
func NormalizeColor(c string) (string, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, p := range Palette {
		if p == c {
			return c, true
		}
	}
	return "", false
}

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Get returns the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Ensure returns the profile of u, creating it from the token metadata when
// the provider has not provisioned one yet. Existing rows are not modified.
func (s *ProfileService) Ensure(ctx context.Context, u *AuthUser) (*models.Profile, error) {
	profile := models.Profile{ID: u.ID}
	err := s.db.WithContext(ctx).
		Where(models.Profile{ID: u.ID}).
		Attrs(models.Profile{
			FullName:  u.FullName,
			Username:  u.UserName,
			AvatarURL: u.AvatarURL,
		}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("ensure profile %s: %w", u.ID, err)
	}
	return &profile, nil
}

// UpdateColor sets the card color of u's profile. changed is false when the
// color was already selected. Concurrent writers: last write wins.
func (s *ProfileService) UpdateColor(ctx context.Context, u *AuthUser, color string) (profile *models.Profile, changed bool, err error) {
	color, ok := NormalizeColor(color)
	if !ok {
		return nil, false, ErrInvalidColor
	}

	profile, err = s.Ensure(ctx, u)
	if err != nil {
		return nil, false, err
	}
	if profile.CardColor == color {
		return profile, false, nil
	}

	if err := s.db.WithContext(ctx).Model(profile).Update("card_color", color).Error; err != nil {
		return nil, false, fmt.Errorf("update color of %s: %w", u.ID, err)
	}
	profile.CardColor = color
	return profile, true, nil
}
