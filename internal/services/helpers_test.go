package services

import (
	"context"
	"testing"
	"time"

	"github.com/mvibe/marketplace/internal/config"
	"github.com/mvibe/marketplace/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testRedisDisabled = config.RedisConfig{}

func seedProfile(t *testing.T, db *gorm.DB, id, fullName, color string) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: id, FullName: fullName, Username: id, CardColor: color}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedProject(t *testing.T, db *gorm.DB, owner, title string, views int64, createdAt time.Time) *models.Project {
	t.Helper()
	p := &models.Project{
		UserID:      owner,
		Title:       title,
		URL:         "https://example.com/" + title,
		Description: title + " app",
		Views:       views,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedReview(t *testing.T, db *gorm.DB, projectID, userID string, rating int) {
	t.Helper()
	require.NoError(t, db.Create(&models.Review{
		ProjectID: projectID,
		UserID:    userID,
		Rating:    rating,
		Comment:   "ok",
	}).Error)
}

func titles(projects []models.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Title
	}
	return out
}

func validInput() *ProjectInput {
	return &ProjectInput{
		Title:       "Calc",
		URL:         "https://calc.example.com",
		Description: "A calculator",
	}
}

var bg = context.Background()
