package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mvibe/marketplace/internal/models"
	"gorm.io/gorm"
)

// SortMode is the display order of a project list.
type SortMode string

const (
	SortNewest  SortMode = "newest"
	SortPopular SortMode = "popular"
)

// ParseSortMode accepts "", "newest" and "popular"; empty means newest.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortNewest:
		return SortNewest, nil
	case SortPopular:
		return SortPopular, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
}

// SortProjects returns a sorted copy of projects. Newest orders by creation
// time descending, popular by view count descending. Equal keys keep their
// input order.
func SortProjects(projects []models.Project, mode SortMode) []models.Project {
	out := make([]models.Project, len(projects))
	copy(out, projects)

	var less func(i, j int) bool
	switch mode {
	case SortPopular:
		less = func(i, j int) bool { return out[i].Views > out[j].Views }
	default:
		less = func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) }
	}
	sort.SliceStable(out, less)
	return out
}

// RatingSummary is the derived review aggregate of one project. The average
// is nil while the project has no reviews.
type RatingSummary struct {
	ProjectID     string   `json:"project_id"`
	AverageRating *float64 `json:"average_rating"`
	ReviewCount   int64    `json:"review_count"`
}

type ratingRow struct {
	ProjectID     string
	AverageRating float64
	ReviewCount   int64
}

// roundRating keeps one decimal, as shown on project cards.
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

func loadRatingSummaries(ctx context.Context, db *gorm.DB, projectIDs []string) (map[string]RatingSummary, error) {
	summaries := make(map[string]RatingSummary, len(projectIDs))
	if len(projectIDs) == 0 {
		return summaries, nil
	}

	var rows []ratingRow
	err := db.WithContext(ctx).
		Model(&models.Review{}).
		Select("project_id, AVG(rating) AS average_rating, COUNT(*) AS review_count").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}

	for _, row := range rows {
		avg := roundRating(row.AverageRating)
		summaries[row.ProjectID] = RatingSummary{
			ProjectID:     row.ProjectID,
			AverageRating: &avg,
			ReviewCount:   row.ReviewCount,
		}
	}
	return summaries, nil
}

// attachRatings fills the derived aggregate fields of every project in place.
func attachRatings(ctx context.Context, db *gorm.DB, projects []models.Project) error {
	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}

	summaries, err := loadRatingSummaries(ctx, db, ids)
	if err != nil {
		return err
	}

	for i := range projects {
		s, ok := summaries[projects[i].ID]
		if !ok {
			projects[i].AverageRating = nil
			projects[i].ReviewCount = 0
			continue
		}
		projects[i].AverageRating = s.AverageRating
		projects[i].ReviewCount = s.ReviewCount
	}
	return nil
}
