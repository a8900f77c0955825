package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mvibe/marketplace/internal/models"
	"gorm.io/gorm"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// ReviewInput is a review submission. A missing rating means 5.
type ReviewInput struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

// Validate applies the rating default and checks both fields.
func (in *ReviewInput) Validate() (rating int, comment string, err error) {
	rating = models.DefaultRating
	if in.Rating != nil {
		rating = *in.Rating
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return 0, "", ErrInvalidRating
	}

	comment = strings.TrimSpace(in.Comment)
	if comment == "" {
		return 0, "", ErrEmptyComment
	}
	return rating, comment, nil
}

// ReviewResult is the state a client shows after a successful submission.
type ReviewResult struct {
	Review  *models.Review  `json:"review"`
	Reviews []models.Review `json:"reviews"`
	Summary RatingSummary   `json:"summary"`
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "full_name", "username", "avatar_url")
}

// List returns the reviews of a project with author names, newest first.
func (s *ReviewService) List(ctx context.Context, projectID string) ([]models.Review, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.list(ctx, projectID)
}

func (s *ReviewService) list(ctx context.Context, projectID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).
		Preload("Author", withAuthor).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews of %s: %w", projectID, err)
	}
	return reviews, nil
}

func (s *ReviewService) ensureProject(ctx context.Context, projectID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Summary computes the rating aggregate of one project.
func (s *ReviewService) Summary(ctx context.Context, projectID string) (RatingSummary, error) {
	summaries, err := loadRatingSummaries(ctx, s.db, []string{projectID})
	if err != nil {
		return RatingSummary{}, err
	}
	if summary, ok := summaries[projectID]; ok {
		return summary, nil
	}
	return RatingSummary{ProjectID: projectID}, nil
}

// Submit records a review by userID. The owner cannot review their own
// project and a user reviews a project at most once. On success the review
// list is read back from the store together with the new aggregate.
func (s *ReviewService) Submit(ctx context.Context, userID, projectID string, in *ReviewInput) (*ReviewResult, error) {
	rating, comment, err := in.Validate()
	if err != nil {
		return nil, err
	}

	var project models.Project
	err = s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	if IsOwner(userID, &project) {
		return nil, ErrSelfReview
	}

	review := models.Review{
		ProjectID: projectID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	reviews, err := s.list(ctx, projectID)
	if err != nil {
		return nil, err
	}
	summary, err := s.Summary(ctx, projectID)
	if err != nil {
		return nil, err
	}
	created := &review
	for i := range reviews {
		if reviews[i].ID == review.ID {
			created = &reviews[i]
			break
		}
	}
	return &ReviewResult{Review: created, Reviews: reviews, Summary: summary}, nil
}
