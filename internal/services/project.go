package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mvibe/marketplace/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// ProjectInput is the editable field set shared by create and update.
type ProjectInput struct {
	Title       string   `json:"title" binding:"required"`
	URL         string   `json:"url" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Screenshots []string `json:"screenshots"`
}

// normalize trims every field and checks the invariants of a listing.
func (in *ProjectInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidProject)
	case in.URL == "":
		return fmt.Errorf("%w: url is required", ErrInvalidProject)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidProject)
	}
	if !isWebURL(in.URL) {
		return fmt.Errorf("%w: url must be an http(s) address", ErrInvalidProject)
	}

	shots := make([]string, 0, len(in.Screenshots))
	for _, s := range in.Screenshots {
		if s = strings.TrimSpace(s); s != "" {
			shots = append(shots, s)
		}
	}
	if len(shots) > models.MaxScreenshots {
		return ErrScreenshotLimit
	}
	for _, shot := range shots {
		if !isScreenshotURL(shot) {
			return fmt.Errorf("%w: screenshot %q is not an image address", ErrInvalidProject, shot)
		}
	}
	in.Screenshots = shots
	return nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isScreenshotURL accepts http(s) addresses and the root-relative paths the
// local object store publishes.
func isScreenshotURL(raw string) bool {
	if isWebURL(raw) {
		return true
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// ListPublished returns every published project with owner and rating
// aggregates, in the requested order.
func (s *ProjectService) ListPublished(ctx context.Context, mode SortMode) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("status = ?", models.ProjectStatusPublished).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if err := attachRatings(ctx, s.db, projects); err != nil {
		return nil, err
	}
	return SortProjects(projects, mode), nil
}

// ListByOwner returns only the projects owned by userID, any status.
func (s *ProjectService) ListByOwner(ctx context.Context, userID string, mode SortMode) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects of %s: %w", userID, err)
	}
	if err := attachRatings(ctx, s.db, projects); err != nil {
		return nil, err
	}
	return SortProjects(projects, mode), nil
}

// GetByID returns a project with its owner and rating aggregate.
func (s *ProjectService) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Preload("Owner").First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	list := []models.Project{project}
	if err := attachRatings(ctx, s.db, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// getOwned loads a project and checks that userID owns it.
func (s *ProjectService) getOwned(ctx context.Context, userID, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	if !IsOwner(userID, &project) {
		return nil, ErrNotOwner
	}
	return &project, nil
}

// Create inserts a published project owned by userID.
func (s *ProjectService) Create(ctx context.Context, userID string, in *ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	project := models.Project{
		UserID:      userID,
		Title:       in.Title,
		URL:         in.URL,
		Description: in.Description,
		Status:      models.ProjectStatusPublished,
		Screenshots: in.Screenshots,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &project, nil
}

// Update replaces the editable fields of a project owned by userID.
func (s *ProjectService) Update(ctx context.Context, userID, id string, in *ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	project, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changes := models.Project{
		Title:       in.Title,
		URL:         in.URL,
		Description: in.Description,
		Screenshots: in.Screenshots,
		UpdatedAt:   time.Now(),
	}
	err = s.db.WithContext(ctx).
		Model(project).
		Select("title", "url", "description", "screenshots", "updated_at").
		Updates(&changes).Error
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a project owned by userID. Nothing is touched unless the
// caller confirmed the deletion. Reviews and stored screenshots are left as is.
func (s *ProjectService) Delete(ctx context.Context, userID, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	project, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(project).Error; err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// CheckScreenshotCapacity fails with ErrScreenshotLimit when the project
// owned by userID already holds the maximum number of screenshots. Uploads
// call it before anything is written to object storage.
func (s *ProjectService) CheckScreenshotCapacity(ctx context.Context, userID, id string) (*models.Project, error) {
	project, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(project.Screenshots) >= models.MaxScreenshots {
		return nil, ErrScreenshotLimit
	}
	return project, nil
}

// AddScreenshot appends one screenshot URL to a project owned by userID.
func (s *ProjectService) AddScreenshot(ctx context.Context, userID, id, shotURL string) (*models.Project, error) {
	shotURL = strings.TrimSpace(shotURL)
	if shotURL == "" {
		return nil, fmt.Errorf("%w: screenshot url is required", ErrInvalidProject)
	}
	if !isScreenshotURL(shotURL) {
		return nil, fmt.Errorf("%w: screenshot %q is not an image address", ErrInvalidProject, shotURL)
	}

	project, err := s.CheckScreenshotCapacity(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	shots := append(append([]string{}, project.Screenshots...), shotURL)
	if err := s.saveScreenshots(ctx, project, shots); err != nil {
		return nil, err
	}
	return project, nil
}

// RemoveScreenshot drops the screenshot at index, keeping the others in order.
func (s *ProjectService) RemoveScreenshot(ctx context.Context, userID, id string, index int) (*models.Project, error) {
	project, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(project.Screenshots) {
		return nil, ErrScreenshotIndex
	}

	shots := make([]string, 0, len(project.Screenshots)-1)
	shots = append(shots, project.Screenshots[:index]...)
	shots = append(shots, project.Screenshots[index+1:]...)
	if err := s.saveScreenshots(ctx, project, shots); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) saveScreenshots(ctx context.Context, project *models.Project, shots []string) error {
	changes := models.Project{Screenshots: shots, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Model(project).
		Select("screenshots", "updated_at").
		Updates(&changes).Error
	if err != nil {
		return fmt.Errorf("save screenshots of %s: %w", project.ID, err)
	}
	project.Screenshots = shots
	project.UpdatedAt = changes.UpdatedAt
	return nil
}

// IncrementViews bumps the view counter of a project by one.
func (s *ProjectService) IncrementViews(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Stats returns catalog-wide totals for metrics.
func (s *ProjectService) Stats(ctx context.Context) (projects, reviews, views int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Project{}).Count(&projects).Error; err != nil {
		return
	}
	if err = db.Model(&models.Review{}).Count(&reviews).Error; err != nil {
		return
	}
	err = db.Model(&models.Project{}).Select("COALESCE(SUM(views), 0)").Scan(&views).Error
	return
}

// ProcessView is the ViewProcessor behind the task queue. Views of
// projects deleted in the meantime are dropped.
func (s *ProjectService) ProcessView(ctx context.Context, task *ViewTask) error {
	err := s.IncrementViews(ctx, task.ProjectID)
	if errors.Is(err, ErrProjectNotFound) {
		return nil
	}
	return err
}
