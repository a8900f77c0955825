package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5
)

// Review is a rating and comment left by one user on one project.
// At most one review exists per (project, user).
type Review struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string    `gorm:"size:36;not null;uniqueIndex:idx_reviews_project_user,priority:1" json:"project_id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_reviews_project_user,priority:2" json:"user_id"`
	Rating    int       `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Author     *Profile `gorm:"foreignKey:UserID;references:ID" json:"author,omitempty"`
	AuthorName string   `gorm:"-" json:"author_name"`
}

func (Review) TableName() string { return "reviews" }

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// AfterFind runs after preloads, so Author is already populated when requested.
func (r *Review) AfterFind(tx *gorm.DB) error {
	r.AuthorName = r.Author.DisplayName()
	return nil
}
