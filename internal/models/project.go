package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProjectStatusPublished = "published"

	// MaxScreenshots caps the ordered screenshot list of a project.
	MaxScreenshots = 3
)

// Project is a community-submitted web application listing.
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;index;not null" json:"user_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	URL         string    `gorm:"size:500" json:"url,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Status      string    `gorm:"size:20;index;default:published" json:"status"`
	Views       int64     `gorm:"not null;default:0" json:"views"`
	Screenshots []string  `gorm:"serializer:json;type:text" json:"screenshots"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner *Profile `gorm:"foreignKey:UserID;references:ID" json:"owner,omitempty"`

	// Derived from reviews on read; never persisted.
	AverageRating *float64 `gorm:"-" json:"average_rating,omitempty"`
	ReviewCount   int64    `gorm:"-" json:"review_count"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = ProjectStatusPublished
	}
	if p.Screenshots == nil {
		p.Screenshots = []string{}
	}
	return nil
}

func (p *Project) AfterFind(tx *gorm.DB) error {
	if p.Screenshots == nil {
		p.Screenshots = []string{}
	}
	return nil
}

// CardColor is the owner's chosen card background, empty when unset.
func (p *Project) CardColor() string {
	if p.Owner == nil {
		return ""
	}
	return p.Owner.CardColor
}
