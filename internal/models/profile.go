package models

import "time"

// Profile is per-user display metadata. Its ID mirrors the auth provider's
// user ID; rows are normally provisioned at signup.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	FullName  string    `gorm:"size:200" json:"full_name,omitempty"`
	Username  string    `gorm:"size:100" json:"username,omitempty"`
	AvatarURL string    `gorm:"size:500" json:"avatar_url,omitempty"`
	CardColor string    `gorm:"size:20" json:"card_color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// DisplayName falls back from full name to username to a generic label.
func (p *Profile) DisplayName() string {
	if p == nil {
		return "User"
	}
	if p.FullName != "" {
		return p.FullName
	}
	if p.Username != "" {
		return p.Username
	}
	return "User"
}
