package models

import "time"

// RevokedToken records a signed-out access token until it would have expired
// on its own. Only the SHA-256 of the token is kept.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TokenHash string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	UserID    string    `gorm:"size:36;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (RevokedToken) TableName() string { return "revoked_tokens" }
