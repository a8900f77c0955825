package models

import "time"

// JobLock marks a scheduled job as taken by one server instance until
// ExpiresAt, so replicas sharing a database do not run it concurrently.
type JobLock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobName   string    `gorm:"uniqueIndex;size:100;not null" json:"job_name"`
	LockedBy  string    `gorm:"size:100" json:"locked_by"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (JobLock) TableName() string { return "job_locks" }
