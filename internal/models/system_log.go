package models

import (
	"net/http"
	"time"
)

type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// LevelForStatus grades an audited request by its response code.
func LevelForStatus(status int) LogLevel {
	switch {
	case status >= http.StatusInternalServerError:
		return LevelError
	case status >= http.StatusBadRequest:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// SystemLog is one audit entry: a mutating request, a background job run,
// or a failed task.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     LogLevel  `gorm:"size:20;index" json:"level"`
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	UserID    string    `gorm:"size:36;index" json:"user_id,omitempty"`
	RequestID string    `gorm:"size:26" json:"request_id,omitempty"`
	IP        string    `gorm:"size:50" json:"ip,omitempty"`
	UserAgent string    `gorm:"size:500" json:"user_agent,omitempty"`
	Extra     string    `gorm:"type:text" json:"extra,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }
