package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mvibe/marketplace/internal/models"
	"github.com/mvibe/marketplace/pkg/logger"
	"gorm.io/gorm"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

func LogInfo(module, action, message, userID, ip, userAgent string, extra interface{}) {
	writeLog(models.LevelInfo, module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message, userID, ip, userAgent string, extra interface{}) {
	writeLog(models.LevelWarning, module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message, userID, ip, userAgent string, extra interface{}) {
	writeLog(models.LevelError, module, action, message, userID, ip, userAgent, extra)
}

func writeLog(level models.LogLevel, module, action, message, userID, ip, userAgent string, extra interface{}) {
	RecordSystemLog(&models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     encodeExtra(extra),
	})
}

// RecordSystemLog persists a fully populated entry. Failures are logged and
// otherwise ignored; auditing never fails a request.
func RecordSystemLog(entry *models.SystemLog) {
	if globalDB == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := globalDB.Create(entry).Error; err != nil {
		logger.Error().Err(err).Str("module", entry.Module).Str("action", entry.Action).Msg("[SystemLog] write failed")
	}
}

func encodeExtra(extra interface{}) string {
	if extra == nil {
		return ""
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return ""
	}
	return string(b)
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level    string `form:"level" binding:"omitempty,oneof=info warning error"`
	Module   string `form:"module"`
	Action   string `form:"action"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

// ListByUser pages through the audit entries produced by userID, newest first.
func (s *SystemLogService) ListByUser(ctx context.Context, userID string, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	logs := []models.SystemLog{}
	var total int64

	query := s.db.WithContext(ctx).Model(&models.SystemLog{}).Where("user_id = ?", userID)
	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes logs older than the specified number of days
// Returns the number of deleted records
func (s *SystemLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
