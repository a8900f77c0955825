package services

import (
	"testing"
	"time"

	"github.com/mvibe/marketplace/internal/config"
	"github.com/mvibe/marketplace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemLog_ListByUserAndCleanup(t *testing.T) {
	db := models.NewTestDB(t)
	InitSystemLogger(db)
	defer InitSystemLogger(nil)

	LogInfo("project", "POST /api/projects", "created", "u1", "127.0.0.1", "test", map[string]string{"id": "p1"})
	LogWarning("review", "POST /api/projects/:id/reviews", "duplicate", "u1", "127.0.0.1", "test", nil)
	LogInfo("project", "POST /api/projects", "created", "u2", "127.0.0.1", "test", nil)
	RecordSystemLog(&models.SystemLog{
		Level:     models.LevelInfo,
		Module:    "project",
		Action:    "DELETE /api/projects/:id",
		UserID:    "u1",
		CreatedAt: time.Now().AddDate(0, 0, -40),
	})

	svc := NewSystemLogService(db)

	resp, err := svc.ListByUser(bg, "u1", &SystemLogListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
	assert.Equal(t, `{"id":"p1"}`, resp.Items[len(resp.Items)-2].Extra)

	warnings, err := svc.ListByUser(bg, "u1", &SystemLogListRequest{Level: string(models.LevelWarning)})
	require.NoError(t, err)
	require.Len(t, warnings.Items, 1)
	assert.Equal(t, "duplicate", warnings.Items[0].Message)

	filtered, err := svc.ListByUser(bg, "u1", &SystemLogListRequest{Module: "review"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.Total)

	deleted, err := svc.CleanupOldLogs(bg, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	none, err := svc.CleanupOldLogs(bg, 0)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestMaintenance_RunOnce(t *testing.T) {
	db := models.NewTestDB(t)
	require.NoError(t, db.Create(&models.SystemLog{Module: "m", CreatedAt: time.Now().AddDate(0, 0, -10)}).Error)
	require.NoError(t, db.Create(&models.SystemLog{Module: "m", CreatedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&models.RevokedToken{TokenHash: "h1", ExpiresAt: time.Now().Add(-time.Minute)}).Error)

	m := NewMaintenance(db, &config.AuditConfig{RetentionDays: 7, CleanupCron: "0 3 * * *"})
	logs, tokens := m.RunOnce(bg)

	assert.Equal(t, int64(1), logs)
	assert.Equal(t, int64(1), tokens)
}

func TestMaintenance_SkipsWhileLeased(t *testing.T) {
	db := models.NewTestDB(t)
	require.NoError(t, db.Create(&models.SystemLog{Module: "m", CreatedAt: time.Now().AddDate(0, 0, -10)}).Error)

	other := NewJobLocker(db)
	ok, err := other.TryAcquire(bg, maintenanceJob, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	m := NewMaintenance(db, &config.AuditConfig{RetentionDays: 7, CleanupCron: "0 3 * * *"})
	logs, _ := m.RunOnce(bg)
	assert.Zero(t, logs)

	require.NoError(t, other.Release(bg, maintenanceJob))
	logs, _ = m.RunOnce(bg)
	assert.Equal(t, int64(1), logs)
}

func TestMaintenance_InvalidSchedule(t *testing.T) {
	m := NewMaintenance(models.NewTestDB(t), &config.AuditConfig{RetentionDays: 7, CleanupCron: "not a cron"})
	assert.Error(t, m.Start())
	m.Stop()
}
