package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mvibe/marketplace/internal/config"
	"github.com/mvibe/marketplace/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Maintenance runs the periodic cleanup jobs: audit entries past retention
// and revocations of tokens that have expired.
type Maintenance struct {
	logs          *SystemLogService
	auth          *AuthService
	locks         *JobLocker
	retentionDays int
	schedule      string
	cronScheduler *cron.Cron
}

const (
	maintenanceJob     = "maintenance.cleanup"
	maintenanceLockTTL = 10 * time.Minute
)

func NewMaintenance(db *gorm.DB, cfg *config.AuditConfig) *Maintenance {
	return &Maintenance{
		logs:          NewSystemLogService(db),
		auth:          NewAuthService(db),
		locks:         NewJobLocker(db),
		retentionDays: cfg.RetentionDays,
		schedule:      cfg.CleanupCron,
	}
}

// Start schedules the jobs and runs them once right away.
func (m *Maintenance) Start() error {
	m.cronScheduler = cron.New()

	if _, err := m.cronScheduler.AddFunc(m.schedule, func() {
		m.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule maintenance %q: %w", m.schedule, err)
	}

	m.cronScheduler.Start()
	logger.Info().Str("cron", m.schedule).Msg("[Maintenance] Scheduler started")

	go m.RunOnce(context.Background())
	return nil
}

// Stop waits for a running job to finish.
func (m *Maintenance) Stop() {
	if m.cronScheduler == nil {
		return
	}
	<-m.cronScheduler.Stop().Done()
}

// RunOnce executes every cleanup job and returns the removed row counts.
// It does nothing while another instance holds the maintenance lease.
func (m *Maintenance) RunOnce(ctx context.Context) (logsDeleted, tokensDeleted int64) {
	start := time.Now()

	acquired, err := m.locks.TryAcquire(ctx, maintenanceJob, maintenanceLockTTL)
	if err != nil {
		logger.Error().Err(err).Msg("[Maintenance] Failed to acquire lease")
		return 0, 0
	}
	if !acquired {
		logger.Debug().Msg("[Maintenance] Another instance is running cleanup")
		return 0, 0
	}
	defer func() {
		if err := m.locks.Release(context.Background(), maintenanceJob); err != nil {
			logger.Warn().Err(err).Msg("[Maintenance] Failed to release lease")
		}
	}()

	logsDeleted, err = m.logs.CleanupOldLogs(ctx, m.retentionDays)
	if err != nil {
		logger.Error().Err(err).Msg("[Maintenance] Failed to cleanup old logs")
	}

	tokensDeleted, err = m.auth.PurgeExpired(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("[Maintenance] Failed to purge expired revocations")
		LogWarning("maintenance", "purge_revocations", err.Error(), "", "", "", nil)
	}

	if logsDeleted > 0 || tokensDeleted > 0 {
		logger.Info().
			Int64("logs", logsDeleted).
			Int64("revocations", tokensDeleted).
			Dur("took", time.Since(start)).
			Msg("[Maintenance] Cleanup finished")
		LogInfo("maintenance", "cleanup", "expired audit entries and revocations removed", "", "", "", map[string]int64{
			"logs":        logsDeleted,
			"revocations": tokensDeleted,
		})
	}
	return logsDeleted, tokensDeleted
}
