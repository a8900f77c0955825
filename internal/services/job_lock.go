package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mvibe/marketplace/internal/models"
	"gorm.io/gorm"
)

// JobLocker hands out expiring per-job leases stored in the database.
type JobLocker struct {
	db     *gorm.DB
	holder string
}

func NewJobLocker(db *gorm.DB) *JobLocker {
	host, _ := os.Hostname()
	return &JobLocker{db: db, holder: host + "/" + uuid.NewString()[:8]}
}

// TryAcquire takes the lease on name for ttl. It returns false without error
// when another holder owns an unexpired lease.
func (l *JobLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	now := time.Now()
	lock := models.JobLock{
		JobName:   name,
		LockedBy:  l.holder,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	err := l.db.WithContext(ctx).Create(&lock).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, fmt.Errorf("acquire %s: %w", name, err)
	}

	// take over an expired lease
	res := l.db.WithContext(ctx).
		Model(&models.JobLock{}).
		Where("job_name = ? AND expires_at < ?", name, now).
		Updates(map[string]interface{}{
			"locked_by":  l.holder,
			"locked_at":  now,
			"expires_at": now.Add(ttl),
		})
	if res.Error != nil {
		return false, fmt.Errorf("acquire %s: %w", name, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Release drops the lease if this locker still holds it.
func (l *JobLocker) Release(ctx context.Context, name string) error {
	return l.db.WithContext(ctx).
		Where("job_name = ? AND locked_by = ?", name, l.holder).
		Delete(&models.JobLock{}).Error
}
