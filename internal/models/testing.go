package models

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mvibe/marketplace/internal/config"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every table
// migrated. Each call gets its own database so tests never share rows.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
