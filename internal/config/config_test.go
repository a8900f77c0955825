package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "/login", cfg.Auth.LoginURL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9000"
database:
  driver: postgres
  dsn: "host=db user=app"
storage:
  driver: gcs
  bucket: screenshots
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("RATE_LIMIT_BURST", "42")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=app", cfg.Database.DSN)
	assert.Equal(t, "screenshots", cfg.Storage.Bucket)
	assert.Equal(t, 42, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	// untouched sections keep their defaults
	assert.Equal(t, 5, cfg.Storage.MaxUploadMB)
}

func TestLoad_RedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://:s3cret@cache:6380/2")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"unknown db driver", func(c *Config) { c.Database.Driver = "oracle" }, false},
		{"gcs without bucket", func(c *Config) { c.Storage.Driver = "gcs" }, false},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "s3" }, false},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, false},
		{"default secret in debug", func(c *Config) { c.Server.Mode = "debug" }, true},
		{"default secret in release", func(c *Config) { c.Server.Mode = "release" }, false},
		{"own secret in release", func(c *Config) {
			c.Server.Mode = "release"
			c.Auth.JWTSecret = "provider-secret"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMaxUploadBytes(t *testing.T) {
	s := StorageConfig{MaxUploadMB: 2}
	assert.Equal(t, int64(2*1024*1024), s.MaxUploadBytes())
}

func TestLoad_ReleaseRequiresSecret(t *testing.T) {
	t.Setenv("SERVER_MODE", "release")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "provider-secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Server.Mode)
}
