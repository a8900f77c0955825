package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Audit     AuditConfig     `yaml:"audit"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port"`
	Mode        string   `yaml:"mode"` // debug, release, test
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"` // empty or "*" allows any origin
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // sqlite, mysql, postgres
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// AuthConfig describes how access tokens issued by the external auth
// provider are verified. The service never issues tokens itself.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
	LoginURL  string `yaml:"login_url"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver"` // local, gcs
	LocalDir      string `yaml:"local_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	Bucket        string `yaml:"bucket"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
}

// RedisConfig for the optional async view-count queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuditConfig struct {
	RetentionDays int    `yaml:"retention_days"`
	CleanupCron   string `yaml:"cleanup_cron"`
}

// envOverrides lists every variable that can override the YAML file.
// Zero values mean "not set".
type envOverrides struct {
	ServerHost     string   `envconfig:"SERVER_HOST"`
	ServerPort     string   `envconfig:"SERVER_PORT"`
	ServerMode     string   `envconfig:"SERVER_MODE"`
	LogLevel       string   `envconfig:"LOG_LEVEL"`
	CORSOrigins    []string `envconfig:"CORS_ORIGINS"`
	DBDriver       string   `envconfig:"DB_DRIVER"`
	DBDSN          string   `envconfig:"DB_DSN"`
	JWTSecret      string   `envconfig:"AUTH_JWT_SECRET"`
	JWTAudience    string   `envconfig:"AUTH_AUDIENCE"`
	LoginURL       string   `envconfig:"AUTH_LOGIN_URL"`
	StorageDriver  string   `envconfig:"STORAGE_DRIVER"`
	StorageDir     string   `envconfig:"STORAGE_LOCAL_DIR"`
	StorageBaseURL string   `envconfig:"STORAGE_PUBLIC_BASE_URL"`
	StorageBucket  string   `envconfig:"STORAGE_BUCKET"`
	MaxUploadMB    int      `envconfig:"STORAGE_MAX_UPLOAD_MB"`
	RedisURL       string   `envconfig:"REDIS_URL"`
	RateLimitRPS   float64  `envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST"`
	AuditDays      int      `envconfig:"AUDIT_RETENTION_DAYS"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultJWTSecret only serves local development; release mode refuses it.
const DefaultJWTSecret = "marketplace-secret-key-change-in-production"

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "8080",
			Mode:     "debug",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "marketplace.db",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			JWTSecret: DefaultJWTSecret,
			Audience:  "authenticated",
			LoginURL:  "/login",
		},
		Storage: StorageConfig{
			Driver:        "local",
			LocalDir:      "uploads",
			PublicBaseURL: "/uploads",
			MaxUploadMB:   5,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		Audit: AuditConfig{
			RetentionDays: 30,
			CleanupCron:   "0 3 * * *",
		},
	}
}

func (c *Config) overrideFromEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	setString(&c.Server.Host, env.ServerHost)
	setString(&c.Server.Port, env.ServerPort)
	setString(&c.Server.Mode, env.ServerMode)
	setString(&c.Server.LogLevel, env.LogLevel)
	if len(env.CORSOrigins) > 0 {
		c.Server.CORSOrigins = env.CORSOrigins
	}
	setString(&c.Database.Driver, env.DBDriver)
	setString(&c.Database.DSN, env.DBDSN)
	setString(&c.Auth.JWTSecret, env.JWTSecret)
	setString(&c.Auth.Audience, env.JWTAudience)
	setString(&c.Auth.LoginURL, env.LoginURL)
	setString(&c.Storage.Driver, env.StorageDriver)
	setString(&c.Storage.LocalDir, env.StorageDir)
	setString(&c.Storage.PublicBaseURL, env.StorageBaseURL)
	setString(&c.Storage.Bucket, env.StorageBucket)

	if env.MaxUploadMB > 0 {
		c.Storage.MaxUploadMB = env.MaxUploadMB
	}
	if env.RateLimitRPS > 0 {
		c.RateLimit.RPS = env.RateLimitRPS
	}
	if env.RateLimitBurst > 0 {
		c.RateLimit.Burst = env.RateLimitBurst
	}
	if env.AuditDays > 0 {
		c.Audit.RetentionDays = env.AuditDays
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if env.RedisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(env.RedisURL)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir is required for the local driver")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the gcs driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Server.Mode == "release" && c.Auth.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("auth.jwt_secret must be changed from the default in release mode")
	}
	if c.Storage.MaxUploadMB <= 0 {
		c.Storage.MaxUploadMB = 5
	}
	return nil
}

// MaxUploadBytes is the upload cap in bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}
