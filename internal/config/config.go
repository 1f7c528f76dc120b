// Package config defines the portal's configuration structures.  No I/O or
// parsing logic lives in this file, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSAllowedOrigins enables cross-origin calls to the JSON API.  Empty
	// disables CORS; "*.example.org" patterns match subdomains.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// JobsConfig locates the jobs directory and the scheduler.
type JobsConfig struct {
	// BaseDir holds one <jobName>_<timestamp> directory per submission.
	BaseDir string `mapstructure:"base_dir"`
	// Template is the scheduler script with {{JOBNAME}}, {{EMAIL}},
	// {{WORKDIR}} and {{TIMESTAMP}} placeholders.
	Template string `mapstructure:"template"`
	// Scheduler is the submit command, run as "<Scheduler> <SchedulerArgs...> submit.sh".
	Scheduler        string        `mapstructure:"scheduler"`
	SchedulerArgs    []string      `mapstructure:"scheduler_args"`
	SchedulerTimeout time.Duration `mapstructure:"scheduler_timeout"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
}

// IdentityConfig controls how the caller's user id is read.
type IdentityConfig struct {
	Header   string `mapstructure:"header"`
	Fallback string `mapstructure:"fallback"`
}

// RateLimitConfig throttles job submissions per user.
type RateLimitConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	PerMinute float64 `mapstructure:"per_minute"`
	Burst     int     `mapstructure:"burst"`
}

// RedisConfig holds Redis connection parameters for the job-name lock.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the job-event producer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Acks         string        `mapstructure:"acks"` // "none" | "one" | "all"
}

// MinIOConfig holds the archive mirror parameters.
type MinIOConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	Region     string        `mapstructure:"region"`
	Bucket     string        `mapstructure:"bucket"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate returns the first semantic problem of a defaulted Config.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Jobs.BaseDir == "" {
		return fmt.Errorf("config: jobs.base_dir is required")
	}
	if c.Jobs.Scheduler == "" {
		return fmt.Errorf("config: jobs.scheduler is required")
	}
	if c.Jobs.SchedulerTimeout <= 0 {
		return fmt.Errorf("config: jobs.scheduler_timeout must be positive")
	}

	if c.Identity.Header == "" {
		return fmt.Errorf("config: identity.header is required")
	}

	if c.RateLimit.Enabled && (c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("config: rate_limit.per_minute and rate_limit.burst must be positive when rate limiting is enabled")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
		switch c.Kafka.Acks {
		case "none", "one", "all":
		default:
			return fmt.Errorf("config: kafka.acks %q is invalid; expected none|one|all", c.Kafka.Acks)
		}
	}

	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required when minio is enabled")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required when minio is enabled")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
