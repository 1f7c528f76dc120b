package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerMaxBodySize     = 4 << 20
	DefaultServerShutdownTimeout = 15 * time.Second

	DefaultJobsBaseDir          = "jobs"
	DefaultJobsTemplate         = "templates/submit_template.sh"
	DefaultJobsScheduler        = "sbatch"
	DefaultJobsSchedulerTimeout = 60 * time.Second
	DefaultJobsLockTTL          = 30 * time.Second

	DefaultIdentityHeader   = "HTTP_UID"
	DefaultIdentityFallback = "USER_NOT_FOUND"

	DefaultRateLimitPerMinute = 6
	DefaultRateLimitBurst     = 3

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "af3portal:"

	DefaultKafkaTopic = "af3portal.jobs"
	DefaultKafkaAcks  = "one"

	DefaultMinIOBucket     = "af3-jobs"
	DefaultMinIOPresignTTL = 15 * time.Minute

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "af3portal"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// registerDefaults seeds v with every default so that AF3_* variables bind
// to keys even when no config file mentions them.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.host", "")
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.max_body_size", DefaultServerMaxBodySize)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.cors_allowed_origins", []string{})

	v.SetDefault("jobs.base_dir", DefaultJobsBaseDir)
	v.SetDefault("jobs.template", DefaultJobsTemplate)
	v.SetDefault("jobs.scheduler", DefaultJobsScheduler)
	v.SetDefault("jobs.scheduler_args", []string{})
	v.SetDefault("jobs.scheduler_timeout", DefaultJobsSchedulerTimeout)
	v.SetDefault("jobs.lock_ttl", DefaultJobsLockTTL)

	v.SetDefault("identity.header", DefaultIdentityHeader)
	v.SetDefault("identity.fallback", DefaultIdentityFallback)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.per_minute", DefaultRateLimitPerMinute)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", DefaultKafkaTopic)
	v.SetDefault("kafka.acks", DefaultKafkaAcks)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", DefaultMinIOBucket)
	v.SetDefault("minio.presign_ttl", DefaultMinIOPresignTTL)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set are left unchanged.  Booleans are not touched.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// ── Jobs ──────────────────────────────────────────────────────────────────
	if cfg.Jobs.BaseDir == "" {
		cfg.Jobs.BaseDir = DefaultJobsBaseDir
	}
	if cfg.Jobs.Template == "" {
		cfg.Jobs.Template = DefaultJobsTemplate
	}
	if cfg.Jobs.Scheduler == "" {
		cfg.Jobs.Scheduler = DefaultJobsScheduler
	}
	if cfg.Jobs.SchedulerTimeout == 0 {
		cfg.Jobs.SchedulerTimeout = DefaultJobsSchedulerTimeout
	}
	if cfg.Jobs.LockTTL == 0 {
		cfg.Jobs.LockTTL = DefaultJobsLockTTL
	}

	// ── Identity ──────────────────────────────────────────────────────────────
	if cfg.Identity.Header == "" {
		cfg.Identity.Header = DefaultIdentityHeader
	}
	if cfg.Identity.Fallback == "" {
		cfg.Identity.Fallback = DefaultIdentityFallback
	}

	// ── Rate limit ────────────────────────────────────────────────────────────
	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = DefaultRateLimitPerMinute
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = DefaultRateLimitBurst
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.Acks == "" {
		cfg.Kafka.Acks = DefaultKafkaAcks
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignTTL == 0 {
		cfg.MinIO.PresignTTL = DefaultMinIOPresignTTL
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Default returns a Config populated entirely with defaults.
func Default() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	return cfg
}
