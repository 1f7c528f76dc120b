package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 9000
  mode: debug
jobs:
  base_dir: /srv/af3/jobs
  template: /srv/af3/submit_template.sh
  scheduler: sbatch
  scheduler_args: ["--parsable"]
  scheduler_timeout: 45s
identity:
  header: X-Remote-User
redis:
  enabled: true
  addr: redis:6379
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: af3.jobs
minio:
  enabled: true
  endpoint: minio:9000
  bucket: results
log:
  level: debug
  format: console
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "/srv/af3/jobs", cfg.Jobs.BaseDir)
	assert.Equal(t, []string{"--parsable"}, cfg.Jobs.SchedulerArgs)
	assert.Equal(t, 45*time.Second, cfg.Jobs.SchedulerTimeout)
	assert.Equal(t, "X-Remote-User", cfg.Identity.Header)
	assert.Equal(t, "USER_NOT_FOUND", cfg.Identity.Fallback)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "results", cfg.MinIO.Bucket)
	assert.Equal(t, 15*time.Minute, cfg.MinIO.PresignTTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValue(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  mode: production\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("AF3_SERVER_PORT", "7070")
	t.Setenv("AF3_JOBS_BASE_DIR", "/tmp/override")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/override", cfg.Jobs.BaseDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AF3_LOG_LEVEL", "warn")
	t.Setenv("AF3_IDENTITY_FALLBACK", "anonymous")
	t.Setenv("AF3_KAFKA_ENABLED", "true")
	t.Setenv("AF3_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "anonymous", cfg.Identity.Fallback)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadOrEnv_EmptyPath(t *testing.T) {
	cfg, err := LoadOrEnv("")
	require.NoError(t, err)
	assert.Equal(t, "jobs", cfg.Jobs.BaseDir)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil)
	assert.Error(t, err)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")

	changes := make(chan *Config, 16)
	require.NoError(t, Watch(path, func(c *Config) {
		select {
		case changes <- c:
		default:
		}
	}, nil))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	// A single write may surface as several events, the first of which can
	// observe a truncated file.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Log.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/shared/af3/jobs", cfg.Jobs.BaseDir)
	assert.Equal(t, DefaultJobsTemplate, cfg.Jobs.Template)
	assert.Empty(t, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "one", cfg.Kafka.Acks)
	assert.Equal(t, 10*time.Millisecond, cfg.Kafka.BatchTimeout)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
}

func TestLoad_CORSOriginsFromEnv(t *testing.T) {
	t.Setenv("AF3_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example.org,*.lab.example.org")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.org", "*.lab.example.org"}, cfg.Server.CORSAllowedOrigins)
}
