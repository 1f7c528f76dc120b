package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port too low", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"no base dir", func(c *Config) { c.Jobs.BaseDir = "" }, "jobs.base_dir"},
		{"no scheduler", func(c *Config) { c.Jobs.Scheduler = "" }, "jobs.scheduler"},
		{"no timeout", func(c *Config) { c.Jobs.SchedulerTimeout = 0 }, "jobs.scheduler_timeout"},
		{"no identity header", func(c *Config) { c.Identity.Header = "" }, "identity.header"},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"rate limit without burst", func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.Burst = 0 }, "rate_limit"},
		{"negative redis db", func(c *Config) { c.Redis.DB = -1 }, "redis.db"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
		{"kafka without topic", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Topic = ""
		}, "kafka.topic"},
		{"kafka with bad acks", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Acks = "two"
		}, "kafka.acks"},
		{"minio without endpoint", func(c *Config) { c.MinIO.Enabled = true }, "minio.endpoint"},
		{"minio without bucket", func(c *Config) {
			c.MinIO.Enabled = true
			c.MinIO.Endpoint = "s3:9000"
			c.MinIO.Bucket = ""
		}, "minio.bucket"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, ":8080", ServerConfig{Port: 8080}.Addr())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Addr())
}
