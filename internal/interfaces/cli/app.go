package cli

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	appJob "github.com/turtacn/af3-portal/internal/application/job"
	appSub "github.com/turtacn/af3-portal/internal/application/submission"
	"github.com/turtacn/af3-portal/internal/config"
	"github.com/turtacn/af3-portal/internal/infrastructure/database/redis"
	"github.com/turtacn/af3-portal/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/af3-portal/internal/infrastructure/scheduler/slurm"
	"github.com/turtacn/af3-portal/internal/infrastructure/storage/jobfs"
	"github.com/turtacn/af3-portal/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/af3-portal/internal/interfaces/http"
	"github.com/turtacn/af3-portal/internal/interfaces/http/handlers"
	"github.com/turtacn/af3-portal/internal/interfaces/http/middleware"
)

// App is the assembled portal: services, router and server plus the
// backends that must be closed on exit.
type App struct {
	Config     *config.Config
	Engine     *gin.Engine
	Server     *httpserver.Server
	Jobs       appJob.Service
	Submission appSub.Service

	logger  logging.Logger
	closers []func() error
}

// NewApp wires every component from cfg.  Redis, MinIO and Kafka are only
// contacted when enabled; a failure to reach an enabled backend aborts start.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{Config: cfg, logger: logger}
	checkers := []handlers.HealthChecker{
		handlers.NewChecker("template", func(context.Context) error {
			_, err := os.Stat(cfg.Jobs.Template)
			return err
		}),
	}

	// Metrics
	metrics := prometheus.NewNoopAppMetrics()
	var collector prometheus.MetricsCollector
	if cfg.Metrics.Enabled {
		c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		collector = c
		metrics = prometheus.NewAppMetrics(c)
	}

	// Job-name lock
	var locker redis.JobLocker
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(&redis.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		}, logger.Named("redis"))
		if err != nil {
			return nil, app.abort(err)
		}
		app.closers = append(app.closers, client.Close)
		checkers = append(checkers, handlers.NewChecker("redis", client.Ping))
		locker = redis.NewJobLocker(client, logger.Named("lock"), redis.WithLockTTL(cfg.Jobs.LockTTL))
	} else {
		locker = redis.NewMemoryJobLocker(redis.WithLockTTL(cfg.Jobs.LockTTL))
	}

	// Archive mirror
	mirror := minio.NewNoopMirror()
	if cfg.MinIO.Enabled {
		client, err := minio.NewMinIOClient(&minio.MinIOConfig{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKey,
			SecretAccessKey: cfg.MinIO.SecretKey,
			UseSSL:          cfg.MinIO.UseSSL,
			Region:          cfg.MinIO.Region,
			Bucket:          cfg.MinIO.Bucket,
			PresignExpiry:   cfg.MinIO.PresignTTL,
		}, logger.Named("minio"))
		if err != nil {
			return nil, app.abort(err)
		}
		app.closers = append(app.closers, client.Close)
		checkers = append(checkers, handlers.NewChecker("minio", client.EnsureBucket))
		mirror = client
	}

	// Job events
	events := kafka.NewNoopJobEventPublisher()
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Acks:         cfg.Kafka.Acks,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger.Named("kafka"))
		if err != nil {
			return nil, app.abort(err)
		}
		app.closers = append(app.closers, producer.Close)
		events = kafka.NewJobEventPublisher(producer, cfg.Kafka.Topic, logger.Named("kafka"))
	}

	app.Submission = appSub.NewService(metrics, logger.Named("submission"))
	app.Jobs = appJob.NewService(appJob.Deps{
		Workspace:    jobfs.NewWorkspace(cfg.Jobs.BaseDir, logger.Named("jobfs")),
		Runner:       slurm.NewExecRunner(cfg.Jobs.Scheduler, cfg.Jobs.SchedulerArgs, cfg.Jobs.SchedulerTimeout, logger.Named("scheduler")),
		TemplatePath: cfg.Jobs.Template,
		Locker:       locker,
		Mirror:       mirror,
		Events:       events,
		Metrics:      metrics,
		Logger:       logger.Named("jobs"),
	})

	var limiter middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		tb := middleware.NewTokenBucketLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, 10*time.Minute)
		app.closers = append(app.closers, func() error { tb.Stop(); return nil })
		limiter = tb
		logger.Info("submission rate limit enabled",
			logging.Float64("per_minute", cfg.RateLimit.PerMinute),
			logging.Int("burst", cfg.RateLimit.Burst))
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.CORSAllowedOrigins
	cors.AllowWildcard = true

	gin.SetMode(cfg.Server.Mode)
	app.Engine = httpserver.NewRouter(httpserver.RouterConfig{
		PageHandler:       handlers.NewPageHandler(""),
		SubmissionHandler: handlers.NewSubmissionHandler(app.Submission),
		JobHandler:        handlers.NewJobHandler(app.Jobs),
		HealthHandler:     handlers.NewHealthHandler(Version, checkers...),
		Identity: middleware.IdentityConfig{
			Header:   cfg.Identity.Header,
			Fallback: cfg.Identity.Fallback,
		},
		Logging:          middleware.DefaultLoggingConfig(),
		MaxBodySize:      cfg.Server.MaxBodySize,
		CORS:             cors,
		SubmitLimiter:    limiter,
		Logger:           logger.Named("http"),
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	app.Server = httpserver.NewServer(httpserver.ServerConfig{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, app.Engine, logger.Named("http"))

	logger.Info("portal assembled",
		logging.String("jobs_dir", cfg.Jobs.BaseDir),
		logging.String("scheduler", cfg.Jobs.Scheduler),
		logging.Strings("scheduler_args", cfg.Jobs.SchedulerArgs),
		logging.Strings("cors_origins", cfg.Server.CORSAllowedOrigins),
		logging.Bool("redis", cfg.Redis.Enabled),
		logging.Bool("minio", cfg.MinIO.Enabled),
		logging.Bool("kafka", cfg.Kafka.Enabled),
		logging.Bool("metrics", cfg.Metrics.Enabled))
	return app, nil
}

func (a *App) abort(err error) error {
	if cerr := a.Close(); cerr != nil {
		a.logger.Warn("cleanup after failed start", logging.Err(cerr))
	}
	return err
}

// Close releases the backends in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}
