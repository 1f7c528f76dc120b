package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeJobLocked, "a submission with this job name is already in progress")
	ErrLockNotHeld     = errors.Conflict("lock not held by this owner")
)

// JobLocker serialises submissions that share a job name, so two requests
// for the same name within one second cannot share a job directory.
type JobLocker interface {
	// TryLock acquires the lock for name without waiting.  It returns
	// ErrLockNotAcquired when another holder has it.  The returned release
	// function must be called once the job directory exists.
	TryLock(ctx context.Context, name string) (release func(context.Context) error, err error)
}

// LockOption customises a JobLocker.
type LockOption func(*lockConfig)

// WithLockTTL bounds how long a crashed holder can block a name.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

type lockConfig struct {
	ttl time.Duration
}

func newLockConfig(opts []LockOption) lockConfig {
	cfg := lockConfig{ttl: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Redis-backed locker
// ─────────────────────────────────────────────────────────────────────────────

type redisJobLocker struct {
	client *Client
	config lockConfig
	logger logging.Logger
}

// NewJobLocker returns a JobLocker that uses SET NX PX with a random owner
// token and a compare-and-delete release script.
func NewJobLocker(client *Client, log logging.Logger, opts ...LockOption) JobLocker {
	return &redisJobLocker{client: client, config: newLockConfig(opts), logger: log}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

func (l *redisJobLocker) TryLock(ctx context.Context, name string) (func(context.Context) error, error) {
	key := l.client.Key(buildLockKey(name))
	value := generateLockValue()

	ok, err := l.client.GetUnderlyingClient().SetNX(ctx, key, value, l.config.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to acquire job lock")
	}
	if !ok {
		return nil, ErrLockNotAcquired.WithDetail("job=" + name)
	}

	release := func(ctx context.Context) error {
		res, err := unlockScript.Run(ctx, l.client.GetUnderlyingClient(), []string{key}, value).Int64()
		if err != nil {
			l.logger.Warn("failed to release job lock", logging.String("job", name), logging.Err(err))
			return err
		}
		if res == 0 {
			return ErrLockNotHeld.WithDetail("job=" + name)
		}
		return nil
	}
	return release, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// In-process locker, used when Redis is disabled
// ─────────────────────────────────────────────────────────────────────────────

type memoryJobLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryJobLocker returns a JobLocker that only serialises submissions
// within this process.
func NewMemoryJobLocker(opts ...LockOption) JobLocker {
	cfg := newLockConfig(opts)
	return &memoryJobLocker{held: make(map[string]time.Time), ttl: cfg.ttl, now: time.Now}
}

func (l *memoryJobLocker) TryLock(_ context.Context, name string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.held[name]; ok && now.Before(exp) {
		return nil, ErrLockNotAcquired.WithDetail("job=" + name)
	}
	token := now.Add(l.ttl)
	l.held[name] = token

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if exp, ok := l.held[name]; !ok || !exp.Equal(token) {
			return ErrLockNotHeld.WithDetail("job=" + name)
		}
		delete(l.held, name)
		return nil
	}, nil
}

// Helpers

func generateLockValue() string {
	return uuid.New().String()
}

func buildLockKey(name string) string {
	return "lock:job:" + name
}
