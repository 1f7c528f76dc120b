package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	_, err := NewClient(&RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestClient_PingAndClose(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	assert.NoError(t, client.Ping(ctx))
	assert.Equal(t, "af3portal:x", client.Key("x"))

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.Equal(t, ErrClientClosed, client.Ping(ctx))
}

func TestJobLocker_LockAndRelease(t *testing.T) {
	client, mr := newTestClient(t)
	locker := NewJobLocker(client, logging.NewNopLogger(), WithLockTTL(time.Minute))
	ctx := context.Background()

	release, err := locker.TryLock(ctx, "run1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("af3portal:lock:job:run1"))
	assert.Equal(t, time.Minute, mr.TTL("af3portal:lock:job:run1"))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("af3portal:lock:job:run1"))
}

func TestJobLocker_Contention(t *testing.T) {
	client, _ := newTestClient(t)
	locker := NewJobLocker(client, logging.NewNopLogger())
	ctx := context.Background()

	release, err := locker.TryLock(ctx, "run1")
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "run1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeJobLocked))

	_, err = locker.TryLock(ctx, "run2")
	assert.NoError(t, err, "different names do not contend")

	require.NoError(t, release(ctx))
	_, err = locker.TryLock(ctx, "run1")
	assert.NoError(t, err)
}

func TestJobLocker_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	client, mr := newTestClient(t)
	locker := NewJobLocker(client, logging.NewNopLogger(), WithLockTTL(time.Second))
	ctx := context.Background()

	stale, err := locker.TryLock(ctx, "run1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.TryLock(ctx, "run1")
	require.NoError(t, err)

	err = stale(ctx)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
	assert.True(t, mr.Exists("af3portal:lock:job:run1"), "the new owner keeps the lock")
	assert.NoError(t, fresh(ctx))
}

func TestJobLocker_RedisDown(t *testing.T) {
	client, mr := newTestClient(t)
	locker := NewJobLocker(client, logging.NewNopLogger())
	mr.Close()

	_, err := locker.TryLock(context.Background(), "run1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestMemoryJobLocker(t *testing.T) {
	locker := NewMemoryJobLocker(WithLockTTL(time.Minute)).(*memoryJobLocker)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }
	ctx := context.Background()

	release, err := locker.TryLock(ctx, "run1")
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "run1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeJobLocked))

	require.NoError(t, release(ctx))
	assert.Error(t, release(ctx), "second release reports the lock is gone")

	_, err = locker.TryLock(ctx, "run1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = locker.TryLock(ctx, "run1")
	assert.NoError(t, err, "expired entries can be taken over")
}
