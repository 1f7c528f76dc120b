package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/af3-portal/pkg/errors"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo is the limiter state reported in X-RateLimit-* headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter is an in-process token bucket per key.  Buckets that
// have been full for a cleanup interval are dropped.
type TokenBucketLimiter struct {
	rate      float64 // tokens per second
	burstSize int

	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time

	cleanupInterval time.Duration
	stopOnce        sync.Once
	stopCleanup     chan struct{}
}

// NewTokenBucketLimiter allows perMinute requests per key with bursts up to
// burst.  A positive cleanupInterval starts a background sweeper; call Stop
// to end it.
func NewTokenBucketLimiter(perMinute float64, burst int, cleanupInterval time.Duration) *TokenBucketLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &TokenBucketLimiter{
		rate:            perMinute / 60,
		burstSize:       burst,
		buckets:         make(map[string]*tokenBucket),
		now:             time.Now,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: float64(l.burstSize), lastRefill: now}
		l.buckets[key] = bucket
	}

	bucket.tokens = math.Min(float64(l.burstSize), bucket.tokens+now.Sub(bucket.lastRefill).Seconds()*l.rate)
	bucket.lastRefill = now

	info := RateLimitInfo{Limit: l.burstSize}
	if bucket.tokens >= 1 {
		bucket.tokens--
		info.Remaining = int(bucket.tokens)
		info.ResetAt = now
		return true, info
	}
	info.ResetAt = now.Add(l.untilNextToken(bucket.tokens))
	return false, info
}

func (l *TokenBucketLimiter) untilNextToken(tokens float64) time.Duration {
	if l.rate <= 0 {
		return time.Hour
	}
	return time.Duration((1 - tokens) / l.rate * float64(time.Second))
}

func (l *TokenBucketLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *TokenBucketLimiter) cleanup() {
	now := l.now()
	threshold := now.Add(-l.cleanupInterval)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, bucket := range l.buckets {
		refilled := bucket.tokens + now.Sub(bucket.lastRefill).Seconds()*l.rate
		if bucket.lastRefill.Before(threshold) && refilled >= float64(l.burstSize) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the background sweeper.  It is safe to call more than once.
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// BucketCount returns the number of tracked keys.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit throttles per caller: the proxy-supplied user id when present,
// otherwise the client IP.  It must run after Identity.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "user:" + GetUser(c)
		if IsAnonymous(c) {
			key = "ip:" + c.ClientIP()
		}

		allowed, info := limiter.Allow(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(math.Ceil(time.Until(info.ResetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    errors.ErrCodeTooManyRequests,
				"message": errors.DefaultMessageForCode(errors.ErrCodeTooManyRequests),
			})
			return
		}
		c.Next()
	}
}
