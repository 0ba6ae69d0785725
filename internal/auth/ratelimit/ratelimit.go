// Package ratelimit counts requests per access token in fixed one-minute
// buckets kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// bucketTTL is refreshed on every increment.
const bucketTTL = 60 * time.Second

// FixedWindow limits each token to limit requests per wall-clock minute. The
// bucket is keyed by minute-of-hour, so bursts straddling a minute boundary
// are not smoothed.
type FixedWindow struct {
	client redis.Cmdable
	limit  int64
	now    func() time.Time
}

// NewFixedWindow returns a limiter allowing limit requests per minute. A limit
// of 0 (or less) disables limiting.
func NewFixedWindow(client redis.Cmdable, limit int) *FixedWindow {
	return &FixedWindow{client: client, limit: int64(limit), now: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

// BucketKey is the counter key for token at t.
func BucketKey(token string, t time.Time) string {
	return token + ":" + strconv.Itoa(t.Minute())
}

// Exceeded increments the token's bucket and reports whether the count is now
// over the limit. INCR is atomic per key; the EXPIRE that follows it in the
// same pipeline is not, which is acceptable. Store errors are returned so
// callers can fail closed.
func (l *FixedWindow) Exceeded(ctx context.Context, token string) (bool, error) {
	if l.limit <= 0 {
		return false, nil
	}

	key := BucketKey(token, l.now())

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, bucketTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: count request: %w", err)
	}

	return incr.Val() > l.limit, nil
}
