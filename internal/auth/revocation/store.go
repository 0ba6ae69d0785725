// Package revocation keeps the two key families that make logout and refresh
// rotation work: blacklist sets of logged-out access tokens, and the single
// live refresh token per user and device.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoPointer reports that no refresh token is live under a key.
var ErrNoPointer = errors.New("revocation: no refresh pointer")

// Store is the revocation contract used by the session issuer and guard.
// Every method is a single round trip; errors mean the store could not be
// consulted and callers must fail closed.
type Store interface {
	IsBlacklisted(ctx context.Context, key, token string) (bool, error)
	Blacklist(ctx context.Context, key, token string, ttl time.Duration) error
	RefreshPointer(ctx context.Context, key string) (string, error)
	SetRefreshPointer(ctx context.Context, key, token string, ttl time.Duration) error
	DeleteRefreshPointer(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// RedisStore implements Store on Redis. Blacklists are sets, refresh pointers
// plain strings, both expiring through native TTLs.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// IsBlacklisted is false when no set exists for key.
func (s *RedisStore) IsBlacklisted(ctx context.Context, key, token string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, token).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: check blacklist: %w", err)
	}
	return ok, nil
}

// blacklistScript adds ARGV[1] to the set and raises its expiry to ARGV[2]
// milliseconds. The expiry never shrinks: the set outlives every token in it.
var blacklistScript = redis.NewScript(`
redis.call('SADD', KEYS[1], ARGV[1])
local ttl = tonumber(ARGV[2])
if redis.call('PTTL', KEYS[1]) < ttl then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// Blacklist adds token to the set under key. The set's expiry is extended to
// ttl when that is later than the current one, and otherwise left alone.
func (s *RedisStore) Blacklist(ctx context.Context, key, token string, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := blacklistScript.Run(ctx, s.client, []string{key}, token, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("revocation: blacklist: %w", err)
	}
	return nil
}

func (s *RedisStore) RefreshPointer(ctx context.Context, key string) (string, error) {
	token, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoPointer
	}
	if err != nil {
		return "", fmt.Errorf("revocation: get refresh pointer: %w", err)
	}
	return token, nil
}

func (s *RedisStore) SetRefreshPointer(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("revocation: set refresh pointer: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteRefreshPointer(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("revocation: delete refresh pointer: %w", err)
	}
	return nil
}

// Ping is used by readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("revocation: ping: %w", err)
	}
	return nil
}
