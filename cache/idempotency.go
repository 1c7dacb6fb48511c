package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix     = "idem:checkout:"
	DefaultIdempotencyTTL = 24 * time.Hour

	// pendingMarker holds a key while the first request is still creating
	// its checkout. It expires quickly so a crashed request cannot block
	// the key for a whole day.
	pendingMarker = "pending"
	pendingTTL    = time.Minute
)

// IdempotencyStore remembers which checkout a client retry key produced.
type IdempotencyStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{redis: client, ttl: ttl}
}

// Reserve claims key for the caller. When another request already holds it,
// reserved is false and checkoutID is the remembered checkout, or "" while
// that request is still in flight.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID, key string) (checkoutID string, reserved bool, err error) {
	ok, err := s.redis.SetNX(ctx, s.key(userID, key), pendingMarker, pendingTTL).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}

	val, err := s.redis.Get(ctx, s.key(userID, key)).Result()
	if errors.Is(err, redis.Nil) || val == pendingMarker {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, false, nil
}

// Remember points a reserved key at the checkout it produced.
func (s *IdempotencyStore) Remember(ctx context.Context, userID, key, checkoutID string) error {
	return s.redis.Set(ctx, s.key(userID, key), checkoutID, s.ttl).Err()
}

// Release drops a reservation whose request failed, so the client can retry
// with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, userID, key string) error {
	return s.redis.Del(ctx, s.key(userID, key)).Err()
}

func (s *IdempotencyStore) key(userID, key string) string {
	return idempotencyPrefix + userID + ":" + key
}
