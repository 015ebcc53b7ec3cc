// Package idempotency caches the responses of mutating requests in Redis so
// a retried request with the same Idempotency-Key replays instead of
// re-executing.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	keyPrefix     = "idem:"
	inFlightValue = "in-flight"
	inFlightTTL   = 30 * time.Second
)

type Entry struct {
	RequestHash  string    `json:"request_hash"`
	StatusCode   int       `json:"status_code"`
	ResponseBody []byte    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func cacheKey(userID uuid.UUID, key string) string {
	return keyPrefix + userID.String() + ":" + key
}

func lockKey(userID uuid.UUID, key string) string {
	return cacheKey(userID, key) + ":lock"
}

// Get returns nil, nil on a miss.
func (s *Store) Get(ctx context.Context, userID uuid.UUID, key string) (*Entry, error) {
	raw, err := s.client.Get(ctx, cacheKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("Get: decode: %w", err)
	}
	return &e, nil
}

func (s *Store) Set(ctx context.Context, userID uuid.UUID, key string, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("Set: encode: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(userID, key), string(b), s.ttl).Err(); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

// Reserve marks the key as being processed. It reports false when another
// request with the same key holds the reservation.
func (s *Store) Reserve(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(userID, key), inFlightValue, inFlightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	return ok, nil
}

func (s *Store) Release(ctx context.Context, userID uuid.UUID, key string) error {
	if err := s.client.Del(ctx, lockKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}
