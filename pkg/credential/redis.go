package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token pair as a JSON value under one key
type RedisStore struct {
	Client *redis.Client
	Key    string
}

// NewRedisStore creates a RedisStore
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{Client: client, Key: key}
}

// Load reads the token pair. A missing key is ErrNotFound.
func (s *RedisStore) Load(ctx context.Context) (TokenState, error) {
	val, err := s.Client.Get(ctx, s.Key).Result()
	if errors.Is(err, redis.Nil) {
		return TokenState{}, ErrNotFound
	}
	if err != nil {
		return TokenState{}, fmt.Errorf("redis get %s: %w", s.Key, err)
	}

	var state TokenState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return TokenState{}, fmt.Errorf("parse token state: %w", err)
	}
	return state, nil
}

// Save overwrites the token pair. Tokens never expire from Redis; the
// provider decides when they stop working.
func (s *RedisStore) Save(ctx context.Context, state TokenState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.Client.Set(ctx, s.Key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key, err)
	}
	return nil
}
