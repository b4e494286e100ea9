package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "credentials:"

// RedisStore keeps sealed values in Redis.
type RedisStore struct {
	client *redis.Client
	sealer *Sealer
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed Store.
func NewRedisStore(client *redis.Client, sealer *Sealer, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, sealer: sealer, logger: logger}
}

// Get returns the unsealed value for key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	plain, err := s.sealer.Open(raw, []byte(key))
	if err != nil {
		s.logger.Error("stored credential cannot be opened", zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("open credential: %w", err)
	}
	return string(plain), true, nil
}

// Set seals value and stores it without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	blob, err := s.sealer.Seal([]byte(value), []byte(key))
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	s.logger.Info("credential stored", zap.String("key", key))
	return nil
}

// Delete removes key and reports whether it existed.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	if n > 0 {
		s.logger.Info("credential deleted", zap.String("key", key))
	}
	return n > 0, nil
}
