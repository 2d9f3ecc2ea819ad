package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisSlot keeps the value under a single redis string key, without expiry
type RedisSlot struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisClient creates a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisSlot creates a redis-backed slot
func NewRedisSlot(client *redis.Client, key string, logger *zap.Logger) (*RedisSlot, error) {
	if key == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	return &RedisSlot{client: client, key: key, logger: logger}, nil
}

func (s *RedisSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to read slot from redis",
			zap.String("key", s.key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read redis key %s: %w", s.key, err)
	}
	return data, nil
}

func (s *RedisSlot) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		s.logger.Error("failed to write slot to redis",
			zap.String("key", s.key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to write redis key %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSlot) Describe() string {
	return "redis:" + s.key
}
