package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/infrastructure/config"
)

// DefaultKeyPrefix namespaces webhook delivery keys in Redis
const DefaultKeyPrefix = "silvasync:delivery:"

const redisPingTimeout = 5 * time.Second

// RedisIdempotencyStore shares processed delivery IDs between instances
// using SET NX with an expiry.
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(ctx context.Context, cfg config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	return NewRedisIdempotencyStoreWithClient(client, DefaultKeyPrefix), nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client
func NewRedisIdempotencyStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed sets the delivery key if absent. It reports false when the
// key already existed.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(deliveryID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery %s: %w", deliveryID, err)
	}
	return ok, nil
}

// IsProcessed reports whether the delivery key exists
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, deliveryID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(deliveryID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check delivery %s: %w", deliveryID, err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

func (s *RedisIdempotencyStore) key(deliveryID string) string {
	return s.keyPrefix + deliveryID
}
