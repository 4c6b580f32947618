package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/boodo/silvasync/internal/infrastructure/config"
)

// unreachableRedis points at a port nothing listens on
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
}

func TestIdempotencyStoreFactory_Disabled(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false})

	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_FallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := NewIdempotencyStoreFactory(unreachableRedis(), WithLogger(zap.New(core)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store, err := f.CreateStore(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.Equal(t, 1, logs.FilterMessage("Redis unavailable, falling back to in-memory idempotency store").Len())
}

func TestIdempotencyStoreFactory_NoFallback(t *testing.T) {
	f := NewIdempotencyStoreFactory(unreachableRedis(), WithInMemoryFallback(false))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store, err := f.CreateStore(ctx)

	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestRedisIdempotencyStore_WrapsClientErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	store := NewRedisIdempotencyStoreWithClient(client, "")
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, DefaultKeyPrefix+"abc", store.key("abc"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := store.MarkProcessed(ctx, "abc", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mark delivery abc")

	_, err = store.IsProcessed(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check delivery abc")
}
