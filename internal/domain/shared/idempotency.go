package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers handled webhook deliveries. Keys are delivery
// IDs, which double as event IDs on the bus.
type IdempotencyStore interface {
	// MarkProcessed claims deliveryID for ttl. It reports false when another
	// delivery with the same ID already claimed it.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, deliveryID string) (bool, error)
	Close() error
}

// IdempotencyConfig controls delivery deduplication on the bus
type IdempotencyConfig struct {
	Enabled bool
	// TTL should outlast the store's webhook retry window
	TTL time.Duration
}

// DefaultIdempotencyConfig keeps delivery IDs for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{Enabled: true, TTL: 24 * time.Hour}
}
