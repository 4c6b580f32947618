package cache

import (
	"context"
	"sync"
	"time"

	"github.com/boodo/silvasync/internal/domain/shared"
)

// DefaultCleanupInterval is how often expired delivery keys are dropped
const DefaultCleanupInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed delivery IDs in a map. State is
// lost on restart and not shared between instances.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

// NewInMemoryIdempotencyStore creates a store and starts its cleanup loop
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(DefaultCleanupInterval, time.Now)
}

func newInMemoryIdempotencyStore(interval time.Duration, now func() time.Time) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		now:     now,
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(interval)
	return s
}

// MarkProcessed records deliveryID until ttl passes. It reports false when the
// ID is already recorded and not yet expired.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.entries[deliveryID]; ok && now.Before(expiresAt) {
		return false, nil
	}
	s.entries[deliveryID] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether deliveryID is recorded and not expired
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, deliveryID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.entries[deliveryID]
	return ok && s.now().Before(expiresAt), nil
}

// Close stops the cleanup loop. It is safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of recorded IDs, expired ones included
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryIdempotencyStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, id)
		}
	}
}
