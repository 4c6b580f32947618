package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/infrastructure/telemetry"
)

// Bus defaults
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 256
)

// ErrBusStopped is returned when publishing to a bus that was stopped
var ErrBusStopped = errors.New("event: bus stopped")

// envelope carries a queued event with the publisher's context values
type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus dispatches events to subscribed handlers. Before Start,
// Publish runs the handlers inline and returns their errors. Once started,
// Publish queues the event for a pool of workers and returns immediately,
// so a webhook can be acknowledged before the Silvasoft calls finish.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	workers   int
	queueSize int

	mu      sync.RWMutex
	queue   chan envelope
	running bool
	stopped bool
	wg      sync.WaitGroup
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithWorkers sets the number of dispatch workers
func WithWorkers(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the dispatch queue
func WithQueueSize(n int) BusOption {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry:  NewHandlerRegistry(),
		logger:    logger,
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler. Without explicit event types the
// handler's own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// EventTypes lists the event types that have subscribers
func (b *InMemoryEventBus) EventTypes() []string {
	return b.registry.EventTypes()
}

// Publish delivers events to their handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.stopped {
		return ErrBusStopped
	}
	if !b.running {
		var errs []error
		for _, event := range events {
			if err := b.dispatch(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	// The request that published the event may end before a worker picks
	// it up; keep its values but not its cancellation.
	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: event}:
		case <-ctx.Done():
			return fmt.Errorf("failed to queue %s: %w", event.EventType(), ctx.Err())
		}
	}
	return nil
}

// Start launches the dispatch workers
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrBusStopped
	}
	if b.running {
		return nil
	}

	b.queue = make(chan envelope, b.queueSize)
	b.running = true
	for range b.workers {
		b.wg.Add(1)
		go b.work()
	}
	b.logger.Info("Event bus started", zap.Int("workers", b.workers))
	return nil
}

// Stop closes the queue and waits for queued events to be handled or for
// ctx to expire.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	wasRunning := b.running
	b.running = false
	b.stopped = true
	if wasRunning {
		close(b.queue)
	}
	b.mu.Unlock()

	if !wasRunning {
		return nil
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) work() {
	defer b.wg.Done()
	for env := range b.queue {
		if err := b.dispatch(env.ctx, env.event); err != nil {
			b.logger.Error("Event handling failed",
				zap.String("event_type", env.event.EventType()),
				zap.String("event_id", env.event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatch runs every handler for event and joins their errors. One
// failing handler does not stop the others.
func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) error {
	handlers := b.registry.Handlers(event.EventType())
	if len(handlers) == 0 {
		b.logger.Debug("No handler for event", zap.String("event_type", event.EventType()))
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "event."+event.EventType(),
		telemetry.AttrEventType.String(event.EventType()),
		telemetry.AttrEventID.String(event.EventID().String()),
	)
	defer span.End()

	var errs []error
	for _, handler := range handlers {
		if err := b.safeHandle(ctx, handler, event); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	telemetry.RecordError(span, err)
	return err
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
			err = fmt.Errorf("handler panicked on %s: %v", event.EventType(), r)
		}
	}()
	return handler.Handle(ctx, event)
}
