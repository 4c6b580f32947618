package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "order", uuid.New())}
}

type testHandler struct {
	eventTypes []string
	err        error
	panicMsg   string

	mu      sync.Mutex
	handled []shared.DomainEvent
	done    chan struct{}
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes, done: make(chan struct{}, 16)}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	h.done <- struct{}{}

	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_PublishInline(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	placed := newTestHandler("checkout.order.placed")
	all := newTestHandler()
	bus.Subscribe(placed)
	bus.Subscribe(all)

	event := newTestEvent("checkout.order.placed")
	require.NoError(t, bus.Publish(context.Background(), event))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("product.written")))

	assert.Equal(t, 1, placed.count())
	assert.Same(t, event, placed.handled[0])
	assert.Equal(t, 2, all.count())
	assert.Equal(t, []string{"checkout.order.placed"}, bus.EventTypes())
}

func TestInMemoryEventBus_InlineErrorsAreJoined(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("customer.registered")
	failing.err = errors.New("relation rejected")
	panicking := newTestHandler("customer.registered")
	panicking.panicMsg = "nil address"
	healthy := newTestHandler("customer.registered")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("customer.registered"))

	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Contains(t, err.Error(), "nil address")
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler("product.written")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("product.written")))
	assert.Zero(t, handler.count())
	assert.Empty(t, bus.EventTypes())
}

func TestInMemoryEventBus_Async(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithWorkers(2), WithQueueSize(4))
	handler := newTestHandler("checkout.order.placed")
	handler.err = errors.New("logged only")
	bus.Subscribe(handler)

	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Start(ctx))

	reqCtx, cancel := context.WithCancel(ctx)
	for range 3 {
		require.NoError(t, bus.Publish(reqCtx, newTestEvent("checkout.order.placed")))
	}
	cancel()

	for range 3 {
		select {
		case <-handler.done:
		case <-time.After(2 * time.Second):
			t.Fatal("event not handled")
		}
	}

	stopCtx, stopCancel := context.WithTimeout(ctx, 2*time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, 3, handler.count())

	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("checkout.order.placed")), ErrBusStopped)
	assert.ErrorIs(t, bus.Start(ctx), ErrBusStopped)
}

func TestInMemoryEventBus_StopWithoutStart(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	a := newTestHandler()
	b := newTestHandler()
	wildcard := newTestHandler()

	r.Register(a, "x", "y")
	r.Register(a, "x")
	r.Register(b, "y")
	r.Register(wildcard)
	r.Register(wildcard)

	assert.Len(t, r.Handlers("x"), 2)
	assert.Len(t, r.Handlers("y"), 3)
	assert.Len(t, r.Handlers("z"), 1)
	assert.Equal(t, []string{"x", "y"}, r.EventTypes())

	r.Unregister(a)
	assert.Equal(t, []string{"y"}, r.EventTypes())
	assert.Len(t, r.Handlers("y"), 2)
}
