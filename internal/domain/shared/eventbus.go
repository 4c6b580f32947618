package shared

import "context"

// EventHandler reacts to store events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the events the handler wants. Empty means all.
	EventTypes() []string
}

// EventPublisher is what the webhook endpoints need from the bus
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers. Without explicit event types the
// handler's own EventTypes are used.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus delivers store events to the sync subscribers. Publishing before
// Start runs handlers inline; after Start they run on the bus workers until
// Stop drains them.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
