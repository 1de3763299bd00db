package bus

import "time"

// EventBus is an in-process pub/sub bus.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Ordered delivery: handlers run in registration order, in the publisher's goroutine.
// - Snapshot iteration: a handler may subscribe or cancel during delivery; the change
//   applies from the next Publish.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Observers see every delivery after all handlers ran.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type().
	Publish(event Event) error

	// Subscribe registers a handler for an event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error
	// Subscribers returns the number of active subscriptions for an event type.
	Subscribers(eventType string) int

	AddObserver(obs EventBusObserver)
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

// EventHandler is invoked per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified once an event reached all its handlers. err
// is the joined handler error, if any.
type EventBusObserver interface {
	OnDelivered(event Event, handlers int, err error, took time.Duration)
}
