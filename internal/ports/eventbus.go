// Package ports define the EventBus interface for event-driven communication.
// The event bus is the notification sink: the core publishes fire-and-forget events
// (track changed, playback state changed, stats updated) for collaborators to react to.
package ports

import (
	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// Producers (services) do not know their consumers (UI shell, file watcher, logging).
// Multiple subscribers can listen to the same event type.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Handlers run on the publishing goroutine. A handler must not call back into the
// PlaybackService synchronously; dispatch to another goroutine instead.
//
// Example usage:
//
//	subID := bus.Subscribe(domain.EventStatsUpdated, func(event domain.Event) {
//	    e := event.(domain.StatsUpdatedEvent)
//	    ui.RefreshPlayCount(e.Play.TrackPath, e.PlayCount)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of its type, then to wildcard subscribers.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each subscription gets a unique SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether anyone listens for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	Close() error
}

// EventFilter is a function that determines if an event should be delivered to a subscriber.
type EventFilter func(event domain.Event) bool

// FilteringEventBus extends EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers a handler that only sees events passing the filter.
	//
	// Example: only handle credits for one file
	//	bus.SubscribeFiltered(domain.EventStatsUpdated, func(e domain.Event) bool {
	//	    return e.(domain.StatsUpdatedEvent).Play.TrackPath == path
	//	}, handle)
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
