// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus implementation.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// ErrClosed is returned by Close on an already closed bus.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus is a synchronous implementation of the EventBus interface.
// Events are delivered to handlers synchronously in the order they were subscribed.
//
// Thread-safety: Multiple goroutines can publish events and subscribe/unsubscribe
// handlers concurrently. The subscriber list is copied before delivery, so a handler
// may unsubscribe itself.
type SyncEventBus struct {
	logger *slog.Logger

	// subscribers map event types to their subscriptions
	subscribers map[domain.EventType][]subscription

	// allSubscribers contains handlers that receive all events
	allSubscribers []subscription

	// mu protects subscribers, allSubscribers and closed
	mu sync.RWMutex

	idCounter atomic.Uint64
	closed    bool
}

// subscription is a single registered handler.
type subscription struct {
	id      domain.SubscriptionID
	filter  ports.EventFilter
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		subscribers:    make(map[domain.EventType][]subscription),
		allSubscribers: make([]subscription, 0),
	}
}

// SetLogger sets the logger for this event bus.
// This should be called after construction before using the event bus.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish publishes an event to all subscribers of that event type.
// Handlers are called synchronously in the order they subscribed.
//
// Publishing on a closed bus does nothing. Panics in handlers are recovered and
// logged, and do not stop other handlers from being called.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	targets := make([]subscription, 0, len(bus.subscribers[eventType])+len(bus.allSubscribers))
	targets = append(targets, bus.subscribers[eventType]...)
	targets = append(targets, bus.allSubscribers...)
	logger := bus.logger
	bus.mu.RUnlock()

	if logger != nil {
		logger.Debug("event published",
			slog.String("event_type", string(eventType)),
			slog.Int("handlers", len(targets)))
	}

	for _, sub := range targets {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		bus.callHandler(logger, sub, event)
	}
}

// callHandler calls an event handler and recovers from panics.
func (bus *SyncEventBus) callHandler(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("subscription", string(sub.id)),
				slog.String("event_type", string(event.Type())))
		}
	}()

	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
// The same handler can be registered multiple times with different IDs.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.SubscribeFiltered(eventType, nil, handler)
}

// SubscribeFiltered registers a handler that only receives events accepted by filter.
// A nil filter accepts everything.
func (bus *SyncEventBus) SubscribeFiltered(
	eventType domain.EventType,
	filter ports.EventFilter,
	handler domain.EventHandler,
) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	id := domain.SubscriptionID(fmt.Sprintf("sub-%d", bus.idCounter.Add(1)))
	bus.subscribers[eventType] = append(bus.subscribers[eventType], subscription{
		id:      id,
		filter:  filter,
		handler: handler,
	})

	return id
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	id := domain.SubscriptionID(fmt.Sprintf("sub-all-%d", bus.idCounter.Add(1)))
	bus.allSubscribers = append(bus.allSubscribers, subscription{id: id, handler: handler})

	return id
}

// Unsubscribe removes a previously registered event handler.
// Delivery order of the remaining handlers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.subscribers {
		if i := indexOf(subs, id); i >= 0 {
			bus.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}

	if i := indexOf(bus.allSubscribers, id); i >= 0 {
		bus.allSubscribers = append(bus.allSubscribers[:i:i], bus.allSubscribers[i+1:]...)
	}
}

func indexOf(subs []subscription, id domain.SubscriptionID) int {
	for i, sub := range subs {
		if sub.id == id {
			return i
		}
	}
	return -1
}

// HasSubscribers returns true if there are any active subscriptions for the given event type.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return len(bus.subscribers[eventType]) > 0 || len(bus.allSubscribers) > 0
}

// Close shuts down the event bus and clears all subscriptions.
//
// Returns ErrClosed if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}

	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = make([]subscription, 0)

	return nil
}

// SubscriberCount returns the number of active subscriptions for debugging.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

// Verify that SyncEventBus implements the FilteringEventBus interface
var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
