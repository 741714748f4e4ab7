// Package domain defines events for the event-driven architecture.
// Events are the notification sink through which the core informs collaborators.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackChanged         EventType = "track.changed"
	EventPlaybackStateChanged EventType = "playback.state_changed"
	EventTrackCompleted       EventType = "track.completed"
	EventTrackSeeked          EventType = "track.seeked"
	EventTrackError           EventType = "track.error"

	// Mode events
	EventModeChanged EventType = "mode.changed"

	// Queue events
	EventQueueChanged EventType = "queue.changed"

	// Statistics events
	EventStatsUpdated EventType = "stats.updated"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackChangedEvent is published when playback starts on a different track.
type TrackChangedEvent struct {
	baseEvent
	SessionID string
	Previous  *Track
	Current   Track
	Index     int
}

// Type returns the event type.
func (e TrackChangedEvent) Type() EventType {
	return EventTrackChanged
}

// NewTrackChangedEvent creates a new TrackChangedEvent.
func NewTrackChangedEvent(sessionID string, previous *Track, current Track, index int) TrackChangedEvent {
	return TrackChangedEvent{
		baseEvent: newBaseEvent(),
		SessionID: sessionID,
		Previous:  previous,
		Current:   current,
		Index:     index,
	}
}

// PlaybackStateChangedEvent is published when the session status changes.
type PlaybackStateChangedEvent struct {
	baseEvent
	Previous PlaybackStatus
	Current  PlaybackStatus
	Track    *Track
}

// Type returns the event type.
func (e PlaybackStateChangedEvent) Type() EventType {
	return EventPlaybackStateChanged
}

// NewPlaybackStateChangedEvent creates a new PlaybackStateChangedEvent.
func NewPlaybackStateChangedEvent(previous, current PlaybackStatus, track *Track) PlaybackStateChangedEvent {
	return PlaybackStateChangedEvent{
		baseEvent: newBaseEvent(),
		Previous:  previous,
		Current:   current,
		Track:     track,
	}
}

// TrackCompletedEvent is published when a track finishes playing naturally.
type TrackCompletedEvent struct {
	baseEvent
	Track Track
	Mode  PlaybackMode
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType {
	return EventTrackCompleted
}

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(track Track, mode PlaybackMode) TrackCompletedEvent {
	return TrackCompletedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Mode:      mode,
	}
}

// TrackSeekedEvent is published after a seek on the loaded track.
type TrackSeekedEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackSeekedEvent) Type() EventType {
	return EventTrackSeeked
}

// NewTrackSeekedEvent creates a new TrackSeekedEvent.
func NewTrackSeekedEvent(position, duration time.Duration) TrackSeekedEvent {
	return TrackSeekedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// TrackErrorEvent is published when the audio engine fails on a track.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// ModeChangedEvent is published when the playback mode changes.
type ModeChangedEvent struct {
	baseEvent
	Previous PlaybackMode
	Mode     PlaybackMode
}

// Type returns the event type.
func (e ModeChangedEvent) Type() EventType {
	return EventModeChanged
}

// NewModeChangedEvent creates a new ModeChangedEvent.
func NewModeChangedEvent(previous, mode PlaybackMode) ModeChangedEvent {
	return ModeChangedEvent{
		baseEvent: newBaseEvent(),
		Previous:  previous,
		Mode:      mode,
	}
}

// QueueChangedEvent is published after every queue mutation.
type QueueChangedEvent struct {
	baseEvent
	Items    []Track
	Index    int
	IsManual bool
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent from a snapshot.
func NewQueueChangedEvent(snapshot QueueSnapshot) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Items:     CloneTracks(snapshot.Items),
		Index:     snapshot.CurrentIndex,
		IsManual:  snapshot.IsManual,
	}
}

// StatsUpdatedEvent is published when a play is credited.
type StatsUpdatedEvent struct {
	baseEvent
	Play      PlayEvent
	PlayCount int
}

// Type returns the event type.
func (e StatsUpdatedEvent) Type() EventType {
	return EventStatsUpdated
}

// NewStatsUpdatedEvent creates a new StatsUpdatedEvent.
func NewStatsUpdatedEvent(play PlayEvent, playCount int) StatsUpdatedEvent {
	return StatsUpdatedEvent{
		baseEvent: newBaseEvent(),
		Play:      play,
		PlayCount: playCount,
	}
}
