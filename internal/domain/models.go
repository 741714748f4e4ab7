// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the tunecore playback engine.
package domain

import (
	"strings"
	"time"
)

// Track represents a single playable audio file with its metadata.
// Tracks are values: once placed in a queue snapshot they are never mutated.
type Track struct {
	// ID is an opaque identifier, stable per file
	ID string `json:"id"`

	// Path is the absolute path to the audio file. It is unique per playable
	// file and acts as the primary key for dedup and lookup.
	Path string `json:"path"`

	// Title is the song title (from metadata or filename)
	Title string `json:"title"`

	// Artist is the performing artist name
	Artist string `json:"artist,omitempty"`

	// AlbumID identifies the album in the host library
	AlbumID string `json:"album_id,omitempty"`

	// AlbumName is the album name
	AlbumName string `json:"album_name,omitempty"`

	// Genre is the music genre, if known
	Genre string `json:"genre,omitempty"`

	// Duration is the total length of the track (0 if unknown)
	Duration time.Duration `json:"duration,omitempty"`

	// LastModified is the file modification time reported by the library scan
	LastModified time.Time `json:"last_modified,omitempty"`
}

// QueueSnapshot is the complete persisted state of the playback queue.
type QueueSnapshot struct {
	// Items is the play order
	Items []Track

	// OriginalOrder is the order captured at the last non-manual initialization.
	// It is used to undo a shuffle.
	OriginalOrder []Track

	// CurrentIndex points into Items, -1 when the queue is empty
	CurrentIndex int

	// IsManual is set once the user reorders or appends by hand
	IsManual bool
}

// Current returns the track at CurrentIndex, or nil if none.
func (s QueueSnapshot) Current() *Track {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Items) {
		return nil
	}
	t := s.Items[s.CurrentIndex]
	return &t
}

// Clone returns a deep copy of the snapshot.
func (s QueueSnapshot) Clone() QueueSnapshot {
	return QueueSnapshot{
		Items:         CloneTracks(s.Items),
		OriginalOrder: CloneTracks(s.OriginalOrder),
		CurrentIndex:  s.CurrentIndex,
		IsManual:      s.IsManual,
	}
}

// CloneTracks copies a track slice. A nil input yields an empty slice.
func CloneTracks(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	copy(out, tracks)
	return out
}

// PlaybackMode decides what happens when a track completes naturally.
type PlaybackMode int

const (
	// ModeNormal advances through the queue and stops at the end
	ModeNormal PlaybackMode = iota

	// ModeRepeatOne restarts the current track
	ModeRepeatOne

	// ModeRepeatAll advances and wraps to the start of the queue
	ModeRepeatAll

	// ModeShuffle plays a shuffled pass of the queue, reshuffling at the end
	ModeShuffle

	// ModeStopAfter stops after the current track
	ModeStopAfter
)

// String returns the canonical name of the mode.
func (m PlaybackMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeRepeatOne:
		return "repeat_one"
	case ModeRepeatAll:
		return "repeat_all"
	case ModeShuffle:
		return "shuffle"
	case ModeStopAfter:
		return "stop_after"
	default:
		return "unknown"
	}
}

// Valid reports whether m is one of the defined modes.
func (m PlaybackMode) Valid() bool {
	return m >= ModeNormal && m <= ModeStopAfter
}

// ParsePlaybackMode converts a mode name to a PlaybackMode.
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return ModeNormal, nil
	case "repeat_one", "repeat-one":
		return ModeRepeatOne, nil
	case "repeat_all", "repeat-all":
		return ModeRepeatAll, nil
	case "shuffle":
		return ModeShuffle, nil
	case "stop_after", "stop-after":
		return ModeStopAfter, nil
	default:
		return ModeNormal, NewValidationError("mode", s, "unknown playback mode")
	}
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates no session is active
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TrackHandle represents a handle to a track loaded in the audio engine.
// Every Load returns a fresh handle, so a handle identifies one load.
type TrackHandle int64

const (
	// InvalidTrackHandle represents an invalid or uninitialized track handle
	InvalidTrackHandle TrackHandle = 0
)

// PlaybackState is a read-only view of the playback session.
type PlaybackState struct {
	// SessionID identifies the current session, empty when stopped
	SessionID string

	// Mode is the active playback mode
	Mode PlaybackMode

	// Status is the session status
	Status PlaybackStatus

	// CurrentTrack is the loaded track (nil if none)
	CurrentTrack *Track

	// CurrentIndex is the queue position of the loaded track (-1 if none)
	CurrentIndex int

	// Position is the last known playback position
	Position time.Duration

	// Duration is the loaded track length (0 if unknown)
	Duration time.Duration
}

// IsPlaying reports whether audio is currently playing.
func (s PlaybackState) IsPlaying() bool {
	return s.Status == StatusPlaying
}

// PlayEvent is one credited play. History records are immutable once written.
type PlayEvent struct {
	Timestamp time.Time `json:"timestamp"`
	TrackPath string    `json:"track_path,omitempty"`
	TrackName string    `json:"track_name,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	AlbumName string    `json:"album_name,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Percent   *int      `json:"percent,omitempty"`
}

// NewPlayEvent builds a history record for a credited play of track.
func NewPlayEvent(at time.Time, track Track, genre string, percent int) PlayEvent {
	p := percent
	return PlayEvent{
		Timestamp: at,
		TrackPath: track.Path,
		TrackName: track.Title,
		Artist:    track.Artist,
		AlbumName: track.AlbumName,
		Genre:     genre,
		Percent:   &p,
	}
}
