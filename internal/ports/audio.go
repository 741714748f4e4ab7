// Package ports define interfaces for dependency inversion.
// These interfaces allow the core playback logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

// AudioEngine is the interface for the external audio engine.
// The core never decodes or renders audio; it only drives an engine through this port.
//
// The engine holds at most one loaded track. Every transport method acts on it.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	// Load loads an audio file, replacing any loaded track.
	// Every call returns a fresh handle, so handles identify a single load.
	//
	// Returns an error if the file cannot be loaded.
	Load(path string) (domain.TrackHandle, error)

	// Play starts or resumes playback of the loaded track.
	Play() error

	// Pause pauses playback. The position is preserved.
	Pause() error

	// Stop stops playback and unloads the track.
	Stop() error

	// Seek sets the playback position within the loaded track.
	//
	// Returns an error if the position is outside [0, Duration].
	Seek(position time.Duration) error

	// Position returns the current playback position.
	Position() (time.Duration, error)

	// Duration returns the loaded track length, or 0 if unknown.
	Duration() (time.Duration, error)

	// OnCompletion registers the callback fired when the loaded track reaches
	// its end without user intervention. Callbacks may run on any goroutine.
	OnCompletion(callback func(handle domain.TrackHandle))

	// OnError registers the callback fired when loading or playback fails
	// asynchronously. Callbacks may run on any goroutine.
	OnError(callback func(handle domain.TrackHandle, err error))
}
