// Package mock provides a mock implementation of the AudioEngine interface.
// This is used for testing services without a real audio backend.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// DefaultDuration is the simulated length of a track with no configured duration.
const DefaultDuration = 3 * time.Minute

// Engine is a mock implementation of the AudioEngine interface.
// It simulates a single-track player in memory without producing audio.
// Tests drive time forward with Advance and end tracks with Complete.
//
// Thread-safety: This implementation is thread-safe. Callbacks are fired
// outside the lock, on the goroutine that triggered them.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Loaded track state
	handle     domain.TrackHandle
	path       string
	duration   time.Duration
	position   time.Duration
	status     domain.PlaybackStatus
	nextHandle domain.TrackHandle
	loads      []string

	// Simulated file lengths by path
	durations map[string]time.Duration

	onCompletion func(domain.TrackHandle)
	onError      func(domain.TrackHandle, error)

	// Behavior configuration (for testing error scenarios)
	failLoad      bool
	failLoadPaths map[string]bool
	failPlay      bool
	failPosition  bool

	mu sync.RWMutex
}

// NewEngine creates a new mock audio engine.
func NewEngine() *Engine {
	return &Engine{
		nextHandle:    1,
		durations:     make(map[string]time.Duration),
		failLoadPaths: make(map[string]bool),
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetDuration configures the simulated length of path. A zero duration
// simulates a file whose length the engine cannot report.
func (m *Engine) SetDuration(path string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[path] = d
}

// SetFailLoad configures the mock to fail loading every track (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailLoadPath configures the mock to fail loading one path (for testing).
func (m *Engine) SetFailLoadPath(path string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fail {
		m.failLoadPaths[path] = true
	} else {
		delete(m.failLoadPaths, path)
	}
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailPosition configures Position to return an error (for testing).
func (m *Engine) SetFailPosition(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPosition = fail
}

// Load loads an audio file, replacing the current one, and returns a fresh handle.
func (m *Engine) Load(path string) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}

	m.loads = append(m.loads, path)

	if m.failLoad || m.failLoadPaths[path] {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", path, "mock load failed", nil)
	}

	duration, ok := m.durations[path]
	if !ok {
		duration = DefaultDuration
	}

	m.handle = m.nextHandle
	m.nextHandle++
	m.path = path
	m.duration = duration
	m.position = 0
	m.status = domain.StatusStopped

	if m.logger != nil {
		m.logger.Debug("mock track loaded", slog.String("path", path), slog.Int64("handle", int64(m.handle)))
	}

	return m.handle, nil
}

// Play starts or resumes playback.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	if m.failPlay {
		return domain.ErrPlaybackFailed
	}

	m.status = domain.StatusPlaying
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	if m.status == domain.StatusPlaying {
		m.status = domain.StatusPaused
	}
	return nil
}

// Stop stops playback and unloads the track.
func (m *Engine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handle = domain.InvalidTrackHandle
	m.path = ""
	m.duration = 0
	m.position = 0
	m.status = domain.StatusStopped
	return nil
}

// Seek sets the playback position.
func (m *Engine) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	if position < 0 || (m.duration > 0 && position > m.duration) {
		return domain.ErrInvalidPosition
	}

	m.position = position
	return nil
}

// Position returns the current playback position.
func (m *Engine) Position() (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.handle == domain.InvalidTrackHandle {
		return 0, domain.ErrNoTrackLoaded
	}
	if m.failPosition {
		return 0, domain.NewAudioEngineError("position", m.path, "mock position failed", nil)
	}

	return m.position, nil
}

// Duration returns the total track duration.
func (m *Engine) Duration() (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.handle == domain.InvalidTrackHandle {
		return 0, domain.ErrNoTrackLoaded
	}

	return m.duration, nil
}

// OnCompletion registers the completion callback.
func (m *Engine) OnCompletion(callback func(handle domain.TrackHandle)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCompletion = callback
}

// OnError registers the error callback.
func (m *Engine) OnError(callback func(handle domain.TrackHandle, err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = callback
}

// Advance moves the position of a playing track forward by d, clamped to the duration.
// It does not fire completion; call Complete for that.
func (m *Engine) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != domain.StatusPlaying {
		return
	}

	m.position += d
	if m.duration > 0 && m.position > m.duration {
		m.position = m.duration
	}
}

// SetPosition forces the reported position without counting as a seek.
func (m *Engine) SetPosition(position time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = position
}

// Complete simulates the loaded track reaching its end and fires the
// completion callback with the current handle.
func (m *Engine) Complete() domain.TrackHandle {
	m.mu.Lock()
	handle := m.handle
	m.position = m.duration
	m.status = domain.StatusStopped
	callback := m.onCompletion
	m.mu.Unlock()

	if callback != nil && handle != domain.InvalidTrackHandle {
		callback(handle)
	}
	return handle
}

// CompleteHandle fires the completion callback for an arbitrary handle.
// Use it to deliver a completion that arrives after the track was replaced.
func (m *Engine) CompleteHandle(handle domain.TrackHandle) {
	m.mu.RLock()
	callback := m.onCompletion
	m.mu.RUnlock()

	if callback != nil {
		callback(handle)
	}
}

// Fail simulates an asynchronous playback failure on the loaded track.
func (m *Engine) Fail(err error) domain.TrackHandle {
	m.mu.Lock()
	handle := m.handle
	m.status = domain.StatusStopped
	callback := m.onError
	m.mu.Unlock()

	if callback != nil && handle != domain.InvalidTrackHandle {
		callback(handle, err)
	}
	return handle
}

// Handle returns the handle of the loaded track.
func (m *Engine) Handle() domain.TrackHandle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handle
}

// LoadedPath returns the path of the loaded track (empty if none).
func (m *Engine) LoadedPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Status returns the simulated playback status.
func (m *Engine) Status() domain.PlaybackStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Loads returns every path passed to Load, in order, including failed loads.
func (m *Engine) Loads() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.loads))
	copy(out, m.loads)
	return out
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
