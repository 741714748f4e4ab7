// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"io"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

// QueueStateRepository persists the queue snapshot.
//
// Thread-safety: Implementations must be thread-safe.
type QueueStateRepository interface {
	// SaveQueueState replaces the stored snapshot. The write is durable when it returns.
	SaveQueueState(snapshot domain.QueueSnapshot) error

	// LoadQueueState returns the stored snapshot, or (nil, nil) if none was saved.
	LoadQueueState() (*domain.QueueSnapshot, error)
}

// PlayCountRepository stores per-path play counters.
//
// Thread-safety: Implementations must be thread-safe.
type PlayCountRepository interface {
	// IncrementPlayCount adds one play for path and returns the new count.
	IncrementPlayCount(path string) (int, error)

	// GetPlayCount returns the count for path (0 if never played).
	GetPlayCount(path string) (int, error)

	// LoadAll returns every counter.
	LoadAll() (map[string]int, error)

	// SaveAll replaces every counter with counts in one atomic step.
	SaveAll(counts map[string]int) error
}

// PlaylistRepository exposes playlist membership for history grouping.
// Playlists themselves are owned by the host library.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// SavePlaylist creates or replaces a playlist by name.
	SavePlaylist(name string, paths []string) error

	// DeletePlaylist removes a playlist. Missing playlists are a no-op.
	DeletePlaylist(name string) error

	// PlaylistNames returns all playlist names, sorted.
	PlaylistNames() ([]string, error)

	// PlaylistsContaining returns the names of every playlist that contains path.
	PlaylistsContaining(path string) ([]string, error)
}

// PreferencesRepository persists user preferences owned by the core.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveMode persists the playback mode.
	SaveMode(mode domain.PlaybackMode) error

	// LoadMode returns the saved mode, or ModeNormal if none was saved.
	LoadMode() (domain.PlaybackMode, error)
}

// HistoryStore is the durable append-only play history.
//
// Thread-safety: Append may run concurrently with ReadAll. A reader never
// observes a partially written record.
type HistoryStore interface {
	// Append writes one record after the existing ones. Existing records are never rewritten.
	Append(event domain.PlayEvent) error

	// ReadAll parses every record. Malformed records are skipped.
	ReadAll() ([]domain.PlayEvent, error)

	// Clear deletes all records.
	Clear() error

	// Export copies the raw log to w.
	Export(w io.Writer) error

	// Import replaces the log with the contents of r.
	// The payload is validated first; a rejected payload leaves the log untouched.
	Import(r io.Reader) error
}
