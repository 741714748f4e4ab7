package memory

import (
	"slices"
	"sort"
	"sync"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// PlaylistRepository implements ports.PlaylistRepository in memory.
// Playlists are keyed by name and hold track paths in order.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlaylistRepository struct {
	playlists map[string][]string
	mu        sync.RWMutex
}

// NewPlaylistRepository creates an empty playlist repository.
func NewPlaylistRepository() *PlaylistRepository {
	return &PlaylistRepository{playlists: make(map[string][]string)}
}

// SavePlaylist creates or replaces a playlist.
func (r *PlaylistRepository) SavePlaylist(name string, paths []string) error {
	if name == "" {
		return domain.NewValidationError("name", name, "playlist name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.playlists[name] = slices.Clone(paths)
	return nil
}

// DeletePlaylist removes a playlist. Missing playlists are a no-op.
func (r *PlaylistRepository) DeletePlaylist(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.playlists, name)
	return nil
}

// PlaylistNames returns all playlist names, sorted.
func (r *PlaylistRepository) PlaylistNames() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.playlists))
	for name := range r.playlists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// PlaylistsContaining returns the sorted names of every playlist holding path.
func (r *PlaylistRepository) PlaylistsContaining(path string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := []string{}
	for name, paths := range r.playlists {
		if slices.Contains(paths, path) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Verify interface implementation
var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
