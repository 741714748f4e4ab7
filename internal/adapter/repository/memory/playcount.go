package memory

import (
	"maps"
	"sync"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// PlayCountRepository implements ports.PlayCountRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlayCountRepository struct {
	counts map[string]int
	mu     sync.RWMutex
}

// NewPlayCountRepository creates an empty play count repository.
func NewPlayCountRepository() *PlayCountRepository {
	return &PlayCountRepository{counts: make(map[string]int)}
}

// IncrementPlayCount adds one play for path and returns the new count.
func (r *PlayCountRepository) IncrementPlayCount(path string) (int, error) {
	if path == "" {
		return 0, domain.ErrInvalidFilePath
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts[path]++
	return r.counts[path], nil
}

// GetPlayCount returns the count for path.
func (r *PlayCountRepository) GetPlayCount(path string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[path], nil
}

// LoadAll returns a copy of every counter.
func (r *PlayCountRepository) LoadAll() (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.counts), nil
}

// SaveAll replaces every counter with counts.
func (r *PlayCountRepository) SaveAll(counts map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts = maps.Clone(counts)
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	return nil
}

// Verify interface implementation
var _ ports.PlayCountRepository = (*PlayCountRepository)(nil)
