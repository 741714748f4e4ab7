package memory

import (
	"sync"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// PreferencesRepository implements ports.PreferencesRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	mode domain.PlaybackMode
	mu   sync.RWMutex
}

// NewPreferencesRepository creates a repository holding the default mode.
func NewPreferencesRepository() *PreferencesRepository {
	return &PreferencesRepository{mode: domain.ModeNormal}
}

// SaveMode persists the playback mode.
func (r *PreferencesRepository) SaveMode(mode domain.PlaybackMode) error {
	if !mode.Valid() {
		return domain.ErrInvalidMode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.mode = mode
	return nil
}

// LoadMode returns the saved playback mode.
func (r *PreferencesRepository) LoadMode() (domain.PlaybackMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode, nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
