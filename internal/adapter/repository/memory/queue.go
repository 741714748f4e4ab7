// Package memory provides in-memory repository implementations.
// They back tests and the ephemeral mode of the CLI; nothing survives the process.
package memory

import (
	"sync"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// QueueStateRepository implements ports.QueueStateRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type QueueStateRepository struct {
	snapshot *domain.QueueSnapshot
	saves    int
	failSave error
	mu       sync.RWMutex
}

// NewQueueStateRepository creates an empty queue repository.
func NewQueueStateRepository() *QueueStateRepository {
	return &QueueStateRepository{}
}

// SaveQueueState stores a deep copy of snapshot.
func (r *QueueStateRepository) SaveQueueState(snapshot domain.QueueSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failSave != nil {
		return domain.NewRepositoryError("save", "queue", "failed to save queue state", r.failSave)
	}

	s := snapshot.Clone()
	r.snapshot = &s
	r.saves++
	return nil
}

// LoadQueueState returns a copy of the stored snapshot, or nil if none was saved.
func (r *QueueStateRepository) LoadQueueState() (*domain.QueueSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.snapshot == nil {
		return nil, nil
	}
	s := r.snapshot.Clone()
	return &s, nil
}

// SetSaveError makes every following save fail with err (nil to clear).
func (r *QueueStateRepository) SetSaveError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSave = err
}

// Saves returns how many snapshots were stored.
func (r *QueueStateRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

// Verify interface implementation
var _ ports.QueueStateRepository = (*QueueStateRepository)(nil)
