// Package service provides the business logic of the tunecore playback core.
package service

import (
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// QueueService owns the playback queue: the play order, the current position
// and the original order used to undo a shuffle.
//
// Every mutation persists the full snapshot before returning and then publishes
// a QueueChangedEvent. Readers get copies, so they never observe a half-applied
// mutation. All operations are thread-safe via sync.RWMutex.
type QueueService struct {
	// Dependencies (injected)
	logger *slog.Logger
	repo   ports.QueueStateRepository
	files  ports.FileChecker
	bus    ports.EventBus

	// State
	state domain.QueueSnapshot
	rng   *rand.Rand // guarded by mu

	// Concurrency control
	mu sync.RWMutex
}

// NewQueueService creates an empty queue. A nil rng selects a randomly seeded source.
func NewQueueService(
	logger *slog.Logger,
	repo ports.QueueStateRepository,
	files ports.FileChecker,
	bus ports.EventBus,
	rng *rand.Rand,
) *QueueService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &QueueService{
		logger: logger.With(slog.String("service", "queue")),
		repo:   repo,
		files:  files,
		bus:    bus,
		rng:    rng,
		state: domain.QueueSnapshot{
			Items:         []domain.Track{},
			OriginalOrder: []domain.Track{},
			CurrentIndex:  -1,
		},
	}
}

// Load restores the last persisted snapshot. A missing snapshot yields an empty queue.
// An out-of-range stored index is clamped.
func (s *QueueService) Load() error {
	snapshot, err := s.repo.LoadQueueState()
	if err != nil {
		return domain.NewServiceError("QueueService", "Load", "failed to load queue", err)
	}

	s.mu.Lock()
	if snapshot == nil {
		s.state = domain.QueueSnapshot{Items: []domain.Track{}, OriginalOrder: []domain.Track{}, CurrentIndex: -1}
	} else {
		s.state = snapshot.Clone()
		s.state.CurrentIndex = clampIndex(s.state.CurrentIndex, len(s.state.Items))
	}
	out := s.state.Clone()
	s.mu.Unlock()

	s.logger.Debug("queue restored",
		slog.Int("items", len(out.Items)),
		slog.Int("index", out.CurrentIndex),
		slog.Bool("manual", out.IsManual))

	s.bus.Publish(domain.NewQueueChangedEvent(out))
	return nil
}

// InitializeFromPosition replaces the queue with the tracks whose files exist.
// The current index points at tracks[startIndex] when it survived filtering, else 0.
// If no track exists the queue becomes empty; that is not an error.
func (s *QueueService) InitializeFromPosition(tracks []domain.Track, startIndex int) error {
	filtered := make([]domain.Track, 0, len(tracks))
	current := 0
	for i, t := range tracks {
		if !s.files.Exists(t.Path) {
			continue
		}
		if i == startIndex {
			current = len(filtered)
		}
		filtered = append(filtered, t)
	}

	if dropped := len(tracks) - len(filtered); dropped > 0 {
		s.logger.Debug("skipped missing files", slog.Int("count", dropped))
	}

	return s.mutate("InitializeFromPosition", func(q *domain.QueueSnapshot) bool {
		q.Items = filtered
		q.OriginalOrder = domain.CloneTracks(filtered)
		q.CurrentIndex = clampIndex(current, len(filtered))
		q.IsManual = false
		return true
	})
}

// Shuffle replaces the queue with a random permutation of its existing tracks
// and starts from index 0. The unshuffled list becomes the original order.
func (s *QueueService) Shuffle() error {
	return s.mutate("Shuffle", func(q *domain.QueueSnapshot) bool {
		source := q.Items
		if !q.IsManual && len(q.OriginalOrder) > 0 {
			source = q.OriginalOrder
		}

		filtered := make([]domain.Track, 0, len(source))
		for _, t := range source {
			if s.files.Exists(t.Path) {
				filtered = append(filtered, t)
			}
		}

		items := domain.CloneTracks(filtered)
		s.rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

		q.Items = items
		q.OriginalOrder = filtered
		q.CurrentIndex = clampIndex(0, len(items))
		q.IsManual = false
		return true
	})
}

// ShuffleKeepingCurrent pins the current track at index 0 and permutes the rest.
// It is a no-op when there is no original order to come back to.
func (s *QueueService) ShuffleKeepingCurrent() error {
	return s.mutate("ShuffleKeepingCurrent", func(q *domain.QueueSnapshot) bool {
		if len(q.OriginalOrder) == 0 || len(q.Items) == 0 {
			return false
		}

		cur := q.CurrentIndex
		if cur < 0 || cur >= len(q.Items) {
			cur = 0
		}

		rest := make([]domain.Track, 0, len(q.Items)-1)
		rest = append(rest, q.Items[:cur]...)
		rest = append(rest, q.Items[cur+1:]...)
		s.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

		items := make([]domain.Track, 0, len(q.Items))
		items = append(items, q.Items[cur])
		items = append(items, rest...)

		q.Items = items
		q.CurrentIndex = 0
		q.IsManual = false
		return true
	})
}

// RestoreOriginal puts the original order back and keeps the current track current.
// It is a no-op when the original order is empty.
func (s *QueueService) RestoreOriginal() error {
	return s.mutate("RestoreOriginal", func(q *domain.QueueSnapshot) bool {
		if len(q.OriginalOrder) == 0 {
			return false
		}

		index := 0
		if cur := q.Current(); cur != nil {
			if i := indexOfPath(q.OriginalOrder, cur.Path); i >= 0 {
				index = i
			}
		}

		q.Items = domain.CloneTracks(q.OriginalOrder)
		q.CurrentIndex = index
		q.IsManual = false
		return true
	})
}

// ManualMove relocates the track at from to to and marks the queue manual.
// The current index follows the current track.
func (s *QueueService) ManualMove(from, to int) error {
	s.mu.RLock()
	n := len(s.state.Items)
	s.mu.RUnlock()

	if from < 0 || from >= n || to < 0 || to >= n {
		return domain.ErrInvalidIndex
	}

	return s.mutate("ManualMove", func(q *domain.QueueSnapshot) bool {
		// Re-check under the write lock
		if from >= len(q.Items) || to >= len(q.Items) || from == to {
			return false
		}

		moved := q.Items[from]
		items := make([]domain.Track, 0, len(q.Items))
		items = append(items, q.Items[:from]...)
		items = append(items, q.Items[from+1:]...)
		items = append(items[:to], append([]domain.Track{moved}, items[to:]...)...)

		cur := q.CurrentIndex
		switch {
		case cur == from:
			cur = to
		case from < cur && to >= cur:
			cur--
		case from > cur && to <= cur:
			cur++
		}

		q.Items = items
		q.CurrentIndex = cur
		q.IsManual = true
		return true
	})
}

// ManualAppend adds track at the end of the queue. The first append after a
// non-manual state first drops everything after the current track.
func (s *QueueService) ManualAppend(track domain.Track) error {
	return s.mutate("ManualAppend", func(q *domain.QueueSnapshot) bool {
		if !q.IsManual && q.CurrentIndex >= 0 && q.CurrentIndex < len(q.Items) {
			q.Items = q.Items[:q.CurrentIndex+1]
		}

		q.Items = append(q.Items, track)
		if q.CurrentIndex < 0 {
			q.CurrentIndex = 0
		}
		q.IsManual = true
		return true
	})
}

// Advance moves to the next track. It returns false at the end of the queue.
func (s *QueueService) Advance() (bool, error) {
	return s.step("Advance", 1)
}

// Retreat moves to the previous track. It returns false at the start of the queue.
func (s *QueueService) Retreat() (bool, error) {
	return s.step("Retreat", -1)
}

func (s *QueueService) step(op string, delta int) (bool, error) {
	moved := false
	err := s.mutate(op, func(q *domain.QueueSnapshot) bool {
		next := q.CurrentIndex + delta
		if len(q.Items) == 0 || next < 0 || next >= len(q.Items) {
			return false
		}
		q.CurrentIndex = next
		moved = true
		return true
	})
	return moved, err
}

// SetCurrentIndex jumps to index.
func (s *QueueService) SetCurrentIndex(index int) error {
	valid := true
	err := s.mutate("SetCurrentIndex", func(q *domain.QueueSnapshot) bool {
		if index < 0 || index >= len(q.Items) {
			valid = false
			return false
		}
		q.CurrentIndex = index
		return true
	})
	if !valid {
		return domain.ErrInvalidIndex
	}
	return err
}

// CleanupResult describes what a cleanup pass removed.
type CleanupResult struct {
	Removed        int
	CurrentRemoved bool
}

// Cleanup drops every track whose file no longer exists, from both the play
// order and the original order. If the current track is dropped, the index
// moves to the track that followed it (clamped to the end).
func (s *QueueService) Cleanup() (CleanupResult, error) {
	var result CleanupResult
	err := s.mutate("Cleanup", func(q *domain.QueueSnapshot) bool {
		items := make([]domain.Track, 0, len(q.Items))
		newIndex := -1
		for i, t := range q.Items {
			if !s.files.Exists(t.Path) {
				result.Removed++
				if i == q.CurrentIndex {
					result.CurrentRemoved = true
				}
				continue
			}
			// First survivor at or after the old current position
			if newIndex < 0 && i >= q.CurrentIndex {
				newIndex = len(items)
			}
			items = append(items, t)
		}

		original := make([]domain.Track, 0, len(q.OriginalOrder))
		for _, t := range q.OriginalOrder {
			if s.files.Exists(t.Path) {
				original = append(original, t)
			}
		}

		if result.Removed == 0 && len(original) == len(q.OriginalOrder) {
			return false
		}

		// Everything from the current track onward is gone
		if newIndex < 0 {
			newIndex = len(items) - 1
		}

		q.Items = items
		q.OriginalOrder = original
		q.CurrentIndex = clampIndex(newIndex, len(items))
		return true
	})
	if result.Removed > 0 {
		s.logger.Info("queue cleanup removed missing files",
			slog.Int("removed", result.Removed),
			slog.Bool("current_removed", result.CurrentRemoved))
	}
	return result, err
}

// Snapshot returns a copy of the whole queue state.
func (s *QueueService) Snapshot() domain.QueueSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Current returns a copy of the current track, or nil if the queue is empty.
func (s *QueueService) Current() *domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Current()
}

// CurrentIndex returns the current index, -1 when the queue is empty.
func (s *QueueService) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentIndex
}

// Len returns the number of queued tracks.
func (s *QueueService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Items)
}

// IsManual reports whether the user has hand-edited the queue.
func (s *QueueService) IsManual() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsManual
}

// QueueView is the read side of the queue.
type QueueView interface {
	Snapshot() domain.QueueSnapshot
	Current() *domain.Track
	CurrentIndex() int
	Len() int
	IsManual() bool
}

type queueView struct{ q *QueueService }

func (v queueView) Snapshot() domain.QueueSnapshot { return v.q.Snapshot() }
func (v queueView) Current() *domain.Track         { return v.q.Current() }
func (v queueView) CurrentIndex() int              { return v.q.CurrentIndex() }
func (v queueView) Len() int                       { return v.q.Len() }
func (v queueView) IsManual() bool                 { return v.q.IsManual() }

// View returns a read-only handle on the queue. The handle carries no
// mutators, so writes have to go through the owner of the queue.
func (s *QueueService) View() QueueView {
	return queueView{q: s}
}

// mutate applies fn to a working copy of the state under the write lock.
// When fn reports a change, the copy is persisted and installed before the
// lock is released, then a QueueChangedEvent is published.
// A failed save leaves the previous state in place.
func (s *QueueService) mutate(op string, fn func(q *domain.QueueSnapshot) bool) error {
	s.mu.Lock()

	next := s.state.Clone()
	if !fn(&next) {
		s.mu.Unlock()
		return nil
	}

	if err := s.repo.SaveQueueState(next); err != nil {
		s.mu.Unlock()
		s.logger.Warn("failed to persist queue", slog.String("op", op), slog.Any("error", err))
		return domain.NewServiceError("QueueService", op, "failed to persist queue", err)
	}

	s.state = next
	out := next.Clone()
	s.mu.Unlock()

	s.bus.Publish(domain.NewQueueChangedEvent(out))
	return nil
}

func clampIndex(index, n int) int {
	if n == 0 {
		return -1
	}
	if index < 0 || index >= n {
		return 0
	}
	return index
}

func indexOfPath(tracks []domain.Track, path string) int {
	for i, t := range tracks {
		if t.Path == path {
			return i
		}
	}
	return -1
}
