package service

import (
	"io"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/tejashwikalptaru/tunecore/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/logger"
)

// fakeFiles is a FileChecker over an in-memory set of existing paths.
type fakeFiles struct {
	mu      sync.RWMutex
	missing map[string]bool
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{missing: make(map[string]bool)}
}

func (f *fakeFiles) Exists(path string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return path != "" && !f.missing[path]
}

func (f *fakeFiles) remove(paths ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		f.missing[p] = true
	}
}

// eventRecorder collects every published event.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) handle(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) ofType(eventType domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) count(eventType domain.EventType) int {
	return len(r.ofType(eventType))
}

func newTestBus(t *testing.T) (*eventbus.SyncEventBus, *eventRecorder) {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	rec := &eventRecorder{}
	bus.SubscribeAll(rec.handle)
	t.Cleanup(func() { _ = bus.Close() })
	return bus, rec
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// queueFixture wires a QueueService with in-memory collaborators.
type queueFixture struct {
	queue *QueueService
	repo  *memory.QueueStateRepository
	files *fakeFiles
	rec   *eventRecorder
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	bus, rec := newTestBus(t)
	repo := memory.NewQueueStateRepository()
	files := newFakeFiles()
	return &queueFixture{
		queue: NewQueueService(logger.NewTestLogger(), repo, files, bus, newTestRand()),
		repo:  repo,
		files: files,
		rec:   rec,
	}
}

func mkTrack(name string) domain.Track {
	return domain.Track{
		ID:        "id-" + name,
		Path:      "/music/" + name + ".mp3",
		Title:     name,
		Artist:    "Artist " + name,
		AlbumName: "Album " + name,
	}
}

func mkTracks(names ...string) []domain.Track {
	out := make([]domain.Track, len(names))
	for i, n := range names {
		out[i] = mkTrack(n)
	}
	return out
}

func titles(tracks []domain.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}

// memHistory is an in-memory HistoryStore.
type memHistory struct {
	mu        sync.Mutex
	events    []domain.PlayEvent
	appendErr error
}

func (h *memHistory) Append(event domain.PlayEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	h.events = append(h.events, event)
	return nil
}

func (h *memHistory) ReadAll() ([]domain.PlayEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.PlayEvent, len(h.events))
	copy(out, h.events)
	return out, nil
}

func (h *memHistory) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
	return nil
}

func (h *memHistory) Export(io.Writer) error { return nil }
func (h *memHistory) Import(io.Reader) error { return nil }

// genreMap is a GenreResolver over a fixed map.
type genreMap map[string]string

func (g genreMap) Genre(path string) string { return g[path] }
