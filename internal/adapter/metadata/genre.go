// Package metadata reads embedded tags from audio files.
package metadata

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// TagGenreResolver looks up genres from ID3/MP4/FLAC/OGG tags.
// Results, including misses, are cached per path for the life of the resolver.
//
// Thread-safe: the cache is protected by a mutex.
type TagGenreResolver struct {
	logger *slog.Logger
	cache  map[string]string
	mu     sync.Mutex
}

// NewTagGenreResolver creates a resolver.
func NewTagGenreResolver(logger *slog.Logger) *TagGenreResolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TagGenreResolver{
		logger: logger,
		cache:  make(map[string]string),
	}
}

// Genre returns the tagged genre of path, or "" if unknown or unreadable.
func (r *TagGenreResolver) Genre(path string) string {
	r.mu.Lock()
	genre, ok := r.cache[path]
	r.mu.Unlock()
	if ok {
		return genre
	}

	genre = readGenre(path, r.logger)

	r.mu.Lock()
	r.cache[path] = genre
	r.mu.Unlock()
	return genre
}

func readGenre(path string, logger *slog.Logger) string {
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("genre lookup failed", slog.String("path", path), slog.String("error", err.Error()))
		return ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		logger.Debug("no readable tags", slog.String("path", path), slog.String("error", err.Error()))
		return ""
	}
	return strings.TrimSpace(m.Genre())
}

var _ ports.GenreResolver = (*TagGenreResolver)(nil)
