package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

const playCountsImportKind = "playcounts"

// TrackCount is the play count of one file.
type TrackCount struct {
	Path  string
	Count int
}

// StatsService exposes the per-file play counters and their bulk import/export.
type StatsService struct {
	logger *slog.Logger
	counts ports.PlayCountRepository
}

// NewStatsService creates a stats service.
func NewStatsService(logger *slog.Logger, counts ports.PlayCountRepository) *StatsService {
	return &StatsService{
		logger: logger.With(slog.String("service", "stats")),
		counts: counts,
	}
}

// PlayCount returns the count for path.
func (s *StatsService) PlayCount(path string) (int, error) {
	return s.counts.GetPlayCount(path)
}

// Top returns the limit most played files, ties ordered by path.
// A non-positive limit returns every counter.
func (s *StatsService) Top(limit int) ([]TrackCount, error) {
	all, err := s.counts.LoadAll()
	if err != nil {
		return nil, err
	}

	out := make([]TrackCount, 0, len(all))
	for _, path := range slices.Sorted(maps.Keys(all)) {
		out = append(out, TrackCount{Path: path, Count: all[path]})
	}
	slices.SortStableFunc(out, func(a, b TrackCount) int {
		return b.Count - a.Count
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ExportPlayCounts writes every counter to w as a JSON object of path to count.
func (s *StatsService) ExportPlayCounts(w io.Writer) error {
	all, err := s.counts.LoadAll()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		return fmt.Errorf("encode play counts: %w", err)
	}

	s.logger.Info("play counts exported", slog.Int("tracks", len(all)))
	return nil
}

// ImportPlayCounts replaces every counter with the JSON object read from r.
// The whole payload is validated first; a rejected payload changes nothing.
func (s *StatsService) ImportPlayCounts(r io.Reader) error {
	counts, err := decodePlayCounts(r)
	if err != nil {
		return err
	}

	if err := s.counts.SaveAll(counts); err != nil {
		return domain.NewServiceError("StatsService", "ImportPlayCounts", "failed to store play counts", err)
	}

	s.logger.Info("play counts imported", slog.Int("tracks", len(counts)))
	return nil
}

func decodePlayCounts(r io.Reader) (map[string]int, error) {
	dec := json.NewDecoder(r)

	var counts map[string]int
	if err := dec.Decode(&counts); err != nil {
		return nil, domain.NewImportError(playCountsImportKind, "payload is not a JSON object of path to count", err)
	}
	if counts == nil {
		return nil, domain.NewImportError(playCountsImportKind, "payload is null", nil)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewImportError(playCountsImportKind, "unexpected data after the JSON object", err)
	}

	for path, count := range counts {
		if path == "" {
			return nil, domain.NewImportError(playCountsImportKind, "empty track path", nil)
		}
		if count < 0 {
			return nil, domain.NewImportError(playCountsImportKind, fmt.Sprintf("negative count %d for %s", count, path), nil)
		}
	}
	return counts, nil
}
