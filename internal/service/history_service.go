package service

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

const (
	overallSeriesName = "All plays"
	unknownSeriesName = "Unknown"
)

// AggregateOptions selects how play history is turned into a chart.
type AggregateOptions struct {
	Bucketing domain.Bucketing
	GroupBy   domain.GroupBy

	// RangeDays limits the chart to the last RangeDays days before Now. Zero means no limit.
	RangeDays int

	// Now anchors the range. Zero means time.Now().
	Now time.Time

	// Location defines calendar boundaries. Nil means time.Local.
	Location *time.Location
}

// HistoryService reads, exports and aggregates the play history log.
type HistoryService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	store     ports.HistoryStore
	playlists ports.PlaylistRepository

	now func() time.Time
}

// NewHistoryService creates a history service. playlists may be nil, in which
// case grouping by playlist is rejected.
func NewHistoryService(logger *slog.Logger, store ports.HistoryStore, playlists ports.PlaylistRepository) *HistoryService {
	return &HistoryService{
		logger:    logger.With(slog.String("service", "history")),
		store:     store,
		playlists: playlists,
		now:       time.Now,
	}
}

// ReadAll returns every valid record in log order.
func (s *HistoryService) ReadAll() ([]domain.PlayEvent, error) {
	return s.store.ReadAll()
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *HistoryService) Recent(limit int) ([]domain.PlayEvent, error) {
	events, err := s.store.ReadAll()
	if err != nil {
		return nil, err
	}

	slices.Reverse(events)
	slices.SortStableFunc(events, func(a, b domain.PlayEvent) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// Clear deletes the whole history.
func (s *HistoryService) Clear() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.logger.Info("history cleared")
	return nil
}

// ExportFile copies the raw log to path, replacing any file there. The copy
// is written to a temp file first, so path may even be the log itself.
func (s *HistoryService) ExportFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tunecore-export-*.tmp")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := s.store.Export(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace export file: %w", err)
	}

	s.logger.Info("history exported", slog.String("path", path))
	return nil
}

// ImportFile replaces the log with the contents of path.
// A malformed file is rejected and the existing log is kept.
func (s *HistoryService) ImportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	if err := s.store.Import(f); err != nil {
		return err
	}

	s.logger.Info("history imported", slog.String("path", path))
	return nil
}

// Chart aggregates the whole log.
func (s *HistoryService) Chart(opts AggregateOptions) (domain.Chart, error) {
	events, err := s.store.ReadAll()
	if err != nil {
		return domain.Chart{}, err
	}
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	return Aggregate(events, opts, s.playlists)
}

// Aggregate buckets events by day, week (starting Monday) or month and counts
// them per group. Buckets are contiguous from the first to the last bucket that
// holds an event. Only the MaxChartSeries groups with the most plays are kept.
//
// For playlist grouping a play counts once for every playlist that currently
// contains the track; plays of tracks in no playlist are left out.
func Aggregate(events []domain.PlayEvent, opts AggregateOptions, playlists ports.PlaylistRepository) (domain.Chart, error) {
	chart := domain.Chart{Bucketing: opts.Bucketing, GroupBy: opts.GroupBy}

	if opts.GroupBy == domain.GroupPlaylist && playlists == nil {
		return chart, domain.NewValidationError("group", opts.GroupBy.String(), "playlist membership is unavailable")
	}
	if opts.RangeDays < 0 {
		return chart, domain.NewValidationError("range_days", opts.RangeDays, "must not be negative")
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var cutoff time.Time
	if opts.RangeDays > 0 {
		cutoff = now.AddDate(0, 0, -opts.RangeDays)
	}

	kept := make([]domain.PlayEvent, 0, len(events))
	for _, e := range events {
		if e.Timestamp.IsZero() || (!cutoff.IsZero() && e.Timestamp.Before(cutoff)) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return chart, nil
	}

	// Contiguous bucket range
	first := bucketStart(kept[0].Timestamp, opts.Bucketing, loc)
	last := first
	for _, e := range kept[1:] {
		b := bucketStart(e.Timestamp, opts.Bucketing, loc)
		if b.Before(first) {
			first = b
		}
		if b.After(last) {
			last = b
		}
	}

	index := make(map[int64]int)
	for b := first; !b.After(last); b = nextBucket(b, opts.Bucketing) {
		index[b.Unix()] = len(chart.Buckets)
		chart.Buckets = append(chart.Buckets, b)
	}

	series := make(map[string]*domain.Series)
	membership := make(map[string][]string)

	for _, e := range kept {
		names, err := groupNames(e, opts.GroupBy, playlists, membership)
		if err != nil {
			return domain.Chart{Bucketing: opts.Bucketing, GroupBy: opts.GroupBy}, err
		}

		i := index[bucketStart(e.Timestamp, opts.Bucketing, loc).Unix()]
		for _, name := range names {
			sr, ok := series[name]
			if !ok {
				sr = &domain.Series{Name: name, Counts: make([]int, len(chart.Buckets))}
				series[name] = sr
			}
			sr.Counts[i]++
			sr.Total++
		}
	}

	chart.Series = make([]domain.Series, 0, len(series))
	for _, sr := range series {
		chart.Series = append(chart.Series, *sr)
	}
	slices.SortFunc(chart.Series, func(a, b domain.Series) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(chart.Series) > domain.MaxChartSeries {
		chart.Series = chart.Series[:domain.MaxChartSeries]
	}

	return chart, nil
}

func groupNames(
	e domain.PlayEvent,
	groupBy domain.GroupBy,
	playlists ports.PlaylistRepository,
	cache map[string][]string,
) ([]string, error) {
	switch groupBy {
	case domain.GroupArtist:
		return []string{orUnknown(e.Artist)}, nil
	case domain.GroupAlbum:
		return []string{orUnknown(e.AlbumName)}, nil
	case domain.GroupGenre:
		return []string{orUnknown(e.Genre)}, nil
	case domain.GroupPlaylist:
		if e.TrackPath == "" {
			return nil, nil
		}
		if names, ok := cache[e.TrackPath]; ok {
			return names, nil
		}
		names, err := playlists.PlaylistsContaining(e.TrackPath)
		if err != nil {
			return nil, fmt.Errorf("resolve playlists for %s: %w", e.TrackPath, err)
		}
		cache[e.TrackPath] = names
		return names, nil
	default:
		return []string{overallSeriesName}, nil
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknownSeriesName
	}
	return s
}

// bucketStart returns the start of the bucket holding t.
func bucketStart(t time.Time, bucketing domain.Bucketing, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()

	switch bucketing {
	case domain.BucketWeek:
		// Weeks start on Monday
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case domain.BucketMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

func nextBucket(b time.Time, bucketing domain.Bucketing) time.Time {
	switch bucketing {
	case domain.BucketWeek:
		return b.AddDate(0, 0, 7)
	case domain.BucketMonth:
		return b.AddDate(0, 1, 0)
	default:
		return b.AddDate(0, 0, 1)
	}
}
