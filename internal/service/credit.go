package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// CreditConfig bounds what counts as natural listening progress.
type CreditConfig struct {
	// ThresholdPercent is the share of the track that must be reached
	ThresholdPercent float64

	// MinDelta and MaxDelta bound the position advance between two ticks
	MinDelta time.Duration
	MaxDelta time.Duration
}

// maxDeltaPolls is how many poll intervals a single tick may advance and still
// count as natural progress. Ticks can be delayed behind other commands.
const maxDeltaPolls = 4

// DefaultCreditConfig returns the window tuned for the default 500ms poll.
func DefaultCreditConfig() CreditConfig {
	return CreditConfig{
		ThresholdPercent: 90,
		MinDelta:         100 * time.Millisecond,
		MaxDelta:         DefaultMaxDelta(500 * time.Millisecond),
	}
}

// DefaultMaxDelta returns the window's upper bound for ticks every pollInterval.
func DefaultMaxDelta(pollInterval time.Duration) time.Duration {
	return maxDeltaPolls * pollInterval
}

// Validate checks that the window is usable.
func (c CreditConfig) Validate() error {
	if c.ThresholdPercent <= 0 || c.ThresholdPercent > 100 {
		return domain.NewValidationError("credit.threshold_percent", c.ThresholdPercent, "must be in (0, 100]")
	}
	if c.MinDelta <= 0 {
		return domain.NewValidationError("credit.min_delta", c.MinDelta, "must be positive")
	}
	if c.MaxDelta < c.MinDelta {
		return domain.NewValidationError("credit.max_delta", c.MaxDelta, "must not be below min_delta")
	}
	return nil
}

// CreditTracker decides when the loaded track has been listened to.
// It holds the per-load counting state and has no side effects.
//
// Thread-safety: not thread-safe; it is owned by the playback actor.
type CreditTracker struct {
	cfg CreditConfig

	counted     bool
	lastChecked time.Duration
	justSeeked  bool
}

// NewCreditTracker creates a tracker with the given window.
func NewCreditTracker(cfg CreditConfig) *CreditTracker {
	return &CreditTracker{cfg: cfg}
}

// Reset clears the state for a newly loaded track.
func (t *CreditTracker) Reset() {
	t.counted = false
	t.lastChecked = 0
	t.justSeeked = false
}

// Seeked clears the state and skips the next evaluation.
func (t *CreditTracker) Seeked() {
	t.counted = false
	t.lastChecked = 0
	t.justSeeked = true
}

// Counted reports whether the current load was already credited.
func (t *CreditTracker) Counted() bool {
	return t.counted
}

// Observe evaluates one poll tick. It returns true exactly once per load,
// together with the played percentage.
func (t *CreditTracker) Observe(position, duration time.Duration) (bool, int) {
	return t.evaluate(position, duration, t.cfg.MinDelta)
}

// Finalize evaluates the last known position when the session ends.
// A zero advance is accepted since no tick may have run since the previous one.
func (t *CreditTracker) Finalize(position, duration time.Duration) (bool, int) {
	return t.evaluate(position, duration, 0)
}

func (t *CreditTracker) evaluate(position, duration, minDelta time.Duration) (bool, int) {
	if t.counted || duration <= 0 {
		return false, 0
	}

	pct := float64(position) * 100 / float64(duration)

	if t.justSeeked {
		t.justSeeked = false
		t.lastChecked = position
		return false, 0
	}

	delta := position - t.lastChecked
	t.lastChecked = position

	if pct < t.cfg.ThresholdPercent || delta < minDelta || delta > t.cfg.MaxDelta {
		return false, 0
	}

	t.counted = true
	return true, min(int(pct), 100)
}

// CreditService records a credited play: counter, history record, notification.
type CreditService struct {
	logger *slog.Logger
	counts ports.PlayCountRepository
	log    ports.HistoryStore
	genres ports.GenreResolver
	bus    ports.EventBus
	now    func() time.Time
}

// NewCreditService creates a credit service. genres may be nil.
func NewCreditService(
	logger *slog.Logger,
	counts ports.PlayCountRepository,
	history ports.HistoryStore,
	genres ports.GenreResolver,
	bus ports.EventBus,
) *CreditService {
	return &CreditService{
		logger: logger.With(slog.String("service", "credit")),
		counts: counts,
		log:    history,
		genres: genres,
		bus:    bus,
		now:    time.Now,
	}
}

// Credit increments the play counter of track and appends a history record.
// Both writes are attempted even if one fails; the stats notification is
// published once the counter was updated.
func (s *CreditService) Credit(track domain.Track, percent int) error {
	count, countErr := s.counts.IncrementPlayCount(track.Path)
	if countErr != nil {
		countErr = domain.NewServiceError("CreditService", "Credit", "failed to increment play count", countErr)
	}

	event := domain.NewPlayEvent(s.now(), track, s.genreOf(track), percent)
	historyErr := s.log.Append(event)
	if historyErr != nil {
		historyErr = domain.NewServiceError("CreditService", "Credit", "failed to append history", historyErr)
	}

	if countErr == nil {
		s.bus.Publish(domain.NewStatsUpdatedEvent(event, count))
	}

	s.logger.Info("play credited",
		slog.String("path", track.Path),
		slog.Int("percent", percent),
		slog.Int("count", count),
	)

	return errors.Join(countErr, historyErr)
}

func (s *CreditService) genreOf(track domain.Track) string {
	if track.Genre != "" || s.genres == nil {
		return track.Genre
	}
	return s.genres.Genre(track.Path)
}
