package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// inboxSize bounds the number of pending commands before senders block.
const inboxSize = 64

// PlaybackConfig tunes the transport.
type PlaybackConfig struct {
	// PollInterval is the position poll cadence while playing
	PollInterval time.Duration

	// RestartThreshold is the position past which SkipPrevious restarts the track
	RestartThreshold time.Duration

	Credit CreditConfig
}

// DefaultPlaybackConfig returns the standard transport settings.
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		PollInterval:     500 * time.Millisecond,
		RestartThreshold: 5 * time.Second,
		Credit:           DefaultCreditConfig(),
	}
}

// Validate checks that every tick of an uninterrupted listen fits the credit window.
func (c PlaybackConfig) Validate() error {
	if c.PollInterval <= 0 {
		return domain.NewValidationError("playback.poll_interval", c.PollInterval, "must be positive")
	}
	if c.RestartThreshold < 0 {
		return domain.NewValidationError("playback.restart_threshold", c.RestartThreshold, "must not be negative")
	}
	if err := c.Credit.Validate(); err != nil {
		return err
	}
	if c.Credit.MaxDelta < c.PollInterval {
		return domain.NewValidationError("credit.max_delta", c.Credit.MaxDelta, "must not be below playback.poll_interval")
	}
	return nil
}

// ModeStore persists the selected playback mode.
type ModeStore interface {
	Mode() domain.PlaybackMode
	SetMode(mode domain.PlaybackMode) error
}

// PlayCreditor records a credited play.
type PlayCreditor interface {
	Credit(track domain.Track, percent int) error
}

// session is the state of one loaded track.
type session struct {
	id       string
	track    domain.Track
	handle   domain.TrackHandle
	duration time.Duration
	position time.Duration
}

type command struct {
	fn    func() error
	reply chan error
}

// PlaybackService is the playback mode state machine.
//
// A single goroutine owns the session. Public methods, engine callbacks and
// poll ticks are all commands executed in order on that goroutine, so the
// queue and the session are never mutated from two places at once.
//
// Events are published from the owner goroutine. Subscribers must not call
// back into PlaybackService synchronously from a handler.
type PlaybackService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	engine  ports.AudioEngine
	queue   *QueueService
	credits PlayCreditor
	modes   ModeStore
	bus     ports.EventBus
	cfg     PlaybackConfig

	// Owned by the run goroutine
	mode       domain.PlaybackMode
	status     domain.PlaybackStatus
	session    *session
	tracker    *CreditTracker
	pollCancel context.CancelFunc

	// generation changes whenever the loaded track is left or repositioned.
	// Engine callbacks captured under an older generation are ignored.
	generation atomic.Uint64

	// Read view for State, refreshed after every command
	view    domain.PlaybackState
	stateMu sync.RWMutex

	// Concurrency control
	inbox     chan command
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPlaybackService creates a playback service and starts its owner goroutine.
// The initial mode is read from modes. Call Shutdown to release it.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	queue *QueueService,
	credits PlayCreditor,
	modes ModeStore,
	bus ports.EventBus,
	cfg PlaybackConfig,
) *PlaybackService {
	defaults := DefaultPlaybackConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.RestartThreshold <= 0 {
		cfg.RestartThreshold = defaults.RestartThreshold
	}
	if cfg.Credit.ThresholdPercent == 0 {
		cfg.Credit.ThresholdPercent = defaults.Credit.ThresholdPercent
	}
	if cfg.Credit.MinDelta == 0 {
		cfg.Credit.MinDelta = defaults.Credit.MinDelta
	}
	if cfg.Credit.MaxDelta == 0 {
		cfg.Credit.MaxDelta = DefaultMaxDelta(cfg.PollInterval)
	}

	s := &PlaybackService{
		logger:  logger.With(slog.String("service", "playback")),
		engine:  engine,
		queue:   queue,
		credits: credits,
		modes:   modes,
		bus:     bus,
		cfg:     cfg,
		mode:    modes.Mode(),
		status:  domain.StatusStopped,
		tracker: NewCreditTracker(cfg.Credit),
		inbox:   make(chan command, inboxSize),
		done:    make(chan struct{}),
	}
	s.refreshView()

	engine.OnCompletion(s.onCompletion)
	engine.OnError(s.onError)

	s.wg.Add(1)
	go s.run()

	s.logger.Debug("playback service initialized",
		slog.String("mode", s.mode.String()),
		slog.Duration("poll_interval", cfg.PollInterval),
	)
	return s
}

func (s *PlaybackService) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.inbox:
			select {
			case <-s.done:
				if cmd.reply != nil {
					cmd.reply <- domain.ErrServiceClosed
				}
				return
			default:
			}

			err := cmd.fn()
			s.refreshView()
			if cmd.reply != nil {
				cmd.reply <- err
			}
		}
	}
}

// do runs fn on the owner goroutine and waits for its result.
func (s *PlaybackService) do(fn func() error) error {
	reply := make(chan error, 1)

	select {
	case s.inbox <- command{fn: fn, reply: reply}:
	case <-s.done:
		return domain.ErrServiceClosed
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return domain.ErrServiceClosed
	}
}

// post queues fn without waiting.
func (s *PlaybackService) post(fn func()) {
	cmd := command{fn: func() error {
		fn()
		return nil
	}}

	select {
	case s.inbox <- cmd:
	case <-s.done:
	}
}

// Engine callbacks

func (s *PlaybackService) onCompletion(handle domain.TrackHandle) {
	gen := s.generation.Load()
	s.post(func() { s.handleCompletion(handle, gen) })
}

func (s *PlaybackService) onError(handle domain.TrackHandle, err error) {
	gen := s.generation.Load()
	s.post(func() { s.handleEngineError(handle, gen, err) })
}

func (s *PlaybackService) isStale(handle domain.TrackHandle, gen uint64) bool {
	return s.session == nil || s.session.handle != handle || s.generation.Load() != gen
}

// handleCompletion applies the mode transition for a track that reached its end.
func (s *PlaybackService) handleCompletion(handle domain.TrackHandle, gen uint64) {
	if s.isStale(handle, gen) {
		s.logger.Debug("ignoring stale completion", slog.Int64("handle", int64(handle)))
		return
	}

	track := s.session.track
	s.finalizeCredit(s.session.duration)
	s.bus.Publish(domain.NewTrackCompletedEvent(track, s.mode))

	s.logger.Debug("track completed",
		slog.String("path", track.Path),
		slog.String("mode", s.mode.String()),
	)

	var err error
	switch s.mode {
	case domain.ModeRepeatOne:
		err = s.restart()

	case domain.ModeStopAfter:
		s.stopInternal(false)

	case domain.ModeShuffle:
		err = s.nextShuffled(track)

	case domain.ModeRepeatAll:
		var moved bool
		if moved, err = s.queue.Advance(); err == nil && !moved {
			err = s.queue.SetCurrentIndex(0)
		}
		if err == nil {
			err = s.playCurrent()
		}

	default:
		var moved bool
		if moved, err = s.queue.Advance(); err == nil {
			if moved {
				err = s.playCurrent()
			} else {
				s.stopInternal(false)
			}
		}
	}

	if err != nil {
		s.logger.Warn("failed to continue after completion", slog.Any("error", err))
		s.stopInternal(false)
	}
}

// nextShuffled advances through the shuffled pass and reshuffles at its end.
// The track that just finished is not replayed first when there is a choice.
func (s *PlaybackService) nextShuffled(finished domain.Track) error {
	moved, err := s.queue.Advance()
	if err != nil {
		return err
	}

	if !moved {
		if err := s.queue.Shuffle(); err != nil {
			return err
		}
		if cur := s.queue.Current(); cur != nil && cur.Path == finished.Path && s.queue.Len() > 1 {
			if err := s.queue.SetCurrentIndex(1); err != nil {
				return err
			}
		}
	}

	return s.playCurrent()
}

func (s *PlaybackService) handleEngineError(handle domain.TrackHandle, gen uint64, err error) {
	if s.isStale(handle, gen) {
		s.logger.Debug("ignoring stale engine error", slog.Int64("handle", int64(handle)), slog.Any("error", err))
		return
	}

	track := s.session.track
	s.logger.Error("playback failed", slog.String("path", track.Path), slog.Any("error", err))
	s.bus.Publish(domain.NewTrackErrorEvent(track, err))
	s.stopInternal(false)
}

// Transport

// Play starts the current queue track when nothing is loaded, or resumes a paused one.
func (s *PlaybackService) Play() error {
	return s.do(s.playOrResume)
}

func (s *PlaybackService) playOrResume() error {
	switch {
	case s.session == nil:
		return s.playCurrent()

	case s.status == domain.StatusPaused:
		if err := s.engine.Play(); err != nil {
			return domain.NewServiceError("PlaybackService", "Play", "failed to resume", err)
		}
		s.setStatus(domain.StatusPlaying)
		s.startPolling()
	}
	return nil
}

// Pause pauses playback. The queue is not touched.
func (s *PlaybackService) Pause() error {
	return s.do(s.pauseInternal)
}

func (s *PlaybackService) pauseInternal() error {
	if s.session == nil {
		return domain.ErrNoTrackLoaded
	}
	if s.status != domain.StatusPlaying {
		return nil
	}

	if err := s.engine.Pause(); err != nil {
		return domain.NewServiceError("PlaybackService", "Pause", "failed to pause", err)
	}
	s.stopPolling()
	if pos, err := s.engine.Position(); err == nil {
		s.session.position = pos
	}
	s.setStatus(domain.StatusPaused)
	return nil
}

// TogglePlay pauses when playing, otherwise plays.
func (s *PlaybackService) TogglePlay() error {
	return s.do(func() error {
		if s.status == domain.StatusPlaying {
			return s.pauseInternal()
		}
		return s.playOrResume()
	})
}

// Stop credits a pending near-complete play and ends the session.
func (s *PlaybackService) Stop() error {
	return s.do(func() error {
		s.stopInternal(true)
		return nil
	})
}

// SkipNext plays the next queue track. At the end of the queue it returns
// ErrNoNextTrack and leaves playback unchanged.
func (s *PlaybackService) SkipNext() error {
	return s.do(func() error {
		moved, err := s.queue.Advance()
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrNoNextTrack
		}
		return s.playCurrent()
	})
}

// SkipPrevious restarts the track when past the restart threshold, otherwise
// plays the previous queue track. At the start it returns ErrNoPreviousTrack.
func (s *PlaybackService) SkipPrevious() error {
	return s.do(func() error {
		if s.session != nil {
			if pos, err := s.engine.Position(); err == nil && pos > s.cfg.RestartThreshold {
				return s.seekInternal(0)
			}
		}

		moved, err := s.queue.Retreat()
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrNoPreviousTrack
		}
		return s.playCurrent()
	})
}

// Seek moves the playback position of the loaded track.
func (s *PlaybackService) Seek(position time.Duration) error {
	return s.do(func() error {
		return s.seekInternal(position)
	})
}

func (s *PlaybackService) seekInternal(position time.Duration) error {
	if s.session == nil {
		return domain.ErrNoTrackLoaded
	}
	if position < 0 || (s.session.duration > 0 && position > s.session.duration) {
		return domain.ErrInvalidPosition
	}

	s.generation.Add(1)
	if err := s.engine.Seek(position); err != nil {
		return domain.NewServiceError("PlaybackService", "Seek", "failed to seek", err)
	}

	s.tracker.Seeked()
	s.session.position = position
	s.bus.Publish(domain.NewTrackSeekedEvent(position, s.session.duration))
	return nil
}

// PlayAt jumps to index in the queue and plays it.
func (s *PlaybackService) PlayAt(index int) error {
	return s.do(func() error {
		if err := s.queue.SetCurrentIndex(index); err != nil {
			return err
		}
		return s.playCurrent()
	})
}

// PlayTracks replaces the queue with tracks and plays from start.
// In SHUFFLE mode the rest of the queue is shuffled around the start track.
func (s *PlaybackService) PlayTracks(tracks []domain.Track, start int) error {
	return s.do(func() error {
		if err := s.queue.InitializeFromPosition(tracks, start); err != nil {
			return err
		}
		if s.mode == domain.ModeShuffle {
			if err := s.queue.ShuffleKeepingCurrent(); err != nil {
				return err
			}
		}
		return s.playCurrent()
	})
}

// ShuffleAll replaces the queue with tracks in random order, switches to SHUFFLE and plays.
func (s *PlaybackService) ShuffleAll(tracks []domain.Track) error {
	return s.do(func() error {
		if err := s.queue.InitializeFromPosition(tracks, 0); err != nil {
			return err
		}
		if err := s.queue.Shuffle(); err != nil {
			return err
		}
		s.applyMode(domain.ModeShuffle)
		return s.playCurrent()
	})
}

// SetQueue replaces the queue with tracks positioned at start without
// starting playback. A loaded track is stopped and credited first.
func (s *PlaybackService) SetQueue(tracks []domain.Track, start int) error {
	return s.do(func() error {
		s.stopInternal(true)
		return s.queue.InitializeFromPosition(tracks, start)
	})
}

// AppendManual adds track to the queue in manual mode.
func (s *PlaybackService) AppendManual(track domain.Track) error {
	return s.do(func() error {
		return s.queue.ManualAppend(track)
	})
}

// MoveManual reorders the queue by hand.
func (s *PlaybackService) MoveManual(from, to int) error {
	return s.do(func() error {
		return s.queue.ManualMove(from, to)
	})
}

// CleanupQueue drops tracks whose files are gone. When the loaded track is
// among them, playback stops without crediting.
func (s *PlaybackService) CleanupQueue() (CleanupResult, error) {
	var res CleanupResult
	err := s.do(func() error {
		var err error
		res, err = s.queue.Cleanup()
		if err != nil {
			return err
		}
		if res.CurrentRemoved && s.session != nil {
			s.logger.Info("loaded track was removed, stopping", slog.String("path", s.session.track.Path))
			s.stopInternal(false)
		}
		return nil
	})
	return res, err
}

// Mode

// SetMode switches the playback mode. Entering SHUFFLE shuffles the queue
// around the current track; leaving it restores the original order unless
// the queue was reordered by hand.
func (s *PlaybackService) SetMode(mode domain.PlaybackMode) error {
	if !mode.Valid() {
		return domain.ErrInvalidMode
	}

	return s.do(func() error {
		if mode == s.mode {
			return nil
		}

		switch {
		case mode == domain.ModeShuffle:
			if err := s.queue.ShuffleKeepingCurrent(); err != nil {
				return err
			}
		case s.mode == domain.ModeShuffle && !s.queue.IsManual():
			if err := s.queue.RestoreOriginal(); err != nil {
				return err
			}
		}

		s.applyMode(mode)
		return nil
	})
}

// applyMode records mode without touching the queue.
func (s *PlaybackService) applyMode(mode domain.PlaybackMode) {
	previous := s.mode
	if previous == mode {
		return
	}

	s.mode = mode
	if err := s.modes.SetMode(mode); err != nil {
		s.logger.Warn("failed to persist playback mode", slog.Any("error", err))
	}

	s.logger.Info("playback mode changed",
		slog.String("from", previous.String()),
		slog.String("to", mode.String()),
	)
	s.bus.Publish(domain.NewModeChangedEvent(previous, mode))
}

// Mode returns the active playback mode.
func (s *PlaybackService) Mode() domain.PlaybackMode {
	return s.State().Mode
}

// State returns a copy of the session view.
func (s *PlaybackService) State() domain.PlaybackState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	state := s.view
	if state.CurrentTrack != nil {
		t := *state.CurrentTrack
		state.CurrentTrack = &t
	}
	return state
}

// Shutdown ends the session, crediting a pending play, and stops the owner goroutine.
// It is safe to call more than once.
func (s *PlaybackService) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.do(func() error {
			s.stopInternal(true)
			return nil
		})
		close(s.done)
		s.wg.Wait()
		s.logger.Debug("playback service stopped")
	})
	return err
}

// Owner-goroutine internals

// playCurrent loads and plays the queue's current track in a fresh session.
func (s *PlaybackService) playCurrent() error {
	track := s.queue.Current()
	if track == nil {
		s.stopInternal(false)
		return domain.ErrQueueEmpty
	}

	var previous *domain.Track
	if s.session != nil {
		p := s.session.track
		previous = &p
	}

	s.stopPolling()
	s.generation.Add(1)

	handle, err := s.engine.Load(track.Path)
	if err != nil {
		return s.failTrack(*track, "load", err)
	}

	duration, err := s.engine.Duration()
	if err != nil || duration <= 0 {
		duration = track.Duration
	}

	if err := s.engine.Play(); err != nil {
		return s.failTrack(*track, "play", err)
	}

	s.session = &session{
		id:       uuid.NewString(),
		track:    *track,
		handle:   handle,
		duration: duration,
	}
	s.tracker.Reset()
	s.setStatus(domain.StatusPlaying)

	s.logger.Info("playing track",
		slog.String("path", track.Path),
		slog.String("session", s.session.id),
		slog.Duration("duration", duration),
	)
	s.bus.Publish(domain.NewTrackChangedEvent(s.session.id, previous, *track, s.queue.CurrentIndex()))

	s.startPolling()
	return nil
}

// failTrack reports an engine failure on track and ends the session.
func (s *PlaybackService) failTrack(track domain.Track, op string, err error) error {
	s.logger.Error("failed to start track",
		slog.String("op", op),
		slog.String("path", track.Path),
		slog.Any("error", err),
	)
	s.bus.Publish(domain.NewTrackErrorEvent(track, err))
	s.stopInternal(false)
	return domain.NewServiceError("PlaybackService", op, "failed to start "+track.Path, err)
}

// restart replays the loaded track from the start.
func (s *PlaybackService) restart() error {
	s.generation.Add(1)

	if err := s.engine.Seek(0); err != nil {
		return s.failTrack(s.session.track, "seek", err)
	}
	if err := s.engine.Play(); err != nil {
		return s.failTrack(s.session.track, "play", err)
	}

	s.session.position = 0
	s.tracker.Reset()
	s.setStatus(domain.StatusPlaying)
	s.startPolling()
	return nil
}

// stopInternal tears the session down. With finalize set, a pending
// near-complete play is credited first.
func (s *PlaybackService) stopInternal(finalize bool) {
	s.stopPolling()

	if s.session != nil {
		if finalize {
			if pos, err := s.engine.Position(); err == nil {
				s.finalizeCredit(pos)
			}
		}

		s.generation.Add(1)
		if err := s.engine.Stop(); err != nil {
			s.logger.Warn("failed to stop engine", slog.Any("error", err))
		}
		s.session = nil
	}

	s.tracker.Reset()
	s.setStatus(domain.StatusStopped)
}

// tick runs one position poll.
func (s *PlaybackService) tick() {
	if s.session == nil || s.status != domain.StatusPlaying {
		return
	}

	pos, err := s.engine.Position()
	if err != nil {
		s.logger.Debug("position poll failed", slog.Any("error", err))
		return
	}
	s.session.position = pos

	if s.session.duration <= 0 {
		if d, err := s.engine.Duration(); err == nil {
			s.session.duration = d
		}
	}

	if ok, pct := s.tracker.Observe(pos, s.session.duration); ok {
		s.credit(pct)
	}
}

func (s *PlaybackService) finalizeCredit(position time.Duration) {
	s.session.position = position
	if ok, pct := s.tracker.Finalize(position, s.session.duration); ok {
		s.credit(pct)
	}
}

func (s *PlaybackService) credit(percent int) {
	if err := s.credits.Credit(s.session.track, percent); err != nil {
		s.logger.Warn("failed to record play", slog.String("path", s.session.track.Path), slog.Any("error", err))
	}
}

func (s *PlaybackService) setStatus(status domain.PlaybackStatus) {
	previous := s.status
	if previous == status {
		return
	}
	s.status = status

	var track *domain.Track
	if s.session != nil {
		t := s.session.track
		track = &t
	}
	s.bus.Publish(domain.NewPlaybackStateChangedEvent(previous, status, track))
}

// startPolling starts the position poll loop for the current session.
func (s *PlaybackService) startPolling() {
	s.stopPolling()

	ctx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel

	tick := command{fn: func() error {
		if ctx.Err() == nil {
			s.tick()
		}
		return nil
	}}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				select {
				case s.inbox <- tick:
				case <-ctx.Done():
					return
				case <-s.done:
					return
				}
			}
		}
	}()
}

func (s *PlaybackService) stopPolling() {
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
}

func (s *PlaybackService) refreshView() {
	view := domain.PlaybackState{
		Mode:         s.mode,
		Status:       s.status,
		CurrentIndex: -1,
	}
	if s.session != nil {
		t := s.session.track
		view.SessionID = s.session.id
		view.CurrentTrack = &t
		view.CurrentIndex = s.queue.CurrentIndex()
		view.Position = s.session.position
		view.Duration = s.session.duration
	}

	s.stateMu.Lock()
	s.view = view
	s.stateMu.Unlock()
}
