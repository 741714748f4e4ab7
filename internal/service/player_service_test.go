package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecore/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/logger"
	"github.com/tejashwikalptaru/tunecore/internal/testutil"
)

type playbackFixture struct {
	svc     *PlaybackService
	engine  *mock.Engine
	queue   *QueueService
	files   *fakeFiles
	counts  *memory.PlayCountRepository
	history *memHistory
	prefs   *memory.PreferencesRepository
	rec     *eventRecorder
}

// newPlaybackFixture wires a PlaybackService whose poll loop never fires on
// its own; tests drive ticks with tick.
func newPlaybackFixture(t *testing.T, mode domain.PlaybackMode) *playbackFixture {
	t.Helper()
	cfg := DefaultPlaybackConfig()
	cfg.PollInterval = time.Hour
	return newPlaybackFixtureConfig(t, mode, cfg)
}

func newPlaybackFixtureConfig(t *testing.T, mode domain.PlaybackMode, cfg PlaybackConfig) *playbackFixture {
	t.Helper()

	// Registered first so it runs after Shutdown
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	log := logger.NewTestLogger()
	bus, rec := newTestBus(t)
	files := newFakeFiles()
	queue := NewQueueService(log, memory.NewQueueStateRepository(), files, bus, newTestRand())

	counts := memory.NewPlayCountRepository()
	history := &memHistory{}
	credits := NewCreditService(log, counts, history, nil, bus)

	prefs := memory.NewPreferencesRepository()
	require.NoError(t, prefs.SaveMode(mode))

	engine := mock.NewEngine()
	svc := NewPlaybackService(log, engine, queue, credits, NewPreferenceService(log, prefs), bus, cfg)
	t.Cleanup(func() { _ = svc.Shutdown() })

	return &playbackFixture{
		svc:     svc,
		engine:  engine,
		queue:   queue,
		files:   files,
		counts:  counts,
		history: history,
		prefs:   prefs,
		rec:     rec,
	}
}

// sync waits until every command queued so far has run.
func (f *playbackFixture) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.do(func() error { return nil }))
}

// tick runs one position poll on the owner goroutine.
func (f *playbackFixture) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.do(func() error {
		f.svc.tick()
		return nil
	}))
}

// complete ends the loaded track naturally and waits for the transition.
func (f *playbackFixture) complete(t *testing.T) {
	t.Helper()
	f.engine.Complete()
	f.sync(t)
}

func (f *playbackFixture) playCount(t *testing.T, name string) int {
	t.Helper()
	count, err := f.counts.GetPlayCount(mkTrack(name).Path)
	require.NoError(t, err)
	return count
}

func currentTitle(state domain.PlaybackState) string {
	if state.CurrentTrack == nil {
		return ""
	}
	return state.CurrentTrack.Title
}

func TestPlaybackService_PlayTracks(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)

	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c"), 1))

	state := f.svc.State()
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Equal(t, "b", currentTitle(state))
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, mock.DefaultDuration, state.Duration)
	assert.NotEmpty(t, state.SessionID)

	assert.Equal(t, "/music/b.mp3", f.engine.LoadedPath())
	assert.Equal(t, domain.StatusPlaying, f.engine.Status())

	changed := f.rec.ofType(domain.EventTrackChanged)
	require.Len(t, changed, 1)
	event := changed[0].(domain.TrackChangedEvent)
	assert.Nil(t, event.Previous)
	assert.Equal(t, "b", event.Current.Title)
	assert.Equal(t, state.SessionID, event.SessionID)

	states := f.rec.ofType(domain.EventPlaybackStateChanged)
	require.Len(t, states, 1)
	assert.Equal(t, domain.StatusStopped, states[0].(domain.PlaybackStateChangedEvent).Previous)
	assert.Equal(t, domain.StatusPlaying, states[0].(domain.PlaybackStateChangedEvent).Current)
}

func TestPlaybackService_SetQueue(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)

	require.NoError(t, f.svc.SetQueue(mkTracks("a", "b", "c"), 2))

	state := f.svc.State()
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.Nil(t, state.CurrentTrack)
	assert.Equal(t, 2, f.queue.CurrentIndex())
	assert.Equal(t, "c", f.queue.Current().Title)
	assert.False(t, f.queue.IsManual())
	assert.Empty(t, f.engine.Loads())

	require.NoError(t, f.svc.Play())
	assert.Equal(t, "/music/c.mp3", f.engine.LoadedPath())
}

func TestPlaybackService_SetQueueStopsLoadedTrack(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetDuration("/music/a.mp3", 10*time.Second)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))
	f.engine.Advance(9500 * time.Millisecond)

	require.NoError(t, f.svc.SetQueue(mkTracks("x", "y"), 0))

	assert.Equal(t, domain.StatusStopped, f.svc.State().Status)
	assert.Equal(t, domain.StatusStopped, f.engine.Status())
	assert.Equal(t, 1, f.playCount(t, "a"))
	assert.Equal(t, "x", f.queue.Current().Title)
	assert.Len(t, f.engine.Loads(), 1)
}

func TestPlaybackService_SetQueueStartOutOfRange(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)

	require.NoError(t, f.svc.SetQueue(mkTracks("x", "y"), 5))
	assert.Equal(t, "x", f.queue.Current().Title)
	assert.Equal(t, 0, f.queue.CurrentIndex())
}

func TestPlaybackService_PlayTracksEmpty(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)

	tracks := mkTracks("a", "b")
	f.files.remove(tracks[0].Path, tracks[1].Path)

	err := f.svc.PlayTracks(tracks, 0)
	assert.ErrorIs(t, err, domain.ErrQueueEmpty)
	assert.Equal(t, domain.StatusStopped, f.svc.State().Status)
	assert.Empty(t, f.engine.Loads())
}

func TestPlaybackService_CompletionTransitions(t *testing.T) {
	tests := []struct {
		name       string
		mode       domain.PlaybackMode
		start      int
		wantStatus domain.PlaybackStatus
		wantTitle  string
		wantIndex  int
		wantLoads  int
	}{
		{name: "normal advances", mode: domain.ModeNormal, start: 0, wantStatus: domain.StatusPlaying, wantTitle: "b", wantIndex: 1, wantLoads: 2},
		{name: "normal stops at end", mode: domain.ModeNormal, start: 2, wantStatus: domain.StatusStopped, wantTitle: "", wantIndex: -1, wantLoads: 1},
		{name: "repeat all advances", mode: domain.ModeRepeatAll, start: 1, wantStatus: domain.StatusPlaying, wantTitle: "c", wantIndex: 2, wantLoads: 2},
		{name: "repeat all wraps", mode: domain.ModeRepeatAll, start: 2, wantStatus: domain.StatusPlaying, wantTitle: "a", wantIndex: 0, wantLoads: 2},
		{name: "repeat one restarts", mode: domain.ModeRepeatOne, start: 1, wantStatus: domain.StatusPlaying, wantTitle: "b", wantIndex: 1, wantLoads: 1},
		{name: "stop after stops", mode: domain.ModeStopAfter, start: 0, wantStatus: domain.StatusStopped, wantTitle: "", wantIndex: -1, wantLoads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPlaybackFixture(t, tt.mode)
			require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c"), tt.start))

			f.complete(t)

			state := f.svc.State()
			assert.Equal(t, tt.wantStatus, state.Status)
			assert.Equal(t, tt.wantTitle, currentTitle(state))
			assert.Equal(t, tt.wantIndex, state.CurrentIndex)
			assert.Len(t, f.engine.Loads(), tt.wantLoads)
			assert.Equal(t, 1, f.rec.count(domain.EventTrackCompleted))

			// The queue order never changes on completion outside SHUFFLE
			assert.Equal(t, []string{"a", "b", "c"}, titles(f.queue.Snapshot().Items))
		})
	}
}

func TestPlaybackService_RepeatOneRestartsFromZero(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeRepeatOne)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))
	handle := f.engine.Handle()

	f.complete(t)

	assert.Equal(t, handle, f.engine.Handle(), "the same load is replayed")
	assert.Equal(t, domain.StatusPlaying, f.engine.Status())
	pos, err := f.engine.Position()
	require.NoError(t, err)
	assert.Zero(t, pos)

	// The restarted load completes like any other
	f.complete(t)
	assert.Equal(t, 2, f.rec.count(domain.EventTrackCompleted))
}

func TestPlaybackService_NormalStopKeepsQueuePosition(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c"), 2))

	f.complete(t)

	assert.Equal(t, domain.StatusStopped, f.svc.State().Status)
	assert.Equal(t, domain.InvalidTrackHandle, f.engine.Handle())
	assert.Equal(t, 2, f.queue.CurrentIndex())

	// Play re-enters from the queue
	require.NoError(t, f.svc.Play())
	assert.Equal(t, "c", currentTitle(f.svc.State()))
}

func TestPlaybackService_ShufflePass(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	tracks := mkTracks("a", "b", "c", "d")

	require.NoError(t, f.svc.ShuffleAll(tracks))
	assert.Equal(t, domain.ModeShuffle, f.svc.Mode())
	assert.Equal(t, 1, f.rec.count(domain.EventModeChanged))

	saved, err := f.prefs.LoadMode()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeShuffle, saved)

	for range len(tracks) - 1 {
		f.complete(t)
	}

	loads := f.engine.Loads()
	require.Len(t, loads, len(tracks))
	assert.ElementsMatch(t, []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3", "/music/d.mp3"}, loads,
		"one pass plays every track once")

	// End of the pass reshuffles and keeps playing
	f.complete(t)
	loads = f.engine.Loads()
	require.Len(t, loads, len(tracks)+1)
	assert.NotEqual(t, loads[len(tracks)-1], loads[len(tracks)], "the finished track is not replayed first")
	assert.Equal(t, domain.StatusPlaying, f.svc.State().Status)
	assert.LessOrEqual(t, f.svc.State().CurrentIndex, 1)
}

func TestPlaybackService_ShuffleSingleTrack(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeShuffle)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	f.complete(t)

	assert.Equal(t, domain.StatusPlaying, f.svc.State().Status)
	assert.Equal(t, []string{"/music/a.mp3", "/music/a.mp3"}, f.engine.Loads())
}

func TestPlaybackService_StaleCompletionIgnored(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c"), 0))
	old := f.engine.Handle()

	require.NoError(t, f.svc.SkipNext())

	// A completion for the track that was skipped arrives late
	f.engine.CompleteHandle(old)
	f.sync(t)

	state := f.svc.State()
	assert.Equal(t, "b", currentTitle(state))
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Zero(t, f.rec.count(domain.EventTrackCompleted))
}

func TestPlaybackService_CompletionRacingSeekIgnored(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b"), 0))

	// Captured when the engine fired, handled after the user sought
	gen := f.svc.generation.Load()
	handle := f.engine.Handle()
	require.NoError(t, f.svc.Seek(time.Minute))

	require.NoError(t, f.svc.do(func() error {
		f.svc.handleCompletion(handle, gen)
		return nil
	}))

	assert.Equal(t, "a", currentTitle(f.svc.State()))
	assert.Zero(t, f.rec.count(domain.EventTrackCompleted))
}

func TestPlaybackService_EngineErrorStops(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeRepeatAll)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b"), 0))

	boom := errors.New("decoder crashed")
	f.engine.Fail(boom)
	f.sync(t)

	state := f.svc.State()
	assert.Equal(t, domain.StatusStopped, state.Status)
	assert.Nil(t, state.CurrentTrack)
	assert.Len(t, f.engine.Loads(), 1, "no automatic retry")

	errs := f.rec.ofType(domain.EventTrackError)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0].(domain.TrackErrorEvent).Error, boom)
	assert.Equal(t, 0, f.playCount(t, "a"))
}

func TestPlaybackService_LoadFailure(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetFailLoadPath("/music/b.mp3", true)

	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b"), 0))

	err := f.svc.SkipNext()
	require.Error(t, err)
	var engineErr *domain.AudioEngineError
	assert.True(t, errors.As(err, &engineErr))

	assert.Equal(t, domain.StatusStopped, f.svc.State().Status)
	assert.Equal(t, 1, f.rec.count(domain.EventTrackError))
}

func TestPlaybackService_SkipNext(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeRepeatAll)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b"), 0))
	first := f.svc.State().SessionID

	require.NoError(t, f.svc.SkipNext())
	state := f.svc.State()
	assert.Equal(t, "b", currentTitle(state))
	assert.NotEqual(t, first, state.SessionID)

	changed := f.rec.ofType(domain.EventTrackChanged)
	require.Len(t, changed, 2)
	require.NotNil(t, changed[1].(domain.TrackChangedEvent).Previous)
	assert.Equal(t, "a", changed[1].(domain.TrackChangedEvent).Previous.Title)

	// No wraparound on user skip, even in REPEAT_ALL
	assert.ErrorIs(t, f.svc.SkipNext(), domain.ErrNoNextTrack)
	state = f.svc.State()
	assert.Equal(t, "b", currentTitle(state))
	assert.Equal(t, domain.StatusPlaying, state.Status)
	assert.Len(t, f.engine.Loads(), 2)
}

func TestPlaybackService_SkipPrevious(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b"), 1))

	// Past the threshold: restart the same track
	f.engine.SetPosition(6 * time.Second)
	require.NoError(t, f.svc.SkipPrevious())
	assert.Equal(t, "b", currentTitle(f.svc.State()))
	assert.Len(t, f.engine.Loads(), 1)
	pos, err := f.engine.Position()
	require.NoError(t, err)
	assert.Zero(t, pos)
	assert.Equal(t, 1, f.rec.count(domain.EventTrackSeeked))

	// At the threshold: go back
	f.engine.SetPosition(5 * time.Second)
	require.NoError(t, f.svc.SkipPrevious())
	assert.Equal(t, "a", currentTitle(f.svc.State()))

	assert.ErrorIs(t, f.svc.SkipPrevious(), domain.ErrNoPreviousTrack)
	assert.Equal(t, "a", currentTitle(f.svc.State()))
}

func TestPlaybackService_PauseResume(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)

	assert.ErrorIs(t, f.svc.Pause(), domain.ErrNoTrackLoaded)

	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	require.NoError(t, f.svc.Pause())
	assert.Equal(t, domain.StatusPaused, f.svc.State().Status)
	assert.Equal(t, domain.StatusPaused, f.engine.Status())
	require.NoError(t, f.svc.Pause(), "pausing twice is a no-op")

	require.NoError(t, f.svc.Play())
	assert.Equal(t, domain.StatusPlaying, f.svc.State().Status)
	assert.Len(t, f.engine.Loads(), 1, "resume does not reload")

	require.NoError(t, f.svc.TogglePlay())
	assert.Equal(t, domain.StatusPaused, f.svc.State().Status)
	require.NoError(t, f.svc.TogglePlay())
	assert.Equal(t, domain.StatusPlaying, f.svc.State().Status)

	require.NoError(t, f.svc.Stop())
	assert.Equal(t, domain.StatusStopped, f.svc.State().Status)
	assert.Empty(t, f.svc.State().SessionID)
	assert.ErrorIs(t, f.svc.Pause(), domain.ErrNoTrackLoaded)
}

func TestPlaybackService_Seek(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)

	assert.ErrorIs(t, f.svc.Seek(time.Second), domain.ErrNoTrackLoaded)

	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	assert.ErrorIs(t, f.svc.Seek(-time.Second), domain.ErrInvalidPosition)
	assert.ErrorIs(t, f.svc.Seek(mock.DefaultDuration+time.Second), domain.ErrInvalidPosition)

	require.NoError(t, f.svc.Seek(time.Minute))
	assert.Equal(t, time.Minute, f.svc.State().Position)

	seeks := f.rec.ofType(domain.EventTrackSeeked)
	require.Len(t, seeks, 1)
	assert.Equal(t, time.Minute, seeks[0].(domain.TrackSeekedEvent).Position)
}

func TestPlaybackService_NaturalListeningCreditsOnce(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetDuration("/music/a.mp3", 10*time.Second)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b"), 0))

	for range 20 {
		f.engine.Advance(500 * time.Millisecond)
		f.tick(t)
	}
	assert.Equal(t, 1, f.playCount(t, "a"))
	assert.Equal(t, 10*time.Second, f.svc.State().Position)

	f.complete(t)

	assert.Equal(t, 1, f.playCount(t, "a"), "completion does not credit twice")
	events, err := f.history.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].TrackName)
	require.NotNil(t, events[0].Percent)
	assert.Equal(t, 90, *events[0].Percent)
	assert.Equal(t, 1, f.rec.count(domain.EventStatsUpdated))
}

func TestPlaybackService_ScrubbingDoesNotCredit(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetDuration("/music/a.mp3", 200*time.Second)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	f.engine.SetPosition(10 * time.Second)
	f.tick(t)
	f.engine.SetPosition(190 * time.Second)
	f.tick(t)

	assert.Equal(t, 0, f.playCount(t, "a"))
}

func TestPlaybackService_TickAfterSeekNeverCredits(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetDuration("/music/a.mp3", 10*time.Second)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	require.NoError(t, f.svc.Seek(9500*time.Millisecond))
	f.tick(t)
	assert.Equal(t, 0, f.playCount(t, "a"))

	f.engine.Advance(400 * time.Millisecond)
	f.tick(t)
	assert.Equal(t, 1, f.playCount(t, "a"))
}

func TestPlaybackService_StopCreditsPendingPlay(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetDuration("/music/a.mp3", 10*time.Second)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	f.engine.Advance(8900 * time.Millisecond)
	f.tick(t)
	assert.Equal(t, 0, f.playCount(t, "a"))

	// No tick runs between here and the stop
	f.engine.Advance(900 * time.Millisecond)
	require.NoError(t, f.svc.Stop())

	assert.Equal(t, 1, f.playCount(t, "a"))
	events, _ := f.history.ReadAll()
	require.Len(t, events, 1)
	assert.Equal(t, 98, *events[0].Percent)
}

func TestPlaybackService_PausedTickIsIgnored(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetDuration("/music/a.mp3", 10*time.Second)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	f.engine.Advance(9 * time.Second)
	f.tick(t)
	require.NoError(t, f.svc.Pause())

	f.engine.SetPosition(9500 * time.Millisecond)
	f.tick(t)
	assert.Equal(t, 0, f.playCount(t, "a"))
}

func TestPlaybackService_SetMode(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c", "d", "e"), 2))

	assert.ErrorIs(t, f.svc.SetMode(domain.PlaybackMode(42)), domain.ErrInvalidMode)
	require.NoError(t, f.svc.SetMode(domain.ModeNormal))
	assert.Zero(t, f.rec.count(domain.EventModeChanged), "same mode is a no-op")

	require.NoError(t, f.svc.SetMode(domain.ModeShuffle))
	snapshot := f.queue.Snapshot()
	assert.Equal(t, "c", snapshot.Items[0].Title, "current track pinned at index 0")
	assert.Equal(t, 0, f.svc.State().CurrentIndex)
	assert.Equal(t, "c", currentTitle(f.svc.State()))
	assert.Len(t, f.engine.Loads(), 1, "mode changes never restart the track")

	require.NoError(t, f.svc.SetMode(domain.ModeRepeatAll))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, titles(f.queue.Snapshot().Items))
	assert.Equal(t, 2, f.svc.State().CurrentIndex)

	changes := f.rec.ofType(domain.EventModeChanged)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ModeShuffle, changes[1].(domain.ModeChangedEvent).Previous)
	assert.Equal(t, domain.ModeRepeatAll, changes[1].(domain.ModeChangedEvent).Mode)

	saved, err := f.prefs.LoadMode()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeRepeatAll, saved)
}

func TestPlaybackService_LeavingShuffleKeepsManualOrder(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeShuffle)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c"), 0))

	require.NoError(t, f.svc.AppendManual(mkTrack("z")))
	before := titles(f.queue.Snapshot().Items)
	require.True(t, f.queue.IsManual())

	require.NoError(t, f.svc.SetMode(domain.ModeNormal))
	assert.Equal(t, before, titles(f.queue.Snapshot().Items))
}

func TestPlaybackService_InitialModeFromPreferences(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeStopAfter)
	assert.Equal(t, domain.ModeStopAfter, f.svc.Mode())
}

func TestPlaybackService_ManualQueueEdits(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c"), 1))

	require.NoError(t, f.svc.MoveManual(0, 2))
	assert.Equal(t, []string{"b", "c", "a"}, titles(f.queue.Snapshot().Items))
	assert.Equal(t, 0, f.svc.State().CurrentIndex)
	assert.Equal(t, "b", currentTitle(f.svc.State()))

	assert.ErrorIs(t, f.svc.MoveManual(0, 9), domain.ErrInvalidIndex)

	require.NoError(t, f.svc.AppendManual(mkTrack("d")))
	assert.Equal(t, []string{"b", "c", "a", "d"}, titles(f.queue.Snapshot().Items))
}

func TestPlaybackService_PlayAt(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a", "b", "c"), 0))

	require.NoError(t, f.svc.PlayAt(2))
	assert.Equal(t, "c", currentTitle(f.svc.State()))

	assert.ErrorIs(t, f.svc.PlayAt(7), domain.ErrInvalidIndex)
	assert.Equal(t, "c", currentTitle(f.svc.State()))
}

func TestPlaybackService_CleanupQueue(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	tracks := mkTracks("a", "b", "c")
	require.NoError(t, f.svc.PlayTracks(tracks, 1))

	f.files.remove(tracks[2].Path)
	res, err := f.svc.CleanupQueue()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.False(t, res.CurrentRemoved)
	assert.Equal(t, domain.StatusPlaying, f.svc.State().Status)

	f.files.remove(tracks[1].Path)
	res, err = f.svc.CleanupQueue()
	require.NoError(t, err)
	assert.True(t, res.CurrentRemoved)
	assert.Equal(t, domain.StatusStopped, f.svc.State().Status)
	assert.Equal(t, domain.InvalidTrackHandle, f.engine.Handle())
	assert.Equal(t, []string{"a"}, titles(f.queue.Snapshot().Items))
}

func TestPlaybackService_PollLoop(t *testing.T) {
	cfg := DefaultPlaybackConfig()
	cfg.PollInterval = 5 * time.Millisecond
	f := newPlaybackFixtureConfig(t, domain.ModeNormal, cfg)

	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	f.engine.SetPosition(42 * time.Second)
	assert.Eventually(t, func() bool {
		return f.svc.State().Position == 42*time.Second
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.svc.Pause())
	f.engine.SetPosition(50 * time.Second)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 42*time.Second, f.svc.State().Position, "no polling while paused")
}

func TestPlaybackService_Shutdown(t *testing.T) {
	f := newPlaybackFixture(t, domain.ModeNormal)
	f.engine.SetDuration("/music/a.mp3", 10*time.Second)
	require.NoError(t, f.svc.PlayTracks(mkTracks("a"), 0))

	f.engine.Advance(9 * time.Second)
	f.tick(t)
	f.engine.Advance(500 * time.Millisecond)

	require.NoError(t, f.svc.Shutdown())
	require.NoError(t, f.svc.Shutdown())

	assert.Equal(t, 1, f.playCount(t, "a"), "pending play credited on shutdown")
	assert.Equal(t, domain.InvalidTrackHandle, f.engine.Handle())
	assert.ErrorIs(t, f.svc.Play(), domain.ErrServiceClosed)

	// Late engine callbacks are dropped
	f.engine.CompleteHandle(1)
}
