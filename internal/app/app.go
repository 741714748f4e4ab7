// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecore/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/fs"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/fswatch"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/history"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/metadata"
	"github.com/tejashwikalptaru/tunecore/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/tunecore/internal/config"
	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/logger"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
	"github.com/tejashwikalptaru/tunecore/internal/service"
)

// Application is the root structure that owns every component.
//
// The Application is responsible for:
// - Creating and wiring all dependencies
// - Restoring the saved queue
// - Releasing everything on Shutdown, in reverse order of creation
type Application struct {
	// Core dependencies
	logger    *slog.Logger
	logCloser io.Closer

	// Infrastructure
	eventBus    ports.EventBus
	audioEngine ports.AudioEngine
	store       *sqlite.Store
	history     *history.FileStore
	watcher     *fswatch.Watcher

	// Services
	queueService      *service.QueueService
	preferenceService *service.PreferenceService
	creditService     *service.CreditService
	playbackService   *service.PlaybackService
	historyService    *service.HistoryService
	statsService      *service.StatsService

	subscriptions []domain.SubscriptionID
	shutdownOnce  sync.Once
}

// Option customizes NewApplication.
type Option func(*options)

type options struct {
	logOutput io.Writer
	engine    ports.AudioEngine
	noWatch   bool
}

// WithLogOutput sends log output to w instead of the configured destination.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithAudioEngine replaces the default in-memory engine.
func WithAudioEngine(engine ports.AudioEngine) Option {
	return func(o *options) { o.engine = engine }
}

// WithoutWatcher skips the file watcher regardless of configuration.
// One-shot commands use it since they exit before any cleanup could fire.
func WithoutWatcher() Option {
	return func(o *options) { o.noWatch = true }
}

// NewApplication creates an application with all dependencies wired.
// On error every component created so far is released.
func NewApplication(cfg *config.Config, opts ...Option) (_ *Application, err error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{}
	defer func() {
		if err != nil {
			app.Shutdown()
		}
	}()

	// Step 1: Create logger
	loggerCfg := cfg.LoggerConfig()
	loggerCfg.Output = o.logOutput
	app.logger, app.logCloser = logger.NewLogger(loggerCfg)
	app.logger.Debug("initializing application", slog.String("version", GetVersionInfo().Version))

	// Step 2: Create an event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Step 3: Create an audio engine
	if o.engine != nil {
		app.audioEngine = o.engine
	} else {
		engine := mock.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.audioEngine = engine
	}

	// Step 4: Open durable storage
	app.store, err = sqlite.Open(cfg.Storage.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.history, err = history.NewFileStore(cfg.Storage.HistoryFile, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	// Step 5: Create services (with dependency injection)
	app.queueService = service.NewQueueService(app.logger, app.store, fs.NewOSFileChecker(), app.eventBus, nil)
	app.preferenceService = service.NewPreferenceService(app.logger, app.store)
	app.creditService = service.NewCreditService(
		app.logger,
		app.store,
		app.history,
		metadata.NewTagGenreResolver(app.logger),
		app.eventBus,
	)
	app.historyService = service.NewHistoryService(app.logger, app.history, app.store)
	app.statsService = service.NewStatsService(app.logger, app.store)

	// Step 6: Load saved state
	if err := app.queueService.Load(); err != nil {
		// Non-fatal - start with an empty queue
		app.logger.Warn("failed to load saved queue", slog.Any("error", err))
	}

	app.playbackService = service.NewPlaybackService(
		app.logger,
		app.audioEngine,
		app.queueService,
		app.creditService,
		app.preferenceService,
		app.eventBus,
		cfg.PlaybackConfig(),
	)

	// Step 7: Watch queued files so deleted tracks are dropped
	if cfg.WatchEnabled() && !o.noWatch {
		if err := app.startWatcher(cfg.Watch.Debounce); err != nil {
			// Non-fatal - cleanup can still be requested explicitly
			app.logger.Warn("file watcher unavailable", slog.Any("error", err))
		}
	}

	app.logger.Debug("all services initialized")
	return app, nil
}

func (a *Application) startWatcher(debounce time.Duration) error {
	w, err := fswatch.New(a.cleanupQueue, debounce, a.logger)
	if err != nil {
		return err
	}
	a.watcher = w

	a.subscriptions = append(a.subscriptions,
		a.eventBus.Subscribe(domain.EventQueueChanged, w.HandleQueueChanged))

	snapshot := a.queueService.Snapshot()
	paths := make([]string, len(snapshot.Items))
	for i, t := range snapshot.Items {
		paths[i] = t.Path
	}
	w.SetPaths(paths)
	w.Start()
	return nil
}

// cleanupQueue runs on the watcher's timer goroutine, never inside a bus handler.
func (a *Application) cleanupQueue() {
	result, err := a.playbackService.CleanupQueue()
	if err != nil {
		if errors.Is(err, domain.ErrServiceClosed) {
			return
		}
		a.logger.Warn("queue cleanup failed", slog.Any("error", err))
		return
	}
	if result.Removed > 0 {
		a.logger.Info("removed missing tracks from queue",
			slog.Int("removed", result.Removed),
			slog.Bool("current_removed", result.CurrentRemoved))
	}
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// EventBus returns the notification bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Queue returns a read-only view of the queue. Changes go through Playback,
// which owns the queue while the player runs.
func (a *Application) Queue() service.QueueView {
	return a.queueService.View()
}

// Playback returns the transport.
func (a *Application) Playback() *service.PlaybackService {
	return a.playbackService
}

// History returns the history log service.
func (a *Application) History() *service.HistoryService {
	return a.historyService
}

// Stats returns the play-count service.
func (a *Application) Stats() *service.StatsService {
	return a.statsService
}

// Playlists returns the playlist membership store.
func (a *Application) Playlists() ports.PlaylistRepository {
	return a.store
}

// Shutdown releases every component in reverse order of creation.
// It is safe to call more than once.
func (a *Application) Shutdown() error {
	var errs []error
	a.shutdownOnce.Do(func() {
		if a.logger != nil {
			a.logger.Debug("shutting down application")
		}

		if a.watcher != nil {
			if err := a.watcher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close watcher: %w", err))
			}
		}
		for _, id := range a.subscriptions {
			a.eventBus.Unsubscribe(id)
		}

		// Credits a pending play, so it runs before storage closes
		if a.playbackService != nil {
			if err := a.playbackService.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("shutdown playback: %w", err))
			}
		}

		if a.eventBus != nil {
			if err := a.eventBus.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close event bus: %w", err))
			}
		}

		if a.store != nil {
			if err := a.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}

		if a.logger != nil {
			a.logger.Debug("application shutdown complete")
		}
		if a.logCloser != nil {
			if err := a.logCloser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close log: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}
