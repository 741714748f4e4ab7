package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// PreferenceService caches and persists the user-selected playback mode.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository

	// Cached preferences
	mode domain.PlaybackMode

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a preference service and loads the saved mode.
// A failed load falls back to ModeNormal.
func NewPreferenceService(logger *slog.Logger, repository ports.PreferencesRepository) *PreferenceService {
	service := &PreferenceService{
		logger:     logger.With(slog.String("service", "preferences")),
		repository: repository,
		mode:       domain.ModeNormal,
	}

	if mode, err := repository.LoadMode(); err != nil {
		service.logger.Warn("failed to load playback mode, using default", slog.Any("error", err))
	} else if mode.Valid() {
		service.mode = mode
	}

	service.logger.Debug("preference service initialized", slog.String("mode", service.mode.String()))
	return service
}

// Mode returns the saved playback mode.
func (s *PreferenceService) Mode() domain.PlaybackMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode persists mode. The cached value is updated even when the write fails,
// so the running session keeps the user's choice.
func (s *PreferenceService) SetMode(mode domain.PlaybackMode) error {
	if !mode.Valid() {
		return domain.ErrInvalidMode
	}

	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	if err := s.repository.SaveMode(mode); err != nil {
		return domain.NewServiceError("PreferenceService", "SetMode", "failed to save playback mode", err)
	}
	return nil
}
