package sqlite

import (
	"database/sql"
	"errors"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

const keyPlaybackMode = "playback.mode"

// SaveMode persists the playback mode by its canonical name.
func (s *Store) SaveMode(mode domain.PlaybackMode) error {
	if !mode.Valid() {
		return domain.ErrInvalidMode
	}
	return s.setPreference(keyPlaybackMode, mode.String())
}

// LoadMode returns the saved mode, or ModeNormal if none was saved.
// An unreadable stored value also yields ModeNormal.
func (s *Store) LoadMode() (domain.PlaybackMode, error) {
	value, ok, err := s.preference(keyPlaybackMode)
	if err != nil || !ok {
		return domain.ModeNormal, err
	}

	mode, err := domain.ParsePlaybackMode(value)
	if err != nil {
		return domain.ModeNormal, nil
	}
	return mode, nil
}

func (s *Store) setPreference(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return domain.NewRepositoryError("save", "preferences", "failed to save "+key, err)
	}
	return nil
}

func (s *Store) preference(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.NewRepositoryError("load", "preferences", "failed to load "+key, err)
	}
	return value, true, nil
}
