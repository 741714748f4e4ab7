package sqlite

import (
	"database/sql"
	"errors"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

// IncrementPlayCount adds one play for path and returns the new count.
func (s *Store) IncrementPlayCount(path string) (int, error) {
	if path == "" {
		return 0, domain.ErrInvalidFilePath
	}

	var count int
	err := s.db.QueryRow(`
		INSERT INTO play_counts (path, count) VALUES (?, 1)
		ON CONFLICT(path) DO UPDATE SET count = count + 1
		RETURNING count
	`, path).Scan(&count)
	if err != nil {
		return 0, domain.NewRepositoryError("increment", "playcount", "failed to increment play count", err)
	}
	return count, nil
}

// GetPlayCount returns the count for path, 0 if it was never played.
func (s *Store) GetPlayCount(path string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT count FROM play_counts WHERE path = ?`, path).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.NewRepositoryError("get", "playcount", "failed to read play count", err)
	}
	return count, nil
}

// LoadAll returns every counter.
func (s *Store) LoadAll() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT path, count FROM play_counts`)
	if err != nil {
		return nil, domain.NewRepositoryError("load", "playcount", "failed to read play counts", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var path string
		var count int
		if err := rows.Scan(&path, &count); err != nil {
			return nil, domain.NewRepositoryError("load", "playcount", "failed to scan play count", err)
		}
		counts[path] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("load", "playcount", "failed to iterate play counts", err)
	}
	return counts, nil
}

// SaveAll replaces every counter with counts in one transaction.
func (s *Store) SaveAll(counts map[string]int) error {
	err := withTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM play_counts`); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO play_counts (path, count) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for path, count := range counts {
			if _, err := stmt.Exec(path, count); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRepositoryError("save", "playcount", "failed to replace play counts", err)
	}
	return nil
}
