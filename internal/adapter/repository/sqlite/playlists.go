package sqlite

import (
	"database/sql"
	"time"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

// SavePlaylist creates or replaces a playlist by name.
func (s *Store) SavePlaylist(name string, paths []string) error {
	if name == "" {
		return domain.NewValidationError("name", name, "playlist name cannot be empty")
	}

	err := withTx(s.db, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRow(`
			INSERT INTO playlists (name, created_at) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET name = excluded.name
			RETURNING id
		`, name, time.Now().Unix()).Scan(&id)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, id); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO playlist_tracks (playlist_id, position, path) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, path := range paths {
			if _, err := stmt.Exec(id, i, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to save playlist", err)
	}
	return nil
}

// DeletePlaylist removes a playlist. Missing playlists are a no-op.
func (s *Store) DeletePlaylist(name string) error {
	if _, err := s.db.Exec(`DELETE FROM playlists WHERE name = ?`, name); err != nil {
		return domain.NewRepositoryError("delete", "playlist", "failed to delete playlist", err)
	}
	return nil
}

// PlaylistNames returns all playlist names, sorted.
func (s *Store) PlaylistNames() ([]string, error) {
	return s.queryNames(`SELECT name FROM playlists ORDER BY name`)
}

// PlaylistsContaining returns the names of every playlist that contains path.
func (s *Store) PlaylistsContaining(path string) ([]string, error) {
	return s.queryNames(`
		SELECT DISTINCT p.name
		FROM playlists p
		JOIN playlist_tracks pt ON pt.playlist_id = p.id
		WHERE pt.path = ?
		ORDER BY p.name
	`, path)
}

func (s *Store) queryNames(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, domain.NewRepositoryError("list", "playlist", "failed to query playlists", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, domain.NewRepositoryError("list", "playlist", "failed to scan playlist", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("list", "playlist", "failed to iterate playlists", err)
	}
	return names, nil
}
