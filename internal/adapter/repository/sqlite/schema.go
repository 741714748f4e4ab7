package sqlite

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS queue_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_index INTEGER NOT NULL DEFAULT -1,
			is_manual INTEGER NOT NULL DEFAULT 0
		);

		-- list is 'items' for the play order, 'original' for the unshuffled order
		CREATE TABLE IF NOT EXISTS queue_tracks (
			list TEXT NOT NULL,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album_id TEXT,
			album_name TEXT,
			genre TEXT,
			duration_ms INTEGER,
			last_modified INTEGER,
			PRIMARY KEY (list, position)
		);

		CREATE TABLE IF NOT EXISTS play_counts (
			path TEXT PRIMARY KEY,
			count INTEGER NOT NULL CHECK (count >= 0)
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (playlist_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_path ON playlist_tracks(path);

		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	return err
}
