package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

const (
	listItems    = "items"
	listOriginal = "original"
)

// SaveQueueState replaces the stored queue snapshot in one transaction.
func (s *Store) SaveQueueState(snapshot domain.QueueSnapshot) error {
	err := withTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM queue_tracks`); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO queue_state (id, current_index, is_manual)
			VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				is_manual = excluded.is_manual
		`, snapshot.CurrentIndex, snapshot.IsManual)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (list, position, track_id, path, title, artist,
				album_id, album_name, genre, duration_ms, last_modified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		if err := insertTracks(stmt, listItems, snapshot.Items); err != nil {
			return err
		}
		return insertTracks(stmt, listOriginal, snapshot.OriginalOrder)
	})
	if err != nil {
		return domain.NewRepositoryError("save", "queue", "failed to save queue state", err)
	}
	return nil
}

func insertTracks(stmt *sql.Stmt, list string, tracks []domain.Track) error {
	for i, t := range tracks {
		var lastModified any
		if !t.LastModified.IsZero() {
			lastModified = t.LastModified.UnixNano()
		}
		_, err := stmt.Exec(list, i, t.ID, t.Path, t.Title, t.Artist,
			t.AlbumID, t.AlbumName, t.Genre, t.Duration.Milliseconds(), lastModified)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadQueueState returns the stored snapshot, or nil if none was saved.
func (s *Store) LoadQueueState() (*domain.QueueSnapshot, error) {
	var currentIndex int
	var isManual bool
	row := s.db.QueryRow(`SELECT current_index, is_manual FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex, &isManual)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewRepositoryError("load", "queue", "failed to read queue state", err)
	}

	rows, err := s.db.Query(`
		SELECT list, track_id, path, title, artist, album_id, album_name, genre,
			duration_ms, last_modified
		FROM queue_tracks
		ORDER BY list, position
	`)
	if err != nil {
		return nil, domain.NewRepositoryError("load", "queue", "failed to read queue tracks", err)
	}
	defer rows.Close()

	snapshot := &domain.QueueSnapshot{
		Items:         []domain.Track{},
		OriginalOrder: []domain.Track{},
		CurrentIndex:  currentIndex,
		IsManual:      isManual,
	}

	for rows.Next() {
		var list string
		var t domain.Track
		var artist, albumID, albumName, genre sql.NullString
		var durationMS, lastModified sql.NullInt64

		err := rows.Scan(&list, &t.ID, &t.Path, &t.Title, &artist, &albumID, &albumName, &genre,
			&durationMS, &lastModified)
		if err != nil {
			return nil, domain.NewRepositoryError("load", "queue", "failed to scan queue track", err)
		}

		t.Artist = nullStringValue(artist)
		t.AlbumID = nullStringValue(albumID)
		t.AlbumName = nullStringValue(albumName)
		t.Genre = nullStringValue(genre)
		t.Duration = time.Duration(nullInt64Value(durationMS)) * time.Millisecond
		if lastModified.Valid {
			t.LastModified = time.Unix(0, lastModified.Int64)
		}

		switch list {
		case listItems:
			snapshot.Items = append(snapshot.Items, t)
		case listOriginal:
			snapshot.OriginalOrder = append(snapshot.OriginalOrder, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("load", "queue", "failed to iterate queue tracks", err)
	}

	return snapshot, nil
}
