package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
)

const playlistColumns = `id, sequence, playlist_id, name, COALESCE(description, ''), COALESCE(creator_id, ''),
	COALESCE(song_count, 0), created_at, updated_at, deleted_at`

// PlaylistRepository implements models.Repository[*models.LibraryPlaylist] and
// owns the playlist_songs junction table.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.LibraryPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	ts := now()
	playlist.RowID = shared.GenerateID()
	playlist.Sequence = sequence
	playlist.Created, playlist.Updated = ts, ts

	_, err = r.db.Exec(`
		INSERT INTO playlists (id, sequence, playlist_id, name, description, creator_id, song_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playlist.RowID, playlist.Sequence, playlist.PlaylistID, playlist.Name, playlist.Description,
		playlist.CreatorID, playlist.SongCount, playlist.Created, playlist.Updated,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: playlist %s already in library", shared.ErrInvalidInput, playlist.PlaylistID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

// Get retrieves a playlist by row id, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.LibraryPlaylist, error) {
	row := r.db.QueryRow("SELECT "+playlistColumns+" FROM playlists WHERE id = ? AND deleted_at IS NULL", id)
	return scanPlaylist(row)
}

// GetByPlaylistID retrieves a playlist by its Xiami id
func (r *PlaylistRepository) GetByPlaylistID(playlistID string) (*models.LibraryPlaylist, error) {
	row := r.db.QueryRow("SELECT "+playlistColumns+" FROM playlists WHERE playlist_id = ? AND deleted_at IS NULL", playlistID)
	return scanPlaylist(row)
}

// Update modifies an existing playlist in the database
func (r *PlaylistRepository) Update(playlist *models.LibraryPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	playlist.Updated = now()

	result, err := r.db.Exec(`
		UPDATE playlists
		SET name = ?, description = ?, creator_id = ?, song_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		playlist.Name, playlist.Description, playlist.CreatorID, playlist.SongCount, playlist.Updated, playlist.RowID,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return checkAffected(result, shared.ErrPlaylistNotFound, playlist.RowID)
}

// Delete soft-deletes a playlist by row id. Its song links are kept.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return checkAffected(result, shared.ErrPlaylistNotFound, id)
}

// List retrieves all playlists matching the given criteria, excluding soft-deleted playlists.
//
// Supported criteria: "creator_id".
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.LibraryPlaylist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE deleted_at IS NULL"
	var args []any

	if creatorID, ok := criteria["creator_id"].(string); ok && creatorID != "" {
		query += " AND creator_id = ?"
		args = append(args, creatorID)
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.LibraryPlaylist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// Upsert stores summary, updating the existing row for the same Xiami id.
func (r *PlaylistRepository) Upsert(summary models.PlaylistSummary) (*models.LibraryPlaylist, error) {
	var rowID string
	err := r.db.QueryRow("SELECT id FROM playlists WHERE playlist_id = ?", summary.ID).Scan(&rowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		playlist := models.NewLibraryPlaylist(summary)
		if err := r.Create(playlist); err != nil {
			return nil, err
		}
		return playlist, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up playlist: %w", err)
	}

	if _, err := r.db.Exec("UPDATE playlists SET deleted_at = NULL WHERE id = ?", rowID); err != nil {
		return nil, fmt.Errorf("failed to restore playlist: %w", err)
	}

	playlist := models.NewLibraryPlaylist(summary)
	playlist.RowID = rowID
	if err := r.Update(playlist); err != nil {
		return nil, err
	}
	return r.Get(rowID)
}

// ReplaceSongs sets the playlist's songs to songRowIDs in order.
//
// Repeated ids keep their first position.
func (r *PlaylistRepository) ReplaceSongs(playlistRowID string, songRowIDs []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM playlist_songs WHERE playlist_id = ?", playlistRowID); err != nil {
		return fmt.Errorf("failed to clear playlist songs: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id, position, added_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := now()
	for i, songRowID := range songRowIDs {
		if _, err := stmt.Exec(playlistRowID, songRowID, i, ts); err != nil {
			return fmt.Errorf("failed to add song %s at %d: %w", songRowID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist songs: %w", err)
	}
	return nil
}

// Songs returns the live songs of a playlist ordered by position.
func (r *PlaylistRepository) Songs(playlistRowID string) ([]*models.LibrarySong, error) {
	rows, err := r.db.Query(`
		SELECT s.id, s.sequence, s.song_id, s.title, COALESCE(s.artist, ''), COALESCE(s.album, ''), COALESCE(s.album_id, ''),
			COALESCE(s.duration, 0), COALESCE(s.mv_id, ''), s.created_at, s.updated_at, s.deleted_at
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ? AND s.deleted_at IS NULL
		ORDER BY ps.position ASC`, playlistRowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.LibrarySong
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

func scanPlaylist(row scanner) (*models.LibraryPlaylist, error) {
	var (
		p         models.LibraryPlaylist
		deletedAt sql.NullTime
	)
	err := row.Scan(&p.RowID, &p.Sequence, &p.PlaylistID, &p.Name, &p.Description, &p.CreatorID,
		&p.SongCount, &p.Created, &p.Updated, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	p.Deleted = deletedPtr(deletedAt)
	return &p, nil
}
