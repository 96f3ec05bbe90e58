package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
)

const songColumns = `id, sequence, song_id, title, COALESCE(artist, ''), COALESCE(album, ''), COALESCE(album_id, ''),
	COALESCE(duration, 0), COALESCE(mv_id, ''), created_at, updated_at, deleted_at`

// SongRepository implements models.Repository[*models.LibrarySong].
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a song with a generated row id and sequence.
func (r *SongRepository) Create(song *models.LibrarySong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	ts := now()
	song.RowID = shared.GenerateID()
	song.Sequence = sequence
	song.Created, song.Updated = ts, ts

	_, err = r.db.Exec(`
		INSERT INTO songs (id, sequence, song_id, title, artist, album, album_id, duration, mv_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		song.RowID, song.Sequence, song.SongID, song.Title, song.Artist, song.Album, song.AlbumID,
		song.Duration, song.MVID, song.Created, song.Updated,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: song %s already in library", shared.ErrInvalidInput, song.SongID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

// Get retrieves a song by row id, excluding soft-deleted rows.
func (r *SongRepository) Get(id string) (*models.LibrarySong, error) {
	row := r.db.QueryRow("SELECT "+songColumns+" FROM songs WHERE id = ? AND deleted_at IS NULL", id)
	return scanSong(row)
}

// GetBySongID retrieves a song by its Xiami id, excluding soft-deleted rows.
func (r *SongRepository) GetBySongID(songID string) (*models.LibrarySong, error) {
	row := r.db.QueryRow("SELECT "+songColumns+" FROM songs WHERE song_id = ? AND deleted_at IS NULL", songID)
	return scanSong(row)
}

// Update rewrites a song's metadata.
func (r *SongRepository) Update(song *models.LibrarySong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	song.Updated = now()

	result, err := r.db.Exec(`
		UPDATE songs
		SET title = ?, artist = ?, album = ?, album_id = ?, duration = ?, mv_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		song.Title, song.Artist, song.Album, song.AlbumID, song.Duration, song.MVID, song.Updated, song.RowID,
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}
	return checkAffected(result, shared.ErrSongNotFound, song.RowID)
}

// Delete soft-deletes a song by row id.
func (r *SongRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE songs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return checkAffected(result, shared.ErrSongNotFound, id)
}

// List returns live songs in insertion order.
//
// Supported criteria: "artist" (exact), "album_id", "query" (title or artist substring), "limit" (int).
func (r *SongRepository) List(criteria map[string]any) ([]*models.LibrarySong, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE deleted_at IS NULL"
	var args []any

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}
	if albumID, ok := criteria["album_id"].(string); ok && albumID != "" {
		query += " AND album_id = ?"
		args = append(args, albumID)
	}
	if q, ok := criteria["query"].(string); ok && q != "" {
		query += " AND (title LIKE ? OR artist LIKE ?)"
		like := "%" + q + "%"
		args = append(args, like, like)
	}

	query += " ORDER BY sequence ASC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
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

// Upsert stores track, updating the existing row for the same Xiami id.
//
// A soft-deleted row for the id is revived.
func (r *SongRepository) Upsert(track models.Track) (*models.LibrarySong, error) {
	var rowID string
	err := r.db.QueryRow("SELECT id FROM songs WHERE song_id = ?", track.ID).Scan(&rowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		song := models.NewLibrarySong(track)
		if err := r.Create(song); err != nil {
			return nil, err
		}
		return song, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up song: %w", err)
	}

	if _, err := r.db.Exec("UPDATE songs SET deleted_at = NULL WHERE id = ?", rowID); err != nil {
		return nil, fmt.Errorf("failed to restore song: %w", err)
	}

	song := models.NewLibrarySong(track)
	song.RowID = rowID
	if err := r.Update(song); err != nil {
		return nil, err
	}
	return r.Get(rowID)
}

func scanSong(row scanner) (*models.LibrarySong, error) {
	var (
		s         models.LibrarySong
		deletedAt sql.NullTime
	)
	err := row.Scan(&s.RowID, &s.Sequence, &s.SongID, &s.Title, &s.Artist, &s.Album, &s.AlbumID,
		&s.Duration, &s.MVID, &s.Created, &s.Updated, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	s.Deleted = deletedPtr(deletedAt)
	return &s, nil
}
