package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/xmx/internal/models"
)

// Library adapts the song and playlist repositories to the sync task's storage interfaces.
type Library struct {
	Songs     *SongRepository
	Playlists *PlaylistRepository
}

// NewLibrary creates a Library over db.
func NewLibrary(db *sql.DB) *Library {
	return &Library{Songs: NewSongRepository(db), Playlists: NewPlaylistRepository(db)}
}

// CacheSongs upserts tracks and returns how many were stored.
func (l *Library) CacheSongs(tracks []models.Track) (int, error) {
	stored := 0
	for _, track := range tracks {
		if _, err := l.Songs.Upsert(track); err != nil {
			return stored, fmt.Errorf("failed to cache song %s: %w", track.ID, err)
		}
		stored++
	}
	return stored, nil
}

// SavePlaylist upserts the playlist and its songs, then replaces its ordered song list.
func (l *Library) SavePlaylist(summary models.PlaylistSummary, tracks []models.Track) error {
	playlist, err := l.Playlists.Upsert(summary)
	if err != nil {
		return err
	}

	rowIDs := make([]string, 0, len(tracks))
	for _, track := range tracks {
		song, err := l.Songs.Upsert(track)
		if err != nil {
			return fmt.Errorf("failed to cache song %s: %w", track.ID, err)
		}
		rowIDs = append(rowIDs, song.RowID)
	}
	return l.Playlists.ReplaceSongs(playlist.RowID, rowIDs)
}

// Export rebuilds a playlist export from the library.
func (l *Library) Export(playlistID string) (*models.PlaylistExport, error) {
	playlist, err := l.Playlists.GetByPlaylistID(playlistID)
	if err != nil {
		return nil, err
	}
	songs, err := l.Playlists.Songs(playlist.RowID)
	if err != nil {
		return nil, err
	}

	export := &models.PlaylistExport{Playlist: playlist.Summary(), Tracks: make([]models.Track, 0, len(songs))}
	for _, song := range songs {
		export.Tracks = append(export.Tracks, song.Track())
	}
	return export, nil
}
