package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
)

// SongCacher persists songs to the local library.
type SongCacher interface {
	CacheSongs(tracks []models.Track) (int, error)
}

// PlaylistStore persists a playlist with its ordered songs.
type PlaylistStore interface {
	SavePlaylist(summary models.PlaylistSummary, tracks []models.Track) error
}

// PlaylistFailure records a playlist that could not be synced or exported.
type PlaylistFailure struct {
	PlaylistID string `json:"playlist_id"`
	Name       string `json:"name,omitempty"`
	Error      string `json:"error"`
}

// SyncResult summarises a library sync.
type SyncResult struct {
	UserID        string
	UserName      string
	FavoriteSongs int
	Playlists     int
	Failed        []PlaylistFailure
}

// Engine runs exports and library syncs against a provider.
type Engine struct {
	provider  *models.Provider
	songs     SongCacher
	playlists PlaylistStore
	logger    *log.Logger
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithSongCacher caches every exported song in c.
func WithSongCacher(c SongCacher) EngineOption {
	return func(e *Engine) { e.songs = c }
}

// WithPlaylistStore enables [Engine.SyncLibrary].
func WithPlaylistStore(s PlaylistStore) EngineOption {
	return func(e *Engine) { e.playlists = s }
}

func WithEngineLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine bound to provider.
func NewEngine(provider *models.Provider, opts ...EngineOption) *Engine {
	e := &Engine{provider: provider, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Export walks every song of a playlist and returns the flattened export.
//
// When a [SongCacher] is configured the songs are cached as well; cache errors are logged, not returned.
func (e *Engine) Export(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*models.PlaylistExport, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchPlaylistUpdate(playlistID))
	pl, err := e.provider.Playlist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	tracks, err := e.collectPlaylist(ctx, progress, pl)
	if err != nil {
		return nil, err
	}

	summary := pl.Summary()
	summary.TrackCount = len(tracks)
	export := &models.PlaylistExport{Playlist: summary, Tracks: tracks}

	if e.songs != nil {
		if _, err := e.songs.CacheSongs(tracks); err != nil {
			e.logger.Warn("failed to cache exported songs", "playlist", playlistID, "error", err)
		}
	}
	return export, nil
}

func (e *Engine) collectPlaylist(ctx context.Context, progress chan<- ProgressUpdate, pl *models.Playlist) ([]models.Track, error) {
	seq, err := pl.SongsSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist songs: %w", err)
	}
	e.sendProgress(progress, foundPlaylistUpdate(pl, seq.Total()))

	tracks := make([]models.Track, 0, seq.Total())
	for song, err := range seq.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist songs: %w", err)
		}
		tracks = append(tracks, song.Track())
		e.sendProgress(progress, fetchSongUpdate(FetchSongs, len(tracks), seq.Total(), song))
	}
	return tracks, nil
}

// SyncLibrary stores a user's favorite songs and playlists in the library.
//
// Favorites are walked in full first; a failure there aborts the sync. Each
// created or favorited playlist is then exported and saved; playlists that fail
// are recorded in [SyncResult.Failed] and the sync carries on.
func (e *Engine) SyncLibrary(ctx context.Context, progress chan<- ProgressUpdate, userID string) (*SyncResult, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}
	if e.songs == nil || e.playlists == nil {
		return nil, fmt.Errorf("%w: library not configured", shared.ErrMissingConfig)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	user, err := e.provider.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	result := &SyncResult{UserID: user.ID, UserName: user.Name}

	favorites, err := e.collectFavorites(ctx, progress, user)
	if err != nil {
		return result, err
	}
	if result.FavoriteSongs, err = e.songs.CacheSongs(favorites); err != nil {
		return result, fmt.Errorf("failed to store favorite songs: %w", err)
	}

	playlists, err := e.userPlaylists(ctx, user)
	if err != nil {
		return result, err
	}

	for i, pl := range playlists {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := e.syncPlaylist(ctx, pl)
		if err != nil {
			result.Failed = append(result.Failed, PlaylistFailure{PlaylistID: pl.ID, Name: pl.Name, Error: err.Error()})
			e.logger.Warn("playlist sync failed", "playlist", pl.ID, "error", err)
		} else {
			result.Playlists++
		}
		e.sendProgress(progress, syncPlaylistUpdate(i+1, len(playlists), pl.Name, err))
	}

	e.logger.Info("library synced", "user", user.ID, "favorites", result.FavoriteSongs,
		"playlists", result.Playlists, "failed", len(result.Failed))
	return result, nil
}

func (e *Engine) collectFavorites(ctx context.Context, progress chan<- ProgressUpdate, user *models.User) ([]models.Track, error) {
	seq, err := user.FavSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorite songs: %w", err)
	}

	var tracks []models.Track
	for song, err := range seq.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to fetch favorite songs: %w", err)
		}
		tracks = append(tracks, song.Track())
		e.sendProgress(progress, fetchSongUpdate(SyncFavorites, len(tracks), seq.Total(), song))
	}
	return tracks, nil
}

// userPlaylists returns created then favorited playlists, each once.
func (e *Engine) userPlaylists(ctx context.Context, user *models.User) ([]*models.Playlist, error) {
	created, err := user.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user playlists: %w", err)
	}
	favorited, err := user.FavPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorite playlists: %w", err)
	}

	seen := make(map[string]bool, len(created)+len(favorited))
	var out []*models.Playlist
	for _, pl := range append(created, favorited...) {
		if seen[pl.ID] {
			continue
		}
		seen[pl.ID] = true
		out = append(out, pl)
	}
	return out, nil
}

func (e *Engine) syncPlaylist(ctx context.Context, pl *models.Playlist) error {
	tracks, err := e.collectPlaylist(ctx, nil, pl)
	if err != nil {
		return err
	}
	summary := pl.Summary()
	summary.TrackCount = len(tracks)
	return e.playlists.SavePlaylist(summary, tracks)
}
