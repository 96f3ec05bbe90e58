// package services defines the Xiami API contract consumed by models and its HTTP implementation
package services

import (
	"context"

	"github.com/desertthunder/xmx/internal/pager"
)

// API is the remote Xiami surface the entity adapters are built on.
//
// Paged methods accept page numbers starting at 1; a pageSize of 0 uses the remote default.
// Lookups of a missing entity return an error wrapping that entity's not-found sentinel.
type API interface {
	SongDetail(ctx context.Context, songID string) (*SongPayload, error)
	SongLyric(ctx context.Context, songID string) (string, error)

	AlbumDetail(ctx context.Context, albumID string) (*AlbumPayload, error)

	ArtistDetail(ctx context.Context, artistID string) (*ArtistPayload, error)
	ArtistSongs(ctx context.Context, artistID string, page, pageSize int) (*pager.Page[SongPayload], error)
	ArtistAlbums(ctx context.Context, artistID string, page, pageSize int) (*pager.Page[AlbumPayload], error)

	PlaylistDetail(ctx context.Context, playlistID string) (*PlaylistPayload, error)
	// PlaylistSongs is the paged "detail v2" listing of a playlist's songs.
	PlaylistSongs(ctx context.Context, playlistID string, page, pageSize int) (*pager.Page[SongPayload], error)
	UpdatePlaylistSong(ctx context.Context, playlistID, songID string, action Action) (bool, error)

	UserDetail(ctx context.Context, userID string) (*UserPayload, error)
	UserPlaylists(ctx context.Context, userID string) ([]PlaylistPayload, error)
	UserFavoritePlaylists(ctx context.Context, userID string) ([]PlaylistPayload, error)
	UserFavoriteSongs(ctx context.Context, userID string, page, pageSize int) (*pager.Page[SongPayload], error)
	UpdateFavoriteSong(ctx context.Context, songID string, action Action) (bool, error)

	Search(ctx context.Context, keyword string, opts SearchOptions) (*SearchPayload, error)
	MVDetail(ctx context.Context, mvID string) (*MVPayload, error)
}
