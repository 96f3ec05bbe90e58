package models

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/xmx/internal/pager"
	"github.com/desertthunder/xmx/internal/services"
)

// Album is an album with the track list from its detail view.
type Album struct {
	ID          string
	Name        string
	Cover       string
	Description string
	Artists     []ArtistRef

	songs []*Song
}

// Songs returns the album's songs.
func (a *Album) Songs() []*Song { return slices.Clone(a.songs) }

// Artist is an artist profile whose songs and albums load lazily.
type Artist struct {
	ID          string
	Name        string
	Cover       string
	Description string

	p *Provider

	mu    sync.Mutex
	songs []*Song
}

// Songs returns the first page of the artist's songs, fetched once and cached.
func (a *Artist) Songs(ctx context.Context) ([]*Song, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.songs == nil {
		page, err := a.p.api.ArtistSongs(ctx, a.ID, 1, 0)
		if err != nil {
			return nil, err
		}
		a.songs = []*Song{}
		if page != nil {
			a.songs = a.p.newSongs(page.Items)
		}
	}
	return slices.Clone(a.songs), nil
}

// SetSongs replaces the cached songs.
func (a *Artist) SetSongs(songs []*Song) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.songs = songs
}

// SongsSequence walks every song of the artist page by page.
func (a *Artist) SongsSequence(ctx context.Context) (*pager.Sequence[*Song], error) {
	fetch := func(ctx context.Context, page, pageSize int) (*pager.Page[services.SongPayload], error) {
		return a.p.api.ArtistSongs(ctx, a.ID, page, pageSize)
	}
	return pager.New(ctx, fetch, a.p.newSong)
}

// AlbumsSequence walks every album of the artist page by page.
func (a *Artist) AlbumsSequence(ctx context.Context) (*pager.Sequence[*Album], error) {
	fetch := func(ctx context.Context, page, pageSize int) (*pager.Page[services.AlbumPayload], error) {
		return a.p.api.ArtistAlbums(ctx, a.ID, page, pageSize)
	}
	return pager.New(ctx, fetch, a.p.newAlbum)
}

// Playlist is a song collection. The songs cached on the instance are those from its detail view.
type Playlist struct {
	ID          string
	Name        string
	Cover       string
	Description string
	CreatorID   string
	CreatorName string
	SongCount   int

	p *Provider

	mu    sync.Mutex
	songs []*Song
}

// Songs returns the cached songs.
func (pl *Playlist) Songs() []*Song {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return slices.Clone(pl.songs)
}

// Add adds a song remotely and, when the remote accepts it, appends the fetched song to the cache.
func (pl *Playlist) Add(ctx context.Context, songID string) (bool, error) {
	ok, err := pl.p.api.UpdatePlaylistSong(ctx, pl.ID, songID, services.ActionAdd)
	if err != nil || !ok {
		return ok, err
	}

	song, err := pl.p.Song(ctx, songID)
	if err != nil {
		return true, err
	}

	pl.mu.Lock()
	pl.songs = append(pl.songs, song)
	pl.mu.Unlock()
	return true, nil
}

// Remove removes a song remotely and drops it from the cache whatever the remote answered.
func (pl *Playlist) Remove(ctx context.Context, songID string) (bool, error) {
	ok, err := pl.p.api.UpdatePlaylistSong(ctx, pl.ID, songID, services.ActionDel)
	if err != nil {
		return false, err
	}

	pl.mu.Lock()
	pl.songs = slices.DeleteFunc(pl.songs, func(s *Song) bool { return s.ID == songID })
	pl.mu.Unlock()
	return ok, nil
}

// SongsSequence walks every song of the playlist page by page.
func (pl *Playlist) SongsSequence(ctx context.Context) (*pager.Sequence[*Song], error) {
	fetch := func(ctx context.Context, page, pageSize int) (*pager.Page[services.SongPayload], error) {
		return pl.p.api.PlaylistSongs(ctx, pl.ID, page, pageSize)
	}
	return pager.New(ctx, fetch, pl.p.newSong)
}

// Summary flattens the playlist metadata.
func (pl *Playlist) Summary() PlaylistSummary {
	count := pl.SongCount
	if count == 0 {
		count = len(pl.Songs())
	}
	return PlaylistSummary{ID: pl.ID, Name: pl.Name, Description: pl.Description, CreatorID: pl.CreatorID, Cover: pl.Cover, TrackCount: count}
}

// User is a Xiami account.
type User struct {
	ID          string
	Name        string
	Avatar      string
	AccessToken string

	p *Provider

	mu           sync.Mutex
	playlists    []*Playlist
	favPlaylists []*Playlist
}

// Playlists returns the playlists the user created, fetched once and cached.
//
// The remote hides a user's default collection unless the token belongs to that user.
func (u *User) Playlists(ctx context.Context) ([]*Playlist, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.playlists == nil {
		data, err := u.p.api.UserPlaylists(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u.playlists = u.p.newPlaylists(data)
	}
	return slices.Clone(u.playlists), nil
}

// FavPlaylists returns the playlists the user favorited, fetched once and cached.
func (u *User) FavPlaylists(ctx context.Context) ([]*Playlist, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.favPlaylists == nil {
		data, err := u.p.api.UserFavoritePlaylists(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u.favPlaylists = u.p.newPlaylists(data)
	}
	return slices.Clone(u.favPlaylists), nil
}

// FavSongs starts a new lazy walk over the user's favorite songs.
func (u *User) FavSongs(ctx context.Context) (*pager.Sequence[*Song], error) {
	fetch := func(ctx context.Context, page, pageSize int) (*pager.Page[services.SongPayload], error) {
		return u.p.api.UserFavoriteSongs(ctx, u.ID, page, pageSize)
	}
	return pager.New(ctx, fetch, u.p.newSong)
}

// AddToFavSongs favorites a song for the token owner.
func (u *User) AddToFavSongs(ctx context.Context, songID string) (bool, error) {
	return u.p.api.UpdateFavoriteSong(ctx, songID, services.ActionAdd)
}

// RemoveFromFavSongs unfavorites a song for the token owner.
func (u *User) RemoveFromFavSongs(ctx context.Context, songID string) (bool, error) {
	return u.p.api.UpdateFavoriteSong(ctx, songID, services.ActionDel)
}

// MV is a music video.
type MV struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Cover      string        `json:"cover,omitempty"`
	MediaURL   string        `json:"media_url"`
	ArtistName string        `json:"artist,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// SearchResult holds what a keyword search matched.
type SearchResult struct {
	Query     string
	Total     int
	Songs     []*Song
	Albums    []*Album
	Artists   []*Artist
	Playlists []*Playlist
}
