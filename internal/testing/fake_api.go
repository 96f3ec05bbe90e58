package testing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/xmx/internal/pager"
	"github.com/desertthunder/xmx/internal/services"
	"github.com/desertthunder/xmx/internal/shared"
)

// FakeAPI is an in-memory [services.API] that pages its lists the way the gateway does.
type FakeAPI struct {
	mu sync.Mutex

	Songs     map[string]services.SongPayload
	Lyrics    map[string]string
	Albums    map[string]services.AlbumPayload
	Artists   map[string]services.ArtistPayload
	Playlists map[string]services.PlaylistPayload
	Users     map[string]services.UserPayload
	MVs       map[string]services.MVPayload

	ArtistSongList   map[string][]services.SongPayload
	ArtistAlbumList  map[string][]services.AlbumPayload
	PlaylistSongList map[string][]services.SongPayload
	UserPlaylistList map[string][]services.PlaylistPayload
	UserFavPlaylists map[string][]services.PlaylistPayload
	UserFavSongList  map[string][]services.SongPayload
	FavoriteSongIDs  []string
	SearchResults    map[string]services.SearchPayload
	DefaultPageSize  int
	RejectUpdates    bool  // updates answer success=false
	Err              error // returned by every call when set

	calls        map[string]int
	pageRequests []string
}

// NewFakeAPI returns an empty fake with a default page size of 2.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		Songs:            map[string]services.SongPayload{},
		Lyrics:           map[string]string{},
		Albums:           map[string]services.AlbumPayload{},
		Artists:          map[string]services.ArtistPayload{},
		Playlists:        map[string]services.PlaylistPayload{},
		Users:            map[string]services.UserPayload{},
		MVs:              map[string]services.MVPayload{},
		ArtistSongList:   map[string][]services.SongPayload{},
		ArtistAlbumList:  map[string][]services.AlbumPayload{},
		PlaylistSongList: map[string][]services.SongPayload{},
		UserPlaylistList: map[string][]services.PlaylistPayload{},
		UserFavPlaylists: map[string][]services.PlaylistPayload{},
		UserFavSongList:  map[string][]services.SongPayload{},
		SearchResults:    map[string]services.SearchPayload{},
		DefaultPageSize:  2,
		calls:            map[string]int{},
	}
}

// Calls returns how many times method was invoked.
func (f *FakeAPI) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// PageRequests lists "method:page:pageSize" for every paged call in order.
func (f *FakeAPI) PageRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.pageRequests)
}

func (f *FakeAPI) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.Err
}

func paginate[T any](f *FakeAPI, method string, items []T, page, pageSize int) *pager.Page[T] {
	f.mu.Lock()
	f.pageRequests = append(f.pageRequests, fmt.Sprintf("%s:%d:%d", method, page, pageSize))
	if pageSize <= 0 {
		pageSize = f.DefaultPageSize
	}
	f.mu.Unlock()

	page = max(page, 1)
	pages := (len(items) + pageSize - 1) / pageSize
	start := min((page-1)*pageSize, len(items))
	end := min(start+pageSize, len(items))

	return &pager.Page[T]{
		Total:    len(items),
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
		Items:    slices.Clone(items[start:end]),
	}
}

func lookup[T any](f *FakeAPI, m map[string]T, id string, notFound error) (*T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", notFound, id)
	}
	return &v, nil
}

func (f *FakeAPI) SongDetail(ctx context.Context, songID string) (*services.SongPayload, error) {
	if err := f.record("SongDetail"); err != nil {
		return nil, err
	}
	return lookup(f, f.Songs, songID, shared.ErrSongNotFound)
}

func (f *FakeAPI) SongLyric(ctx context.Context, songID string) (string, error) {
	if err := f.record("SongLyric"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Lyrics[songID], nil
}

func (f *FakeAPI) AlbumDetail(ctx context.Context, albumID string) (*services.AlbumPayload, error) {
	if err := f.record("AlbumDetail"); err != nil {
		return nil, err
	}
	return lookup(f, f.Albums, albumID, shared.ErrAlbumNotFound)
}

func (f *FakeAPI) ArtistDetail(ctx context.Context, artistID string) (*services.ArtistPayload, error) {
	if err := f.record("ArtistDetail"); err != nil {
		return nil, err
	}
	return lookup(f, f.Artists, artistID, shared.ErrArtistNotFound)
}

func (f *FakeAPI) ArtistSongs(ctx context.Context, artistID string, page, pageSize int) (*pager.Page[services.SongPayload], error) {
	if err := f.record("ArtistSongs"); err != nil {
		return nil, err
	}
	return paginate(f, "ArtistSongs", f.ArtistSongList[artistID], page, pageSize), nil
}

func (f *FakeAPI) ArtistAlbums(ctx context.Context, artistID string, page, pageSize int) (*pager.Page[services.AlbumPayload], error) {
	if err := f.record("ArtistAlbums"); err != nil {
		return nil, err
	}
	return paginate(f, "ArtistAlbums", f.ArtistAlbumList[artistID], page, pageSize), nil
}

func (f *FakeAPI) PlaylistDetail(ctx context.Context, playlistID string) (*services.PlaylistPayload, error) {
	if err := f.record("PlaylistDetail"); err != nil {
		return nil, err
	}
	return lookup(f, f.Playlists, playlistID, shared.ErrPlaylistNotFound)
}

func (f *FakeAPI) PlaylistSongs(ctx context.Context, playlistID string, page, pageSize int) (*pager.Page[services.SongPayload], error) {
	if err := f.record("PlaylistSongs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	items := f.PlaylistSongList[playlistID]
	f.mu.Unlock()
	return paginate(f, "PlaylistSongs", items, page, pageSize), nil
}

func (f *FakeAPI) UpdatePlaylistSong(ctx context.Context, playlistID, songID string, action services.Action) (bool, error) {
	if err := f.record("UpdatePlaylistSong"); err != nil {
		return false, err
	}
	if f.RejectUpdates {
		return false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.PlaylistSongList[playlistID]
	switch action {
	case services.ActionAdd:
		if song, ok := f.Songs[songID]; ok {
			list = append(list, song)
		}
	case services.ActionDel:
		list = slices.DeleteFunc(list, func(s services.SongPayload) bool { return string(s.SongID) == songID })
	}
	f.PlaylistSongList[playlistID] = list
	return true, nil
}

func (f *FakeAPI) UserDetail(ctx context.Context, userID string) (*services.UserPayload, error) {
	if err := f.record("UserDetail"); err != nil {
		return nil, err
	}
	return lookup(f, f.Users, userID, shared.ErrUserNotFound)
}

func (f *FakeAPI) UserPlaylists(ctx context.Context, userID string) ([]services.PlaylistPayload, error) {
	if err := f.record("UserPlaylists"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.UserPlaylistList[userID]), nil
}

func (f *FakeAPI) UserFavoritePlaylists(ctx context.Context, userID string) ([]services.PlaylistPayload, error) {
	if err := f.record("UserFavoritePlaylists"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.UserFavPlaylists[userID]), nil
}

func (f *FakeAPI) UserFavoriteSongs(ctx context.Context, userID string, page, pageSize int) (*pager.Page[services.SongPayload], error) {
	if err := f.record("UserFavoriteSongs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	items := f.UserFavSongList[userID]
	f.mu.Unlock()
	return paginate(f, "UserFavoriteSongs", items, page, pageSize), nil
}

func (f *FakeAPI) UpdateFavoriteSong(ctx context.Context, songID string, action services.Action) (bool, error) {
	if err := f.record("UpdateFavoriteSong"); err != nil {
		return false, err
	}
	if f.RejectUpdates {
		return false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch action {
	case services.ActionAdd:
		f.FavoriteSongIDs = append(f.FavoriteSongIDs, songID)
	case services.ActionDel:
		f.FavoriteSongIDs = slices.DeleteFunc(f.FavoriteSongIDs, func(id string) bool { return id == songID })
	}
	return true, nil
}

func (f *FakeAPI) Search(ctx context.Context, keyword string, opts services.SearchOptions) (*services.SearchPayload, error) {
	if err := f.record("Search"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: search keyword", shared.ErrMissingArgument)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := f.SearchResults[strings.ToLower(keyword)]
	return &result, nil
}

func (f *FakeAPI) MVDetail(ctx context.Context, mvID string) (*services.MVPayload, error) {
	if err := f.record("MVDetail"); err != nil {
		return nil, err
	}
	return lookup(f, f.MVs, mvID, shared.ErrMVNotFound)
}

var _ services.API = (*FakeAPI)(nil)

// SongFixture builds a minimal song payload.
func SongFixture(id, title, artist string) services.SongPayload {
	return services.SongPayload{
		SongID:     services.ID(id),
		SongName:   title,
		ArtistID:   services.ID("a-" + strings.ToLower(artist)),
		ArtistName: artist,
		AlbumID:    services.ID("al-" + id),
		AlbumName:  title + " (Single)",
		Length:     180000,
	}
}

// SongFixtures builds n songs with ids prefix1..prefixN.
func SongFixtures(prefix string, n int) []services.SongPayload {
	out := make([]services.SongPayload, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("%s%d", prefix, i)
		out = append(out, SongFixture(id, "Song "+id, "Artist"))
	}
	return out
}
