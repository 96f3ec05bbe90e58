package models

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xmx/internal/services"
)

// Provider builds entities bound to a remote [services.API].
//
// A Provider holds no mutable state; every entity it returns owns its own caches.
type Provider struct {
	api    services.API
	now    func() time.Time
	logger *log.Logger
}

// ProviderOption customises a [Provider].
type ProviderOption func(*Provider)

// WithClock replaces time.Now for URL validity checks.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

// WithProviderLogger sets the logger entities use for refresh tracing.
func WithProviderLogger(l *log.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// NewProvider returns a Provider backed by api.
func NewProvider(api services.API, opts ...ProviderOption) *Provider {
	p := &Provider{api: api, now: time.Now, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// API returns the underlying client.
func (p *Provider) API() services.API { return p.api }

// Song fetches a song with its playable media.
func (p *Provider) Song(ctx context.Context, id string) (*Song, error) {
	data, err := p.api.SongDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	s := p.newSong(*data)
	s.detailed = true
	return s, nil
}

// Album fetches an album and its songs.
func (p *Provider) Album(ctx context.Context, id string) (*Album, error) {
	data, err := p.api.AlbumDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.newAlbum(*data), nil
}

// Artist fetches an artist profile. Songs and albums load on demand.
func (p *Provider) Artist(ctx context.Context, id string) (*Artist, error) {
	data, err := p.api.ArtistDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.newArtist(*data), nil
}

// Playlist fetches a playlist with the songs embedded in its detail view.
func (p *Provider) Playlist(ctx context.Context, id string) (*Playlist, error) {
	data, err := p.api.PlaylistDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.newPlaylist(*data), nil
}

// User fetches a user profile.
func (p *Provider) User(ctx context.Context, id string) (*User, error) {
	data, err := p.api.UserDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.newUser(*data), nil
}

// MV fetches a music video.
func (p *Provider) MV(ctx context.Context, id string) (*MV, error) {
	data, err := p.api.MVDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return newMV(*data), nil
}

// Search runs a keyword search and records the keyword on the result.
func (p *Provider) Search(ctx context.Context, keyword string, opts services.SearchOptions) (*SearchResult, error) {
	data, err := p.api.Search(ctx, keyword, opts)
	if err != nil {
		return nil, err
	}
	result := p.newSearchResult(*data)
	result.Query = keyword
	return result, nil
}
