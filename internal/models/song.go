package models

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/xmx/internal/shared"
)

// URLValidity is how long a playable URL is trusted after it was set.
const URLValidity = time.Hour

// Quality is a named audio quality tier.
type Quality string

const (
	QualitySHQ Quality = "shq" // lossless
	QualityHQ  Quality = "hq"
	QualitySQ  Quality = "sq"
	QualityLQ  Quality = "lq"
)

// qualityOrder ranks tiers from best to worst.
var qualityOrder = []Quality{QualitySHQ, QualityHQ, QualitySQ, QualityLQ}

// remoteQualities maps Xiami listen-file quality codes to tiers.
var remoteQualities = map[string]Quality{
	"s": QualitySHQ,
	"h": QualityHQ,
	"l": QualitySQ,
	"f": QualityLQ,
}

// ParseQuality accepts a tier name or a Xiami quality code.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if q, ok := remoteQualities[s]; ok {
		return q, nil
	}
	if slices.Contains(qualityOrder, Quality(s)) {
		return Quality(s), nil
	}
	return "", fmt.Errorf("%w: quality %q", shared.ErrInvalidArgument, s)
}

// Media is one playable rendition of a song.
type Media struct {
	URL     string  `json:"url"`
	Quality Quality `json:"quality"`
	Format  string  `json:"format,omitempty"`
	Size    int     `json:"size,omitempty"` // bytes
}

// Lyric is a song's lyric text, usually LRC.
type Lyric struct {
	SongID  string `json:"song_id"`
	Content string `json:"content"`
}

// AlbumRef is the album a song belongs to.
type AlbumRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cover string `json:"cover,omitempty"`
}

// ArtistRef is a credited artist.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Song is a playable track.
//
// Its URL is trusted for [URLValidity] after being set and is refreshed from the
// remote on the next read once that window has passed. Independently the remote
// reports when its listen files expire, which [Song.IsExpired] checks.
type Song struct {
	ID       string
	Title    string
	Duration time.Duration
	Album    AlbumRef
	Artists  []ArtistRef
	MVID     string

	p *Provider

	mu           sync.Mutex
	url          string
	urlExpiresAt time.Time
	media        map[Quality]Media
	expiresAt    time.Time
	lyric        *Lyric
	detailed     bool
}

// ArtistName joins the credited artist names.
func (s *Song) ArtistName() string {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// SetURL replaces the playable URL and restarts its validity window.
func (s *Song) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setURL(url)
}

func (s *Song) setURL(url string) {
	s.url = url
	s.urlExpiresAt = s.p.now().Add(URLValidity)
}

// URLExpiresAt is when the current URL stops being trusted.
func (s *Song) URLExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlExpiresAt
}

// URL returns the playable URL, refreshing it first when its window has passed.
//
// Songs that arrived without media (for example inside a playlist listing) are
// refreshed once on first read.
func (s *Song) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale := s.p.now().After(s.urlExpiresAt)
	if stale || (s.url == "" && !s.detailed) {
		s.p.logger.Debug("song url expired, refreshing", "song", s.ID, "stale", stale)
		if err := s.refresh(ctx); err != nil {
			return "", err
		}
	}
	return s.url, nil
}

// RefreshURL reloads the URL, media and remote expiry from the song detail.
func (s *Song) RefreshURL(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *Song) refresh(ctx context.Context) error {
	data, err := s.p.api.SongDetail(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("failed to refresh song %s: %w", s.ID, err)
	}

	url, media, expiresAt := parseListenFiles(data.ListenFiles)
	s.setURL(url)
	s.media = media
	s.expiresAt = expiresAt
	s.detailed = true
	return nil
}

// ExpiresAt is the remote expiry of the media URLs, zero when unknown.
func (s *Song) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// IsExpired reports whether the remote expiry is known and has passed.
func (s *Song) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isExpired()
}

func (s *Song) isExpired() bool {
	return !s.expiresAt.IsZero() && !s.p.now().Before(s.expiresAt)
}

// ListQuality returns the available tiers, best first.
//
// A song that arrived without media loads its detail first.
func (s *Song) ListQuality(ctx context.Context) ([]Quality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.detailed {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.qualities(), nil
}

// LoadedQualities returns the tiers known so far without calling the remote.
func (s *Song) LoadedQualities() []Quality {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qualities()
}

func (s *Song) qualities() []Quality {
	var out []Quality
	for _, q := range qualityOrder {
		if _, ok := s.media[q]; ok {
			out = append(out, q)
		}
	}
	return out
}

// Media returns the rendition for quality.
//
// The detail is fetched first when the song arrived without media or the remote expiry has passed.
func (s *Song) Media(ctx context.Context, quality Quality) (Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.detailed || s.isExpired() {
		s.p.logger.Debug("loading song media", "song", s.ID, "expired", s.isExpired())
		if err := s.refresh(ctx); err != nil {
			return Media{}, err
		}
	}

	m, ok := s.media[quality]
	if !ok {
		return Media{}, fmt.Errorf("%w: %s for song %s", shared.ErrQualityNotFound, quality, s.ID)
	}
	return m, nil
}

// Lyric fetches the lyric on first use and caches it.
func (s *Song) Lyric(ctx context.Context) (*Lyric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lyric != nil {
		return s.lyric, nil
	}

	content, err := s.p.api.SongLyric(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.lyric = &Lyric{SongID: s.ID, Content: content}
	return s.lyric, nil
}

// SetLyric replaces the cached lyric.
func (s *Song) SetLyric(l *Lyric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lyric = l
}

// Track flattens the song for export.
func (s *Song) Track() Track {
	return Track{
		ID:       s.ID,
		Title:    s.Title,
		Artist:   s.ArtistName(),
		Album:    s.Album.Name,
		AlbumID:  s.Album.ID,
		Duration: int(s.Duration / time.Second),
		MVID:     s.MVID,
	}
}

func (s *Song) String() string {
	return fmt.Sprintf("%s - %s", s.Title, s.ArtistName())
}
