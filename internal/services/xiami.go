// Xiami gateway implementation of [API]
package services

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xmx/internal/pager"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://127.0.0.1:8090"
	defaultTimeout = 10 * time.Second
)

// XiamiService talks JSON to the Xiami API gateway.
//
// Requests are spaced by a token-bucket limiter and carry the configured access token as a bearer credential.
type XiamiService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option customises a [XiamiService].
type Option func(*XiamiService)

// WithHTTPClient sets the client used underneath the bearer-token transport.
func WithHTTPClient(c *http.Client) Option {
	return func(s *XiamiService) { s.httpClient = c }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(s *XiamiService) { s.logger = l }
}

// NewXiamiService builds a client from provider settings.
func NewXiamiService(cfg shared.ProviderConfig, opts ...Option) *XiamiService {
	s := &XiamiService{
		baseURL:    strings.TrimRight(cmp.Or(cfg.BaseURL, defaultBaseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     log.New(io.Discard),
	}
	if cfg.TimeoutSeconds > 0 {
		s.httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("xiami")

	if cfg.AccessToken != "" {
		base := s.httpClient
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		s.httpClient = oauth2.NewClient(ctx, ts)
		s.httpClient.Timeout = base.Timeout
	}

	return s
}

// Name returns the provider name.
func (s *XiamiService) Name() string {
	return "Xiami"
}

type updateRequest struct {
	SongID string `json:"songId"`
	Action Action `json:"action"`
}

type updateResponse struct {
	Success bool `json:"success"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// doRequest performs one request against the gateway and decodes the JSON body into result.
//
// It reports whether the body was a JSON null, which the gateway uses for absent entities.
func (s *XiamiService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any, notFound error) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("request", "method", method, "endpoint", endpoint, "request_id", requestID)
	start := time.Now()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.Debug("response", "status", resp.StatusCode, "request_id", requestID, "elapsed", time.Since(start))

	if err := statusError(resp.StatusCode, data, endpoint, notFound); err != nil {
		return false, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true, nil
	}

	if result != nil {
		if err := json.Unmarshal(trimmed, result); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return false, nil
}

func statusError(status int, body []byte, endpoint string, notFound error) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var detail apiError
	_ = json.Unmarshal(body, &detail)
	msg := cmp.Or(detail.Message, http.StatusText(status))

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", cmp.Or(notFound, shared.ErrNotFound), endpoint)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, msg)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", shared.ErrServiceUnavailable, status, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, status, msg)
	}
}

// getEntity fetches a single entity, turning a null body into notFound.
func getEntity[T any](ctx context.Context, s *XiamiService, endpoint string, notFound error) (*T, error) {
	var out T
	null, err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &out, notFound)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, fmt.Errorf("%w: %s", notFound, endpoint)
	}
	return &out, nil
}

// getPage fetches one page and lifts the named field's items out of it.
//
// A null body is not an error; it yields a nil page, which pager treats as empty.
func getPage[T any](ctx context.Context, s *XiamiService, endpoint, field string, page, pageSize int, notFound error) (*pager.Page[T], error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(pageSize))
	}

	var raw map[string]json.RawMessage
	null, err := s.doRequest(ctx, http.MethodGet, endpoint, query, nil, &raw, notFound)
	if err != nil || null {
		return nil, err
	}
	return decodePage[T](raw, field)
}

func decodePage[T any](raw map[string]json.RawMessage, field string) (*pager.Page[T], error) {
	var total Int
	if v, ok := raw["total"]; ok {
		if err := json.Unmarshal(v, &total); err != nil {
			return nil, fmt.Errorf("failed to decode total: %w", err)
		}
	}

	var paging Paging
	if v, ok := raw["pagingVO"]; ok {
		if err := json.Unmarshal(v, &paging); err != nil {
			return nil, fmt.Errorf("failed to decode pagingVO: %w", err)
		}
	}

	var items []T
	if v, ok := raw[field]; ok {
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", field, err)
		}
	}

	return &pager.Page[T]{
		Total:    int(cmp.Or(total, paging.Count)),
		Page:     int(paging.Page),
		PageSize: int(paging.PageSize),
		Pages:    int(paging.Pages),
		Items:    items,
	}, nil
}

func (s *XiamiService) update(ctx context.Context, endpoint, songID string, action Action, notFound error) (bool, error) {
	if action != ActionAdd && action != ActionDel {
		return false, fmt.Errorf("%w: action %q", shared.ErrInvalidArgument, action)
	}

	var out updateResponse
	body := updateRequest{SongID: songID, Action: action}
	if _, err := s.doRequest(ctx, http.MethodPost, endpoint, nil, body, &out, notFound); err != nil {
		return false, err
	}
	return out.Success, nil
}

func endpointf(format, id string) string {
	return fmt.Sprintf(format, url.PathEscape(id))
}

// SongDetail returns a song with its listen files.
func (s *XiamiService) SongDetail(ctx context.Context, songID string) (*SongPayload, error) {
	return getEntity[SongPayload](ctx, s, endpointf("/api/songs/%s", songID), shared.ErrSongNotFound)
}

// SongLyric returns the raw lyric text, or "" when the song has none.
func (s *XiamiService) SongLyric(ctx context.Context, songID string) (string, error) {
	var lyric LyricPayload
	if _, err := s.doRequest(ctx, http.MethodGet, endpointf("/api/songs/%s/lyric", songID), nil, nil, &lyric, shared.ErrSongNotFound); err != nil {
		return "", err
	}
	return lyric.Content, nil
}

// AlbumDetail returns an album with its track list.
func (s *XiamiService) AlbumDetail(ctx context.Context, albumID string) (*AlbumPayload, error) {
	return getEntity[AlbumPayload](ctx, s, endpointf("/api/albums/%s", albumID), shared.ErrAlbumNotFound)
}

// ArtistDetail returns an artist's profile.
func (s *XiamiService) ArtistDetail(ctx context.Context, artistID string) (*ArtistPayload, error) {
	return getEntity[ArtistPayload](ctx, s, endpointf("/api/artists/%s", artistID), shared.ErrArtistNotFound)
}

// ArtistSongs returns one page of an artist's songs.
func (s *XiamiService) ArtistSongs(ctx context.Context, artistID string, page, pageSize int) (*pager.Page[SongPayload], error) {
	return getPage[SongPayload](ctx, s, endpointf("/api/artists/%s/songs", artistID), "songs", page, pageSize, shared.ErrArtistNotFound)
}

// ArtistAlbums returns one page of an artist's albums.
func (s *XiamiService) ArtistAlbums(ctx context.Context, artistID string, page, pageSize int) (*pager.Page[AlbumPayload], error) {
	return getPage[AlbumPayload](ctx, s, endpointf("/api/artists/%s/albums", artistID), "albums", page, pageSize, shared.ErrArtistNotFound)
}

// PlaylistDetail returns a playlist with the songs the remote embeds in the detail view.
func (s *XiamiService) PlaylistDetail(ctx context.Context, playlistID string) (*PlaylistPayload, error) {
	return getEntity[PlaylistPayload](ctx, s, endpointf("/api/playlists/%s", playlistID), shared.ErrPlaylistNotFound)
}

// PlaylistSongs returns one page of a playlist's songs.
func (s *XiamiService) PlaylistSongs(ctx context.Context, playlistID string, page, pageSize int) (*pager.Page[SongPayload], error) {
	return getPage[SongPayload](ctx, s, endpointf("/api/playlists/%s/songs", playlistID), "songs", page, pageSize, shared.ErrPlaylistNotFound)
}

// UpdatePlaylistSong adds or removes a song from a playlist the token owner manages.
func (s *XiamiService) UpdatePlaylistSong(ctx context.Context, playlistID, songID string, action Action) (bool, error) {
	return s.update(ctx, endpointf("/api/playlists/%s/songs", playlistID), songID, action, shared.ErrPlaylistNotFound)
}

// UserDetail returns a user's profile.
func (s *XiamiService) UserDetail(ctx context.Context, userID string) (*UserPayload, error) {
	return getEntity[UserPayload](ctx, s, endpointf("/api/users/%s", userID), shared.ErrUserNotFound)
}

// UserPlaylists returns the playlists a user created.
func (s *XiamiService) UserPlaylists(ctx context.Context, userID string) ([]PlaylistPayload, error) {
	var out []PlaylistPayload
	if _, err := s.doRequest(ctx, http.MethodGet, endpointf("/api/users/%s/playlists", userID), nil, nil, &out, shared.ErrUserNotFound); err != nil {
		return nil, err
	}
	return out, nil
}

// UserFavoritePlaylists returns the playlists a user has favorited.
func (s *XiamiService) UserFavoritePlaylists(ctx context.Context, userID string) ([]PlaylistPayload, error) {
	var out []PlaylistPayload
	if _, err := s.doRequest(ctx, http.MethodGet, endpointf("/api/users/%s/favorites/playlists", userID), nil, nil, &out, shared.ErrUserNotFound); err != nil {
		return nil, err
	}
	return out, nil
}

// UserFavoriteSongs returns one page of a user's favorite songs.
func (s *XiamiService) UserFavoriteSongs(ctx context.Context, userID string, page, pageSize int) (*pager.Page[SongPayload], error) {
	return getPage[SongPayload](ctx, s, endpointf("/api/users/%s/favorites/songs", userID), "songs", page, pageSize, shared.ErrUserNotFound)
}

// UpdateFavoriteSong adds or removes a song from the token owner's favorites.
func (s *XiamiService) UpdateFavoriteSong(ctx context.Context, songID string, action Action) (bool, error) {
	return s.update(ctx, "/api/favorites/songs", songID, action, shared.ErrSongNotFound)
}

// Search runs a keyword search. A null body yields an empty result.
func (s *XiamiService) Search(ctx context.Context, keyword string, opts SearchOptions) (*SearchPayload, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: empty search keyword", shared.ErrMissingArgument)
	}

	query := url.Values{"key": {keyword}, "type": {string(cmp.Or(opts.Type, SearchSong))}}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(opts.PageSize))
	}

	var out SearchPayload
	if _, err := s.doRequest(ctx, http.MethodGet, "/api/search", query, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// MVDetail returns a music video.
func (s *XiamiService) MVDetail(ctx context.Context, mvID string) (*MVPayload, error) {
	return getEntity[MVPayload](ctx, s, endpointf("/api/mvs/%s", mvID), shared.ErrMVNotFound)
}

var _ API = (*XiamiService)(nil)

// IsNotFound reports whether err is any lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
