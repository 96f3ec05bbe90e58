package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/pager"
	"github.com/desertthunder/xmx/internal/services"
	"github.com/desertthunder/xmx/internal/shared"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type songView struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Duration  int                `json:"duration"`
	Artists   []models.ArtistRef `json:"artists"`
	Album     models.AlbumRef    `json:"album"`
	MVID      string             `json:"mv_id,omitempty"`
	Qualities []models.Quality   `json:"qualities,omitempty"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
}

type albumView struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Cover       string             `json:"cover,omitempty"`
	Description string             `json:"description,omitempty"`
	Artists     []models.ArtistRef `json:"artists"`
	Songs       []songView         `json:"songs,omitempty"`
}

type artistView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cover       string `json:"cover,omitempty"`
	Description string `json:"description,omitempty"`
}

type playlistView struct {
	models.PlaylistSummary
	Songs []songView `json:"songs,omitempty"`
}

type userView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type lyricLine struct {
	AtMS int64  `json:"at_ms"`
	Text string `json:"text"`
}

type lyricView struct {
	SongID  string      `json:"song_id"`
	Content string      `json:"content"`
	Lines   []lyricLine `json:"lines,omitempty"`
}

type songPageView struct {
	Total int        `json:"total"`
	Songs []songView `json:"songs"`
}

type searchView struct {
	Query     string         `json:"query"`
	Total     int            `json:"total"`
	Songs     []songView     `json:"songs"`
	Albums    []albumView    `json:"albums"`
	Artists   []artistView   `json:"artists"`
	Playlists []playlistView `json:"playlists"`
}

type errorView struct {
	Error string `json:"error"`
}

func newSongView(s *models.Song) songView {
	v := songView{
		ID:        s.ID,
		Title:     s.Title,
		Duration:  int(s.Duration / time.Second),
		Artists:   s.Artists,
		Album:     s.Album,
		MVID:      s.MVID,
		Qualities: s.LoadedQualities(),
	}
	if exp := s.ExpiresAt(); !exp.IsZero() {
		v.ExpiresAt = &exp
	}
	return v
}

func newSongViews(songs []*models.Song) []songView {
	out := make([]songView, 0, len(songs))
	for _, s := range songs {
		out = append(out, newSongView(s))
	}
	return out
}

// Gateway serves read-only JSON views of provider entities.
type Gateway struct {
	provider *models.Provider
	logger   *log.Logger
}

// NewGateway creates a Gateway over provider.
func NewGateway(provider *models.Provider, logger *log.Logger) *Gateway {
	return &Gateway{provider: provider, logger: logger}
}

// Register mounts every gateway route on r.
func (g *Gateway) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, "/songs/{id}", g.song)
	r.HandleFunc(http.MethodGet, "/songs/{id}/lyric", g.lyric)
	r.HandleFunc(http.MethodGet, "/songs/{id}/media", g.media)
	r.HandleFunc(http.MethodGet, "/albums/{id}", g.album)
	r.HandleFunc(http.MethodGet, "/artists/{id}", g.artist)
	r.HandleFunc(http.MethodGet, "/artists/{id}/songs", g.artistSongs)
	r.HandleFunc(http.MethodGet, "/playlists/{id}", g.playlist)
	r.HandleFunc(http.MethodGet, "/playlists/{id}/songs", g.playlistSongs)
	r.HandleFunc(http.MethodGet, "/users/{id}", g.user)
	r.HandleFunc(http.MethodGet, "/users/{id}/favorites", g.favorites)
	r.HandleFunc(http.MethodGet, "/mvs/{id}", g.mv)
	r.HandleFunc(http.MethodGet, "/search", g.search)
	r.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": "xiami"})
	})
}

func (g *Gateway) song(w http.ResponseWriter, r *http.Request) {
	s, err := g.provider.Song(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSongView(s))
}

func (g *Gateway) lyric(w http.ResponseWriter, r *http.Request) {
	s, err := g.provider.Song(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	l, err := s.Lyric(r.Context())
	if err != nil {
		g.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "lrc" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(formatter.ExportLyric(s, l))
		return
	}
	view := lyricView{SongID: l.SongID, Content: l.Content}
	for _, line := range formatter.ParseLRC(l.Content) {
		view.Lines = append(view.Lines, lyricLine{AtMS: line.At.Milliseconds(), Text: line.Text})
	}
	writeJSON(w, http.StatusOK, view)
}

func (g *Gateway) media(w http.ResponseWriter, r *http.Request) {
	s, err := g.provider.Song(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}

	var quality models.Quality
	if q := r.URL.Query().Get("quality"); q != "" {
		if quality, err = models.ParseQuality(q); err != nil {
			g.fail(w, r, err)
			return
		}
	} else if qs, err := s.ListQuality(r.Context()); err != nil {
		g.fail(w, r, err)
		return
	} else if len(qs) > 0 {
		quality = qs[0]
	} else {
		g.fail(w, r, fmt.Errorf("%w: song %s has no media", shared.ErrQualityNotFound, s.ID))
		return
	}

	m, err := s.Media(r.Context(), quality)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (g *Gateway) album(w http.ResponseWriter, r *http.Request) {
	a, err := g.provider.Album(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, albumView{
		ID: a.ID, Name: a.Name, Cover: a.Cover, Description: a.Description,
		Artists: a.Artists, Songs: newSongViews(a.Songs()),
	})
}

func (g *Gateway) artist(w http.ResponseWriter, r *http.Request) {
	a, err := g.provider.Artist(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artistView{ID: a.ID, Name: a.Name, Cover: a.Cover, Description: a.Description})
}

func (g *Gateway) artistSongs(w http.ResponseWriter, r *http.Request) {
	g.songPage(w, r, func(ctx context.Context, id string) (*pager.Sequence[*models.Song], error) {
		a, err := g.provider.Artist(ctx, id)
		if err != nil {
			return nil, err
		}
		return a.SongsSequence(ctx)
	})
}

func (g *Gateway) playlist(w http.ResponseWriter, r *http.Request) {
	pl, err := g.provider.Playlist(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistView{PlaylistSummary: pl.Summary(), Songs: newSongViews(pl.Songs())})
}

func (g *Gateway) playlistSongs(w http.ResponseWriter, r *http.Request) {
	g.songPage(w, r, func(ctx context.Context, id string) (*pager.Sequence[*models.Song], error) {
		pl, err := g.provider.Playlist(ctx, id)
		if err != nil {
			return nil, err
		}
		return pl.SongsSequence(ctx)
	})
}

func (g *Gateway) user(w http.ResponseWriter, r *http.Request) {
	u, err := g.provider.User(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userView{ID: u.ID, Name: u.Name, Avatar: u.Avatar})
}

func (g *Gateway) favorites(w http.ResponseWriter, r *http.Request) {
	g.songPage(w, r, func(ctx context.Context, id string) (*pager.Sequence[*models.Song], error) {
		u, err := g.provider.User(ctx, id)
		if err != nil {
			return nil, err
		}
		return u.FavSongs(ctx)
	})
}

func (g *Gateway) mv(w http.ResponseWriter, r *http.Request) {
	mv, err := g.provider.MV(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

func (g *Gateway) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ, err := services.ParseSearchType(q.Get("type"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	opts := services.SearchOptions{Type: typ}
	if opts.Page, err = intParam(q.Get("page"), 0); err != nil {
		g.fail(w, r, err)
		return
	}
	if opts.PageSize, err = intParam(q.Get("page_size"), 0); err != nil {
		g.fail(w, r, err)
		return
	}

	res, err := g.provider.Search(r.Context(), q.Get("q"), opts)
	if err != nil {
		g.fail(w, r, err)
		return
	}

	view := searchView{Query: res.Query, Total: res.Total, Songs: newSongViews(res.Songs)}
	for _, a := range res.Albums {
		view.Albums = append(view.Albums, albumView{ID: a.ID, Name: a.Name, Cover: a.Cover, Artists: a.Artists})
	}
	for _, a := range res.Artists {
		view.Artists = append(view.Artists, artistView{ID: a.ID, Name: a.Name, Cover: a.Cover, Description: a.Description})
	}
	for _, pl := range res.Playlists {
		view.Playlists = append(view.Playlists, playlistView{PlaylistSummary: pl.Summary()})
	}
	writeJSON(w, http.StatusOK, view)
}

// songPage drains up to ?limit= songs from the sequence open returns.
func (g *Gateway) songPage(w http.ResponseWriter, r *http.Request, open func(context.Context, string) (*pager.Sequence[*models.Song], error)) {
	limit, err := intParam(r.URL.Query().Get("limit"), defaultLimit)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}

	seq, err := open(r.Context(), r.PathValue("id"))
	if err != nil {
		g.fail(w, r, err)
		return
	}
	songs, err := seq.Collect(r.Context(), limit)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songPageView{Total: seq.Total(), Songs: newSongViews(songs)})
}

func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("gateway request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", shared.ErrInvalidArgument, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorView{Error: msg})
}
