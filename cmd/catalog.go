package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/services"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/urfave/cli/v3"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}

type songOutput struct {
	models.Track
	Qualities []models.Quality `json:"qualities,omitempty"`
	ExpiresAt string           `json:"expires_at,omitempty"`
}

// SongShow prints one song.
func (r *Runner) SongShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	song, err := r.provider.Song(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch song: %w", err)
	}

	qualities, err := song.ListQuality(ctx)
	if err != nil {
		return fmt.Errorf("failed to load song media: %w", err)
	}
	out := songOutput{Track: song.Track(), Qualities: qualities}
	if exp := song.ExpiresAt(); !exp.IsZero() {
		out.ExpiresAt = exp.UTC().Format("2006-01-02T15:04:05Z")
	}
	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(song.String())
	r.writePlain("ID:       %s\n", song.ID)
	r.writePlain("Album:    %s\n", song.Album.Name)
	r.writePlain("Duration: %s\n", shared.FormatDuration(out.Duration))
	if len(out.Qualities) > 0 {
		qs := make([]string, 0, len(out.Qualities))
		for _, q := range out.Qualities {
			qs = append(qs, string(q))
		}
		r.writePlain("Quality:  %s\n", strings.Join(qs, ", "))
	}
	if song.MVID != "" {
		r.writePlain("MV:       %s\n", song.MVID)
	}
	return nil
}

// SongLyric prints a song's lyric as plain lines or LRC.
func (r *Runner) SongLyric(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	song, err := r.provider.Song(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch song: %w", err)
	}
	lyric, err := song.Lyric(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch lyric: %w", err)
	}
	if strings.TrimSpace(lyric.Content) == "" {
		r.writePlain("No lyric for %s\n", song)
		return nil
	}

	var data []byte
	if cmd.Bool("lrc") {
		data = formatter.ExportLyric(song, lyric)
	} else {
		data = []byte(formatter.PlainLyric(lyric.Content))
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write lyric: %w", err)
		}
		r.logger.Info("lyric written", "song", song.ID, "path", path)
		r.writePlain("✓ Lyric saved to %s\n", path)
		return nil
	}

	_, err = r.output.Write(data)
	return err
}

// pickMedia resolves the requested quality, or the best one the song offers.
func pickMedia(ctx context.Context, song *models.Song, quality string) (models.Media, error) {
	var q models.Quality
	if quality != "" {
		parsed, err := models.ParseQuality(quality)
		if err != nil {
			return models.Media{}, err
		}
		q = parsed
	} else if qs, err := song.ListQuality(ctx); err != nil {
		return models.Media{}, err
	} else if len(qs) > 0 {
		q = qs[0]
	} else {
		return models.Media{}, fmt.Errorf("%w: song %s has no media", shared.ErrQualityNotFound, song.ID)
	}
	return song.Media(ctx, q)
}

// SongMedia prints the media URL for one quality tier.
func (r *Runner) SongMedia(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	song, err := r.provider.Song(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch song: %w", err)
	}
	media, err := pickMedia(ctx, song, cmd.String("quality"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(media, cmd.Bool("pretty"))
	}
	r.writePlain("%s [%s %s]\n%s\n", song, media.Quality, media.Format, media.URL)
	return nil
}

// SongOpen hands the song's current URL to the system opener.
func (r *Runner) SongOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	song, err := r.provider.Song(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch song: %w", err)
	}
	url, err := song.URL(ctx)
	if err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("%w: song %s has no playable URL", shared.ErrQualityNotFound, song.ID)
	}

	r.writePlain("→ Opening %s\n", song)
	if err := shared.OpenURL(url); err != nil {
		r.logger.Warn("failed to open URL", "error", err)
		r.writePlain("Open this URL manually:\n%s\n", url)
	}
	return nil
}

// AlbumShow prints an album with its track list.
func (r *Runner) AlbumShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	album, err := r.provider.Album(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch album: %w", err)
	}
	tracks := tracksOf(album.Songs())

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"id":      album.ID,
			"name":    album.Name,
			"cover":   album.Cover,
			"artists": album.Artists,
			"tracks":  tracks,
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(album.Name)
	for _, a := range album.Artists {
		r.writePlain("Artist: %s (%s)\n", a.Name, a.ID)
	}
	r.writePlain("\n")
	r.writeTracks(tracks)
	return nil
}

// ArtistShow prints an artist profile.
func (r *Runner) ArtistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	artist, err := r.provider.Artist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch artist: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{
			"id":          artist.ID,
			"name":        artist.Name,
			"cover":       artist.Cover,
			"description": artist.Description,
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(artist.Name)
	r.writePlain("ID: %s\n", artist.ID)
	if artist.Description != "" {
		r.writePlain("\n%s\n", artist.Description)
	}
	return nil
}

// ArtistSongs lists an artist's songs up to --limit.
func (r *Runner) ArtistSongs(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	artist, err := r.provider.Artist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch artist: %w", err)
	}
	seq, err := artist.SongsSequence(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch artist songs: %w", err)
	}
	songs, err := seq.Collect(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch artist songs: %w", err)
	}

	return r.writeSongs(cmd, fmt.Sprintf("%s (%d/%d)", artist.Name, len(songs), seq.Total()), tracksOf(songs))
}

// ArtistAlbums lists an artist's albums up to --limit.
func (r *Runner) ArtistAlbums(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	artist, err := r.provider.Artist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch artist: %w", err)
	}
	seq, err := artist.AlbumsSequence(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch artist albums: %w", err)
	}
	albums, err := seq.Collect(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch artist albums: %w", err)
	}

	type albumOutput struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]albumOutput, 0, len(albums))
	for _, a := range albums {
		out = append(out, albumOutput{ID: a.ID, Name: a.Name})
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}
	r.writePlainHeader(fmt.Sprintf("%s (%d/%d)", artist.Name, len(albums), seq.Total()))
	for i, a := range out {
		r.writePlain("%3d. %s (%s)\n", i+1, a.Name, a.ID)
	}
	return nil
}

// writeSongs prints tracks as JSON or under a header.
func (r *Runner) writeSongs(cmd *cli.Command, title string, tracks []models.Track) error {
	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	r.writePlainHeader(title)
	r.writeTracks(tracks)
	return nil
}

// Search runs a keyword search for one entity type.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	keyword, err := requireArg(cmd, "keyword")
	if err != nil {
		return err
	}
	typ, err := services.ParseSearchType(cmd.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	res, err := r.provider.Search(ctx, keyword, services.SearchOptions{
		Type:     typ,
		Page:     cmd.Int("page"),
		PageSize: cmd.Int("page-size"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	type hit struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Info string `json:"info,omitempty"`
	}
	var hits []hit
	for _, s := range res.Songs {
		hits = append(hits, hit{ID: s.ID, Name: s.Title, Info: s.ArtistName()})
	}
	for _, a := range res.Albums {
		var names []string
		for _, ar := range a.Artists {
			names = append(names, ar.Name)
		}
		hits = append(hits, hit{ID: a.ID, Name: a.Name, Info: strings.Join(names, ", ")})
	}
	for _, a := range res.Artists {
		hits = append(hits, hit{ID: a.ID, Name: a.Name})
	}
	for _, pl := range res.Playlists {
		hits = append(hits, hit{ID: pl.ID, Name: pl.Name, Info: fmt.Sprintf("%d songs", pl.Summary().TrackCount)})
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"query": res.Query, "total": res.Total, "results": hits}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%q: %d %s results", res.Query, res.Total, typ))
	for i, h := range hits {
		if h.Info != "" {
			r.writePlain("%3d. %s - %s (%s)\n", i+1, h.Name, h.Info, h.ID)
		} else {
			r.writePlain("%3d. %s (%s)\n", i+1, h.Name, h.ID)
		}
	}
	return nil
}

// MVShow prints a music video.
func (r *Runner) MVShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	mv, err := r.provider.MV(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch mv: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(mv, cmd.Bool("pretty"))
	}
	r.writePlainHeader(mv.Name)
	r.writePlain("Artist:   %s\n", mv.ArtistName)
	r.writePlain("Duration: %s\n", shared.FormatDuration(int(mv.Duration.Seconds())))
	r.writePlain("URL:      %s\n", mv.MediaURL)
	return nil
}
