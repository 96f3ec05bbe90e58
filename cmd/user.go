package main

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// userID resolves the user flag, falling back to provider.user_id.
func (r *Runner) userID(cmd *cli.Command, flag string) (string, error) {
	id := strings.TrimSpace(cmp.Or(cmd.String(flag), r.config.Provider.UserID))
	if id == "" {
		return "", fmt.Errorf("%w: --%s or provider.user_id", shared.ErrMissingArgument, flag)
	}
	return id, nil
}

// UserShow prints a user profile. The access token is never printed.
func (r *Runner) UserShow(ctx context.Context, cmd *cli.Command) error {
	id, err := r.userID(cmd, "id")
	if err != nil {
		return err
	}

	user, err := r.provider.User(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"id": user.ID, "name": user.Name, "avatar": user.Avatar}, cmd.Bool("pretty"))
	}
	r.writePlainHeader(user.Name)
	r.writePlain("ID: %s\n", user.ID)
	return nil
}

// UserPlaylists lists created playlists followed by favorited ones.
func (r *Runner) UserPlaylists(ctx context.Context, cmd *cli.Command) error {
	id, err := r.userID(cmd, "id")
	if err != nil {
		return err
	}

	user, err := r.provider.User(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	var created []*models.Playlist
	if !cmd.Bool("favorited") {
		if created, err = user.Playlists(ctx); err != nil {
			return fmt.Errorf("failed to fetch playlists: %w", err)
		}
	}
	favorited, err := user.FavPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch favorited playlists: %w", err)
	}

	if cmd.Bool("json") {
		out := map[string][]models.PlaylistSummary{"favorited": summaries(favorited)}
		if !cmd.Bool("favorited") {
			out["created"] = summaries(created)
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if !cmd.Bool("favorited") {
		r.writePlainHeader(fmt.Sprintf("%s: created (%d)", user.Name, len(created)))
		r.writePlaylists(created)
		r.writePlain("\n")
	}
	r.writePlainHeader(fmt.Sprintf("%s: favorited (%d)", user.Name, len(favorited)))
	r.writePlaylists(favorited)
	return nil
}

func summaries(playlists []*models.Playlist) []models.PlaylistSummary {
	out := make([]models.PlaylistSummary, 0, len(playlists))
	for _, pl := range playlists {
		out = append(out, pl.Summary())
	}
	return out
}

func (r *Runner) writePlaylists(playlists []*models.Playlist) {
	for i, pl := range playlists {
		r.writePlain("%3d. %s [%d songs] (%s)\n", i+1, pl.Name, pl.Summary().TrackCount, pl.ID)
	}
}

// UserFavorites lists favorite songs up to --limit.
func (r *Runner) UserFavorites(ctx context.Context, cmd *cli.Command) error {
	id, err := r.userID(cmd, "id")
	if err != nil {
		return err
	}

	user, err := r.provider.User(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	seq, err := user.FavSongs(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch favorite songs: %w", err)
	}
	songs, err := seq.Collect(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch favorite songs: %w", err)
	}

	return r.writeSongs(cmd, fmt.Sprintf("%s: favorites (%d/%d)", user.Name, len(songs), seq.Total()), tracksOf(songs))
}

// tokenOwner loads the user the access token belongs to.
func (r *Runner) tokenOwner(ctx context.Context) (*models.User, error) {
	if r.config.Provider.UserID == "" {
		return nil, fmt.Errorf("%w: provider.user_id is required to change favorites", shared.ErrMissingConfig)
	}
	return r.provider.User(ctx, r.config.Provider.UserID)
}

// UserFavAdd favorites a song.
func (r *Runner) UserFavAdd(ctx context.Context, cmd *cli.Command) error {
	user, err := r.tokenOwner(ctx)
	if err != nil {
		return err
	}
	ok, err := user.AddToFavSongs(ctx, cmd.String("song"))
	if err != nil {
		return fmt.Errorf("failed to favorite song: %w", err)
	}
	if !ok {
		r.writePlain("✗ Xiami rejected favoriting %s\n", cmd.String("song"))
		return nil
	}
	r.writePlain("✓ Favorited %s\n", cmd.String("song"))
	return nil
}

// UserFavRemove unfavorites a song.
func (r *Runner) UserFavRemove(ctx context.Context, cmd *cli.Command) error {
	user, err := r.tokenOwner(ctx)
	if err != nil {
		return err
	}
	ok, err := user.RemoveFromFavSongs(ctx, cmd.String("song"))
	if err != nil {
		return fmt.Errorf("failed to unfavorite song: %w", err)
	}
	if !ok {
		r.writePlain("✗ Xiami rejected unfavoriting %s\n", cmd.String("song"))
		return nil
	}
	r.writePlain("✓ Unfavorited %s\n", cmd.String("song"))
	return nil
}
