package main

import (
	"cmp"
	"context"
	"fmt"

	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/desertthunder/xmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistShow prints playlist metadata and the songs from its detail view.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	pl, err := r.provider.Playlist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}
	summary := pl.Summary()
	tracks := tracksOf(pl.Songs())

	if cmd.Bool("json") {
		return r.writeJSON(models.PlaylistExport{Playlist: summary, Tracks: tracks}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(summary.Name)
	r.writePlain("ID:      %s\n", summary.ID)
	r.writePlain("Creator: %s\n", cmp.Or(pl.CreatorName, pl.CreatorID))
	r.writePlain("Songs:   %d\n", summary.TrackCount)
	if summary.Description != "" {
		r.writePlain("\n%s\n", summary.Description)
	}
	r.writePlain("\n")
	r.writeTracks(tracks)
	return nil
}

// PlaylistSongs walks the playlist's pages up to --limit.
func (r *Runner) PlaylistSongs(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	pl, err := r.provider.Playlist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}
	seq, err := pl.SongsSequence(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist songs: %w", err)
	}
	songs, err := seq.Collect(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch playlist songs: %w", err)
	}

	return r.writeSongs(cmd, fmt.Sprintf("%s (%d/%d)", pl.Name, len(songs), seq.Total()), tracksOf(songs))
}

// PlaylistAdd adds a song to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	pl, err := r.provider.Playlist(ctx, cmd.String("id"))
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	ok, err := pl.Add(ctx, cmd.String("song"))
	if err != nil {
		return fmt.Errorf("failed to add song: %w", err)
	}
	if !ok {
		r.writePlain("✗ Xiami rejected adding %s to %s\n", cmd.String("song"), pl.Name)
		return nil
	}
	r.writePlain("✓ Added %s to %s (%d songs)\n", cmd.String("song"), pl.Name, len(pl.Songs()))
	return nil
}

// PlaylistRemove removes a song from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	pl, err := r.provider.Playlist(ctx, cmd.String("id"))
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	ok, err := pl.Remove(ctx, cmd.String("song"))
	if err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}
	if !ok {
		r.writePlain("✗ Xiami rejected removing %s from %s\n", cmd.String("song"), pl.Name)
		return nil
	}
	r.writePlain("✓ Removed %s from %s\n", cmd.String("song"), pl.Name)
	return nil
}

// exportSettings merges command flags over the [export] config section.
func (r *Runner) exportSettings(cmd *cli.Command) (formatter.Format, string, error) {
	format, err := formatter.ParseFormat(cmp.Or(cmd.String("format"), r.config.Export.Format))
	if err != nil {
		return "", "", err
	}
	return format, cmp.Or(cmd.String("output"), r.config.Export.OutputDir, "."), nil
}

// PlaylistExport fetches every song of a playlist and writes one export file.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	format, dir, err := r.exportSettings(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(cmd.Bool("cache"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	export, err := engine.Export(ctx, progress, id)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	path, err := formatter.WriteExport(ctx, export, dir, format, r.httpClient)
	if err != nil {
		return err
	}

	r.logger.Info("playlist exported", "playlist", id, "format", format, "path", path)
	r.writePlain("✓ Exported %s (%d songs, %s)\n", export.Playlist.Name, len(export.Tracks), shared.FormatDuration(totalDuration(export.Tracks)))
	r.writePlain("  %s\n", path)
	return nil
}

func totalDuration(tracks []models.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Duration
	}
	return total
}
