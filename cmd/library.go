package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LibrarySync stores the user's favorites and playlists in the local library.
func (r *Runner) LibrarySync(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.userID(cmd, "id")
	if err != nil {
		return err
	}
	engine, err := r.engine(true)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Phase == tasks.SyncPlaylists {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step)
			}
		}
	}()

	r.writePlain("→ Syncing library for user %s...\n", userID)
	result, err := engine.SyncLibrary(ctx, progress, userID)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	r.writePlainln("✓ Synced %s: %d favorite songs, %d playlists", result.UserName, result.FavoriteSongs, result.Playlists)
	for _, f := range result.Failed {
		r.writePlain("  ✗ %s (%s): %s\n", f.Name, f.PlaylistID, f.Error)
	}
	return nil
}

// LibrarySongs lists stored songs.
func (r *Runner) LibrarySongs(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	songs, err := lib.Songs.List(map[string]any{
		"artist": cmd.String("artist"),
		"query":  cmd.String("query"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	tracks := make([]models.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, s.Track())
	}
	return r.writeSongs(cmd, fmt.Sprintf("Library songs (%d)", len(tracks)), tracks)
}

// LibraryPlaylists lists stored playlists.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.library()
	if err != nil {
		return err
	}

	playlists, err := lib.Playlists.List(nil)
	if err != nil {
		return err
	}

	out := make([]models.PlaylistSummary, 0, len(playlists))
	for _, pl := range playlists {
		out = append(out, pl.Summary())
	}
	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Library playlists (%d)", len(out)))
	for i, pl := range out {
		r.writePlain("%3d. %s [%d songs] (%s)\n", i+1, pl.Name, pl.TrackCount, pl.ID)
	}
	return nil
}

// LibraryExport writes a stored playlist without any remote calls.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	format, dir, err := r.exportSettings(cmd)
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	export, err := lib.Export(id)
	if err != nil {
		return err
	}
	path, err := formatter.WriteExport(ctx, export, dir, format, nil)
	if err != nil {
		return err
	}
	r.writePlain("✓ Exported %s (%d songs)\n  %s\n", export.Playlist.Name, len(export.Tracks), path)
	return nil
}
