package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/desertthunder/xmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ExportBulk exports several playlists concurrently and writes a manifest next to them.
//
// With --user, every created and favorited playlist of that user is exported.
func (r *Runner) ExportBulk(ctx context.Context, cmd *cli.Command) error {
	ids := slices.Clone(cmd.StringSlice("id"))
	if userID := cmd.String("user"); userID != "" {
		more, err := r.userPlaylistIDs(ctx, userID)
		if err != nil {
			return err
		}
		ids = append(ids, more...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: --id or --user", shared.ErrMissingArgument)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	format, err := r.exportFormat(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(false)
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:      format,
		OutputDir:   cmp.Or(cmd.String("output"), r.config.Export.OutputDir),
		NumWorkers:  cmp.Or(cmd.Int("workers"), r.config.Export.Workers),
		RateLimit:   cmp.Or(cmd.Float("rate"), r.config.Export.RateLimit),
		CoverClient: r.httpClient,
	}

	progress := make(chan tasks.ProgressUpdate, len(ids)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Phase == tasks.ExportPlaylist {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	r.writePlain("→ Exporting %d playlists as %s...\n", len(ids), format)
	result, err := engine.BulkExport(ctx, progress, ids, opts)
	close(progress)
	<-done
	if result != nil {
		r.writePlainln("✓ %d exported, %d failed", result.SuccessfulExports, result.FailedExports)
		r.writePlain("  Output:   %s\n", result.OutputDirectory)
		if result.ManifestPath != "" {
			r.writePlain("  Manifest: %s\n", result.ManifestPath)
		}
	}
	if err != nil {
		return fmt.Errorf("bulk export failed: %w", err)
	}
	return nil
}

// exportFormat parses --format, falling back to the [export] config section.
func (r *Runner) exportFormat(cmd *cli.Command) (formatter.Format, error) {
	return formatter.ParseFormat(cmp.Or(cmd.String("format"), r.config.Export.Format))
}

func (r *Runner) userPlaylistIDs(ctx context.Context, userID string) ([]string, error) {
	user, err := r.provider.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	created, err := user.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}
	favorited, err := user.FavPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorited playlists: %w", err)
	}

	ids := make([]string, 0, len(created)+len(favorited))
	for _, pl := range append(created, favorited...) {
		ids = append(ids, pl.ID)
	}
	return ids, nil
}
