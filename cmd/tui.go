package main

import (
	"cmp"
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/desertthunder/xmx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	opts := ui.Options{
		UserID:     cmp.Or(cmd.String("user"), r.config.Provider.UserID),
		PlaylistID: cmd.String("playlist"),
	}
	if opts.UserID == "" && opts.PlaylistID == "" {
		return fmt.Errorf("%w: --user, --playlist or provider.user_id", shared.ErrMissingArgument)
	}

	var err error
	if opts.Format, opts.OutputDir, err = r.exportSettings(cmd); err != nil {
		return err
	}

	// Redirect logs to a file to avoid interfering with TUI rendering
	logConfig := r.config.Log
	logConfig.File = cmp.Or(logConfig.File, "./tmp/xmx-tui.log")
	fileLogger, closer := shared.NewFileLogger(logConfig)
	defer closer.Close()
	r.SetLogger(fileLogger)

	engine, err := r.engine(false)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.provider, engine, opts)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
