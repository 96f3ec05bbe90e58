package main

import (
	"cmp"
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/xmx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON gateway until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cmp.Or(cmd.String("addr"), r.config.Server.Addr())
	srv := server.New(r.provider, r.logger)

	r.writePlain("→ Serving Xiami entities on http://%s (Ctrl+C to stop)\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
