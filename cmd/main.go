package main

import (
	"cmp"
	"context"
	"errors"
	"os"

	"github.com/desertthunder/xmx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	configPath := cmp.Or(os.Getenv("XMX_CONFIG"), "config.toml")

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			shared.NewLogger(nil).Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	logger, closer := shared.NewLoggerFromConfig(config.Log)
	defer closer.Close()

	if err := config.ApplyEnv(".env"); err != nil {
		logger.Warn("failed to apply environment", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "xmx",
		Usage:    "Browse, export and archive Xiami music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		runner.Close()
		closer.Close()
		logger.Fatalf("application error: %v", err)
	}
}
