package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/xmx/internal/server"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

const tokenTimeout = 2 * time.Minute

func (r *Runner) configPathOrDefault() string {
	return cmp.Or(r.configPath, "config.toml")
}

// loadOrCreateConfig reads the config at path, writing the embedded defaults first when it is missing.
func (r *Runner) loadOrCreateConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			return nil, err
		}
	}
	return shared.LoadConfig(path)
}

// SetupConfig writes config.toml from the embedded defaults.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set provider.base_url to your Xiami gateway\n")
	r.writePlain("2. Run 'xmx setup token --listen' to store an access token\n")
	return nil
}

// SetupDatabase initializes the library database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadOrCreateConfig(cmd.String("config"))
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		config = r.config
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.OpenLibrary(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Library ready at %s\n", config.Database.Path)
	return nil
}

// SetupToken stores an access token in the config file.
//
// The token comes from --token, a cURL command copied from the browser
// (--curl or --curl-file), or a local paste form (--listen).
func (r *Runner) SetupToken(ctx context.Context, cmd *cli.Command) error {
	sources := 0
	for _, name := range []string{"token", "curl", "curl-file"} {
		if cmd.String(name) != "" {
			sources++
		}
	}
	if cmd.Bool("listen") {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("%w: one of --token, --curl, --curl-file or --listen", shared.ErrMissingArgument)
	}
	if sources > 1 {
		return fmt.Errorf("%w: use only one of --token, --curl, --curl-file or --listen", shared.ErrInvalidArgument)
	}

	var token string
	var err error
	switch {
	case cmd.String("token") != "":
		token = strings.TrimSpace(cmd.String("token"))
	case cmd.String("curl") != "":
		token, err = tokenFromCurl(shared.ParseCurlCommand(cmd.String("curl")))
	case cmd.String("curl-file") != "":
		token, err = tokenFromCurl(shared.ParseCurlFile(cmd.String("curl-file")))
	default:
		token, err = r.captureToken(ctx, cmd.Duration("timeout"))
	}
	if err != nil {
		return err
	}

	path := cmd.String("config")
	config, err := r.loadOrCreateConfig(path)
	if err != nil {
		return err
	}
	config.Provider.AccessToken = token
	if err := shared.SaveConfig(path, config); err != nil {
		return err
	}

	r.config.Provider.AccessToken = token
	if r.xiami != nil {
		r.setAPI(nil)
	}

	r.logger.Info("access token saved", "path", path)
	r.writePlain("✓ Access token saved to %s\n", path)
	return nil
}

func tokenFromCurl(headers *shared.CurlHeaders, err error) (string, error) {
	if err != nil {
		return "", fmt.Errorf("failed to parse cURL command: %w", err)
	}
	return headers.AccessToken()
}

// captureToken serves the paste form until a token arrives or timeout passes.
func (r *Runner) captureToken(ctx context.Context, timeout time.Duration) (string, error) {
	state := uuid.NewString()
	handler := server.NewTokenHandler(state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	ln, err := net.Listen("tcp", r.config.Server.Addr())
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", r.config.Server.Addr(), err)
	}
	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	pageURL := fmt.Sprintf("http://%s/token?state=%s", ln.Addr().String(), state)
	r.writePlain("→ Opening %s\n", pageURL)
	if err := shared.OpenURL(pageURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlain("Please open this URL in your browser:\n%s\n\n", pageURL)
	}
	r.writePlain("→ Waiting for a token (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return "", fmt.Errorf("token capture failed: %w", result.Error())
		}
		return result.Token, nil
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: no token received after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
