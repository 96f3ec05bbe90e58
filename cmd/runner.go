package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/repositories"
	"github.com/desertthunder/xmx/internal/services"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/desertthunder/xmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        services.API
	xiami      *services.XiamiService
	provider   *models.Provider
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// API defaults to a [services.XiamiService] built from Config.Provider.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        services.API
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.setAPI(opts.API)
	return r
}

// setAPI swaps the remote client and rebuilds the provider on top of it.
func (r *Runner) setAPI(api services.API) {
	r.xiami = nil
	if api == nil {
		r.xiami = services.NewXiamiService(r.config.Provider, services.WithLogger(r.logger))
		api = r.xiami
	} else if x, ok := api.(*services.XiamiService); ok {
		r.xiami = x
	}
	r.api = api
	r.provider = models.NewProvider(api, models.WithProviderLogger(r.logger))
}

// SetLogger replaces the logger used by commands and the provider.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.provider = models.NewProvider(r.api, models.WithProviderLogger(l))
}

// library opens the configured database once, running migrations on first use.
func (r *Runner) library() (*repositories.Library, error) {
	if r.db == nil {
		db, err := shared.OpenLibrary(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open library: %w", err)
		}
		r.db = db
	}
	return repositories.NewLibrary(r.db), nil
}

// engine builds a task engine. With cache set, fetched songs are written to the library.
func (r *Runner) engine(cache bool) (*tasks.Engine, error) {
	opts := []tasks.EngineOption{tasks.WithEngineLogger(r.logger)}
	if cache {
		lib, err := r.library()
		if err != nil {
			return nil, err
		}
		opts = append(opts, tasks.WithSongCacher(lib), tasks.WithPlaylistStore(lib))
	}
	return tasks.NewEngine(r.provider, opts...), nil
}

// Close releases the library database if it was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, songCommand, albumCommand, artistCommand, playlistCommand, userCommand,
		searchCommand, mvCommand, exportCommand, libraryCommand, serveCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeTracks prints a numbered track listing.
func (r *Runner) writeTracks(tracks []models.Track) {
	for i, t := range tracks {
		r.writePlain("%3d. %s - %s [%s] (%s)\n", i+1, t.Artist, t.Title, shared.FormatDuration(t.Duration), t.ID)
	}
}

func tracksOf(songs []*models.Song) []models.Track {
	tracks := make([]models.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, s.Track())
	}
	return tracks
}
