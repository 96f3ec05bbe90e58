package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 5
	maxWorkers     = 10
	manifestName   = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format      formatter.Format // Export format, CSV when empty
	OutputDir   string           // Base output directory (default: xiami_export_{epoch})
	NumWorkers  int              // Concurrent file writers (default: 5, max: 10)
	RateLimit   float64          // Playlist fetches per second (default: 5)
	CoverClient *http.Client     // Downloads markdown covers when set
}

// PlaylistExportJob is a fetched playlist waiting to be written.
type PlaylistExportJob struct {
	PlaylistID string
	Export     *models.PlaylistExport
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	TrackCount   int    `json:"track_count"`
	File         string `json:"file,omitempty"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
}

// BulkExportResult summarises a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult
}

type manifestEntry struct {
	PlaylistExportResult
	Error string `json:"error,omitempty"`
}

type manifest struct {
	ExportedAt time.Time       `json:"exported_at"`
	Format     string          `json:"format"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Playlists  []manifestEntry `json:"playlists"`
}

// BulkExport exports multiple playlists with rate-limited fetches and a pool of file writers.
//
// Fetch and write failures are recorded per playlist. A manifest summarising
// every result is written to the output directory.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no playlist ids", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatCSV
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("xiami_export_%d", time.Now().Unix())
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), maxWorkers)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, playlistID := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), playlistID))
			export, err := e.Export(ctx, nil, playlistID)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   playlistID,
					PlaylistName: fmt.Sprintf("Unknown (%s)", playlistID),
					Error:        err,
				}
				continue
			}
			jobs <- PlaylistExportJob{PlaylistID: playlistID, Export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)
		step := len(result.Results)
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(step, len(ids), res.PlaylistName, res.File))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(step, len(ids), res.PlaylistName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes playlists from the jobs channel until it closes.
func (e *Engine) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan PlaylistExportJob, results chan<- PlaylistExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		res := PlaylistExportResult{
			PlaylistID:   job.PlaylistID,
			PlaylistName: job.Export.Playlist.Name,
			TrackCount:   len(job.Export.Tracks),
		}
		path, err := formatter.WriteExport(ctx, job.Export, opts.OutputDir, opts.Format, opts.CoverClient)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.File, res.Success = path, true
		}
		results <- res
	}
}

func writeManifest(result *BulkExportResult, format formatter.Format, path string) error {
	m := manifest{
		ExportedAt: time.Now().UTC(),
		Format:     string(format),
		Total:      result.TotalPlaylists,
		Succeeded:  result.SuccessfulExports,
		Failed:     result.FailedExports,
		Playlists:  make([]manifestEntry, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		entry := manifestEntry{PlaylistExportResult: r}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Playlists = append(m.Playlists, entry)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
