package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/shared"
	tu "github.com/desertthunder/xmx/internal/testing"
)

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, n int) (*Engine, []string) {
		engine, api := newTestEngine(t)
		var ids []string
		for i := range n {
			id := string(rune('a'+i)) + "list"
			addPlaylist(api, id, "Mix "+id, tu.SongFixtures(id+"-", 3))
			ids = append(ids, id)
		}
		return engine, ids
	}

	tests := []struct {
		name   string
		format formatter.Format
		count  int
		suffix string
	}{
		{name: "Single JSON", format: formatter.FormatJSON, count: 1, suffix: ".json"},
		{name: "Multiple CSV", format: formatter.FormatCSV, count: 3, suffix: ".csv"},
		{name: "YAML", format: formatter.FormatYAML, count: 2, suffix: ".yaml"},
		{name: "Text", format: formatter.FormatText, count: 2, suffix: ".txt"},
		{name: "Markdown", format: formatter.FormatMarkdown, count: 2, suffix: "README.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, ids := setup(t, tt.count)
			dir := t.TempDir()

			result, err := engine.BulkExport(ctx, nil, ids, BulkExportOpts{Format: tt.format, OutputDir: dir, RateLimit: 1000})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.SuccessfulExports != tt.count || result.FailedExports != 0 {
				t.Errorf("expected %d successes, got %d/%d", tt.count, result.SuccessfulExports, result.FailedExports)
			}
			for _, r := range result.Results {
				if !strings.HasSuffix(r.File, tt.suffix) {
					t.Errorf("expected file ending %s, got %s", tt.suffix, r.File)
				}
				tu.AssertFileExists(t, r.File)
				if r.TrackCount != 3 {
					t.Errorf("expected 3 tracks, got %d", r.TrackCount)
				}
			}
			if result.ManifestPath != filepath.Join(dir, "export_manifest.json") {
				t.Errorf("unexpected manifest path %s", result.ManifestPath)
			}
		})
	}

	t.Run("Partial Failure", func(t *testing.T) {
		engine, ids := setup(t, 2)
		dir := t.TempDir()
		progress := make(chan ProgressUpdate, 32)

		result, err := engine.BulkExport(ctx, progress, append(ids, "missing"), BulkExportOpts{OutputDir: dir, NumWorkers: 2, RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.TotalPlaylists != 3 || result.SuccessfulExports != 2 || result.FailedExports != 1 {
			t.Errorf("unexpected counts %+v", result)
		}

		var failed *PlaylistExportResult
		for i := range result.Results {
			if !result.Results[i].Success {
				failed = &result.Results[i]
			}
		}
		if failed == nil || failed.PlaylistID != "missing" || !errors.Is(failed.Error, shared.ErrPlaylistNotFound) {
			t.Fatalf("expected missing playlist failure, got %+v", failed)
		}

		var m manifest
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, result.ManifestPath)), &m); err != nil {
			t.Fatalf("failed to decode manifest: %v", err)
		}
		if m.Total != 3 || m.Failed != 1 || m.Format != "csv" || len(m.Playlists) != 3 {
			t.Errorf("unexpected manifest %+v", m)
		}
		for _, p := range m.Playlists {
			if p.PlaylistID == "missing" && !strings.Contains(p.Error, "not found") {
				t.Errorf("expected manifest error for missing playlist, got %q", p.Error)
			}
		}

		sawFailure := false
		for _, u := range drain(progress) {
			if u.Phase == ExportPlaylist && strings.Contains(u.Message, "✗") {
				sawFailure = true
			}
		}
		if !sawFailure {
			t.Error("expected a failure progress update")
		}
	})

	t.Run("Markdown Cover", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		engine, api := newTestEngine(t)
		addPlaylist(api, "p1", "Covered", tu.SongFixtures("c", 1))
		pl := api.Playlists["p1"]
		pl.CollectLogo = srv.URL + "/cover.jpg"
		api.Playlists["p1"] = pl

		dir := t.TempDir()
		result, err := engine.BulkExport(ctx, nil, []string{"p1"}, BulkExportOpts{
			Format: formatter.FormatMarkdown, OutputDir: dir, RateLimit: 1000, CoverClient: srv.Client(),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cover := filepath.Join(filepath.Dir(result.Results[0].File), "cover.jpg")
		if tu.MustReadFile(t, cover) != "jpeg" {
			t.Error("expected downloaded cover next to README.md")
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		engine, ids := setup(t, 1)
		t.Chdir(t.TempDir())

		result, err := engine.BulkExport(ctx, nil, ids, BulkExportOpts{NumWorkers: 50})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(result.OutputDirectory, "xiami_export_") {
			t.Errorf("expected default output directory, got %s", result.OutputDirectory)
		}
		tu.AssertDirExists(t, result.OutputDirectory)
	})

	t.Run("No IDs", func(t *testing.T) {
		engine, _ := setup(t, 0)
		if _, err := engine.BulkExport(ctx, nil, nil, BulkExportOpts{OutputDir: t.TempDir()}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Unwritable Output", func(t *testing.T) {
		engine, ids := setup(t, 1)
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := engine.BulkExport(ctx, nil, ids, BulkExportOpts{OutputDir: filepath.Join(file, "sub")}); err == nil {
			t.Error("expected error when output directory cannot be created")
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		engine, ids := setup(t, 3)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result, err := engine.BulkExport(cctx, nil, ids, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.ManifestPath != "" {
			t.Errorf("expected partial result without manifest, got %+v", result)
		}
	})

}
