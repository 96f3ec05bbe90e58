package formatter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
	tu "github.com/desertthunder/xmx/internal/testing"
)

func sampleExport() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.PlaylistSummary{
			ID:          "30",
			Name:        "Late Night Mix",
			Description: "A test playlist",
			TrackCount:  2,
		},
		Tracks: []models.Track{
			{ID: "1769", Title: "Song One", Artist: "Artist One", Album: "Album One", Duration: 180, MVID: "m1"},
			{ID: "1770", Title: "Song, Two", Artist: "Artist Two", Duration: 245},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Title,Artist,Album,Duration,MV\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1769,Song One,Artist One,Album One,180,m1") {
			t.Errorf("CSV missing first record, got: %s", output)
		}
		if !strings.Contains(output, `"Song, Two"`) {
			t.Errorf("CSV should quote titles with commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport(), "cover.jpg")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Late Night Mix",
			"![Cover](cover.jpg)",
			"**Description**: A test playlist",
			"**Tracks**: 2",
			"**Length**: 7:05",
			"1. Artist One - Song One (Album One) [3:00]",
			"2. Artist Two - Song, Two [4:05]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown Without Cover", func(t *testing.T) {
		data, _ := ExportToMarkdown(sampleExport(), "")
		if strings.Contains(string(data), "![Cover]") {
			t.Error("expected no cover link")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)
		if !strings.Contains(output, "Playlist: Late Night Mix") || !strings.Contains(output, "2. Artist Two - Song, Two") {
			t.Errorf("unexpected text output:\n%s", output)
		}
	})

	t.Run("JSON And YAML Round Trip", func(t *testing.T) {
		for _, f := range []Format{FormatJSON, FormatYAML} {
			data, err := Encode(sampleExport(), f)
			if err != nil {
				t.Fatalf("%s: encode failed: %v", f, err)
			}

			decoded, err := DecodeExport(data, f)
			if err != nil {
				t.Fatalf("%s: decode failed: %v", f, err)
			}
			if decoded.Playlist.Name != "Late Night Mix" || len(decoded.Tracks) != 2 || decoded.Tracks[0].MVID != "m1" {
				t.Errorf("%s: unexpected decoded export %+v", f, decoded)
			}
		}
	})

	t.Run("YAML Keys", func(t *testing.T) {
		data, _ := ExportToYAML(sampleExport())
		if !strings.Contains(string(data), "track_count: 2") {
			t.Errorf("expected snake_case yaml keys, got:\n%s", data)
		}
	})

	t.Run("DecodeExport Unsupported", func(t *testing.T) {
		if _, err := DecodeExport([]byte("x"), FormatCSV); !errors.Is(err, shared.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})
}

func TestFormats(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		cases := map[string]Format{"": FormatCSV, "MD": FormatMarkdown, "txt": FormatText, "yml": FormatYAML, "json": FormatJSON}
		for in, want := range cases {
			got, err := ParseFormat(in)
			if err != nil || got != want {
				t.Errorf("%q: expected %s, got %s (%v)", in, want, got, err)
			}
		}
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Encode Unknown", func(t *testing.T) {
		if _, err := Encode(sampleExport(), Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Filename", func(t *testing.T) {
		cases := []struct {
			playlist models.PlaylistSummary
			format   Format
			want     string
		}{
			{models.PlaylistSummary{ID: "30", Name: "Late Night Mix"}, FormatCSV, "late-night-mix-30.csv"},
			{models.PlaylistSummary{ID: "31", Name: "夜曲 / Nocturne"}, FormatText, "夜曲-nocturne-31.txt"},
			{models.PlaylistSummary{ID: "32", Name: "!!!"}, FormatYAML, "32.yaml"},
		}
		for _, tc := range cases {
			if got := Filename(tc.playlist, tc.format); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		}
	})
}

func TestWriteExport(t *testing.T) {
	ctx := context.Background()

	t.Run("CSV File", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		path, err := WriteExport(ctx, sampleExport(), dir, FormatCSV, nil)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != filepath.Join(dir, "late-night-mix-30.csv") {
			t.Errorf("unexpected path %s", path)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "Song One") {
			t.Error("expected track in written file")
		}
	})

	t.Run("Markdown With Cover", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegdata"))
		}))
		defer server.Close()

		export := sampleExport()
		export.Playlist.Cover = server.URL + "/cover.jpg"

		dir := t.TempDir()
		path, err := WriteExport(ctx, export, dir, FormatMarkdown, server.Client())
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		tu.AssertDirExists(t, filepath.Join(dir, "late-night-mix-30"))
		tu.AssertFileExists(t, filepath.Join(dir, "late-night-mix-30", "cover.jpg"))
		if !strings.Contains(tu.MustReadFile(t, path), "![Cover](cover.jpg)") {
			t.Error("expected README to link the downloaded cover")
		}
	})

	t.Run("Markdown Cover Failure Is Ignored", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		export := sampleExport()
		export.Playlist.Cover = server.URL + "/missing.jpg"

		path, err := WriteExport(ctx, export, t.TempDir(), FormatMarkdown, server.Client())
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if strings.Contains(tu.MustReadFile(t, path), "![Cover]") {
			t.Error("expected no cover link when download fails")
		}
	})

	t.Run("Unwritable Directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := WriteExport(ctx, sampleExport(), filepath.Join(file, "sub"), FormatCSV, nil); err == nil {
			t.Error("expected error when dir is below a file")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty URL", func(t *testing.T) {
		if _, err := DownloadImage(ctx, nil, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Read Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
		}, nil)}
		if _, err := DownloadImage(ctx, client, "http://example.com/a.jpg"); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestLRC(t *testing.T) {
	content := "[ti:Hello]\n[00:12.50]second<120> line\n[00:01.00][01:02.3]first\nuntimed\n"

	t.Run("ParseLRC", func(t *testing.T) {
		lines := ParseLRC(content)
		if len(lines) != 3 {
			t.Fatalf("expected 3 timed lines, got %d: %+v", len(lines), lines)
		}
		if lines[0].At != time.Second || lines[0].Text != "first" {
			t.Errorf("unexpected first line %+v", lines[0])
		}
		if lines[1].At != 12500*time.Millisecond || lines[1].Text != "second line" {
			t.Errorf("unexpected second line %+v", lines[1])
		}
		if lines[2].At != time.Minute+2300*time.Millisecond {
			t.Errorf("unexpected third line time %v", lines[2].At)
		}
	})

	t.Run("PlainLyric", func(t *testing.T) {
		if got := PlainLyric(content); got != "first\nsecond line\nfirst\n" {
			t.Errorf("unexpected plain lyric %q", got)
		}
		if got := PlainLyric("  no timings  "); got != "no timings" {
			t.Errorf("expected untimed content returned as is, got %q", got)
		}
	})

	t.Run("ExportLyric", func(t *testing.T) {
		song := &models.Song{
			ID:      "1",
			Title:   "Hello",
			Album:   models.AlbumRef{Name: "Greetings"},
			Artists: []models.ArtistRef{{Name: "A"}, {Name: "B"}},
		}
		out := string(ExportLyric(song, &models.Lyric{SongID: "1", Content: content}))

		for _, want := range []string{"[ti:Hello]\n", "[ar:A, B]\n", "[al:Greetings]\n", "[00:01.00]first\n", "[00:12.50]second line\n", "[01:02.30]first\n"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}
	})
}
