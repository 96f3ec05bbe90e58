// package formatter renders playlist exports and lyrics to files (CSV, Markdown, plain text, JSON, YAML, LRC)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts a format name or common alias ("md", "txt", "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Encode renders export in format f.
func Encode(export *models.PlaylistExport, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	case FormatYAML:
		return ExportToYAML(export)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Title, Artist, Album, Duration, MV
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Artist", "Album", "Duration", "MV"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{track.ID, track.Title, track.Artist, track.Album, strconv.Itoa(track.Duration), track.MVID}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown, linking coverFile when set.
func ExportToMarkdown(export *models.PlaylistExport, coverFile string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Name)
	if coverFile != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", coverFile)
	}
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", export.Playlist.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n\n", shared.FormatDuration(totalSeconds(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		album := ""
		if track.Album != "" {
			album = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Title, album, shared.FormatDuration(track.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders the whole export as indented JSON.
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToYAML renders the whole export as YAML.
func ExportToYAML(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeExport reads an export previously written as JSON or YAML.
func DecodeExport(data []byte, f Format) (*models.PlaylistExport, error) {
	var export models.PlaylistExport
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &export)
	case FormatYAML:
		err = yaml.Unmarshal(data, &export)
	default:
		return nil, fmt.Errorf("%w: cannot decode %s exports", shared.ErrNotImplemented, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s export: %w", f, err)
	}
	return &export, nil
}

func totalSeconds(tracks []models.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Duration
	}
	return total
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty image URL", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

var unsafeFilename = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// Filename builds "{slug}-{id}.{ext}" for an export, keeping non-ASCII letters.
func Filename(playlist models.PlaylistSummary, f Format) string {
	slug := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(playlist.Name), "-"), "-")
	if slug == "" {
		return fmt.Sprintf("%s.%s", playlist.ID, f.Extension())
	}
	return fmt.Sprintf("%s-%s.%s", slug, playlist.ID, f.Extension())
}

// WriteExport writes export into dir in format f and returns the file path.
//
// Markdown exports get their own directory holding README.md and, when the
// playlist has a cover and client is not nil, cover.jpg.
func WriteExport(ctx context.Context, export *models.PlaylistExport, dir string, f Format, client *http.Client) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if f == FormatMarkdown {
		return writeMarkdownExport(ctx, export, dir, client)
	}

	data, err := Encode(export, f)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, Filename(export.Playlist, f))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", f, err)
	}
	return path, nil
}

func writeMarkdownExport(ctx context.Context, export *models.PlaylistExport, dir string, client *http.Client) (string, error) {
	name := strings.TrimSuffix(Filename(export.Playlist, FormatMarkdown), ".md")
	outDir := filepath.Join(dir, name)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	var cover string
	if export.Playlist.Cover != "" && client != nil {
		if data, err := DownloadImage(ctx, client, export.Playlist.Cover); err == nil {
			if err := os.WriteFile(filepath.Join(outDir, "cover.jpg"), data, 0644); err == nil {
				cover = "cover.jpg"
			}
		}
	}

	data, err := ExportToMarkdown(export, cover)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outDir, "README.md")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return path, nil
}
