package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeKey(t *testing.T) {
	tc := []struct {
		name  string
		parts []string
		want  string
	}{
		{
			name:  "basic normalization",
			parts: []string{"Song Title", "Artist Name"},
			want:  "song title|artist name",
		},
		{
			name:  "extra whitespace",
			parts: []string{"  Song   Title  ", "  Artist   Name  "},
			want:  "song title|artist name",
		},
		{
			name:  "single part",
			parts: []string{"SoNg"},
			want:  "song",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeKey(tt.parts...); got != tt.want {
				t.Errorf("NormalizeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{59, "0:59"},
		{245, "4:05"},
		{3725, "1:02:05"},
	}

	for _, tt := range tc {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestLogger(t *testing.T) {
	t.Run("ParseLevel", func(t *testing.T) {
		lvl, err := ParseLevel("")
		if err != nil || lvl != log.InfoLevel {
			t.Errorf("expected info for empty level, got %v (%v)", lvl, err)
		}

		lvl, err = ParseLevel(" DEBUG ")
		if err != nil || lvl != log.DebugLevel {
			t.Errorf("expected debug, got %v (%v)", lvl, err)
		}

		if _, err := ParseLevel("chatty"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component=test") {
			t.Errorf("expected child logger fields in output, got %q", buf.String())
		}
	})

	t.Run("NewLoggerFromConfig With File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "xmx.log")
		logger, closer := NewLoggerFromConfig(LogConfig{Level: "warn", File: logPath, MaxSizeMB: 1})

		logger.Info("dropped")
		logger.Warn("kept")
		if err := closer.Close(); err != nil {
			t.Fatalf("failed to close log file: %v", err)
		}

		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("expected log file to exist: %v", err)
		}
		if strings.Contains(string(data), "dropped") {
			t.Error("expected info entry to be filtered at warn level")
		}
		if !strings.Contains(string(data), "kept") {
			t.Error("expected warn entry in log file")
		}
	})

	t.Run("NewLoggerFromConfig Without File", func(t *testing.T) {
		logger, closer := NewLoggerFromConfig(LogConfig{})
		if logger == nil {
			t.Fatal("expected logger")
		}
		if err := closer.Close(); err != nil {
			t.Errorf("expected no-op closer, got %v", err)
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "tui.log")
		logger, closer := NewFileLogger(LogConfig{File: logPath})
		logger.Info("only in file")
		if err := closer.Close(); err != nil {
			t.Fatalf("failed to close log file: %v", err)
		}

		if data := string(mustRead(t, logPath)); !strings.Contains(data, "only in file") {
			t.Errorf("expected entry in log file, got %q", data)
		}
	})

	t.Run("NewFileLogger Without File Discards", func(t *testing.T) {
		logger, closer := NewFileLogger(LogConfig{})
		logger.Info("nowhere")
		if err := closer.Close(); err != nil {
			t.Errorf("expected no-op closer, got %v", err)
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b || len(a) != 36 {
			t.Errorf("expected two distinct uuids, got %s and %s", a, b)
		}
	})
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}
