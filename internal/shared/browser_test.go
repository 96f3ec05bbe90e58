package shared

import (
	"errors"
	"os/exec"
	"runtime"
	"slices"
	"testing"
)

func TestOpenURL(t *testing.T) {
	t.Run("Platform Commands", func(t *testing.T) {
		cases := map[string]string{
			"darwin":  "open",
			"linux":   "xdg-open",
			"windows": "rundll32",
		}
		for goos, bin := range cases {
			cmd, err := openCommand(goos, "https://example.com/a.mp3")
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", goos, err)
			}
			if cmd.Args[0] != bin {
				t.Errorf("%s: expected %s, got %s", goos, bin, cmd.Args[0])
			}
			if !slices.Contains(cmd.Args, "https://example.com/a.mp3") {
				t.Errorf("%s: url missing from args %v", goos, cmd.Args)
			}
		}
	})

	t.Run("Unsupported Platform", func(t *testing.T) {
		if _, err := openCommand("plan9", "x"); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})

	t.Run("Start Failure", func(t *testing.T) {
		if _, err := openCommand(runtime.GOOS, ""); err != nil {
			t.Skipf("no opener on %s", runtime.GOOS)
		}

		orig := startCommand
		t.Cleanup(func() { startCommand = orig })

		errNoDisplay := errors.New("no display")
		var started *exec.Cmd
		startCommand = func(cmd *exec.Cmd) error {
			started = cmd
			return errNoDisplay
		}

		if err := OpenURL("https://example.com"); !errors.Is(err, errNoDisplay) {
			t.Errorf("expected wrapped start error, got %v", err)
		}
		if started == nil {
			t.Error("expected command to be started")
		}
	})
}
