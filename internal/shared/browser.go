package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// startCommand is swapped in tests so nothing is actually launched.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// OpenURL hands url to the desktop's default handler, e.g. to play a song's stream in the system player.
func OpenURL(url string) error {
	cmd, err := openCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

func openCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("%w: cannot open urls on %s", ErrNotImplemented, goos)
	}
}
