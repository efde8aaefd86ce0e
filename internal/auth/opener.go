package auth

import (
	"os/exec"
	"runtime"
)

// BrowserOpener opens a URL in the user's default browser. Implementations
// are best-effort: a failure must not abort the OAuth flow, since headless
// environments are expected and the authorization URL is always printed.
type BrowserOpener interface {
	Open(url string) error
}

// ExecOpener launches the platform's URL handler as a detached process.
type ExecOpener struct{}

// Open starts the platform open command without waiting for it.
func (ExecOpener) Open(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
