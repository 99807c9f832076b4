// Package browser opens URLs in the user's browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/apigee-127/a127/internal/feedback"
)

// Opener launches a URL. The account manager depends on this interface so
// tests can record open calls without spawning anything.
type Opener interface {
	Open(url string) error
}

// System shells out to the platform opener. A configured browser
// executable overrides the default; on platforms without a default
// opener the configuration is required.
type System struct {
	// Browser is the configured executable, empty for the platform default.
	Browser string
	Feedback feedback.Emitter
}

func (s System) Open(url string) error {
	var cmd *exec.Cmd
	switch {
	case s.Browser != "":
		cmd = exec.Command(s.Browser, url)
	case runtime.GOOS == "darwin":
		cmd = exec.Command("open", url)
	case runtime.GOOS == "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		if path, err := exec.LookPath("xdg-open"); err == nil {
			cmd = exec.Command(path, url)
		} else {
			return fmt.Errorf("no browser configured: set browser in ~/.a127/config.yaml")
		}
	}
	s.Feedback.Emitf("Opening browser to: %s", url)
	return cmd.Start()
}
