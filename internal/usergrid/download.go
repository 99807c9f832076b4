package usergrid

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Download fetches the Usergrid jar if it is not already present and
// reports its location either way. The call is idempotent: existing
// artifacts are left untouched.
func (s *Supervisor) Download() (string, error) {
	if _, err := os.Stat(s.cfg.JarFile); err == nil {
		return fmt.Sprintf("Usergrid is already present at %s", s.cfg.JarFile), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking for %s: %w", s.cfg.JarFile, err)
	}

	s.fb.Emitf("Downloading Usergrid from %s...", s.cfg.DownloadURL)
	if err := os.MkdirAll(filepath.Dir(s.cfg.JarFile), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(s.cfg.JarFile), err)
	}

	resp, err := http.Get(s.cfg.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("downloading usergrid: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading usergrid: unexpected status %s", resp.Status)
	}

	// Write to a temp name first so an interrupted download never looks
	// like an installed jar.
	tmp := s.cfg.JarFile + ".download"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("downloading usergrid: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, s.cfg.JarFile); err != nil {
		return "", err
	}
	return fmt.Sprintf("Usergrid downloaded to %s", s.cfg.JarFile), nil
}
