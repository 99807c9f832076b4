package usergrid

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/apigee-127/a127/internal/feedback"
)

// ErrStartTimeout is returned when neither sentinel appears within the
// configured bound.
var ErrStartTimeout = errors.New("timeout waiting for Usergrid to start")

// logWatch observes lines appended to the output log after the watch was
// opened. It must be created before the process is spawned so no early
// output is missed.
type logWatch struct {
	path    string
	file    *os.File
	watcher *fsnotify.Watcher // nil means poll
	pending string
}

func newLogWatch(path string) (*logWatch, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	w := &logWatch{path: path, file: f}
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		if err := watcher.Add(path); err == nil {
			w.watcher = watcher
		} else {
			watcher.Close()
		}
	}
	return w, nil
}

func (w *logWatch) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.file.Close()
}

// WaitFor blocks until a line containing success or failure appears, or
// the timeout elapses. The wait is one-shot: once either sentinel fires,
// further log output is ignored. On timeout, the last line of the file
// is re-read once in case the sentinel landed without being observed by
// the streaming watch.
func (w *logWatch) WaitFor(success, failure string, timeout time.Duration, fb feedback.Emitter) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	// Poll fallback keeps the wait alive when the notify watcher could
	// not be established.
	poll := time.NewTicker(200 * time.Millisecond)
	defer poll.Stop()

	for {
		done, err := w.scan(success, failure, fb)
		if done {
			return err
		}

		var events chan fsnotify.Event
		if w.watcher != nil {
			events = w.watcher.Events
		}
		select {
		case <-deadline.C:
			if line, ok := lastLine(w.path); ok && strings.Contains(line, success) {
				return nil
			}
			return ErrStartTimeout
		case <-events:
		case <-poll.C:
		}
	}
}

// scan consumes newly appended complete lines, reporting whether a
// sentinel was found.
func (w *logWatch) scan(success, failure string, fb feedback.Emitter) (bool, error) {
	buf := make([]byte, 32*1024)
	for {
		n, err := w.file.Read(buf)
		if n > 0 {
			w.pending += string(buf[:n])
		}
		if err != nil {
			break
		}
	}
	for {
		line, rest, ok := strings.Cut(w.pending, "\n")
		if !ok {
			return false, nil
		}
		w.pending = rest
		fb.Emit(`.\`)
		if strings.Contains(line, success) {
			return true, nil
		}
		if failure != "" && strings.Contains(line, failure) {
			return true, fmt.Errorf("usergrid failed to start: %s", strings.TrimSpace(line))
		}
	}
}

// lastLine reads the final line of the file, tolerating a missing
// trailing newline.
func lastLine(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return "", false
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 0 {
		return "", false
	}
	return lines[len(lines)-1], true
}
