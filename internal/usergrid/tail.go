package usergrid

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// defaultTailLines is how much history Tail shows without -n.
const defaultTailLines = 10

// TailOptions control log tailing.
type TailOptions struct {
	// Lines is the history to print; 0 means the default.
	Lines int
	// Follow streams lines appended after the history is printed. A
	// following tail only returns on error.
	Follow bool
}

// Tail writes the last lines of the output log to w, optionally
// following new output.
func (s *Supervisor) Tail(w io.Writer, opts TailOptions) error {
	n := opts.Lines
	if n <= 0 {
		n = defaultTailLines
	}

	f, err := os.Open(s.cfg.OutLog)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no log file at %s", s.cfg.OutLog)
		}
		return fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	lines, offset, err := tailLines(f, n)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	if !opts.Follow {
		return nil
	}
	return s.follow(w, f, offset)
}

// tailLines returns up to n final lines and the file offset just past
// them, reading blockwise from the end.
func tailLines(f *os.File, n int) ([]string, int64, error) {
	const blockSize = 8 * 1024
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, err
	}
	var chunk []byte
	offset := size
	for offset > 0 {
		step := int64(blockSize)
		if step > offset {
			step = offset
		}
		offset -= step
		buf := make([]byte, step)
		if _, err := f.ReadAt(buf, offset); err != nil {
			return nil, 0, err
		}
		chunk = append(buf, chunk...)
		if strings.Count(string(chunk), "\n") > n {
			break
		}
	}
	text := strings.TrimRight(string(chunk), "\n")
	if text == "" {
		return nil, size, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, size, nil
}

// follow streams appended log data until the watch fails.
func (s *Supervisor) follow(w io.Writer, f *os.File, offset int64) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watching log: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.cfg.OutLog); err != nil {
		return fmt.Errorf("watching log: %w", err)
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	for {
		if _, err := io.Copy(w, f); err != nil {
			return err
		}
		select {
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// emitTail sends the recent log through the feedback sink after a
// failed start.
func (s *Supervisor) emitTail() {
	f, err := os.Open(s.cfg.OutLog)
	if err != nil {
		return
	}
	defer f.Close()
	lines, _, err := tailLines(f, defaultTailLines)
	if err != nil {
		return
	}
	for _, line := range lines {
		s.fb.Emit(line)
	}
}
