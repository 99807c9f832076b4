package usergrid

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apigee-127/a127/internal/feedback"
)

func writeLog(t *testing.T, s *Supervisor, lines int) {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(s.cfg.OutLog, []byte(b.String()), 0o644))
}

func TestTailLastLines(t *testing.T) {
	s, _, _ := testSupervisor(t)
	writeLog(t, s, 20)

	var out strings.Builder
	require.NoError(t, s.Tail(&out, TailOptions{Lines: 3}))
	assert.Equal(t, "line 18\nline 19\nline 20\n", out.String())
}

func TestTailDefaultCount(t *testing.T) {
	s, _, _ := testSupervisor(t)
	writeLog(t, s, 20)

	var out strings.Builder
	require.NoError(t, s.Tail(&out, TailOptions{}))
	assert.Len(t, strings.Split(strings.TrimRight(out.String(), "\n"), "\n"), defaultTailLines)
}

func TestTailShortFile(t *testing.T) {
	s, _, _ := testSupervisor(t)
	writeLog(t, s, 2)

	var out strings.Builder
	require.NoError(t, s.Tail(&out, TailOptions{Lines: 10}))
	assert.Equal(t, "line 1\nline 2\n", out.String())
}

func TestTailMissingLog(t *testing.T) {
	s, _, _ := testSupervisor(t)

	err := s.Tail(&strings.Builder{}, TailOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log file")
}

func TestWaitForTimesOut(t *testing.T) {
	s, _, _ := testSupervisor(t)
	writeLog(t, s, 0)

	w, err := newLogWatch(s.cfg.OutLog)
	require.NoError(t, err)
	defer w.Close()

	err = w.WaitFor(startDetect, failedStartDetect, 50*time.Millisecond, &feedback.Buffer{})
	assert.ErrorIs(t, err, ErrStartTimeout)
}

func TestWaitForRecoversSentinelOnTimeout(t *testing.T) {
	s, _, _ := testSupervisor(t)
	writeLog(t, s, 0)

	w, err := newLogWatch(s.cfg.OutLog)
	require.NoError(t, err)
	defer w.Close()

	// A final line without a trailing newline is never a complete line for
	// the streaming scan; the timeout path must still find it.
	f, err := os.OpenFile(s.cfg.OutLog, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("INFO [HttpServer] Started.")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = w.WaitFor(startDetect, failedStartDetect, 300*time.Millisecond, &feedback.Buffer{})
	assert.NoError(t, err)
}
