// Package usergrid supervises the locally-run Usergrid datastore: a
// detached Java process whose only persisted state signal is its PID
// file. Startup success is detected by tailing the process log for
// sentinel strings within a timeout; shutdown escalates from SIGTERM to
// SIGKILL, with "no such process" treated as the expected sign of a
// clean stop rather than an error.
package usergrid

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/apigee-127/a127/internal/browser"
	"github.com/apigee-127/a127/internal/config"
	"github.com/apigee-127/a127/internal/feedback"
)

const (
	startDetect       = "[HttpServer] Started."
	failedStartDetect = "unable to start"

	notRunningMsg = "Usergrid doesn't appear to be running"

	stopAttempts = 5
)

// SpawnFunc starts the detached child and returns its pid. stdout and
// stderr are already-open append-mode log files.
type SpawnFunc func(jar string, args []string, stdout, stderr *os.File) (int, error)

// SignalFunc delivers a signal to a pid.
type SignalFunc func(pid int, sig syscall.Signal) error

// ProbeFunc reports whether something is listening on the port.
type ProbeFunc func(port int) bool

// Supervisor manages the Usergrid process. The spawn, signal, probe and
// sleep collaborators are injectable for tests.
type Supervisor struct {
	cfg     config.Usergrid
	fb      feedback.Emitter
	browser browser.Opener

	spawn  SpawnFunc
	signal SignalFunc
	probe  ProbeFunc
	sleep  func(time.Duration)
}

func New(cfg config.Usergrid, fb feedback.Emitter, br browser.Opener) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		fb:      fb,
		browser: br,
		spawn:   spawnDetached,
		signal:  signalProcess,
		probe:   isPortOpen,
		sleep:   time.Sleep,
	}
}

// StartOptions control a start attempt.
type StartOptions struct {
	// Download fetches the Usergrid jar if it is not present.
	Download bool
	// Reset passes the initialize-fresh-storage flag to the process.
	Reset bool
	// Portal opens the web portal once the process is confirmed running.
	Portal bool
}

// Start launches Usergrid. The PID file's existence alone means
// "already running" (a stale file after an unclean reboot is reported
// as running; stop resolves the truth through the no-such-process
// path). The PID file is written only after the success sentinel is
// observed, never speculatively.
func (s *Supervisor) Start(opts StartOptions) (string, error) {
	if _, ok := s.readPid(); ok {
		return "Usergrid is already running", nil
	}

	if err := s.preflight(); err != nil {
		return "", err
	}

	if _, err := os.Stat(s.cfg.JarFile); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("checking for %s: %w", s.cfg.JarFile, err)
		}
		if !opts.Download {
			return "Usergrid is not installed. Run 'a127 usergrid download' or start with --download.", nil
		}
		if _, err := s.Download(); err != nil {
			return "", err
		}
	}

	args := append([]string{"-jar", s.cfg.JarFile}, s.cfg.StartOptions...)
	initStorage := opts.Reset
	if !initStorage {
		if _, err := os.Stat(s.cfg.InitMarker); err != nil {
			initStorage = true
		}
	}
	if initStorage {
		args = append(args, "-init")
	}

	out, err := os.OpenFile(s.cfg.OutLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", s.cfg.OutLog, err)
	}
	defer out.Close()
	errLog := out
	if s.cfg.ErrLog != s.cfg.OutLog {
		errLog, err = os.OpenFile(s.cfg.ErrLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", s.cfg.ErrLog, err)
		}
		defer errLog.Close()
	}

	watch, err := newLogWatch(s.cfg.OutLog)
	if err != nil {
		return "", err
	}
	defer watch.Close()

	s.fb.Emit("starting...")
	pid, err := s.spawn(s.cfg.JarFile, args, out, errLog)
	if err != nil {
		return "", fmt.Errorf("spawning usergrid: %w", err)
	}

	if err := watch.WaitFor(startDetect, failedStartDetect, s.cfg.StartTimeout, s.fb); err != nil {
		s.fb.Emit("failed to start. Log:")
		s.emitTail()
		return "", err
	}

	if err := s.writePid(pid); err != nil {
		return "", err
	}
	if initStorage {
		if err := os.WriteFile(s.cfg.InitMarker, []byte(time.Now().UTC().Format(time.RFC3339)), 0o644); err != nil {
			s.fb.Warnf("could not write storage marker: %v", err)
		}
	}

	if opts.Portal {
		if err := s.Portal(); err != nil {
			s.fb.Warnf("could not open portal: %v", err)
		}
	}
	return fmt.Sprintf("started. (%d)", pid), nil
}

// preflight verifies both required ports are free before any spawn is
// attempted. The two probes run concurrently and join here.
func (s *Supervisor) preflight() error {
	checks := []struct {
		port    int
		service string
	}{
		{s.cfg.Port, "Usergrid"},
		{s.cfg.CassandraPort, "Cassandra"},
	}
	errs := make([]error, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		i, check := i, check // go 1.21: loop vars are per-loop, not per-iteration
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.probe(check.port) {
				errs[i] = fmt.Errorf("port %d required by %s is in use", check.port, check.service)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Stop terminates the process with a bounded SIGTERM loop, escalating
// to SIGKILL. A "no such process" response is the expected terminal
// signal of a successful stop.
func (s *Supervisor) Stop() (string, error) {
	pid, ok := s.readPid()
	if !ok {
		return notRunningMsg, nil
	}
	s.fb.Emit("stopping...")
	for attempt := 0; attempt < stopAttempts; attempt++ {
		if err := s.signal(pid, syscall.SIGTERM); err != nil {
			if !processGone(err) {
				return "", fmt.Errorf("signaling usergrid: %w", err)
			}
			s.deletePid()
			return "stopped", nil
		}
		s.sleep(s.cfg.StopInterval)
	}
	if err := s.signal(pid, syscall.SIGKILL); err != nil && !processGone(err) {
		return "", fmt.Errorf("killing usergrid: %w", err)
	}
	s.deletePid()
	return "killed", nil
}

// Pid reports the PID file content without side effects.
func (s *Supervisor) Pid() string {
	pid, ok := s.readPid()
	if !ok {
		return notRunningMsg
	}
	return strconv.Itoa(pid)
}

// Portal opens the companion web portal.
func (s *Supervisor) Portal() error {
	return s.browser.Open(s.cfg.PortalURL)
}

// pid file handling; existence is the only persisted liveness signal.

func (s *Supervisor) readPid() (int, bool) {
	data, err := os.ReadFile(s.cfg.PidFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

func (s *Supervisor) writePid(pid int) error {
	if err := os.WriteFile(s.cfg.PidFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	return nil
}

func (s *Supervisor) deletePid() {
	os.Remove(s.cfg.PidFile)
}

func processGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH)
}

func signalProcess(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}

func isPortOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
