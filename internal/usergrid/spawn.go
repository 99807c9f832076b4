package usergrid

import (
	"os"
	"os/exec"
	"syscall"
)

// spawnDetached starts the jar in its own session so the child outlives
// the CLI process. The parent never waits on the child; the returned pid
// is only persisted after start confirmation.
func spawnDetached(jar string, args []string, stdout, stderr *os.File) (int, error) {
	cmd := exec.Command("java", args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, err
	}
	return pid, nil
}
