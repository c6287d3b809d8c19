//go:build unix

package harness

import (
	"errors"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// The child is the leader of its own process group, so signalling the negated PID also
// reaches anything it spawned.

func terminateProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGTERM)
}

func killProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) error {
	err := unix.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
