//go:build linux

package harness

import (
	"os/exec"
	"syscall"
)

func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		// The child dies with the harness, even if the harness is killed.
		Pdeathsig: syscall.SIGKILL,
	}
}
