//go:build windows

package harness

import (
	"os/exec"
)

func configureProcAttr(cmd *exec.Cmd) {}

// Windows has no SIGTERM for console processes, so both steps kill the process outright.

func terminateProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func killProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
