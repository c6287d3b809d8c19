package harness

import (
	"errors"
	"fmt"
)

// Phase identifies the step of server startup in which a SetupError happened.
type Phase string

const (
	PhaseAllocate  Phase = "allocate"
	PhaseSpawn     Phase = "spawn"
	PhaseBind      Phase = "bind"
	PhaseReadiness Phase = "readiness"
)

var (
	// ErrNoFreePort means that no candidate port in the configured range passed the bind check.
	ErrNoFreePort = errors.New("no free port found in range")

	// ErrPortInUse means the child process reported that it could not bind its port.
	ErrPortInUse = errors.New("port already in use")

	// ErrProcessExited means the child process exited before it became ready.
	ErrProcessExited = errors.New("process exited before it became ready")

	// ErrReadinessTimeout means the liveness endpoint never answered successfully within the
	// configured number of attempts or elapsed time.
	ErrReadinessTimeout = errors.New("server did not become ready")
)

// SetupError is returned for any failure that happens before a server is ready to receive
// requests. Tests should report it differently from an assertion failure.
type SetupError struct {
	Phase Phase
	Port  int
	Err   error
}

func (e *SetupError) Error() string {
	if e.Port == 0 {
		return fmt.Sprintf("%s: %s", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s (port %d): %s", e.Phase, e.Port, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// IsSetupError returns true if err is, or wraps, a *SetupError.
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// TeardownError is returned by ServerHandle.Close if the child process could not be
// stopped, even by force.
type TeardownError struct {
	PID int
	Err error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("failed to stop process %d: %s", e.PID, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
