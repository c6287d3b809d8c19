package harness

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/webcontract/web-contract-tests/framework"

	"github.com/alessio/shellescape"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PortPlaceholder is replaced with the chosen port in the arguments of LaunchSpec.Command.
const PortPlaceholder = "{port}"

const killWaitTimeout = 5 * time.Second

// State is the lifecycle state of a ServerHandle.
type State int32

const (
	StateStarting State = iota
	StateReady
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// LaunchSpec describes the process to start. Exactly one of Routine and Command must be
// set.
type LaunchSpec struct {
	// Routine is the name of a routine registered in this binary; see RunRoutineIfRequested.
	Routine string

	// Command is an external program and its arguments.
	Command []string

	Port             int
	Env              []string
	Dir              string
	TerminateTimeout time.Duration
}

func (s LaunchSpec) name() string {
	if s.Routine != "" {
		return s.Routine
	}
	if len(s.Command) > 0 {
		return s.Command[0]
	}
	return ""
}

func (s LaunchSpec) commandLine() ([]string, error) {
	switch {
	case s.Routine != "" && len(s.Command) > 0:
		return nil, errors.New("a launch can specify a routine or a command, not both")
	case s.Routine != "":
		// A routine child that launched another routine child would be a fork bomb if the
		// binary forgot to call RunRoutineIfRequested.
		if os.Getenv(EnvRoutine) != "" {
			return nil, errors.New("cannot launch a routine from inside a routine process")
		}
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		return []string{exe}, nil
	case len(s.Command) > 0:
		port := strconv.Itoa(s.Port)
		argv := make([]string, len(s.Command))
		for i, arg := range s.Command {
			argv[i] = strings.ReplaceAll(arg, PortPlaceholder, port)
		}
		return argv, nil
	default:
		return nil, errors.New("nothing to launch")
	}
}

// ServerHandle represents a running child process. Close must be called exactly when the
// caller is done with it, and is safe to call more than once.
type ServerHandle struct {
	ID   uuid.UUID
	Port int
	PID  int

	cmd              *exec.Cmd
	identified       bool // routine children answer with InstanceHeader
	logger           framework.Logger
	terminateTimeout time.Duration
	pumps            errgroup.Group
	state            atomic.Int32
	exited           chan struct{}
	exitErr          error
	closeOnce        sync.Once
	closeErr         error
}

// Launch starts a child process that should listen on spec.Port. It returns as soon as the
// process has been spawned; use Probe to wait until it is ready. The process output is
// forwarded line by line to the logger.
func Launch(spec LaunchSpec, logger framework.Logger) (*ServerHandle, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	if spec.Port <= 0 {
		return nil, &SetupError{Phase: PhaseSpawn, Err: fmt.Errorf("invalid port %d", spec.Port)}
	}
	argv, err := spec.commandLine()
	if err != nil {
		return nil, &SetupError{Phase: PhaseSpawn, Port: spec.Port, Err: err}
	}

	id := uuid.New()
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(),
		EnvPort+"="+strconv.Itoa(spec.Port),
		"PORT="+strconv.Itoa(spec.Port),
		EnvInstance+"="+id.String(),
	)
	if spec.Routine != "" {
		cmd.Env = append(cmd.Env, EnvRoutine+"="+spec.Routine)
	}
	cmd.Env = append(cmd.Env, spec.Env...)
	configureProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SetupError{Phase: PhaseSpawn, Port: spec.Port, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SetupError{Phase: PhaseSpawn, Port: spec.Port, Err: err}
	}

	logger.Printf("Starting %s on port %d: %s", spec.name(), spec.Port, shellescape.QuoteCommand(argv))
	if err := cmd.Start(); err != nil {
		return nil, &SetupError{Phase: PhaseSpawn, Port: spec.Port, Err: err}
	}

	h := &ServerHandle{
		ID:               id,
		Port:             spec.Port,
		PID:              cmd.Process.Pid,
		cmd:              cmd,
		identified:       spec.Routine != "",
		logger:           logger,
		terminateTimeout: spec.TerminateTimeout,
		exited:           make(chan struct{}),
	}
	if h.terminateTimeout <= 0 {
		h.terminateTimeout = DefaultTerminateTimeout
	}
	outputLogger := framework.LoggerWithPrefix(logger, fmt.Sprintf("[%s:%d] ", spec.name(), spec.Port))
	h.pumps.Go(func() error { return pumpLines(stdout, outputLogger) })
	h.pumps.Go(func() error { return pumpLines(stderr, outputLogger) })
	go h.reap()
	return h, nil
}

func pumpLines(r io.Reader, logger framework.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Printf("%s", scanner.Text())
	}
	return scanner.Err()
}

func (h *ServerHandle) reap() {
	// The pipes must be drained before Wait closes them.
	_ = h.pumps.Wait()
	err := h.cmd.Wait()
	if err == nil {
		err = fmt.Errorf("%w (status 0)", ErrProcessExited)
	} else if h.cmd.ProcessState != nil && h.cmd.ProcessState.ExitCode() == ExitCodePortInUse {
		err = fmt.Errorf("%w: exit status %d", ErrPortInUse, ExitCodePortInUse)
	} else {
		err = fmt.Errorf("%w (%s)", ErrProcessExited, err)
	}
	h.exitErr = err
	h.state.Store(int32(StateTerminated))
	h.logger.Printf("Process %d exited: %s", h.PID, h.cmd.ProcessState)
	close(h.exited)
}

// State returns the current lifecycle state.
func (h *ServerHandle) State() State {
	return State(h.state.Load())
}

func (h *ServerHandle) markReady() {
	h.state.CompareAndSwap(int32(StateStarting), int32(StateReady))
}

// Exited returns a channel that is closed once the process has exited and been reaped.
func (h *ServerHandle) Exited() <-chan struct{} {
	return h.exited
}

// ExitError returns nil while the process is running. After it has exited, the error
// describes how; it wraps ErrPortInUse if the process could not bind its port, or
// ErrProcessExited otherwise.
func (h *ServerHandle) ExitError() error {
	select {
	case <-h.exited:
		return h.exitErr
	default:
		return nil
	}
}

// BaseURL returns the root URL of the server, without a trailing slash.
func (h *ServerHandle) BaseURL() string {
	return "http://127.0.0.1:" + strconv.Itoa(h.Port)
}

// URL returns an absolute URL for a path on the server.
func (h *ServerHandle) URL(path string) string {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return h.BaseURL() + path
}

// Close stops the process: it sends SIGTERM to the process group, waits up to the
// terminate timeout, then sends SIGKILL. It returns only after the process has been reaped
// (or reaping failed), so the port is free again when it returns.
func (h *ServerHandle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.terminate()
	})
	return h.closeErr
}

func (h *ServerHandle) terminate() error {
	select {
	case <-h.exited:
		return nil
	default:
	}
	h.logger.Printf("Stopping process %d", h.PID)
	if err := terminateProcess(h.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		h.logger.Printf("Unable to signal process %d: %s", h.PID, err)
	}

	timer := time.NewTimer(h.terminateTimeout)
	defer timer.Stop()
	select {
	case <-h.exited:
		return nil
	case <-timer.C:
	}

	h.logger.Printf("Process %d did not exit within %s, killing it", h.PID, h.terminateTimeout)
	if err := killProcess(h.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return &TeardownError{PID: h.PID, Err: err}
	}
	select {
	case <-h.exited:
		return nil
	case <-time.After(killWaitTimeout):
		return &TeardownError{PID: h.PID, Err: errors.New("process was still running after SIGKILL")}
	}
}
