package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
)

const (
	// EnvRoutine names the routine that a re-executed child process should run.
	EnvRoutine = "WEBHARNESS_ROUTINE"

	// EnvPort is the port that the child process must listen on. PORT is also set, for
	// external commands that follow that convention.
	EnvPort = "WEBHARNESS_PORT"

	// ExitCodePortInUse is the exit status of a routine child process that could not bind
	// its port. The launcher reports it as ErrPortInUse.
	ExitCodePortInUse = 98

	exitCodeRoutineFailed  = 1
	exitCodeUnknownRoutine = 2
)

// Routine is an application entry point that can be run in a child process. It must listen
// on the given port (on 127.0.0.1) and serve until ctx is cancelled, which happens when the
// process receives SIGTERM.
type Routine func(ctx context.Context, port int) error

// Routines maps routine names to entry points.
type Routines map[string]Routine

// Names returns the routine names in sorted order.
func (r Routines) Names() []string {
	ret := make([]string, 0, len(r))
	for name := range r {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Run runs the named routine in the current process.
func (r Routines) Run(ctx context.Context, name string, port int) error {
	routine, ok := r[name]
	if !ok {
		return fmt.Errorf("unknown routine %q", name)
	}
	return routine(ctx, port)
}

// RunRoutineIfRequested checks whether this process was started by Launch to run a
// routine. If so, it runs the routine and exits the process; otherwise it returns
// immediately. Call it first thing in main or TestMain.
func RunRoutineIfRequested(routines Routines) {
	name := os.Getenv(EnvRoutine)
	if name == "" {
		return
	}
	os.Exit(runRequestedRoutine(routines, name, os.Getenv(EnvPort)))
}

func runRequestedRoutine(routines Routines, name, portValue string) int {
	port, err := strconv.Atoi(portValue)
	if err != nil || port <= 0 {
		fmt.Fprintf(os.Stderr, "invalid value for %s: %q\n", EnvPort, portValue)
		return exitCodeUnknownRoutine
	}
	if _, ok := routines[name]; !ok {
		fmt.Fprintf(os.Stderr, "unknown routine %q\n", name)
		return exitCodeUnknownRoutine
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()
	err = routines.Run(ctx, name, port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "routine %q failed: %s\n", name, err)
	}
	return ExitCodeFor(err)
}

// ExitCodeFor maps the result of a routine to a process exit status.
func ExitCodeFor(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, syscall.EADDRINUSE):
		return ExitCodePortInUse
	default:
		return exitCodeRoutineFailed
	}
}
