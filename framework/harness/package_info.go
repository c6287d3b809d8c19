// Package harness starts an application under test in an isolated child process and manages
// its lifecycle: it picks a port, launches the process, waits until a liveness endpoint
// answers, and terminates the process again.
//
// The entry point for most callers is StartServer, which composes AllocatePort, Launch and
// Probe. The process can be an external command, or a named Routine compiled into the
// current binary; in the latter case the binary re-executes itself, so a program (or test
// binary) that launches routines must call RunRoutineIfRequested at the very start of main
// (or TestMain).
package harness
