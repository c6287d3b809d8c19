package harness

import (
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
)

const maxPortCandidates = 20

// PortLease is a port that passed a bind check at allocation time. Nothing reserves it
// afterward; another process may still take it before the server binds.
type PortLease struct {
	Port  int
	Range PortRange
}

// AllocatePort picks a port uniformly at random from the range and checks that it can be
// bound on the loopback interface. Busy candidates are skipped.
//
// A random choice (rather than asking the OS for an ephemeral port, or counting upward)
// keeps concurrently running test processes from converging on the same ports without any
// shared coordination.
func AllocatePort(r PortRange) (PortLease, error) {
	if err := r.Validate(); err != nil {
		return PortLease{}, &SetupError{Phase: PhaseAllocate, Err: err}
	}
	span := r.Max - r.Min + 1
	for i := 0; i < maxPortCandidates; i++ {
		port := r.Min + rand.IntN(span)
		if portIsFree(port) {
			return PortLease{Port: port, Range: r}, nil
		}
	}
	return PortLease{}, &SetupError{
		Phase: PhaseAllocate,
		Err:   fmt.Errorf("%w %s after %d attempts", ErrNoFreePort, r, maxPortCandidates),
	}
}

func portIsFree(port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
