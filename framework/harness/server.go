package harness

import (
	"context"
	"errors"

	"github.com/webcontract/web-contract-tests/framework"
)

// StartOptions describes a server to start with StartServer.
type StartOptions struct {
	Routine string
	Command []string
	Env     []string
	Dir     string
	Config  Config
	Logger  framework.Logger
}

// StartServer allocates a port, launches the process and waits for it to become ready.
// If the process reports that its port was taken in the meantime, it tries again with a
// new port, up to Config.LaunchAttempts times. Any failure is a *SetupError.
func StartServer(ctx context.Context, opts StartOptions) (*ServerHandle, error) {
	config := opts.Config.WithDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}

	var lastErr error
	for attempt := 0; attempt < config.LaunchAttempts; attempt++ {
		lease, err := AllocatePort(config.Ports)
		if err != nil {
			return nil, err
		}
		h, err := Launch(LaunchSpec{
			Routine:          opts.Routine,
			Command:          opts.Command,
			Port:             lease.Port,
			Env:              opts.Env,
			Dir:              opts.Dir,
			TerminateTimeout: config.TerminateTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		err = Probe(ctx, h, config.Probe, logger)
		if err == nil {
			return h, nil
		}
		if closeErr := h.Close(); closeErr != nil {
			logger.Printf("Error while stopping server after failed start: %s", closeErr)
		}
		if !errors.Is(err, ErrPortInUse) {
			return nil, err
		}
		logger.Printf("Port %d was taken before the server could bind it; trying another", lease.Port)
		lastErr = err
	}
	return nil, lastErr
}
