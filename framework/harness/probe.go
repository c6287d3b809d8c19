package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/webcontract/web-contract-tests/framework"

	"github.com/cenkalti/backoff/v5"
)

// Probe waits until the server answers its liveness endpoint with a 2xx status, polling at
// a fixed interval. A response whose InstanceHeader names another handle, or a routine
// child's response without one, comes from some other server on the same port and counts
// as not ready. It fails immediately if the process exits, and otherwise gives up after
// the configured number of attempts or elapsed time, whichever comes first.
//
// If the configuration has no liveness path but has a fixed delay, Probe just waits that
// long and then assumes the server is ready.
func Probe(ctx context.Context, h *ServerHandle, config ProbeConfig, logger framework.Logger) error {
	if logger == nil {
		logger = framework.NullLogger()
	}
	config = config.withDefaults()
	if config.LivenessPath == "" {
		return probeFixedDelay(ctx, h, config.FixedDelay)
	}

	client := &http.Client{Timeout: config.RequestTimeout}
	url := h.URL(config.LivenessPath)
	attempts := 0
	start := time.Now()
	operation := func() (struct{}, error) {
		attempts++
		if exitErr := h.ExitError(); exitErr != nil {
			return struct{}{}, backoff.Permanent(exitErr)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("liveness endpoint returned status %d", resp.StatusCode)
		}
		if err := h.checkInstance(resp.Header.Get(InstanceHeader)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	}
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(config.Interval)),
		backoff.WithMaxTries(config.MaxAttempts),
		backoff.WithMaxElapsedTime(config.MaxElapsed),
	)
	if err == nil && h.ExitError() != nil {
		err = h.ExitError()
	}
	if err == nil {
		h.markReady()
		logger.Printf("Server on port %d is ready after %d attempt(s) (%s)", h.Port, attempts,
			time.Since(start).Round(time.Millisecond))
		return nil
	}
	if setupErr := exitSetupError(h); setupErr != nil {
		return setupErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &SetupError{Phase: PhaseReadiness, Port: h.Port, Err: ctxErr}
	}
	return &SetupError{
		Phase: PhaseReadiness,
		Port:  h.Port,
		Err:   fmt.Errorf("%w after %d attempt(s): %w", ErrReadinessTimeout, attempts, err),
	}
}

func probeFixedDelay(ctx context.Context, h *ServerHandle, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return &SetupError{Phase: PhaseReadiness, Port: h.Port, Err: ctx.Err()}
	case <-h.Exited():
		return exitSetupError(h)
	case <-timer.C:
		h.markReady()
		return nil
	}
}

// exitSetupError returns nil if the process is still running.
func exitSetupError(h *ServerHandle) error {
	exitErr := h.ExitError()
	if exitErr == nil {
		return nil
	}
	phase := PhaseSpawn
	if errors.Is(exitErr, ErrPortInUse) {
		phase = PhaseBind
	}
	return &SetupError{Phase: phase, Port: h.Port, Err: exitErr}
}

func (h *ServerHandle) checkInstance(id string) error {
	switch {
	case id == "" && h.identified:
		return fmt.Errorf("liveness endpoint answered without %s; another server holds port %d", InstanceHeader, h.Port)
	case id != "" && id != h.ID.String():
		return fmt.Errorf("liveness endpoint answered for instance %s; another server holds port %d", id, h.Port)
	}
	return nil
}
