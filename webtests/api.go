package webtests

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/webcontract/web-contract-tests/framework"
	"github.com/webcontract/web-contract-tests/framework/driver"
	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/servicedef"

	"github.com/stretchr/testify/require"
)

const (
	CapabilityBrowser = "browser"

	startTimeout   = 30 * time.Second
	requestTimeout = 30 * time.Second
)

var AllCapabilities = []string{
	CapabilityBrowser,
}

type environment struct {
	config     harness.Config
	hasBrowser bool
}

func newEnvironment(config harness.Config) *environment {
	return &environment{
		config:     config.WithDefaults(),
		hasBrowser: driver.BrowserAvailable(),
	}
}

func (e *environment) hasCapability(name string) bool {
	switch name {
	case CapabilityBrowser:
		return e.hasBrowser
	default:
		return false
	}
}

// T represents a test or subtest in the contract test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that is
// outside of the Go test runner; those features are provided by the framework package. To make
// test assertions, pass the *T to the assert and require packages as if it were a *testing.T.
//
// It also knows how to start application instances and drivers, and makes sure that each of
// them is released when the test ends, however it ends.
type T struct {
	context *framework.Context
	env     *environment
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(&T{context: c, env: t.env})
	})
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Defer schedules a function to run when the test ends.
func (t *T) Defer(cleanup func()) {
	t.context.Defer(cleanup)
}

// RequireCapability skips this test if the environment does not have the capability.
func (t *T) RequireCapability(capability string) {
	if t.env.hasCapability(capability) {
		return
	}
	if capability == CapabilityBrowser && t.env.config.Browser {
		t.context.SetupFailed(fmt.Errorf("browser tests were required, but no Chrome executable was found"))
	}
	t.context.SkipWithReason(fmt.Sprintf("environment does not have capability %q", capability))
}

// Setting returns an environment entry that sets a configuration value of the application.
// Non-string values are encoded as JSON.
func Setting(key string, value any) string {
	s, ok := value.(string)
	if !ok {
		data, err := json.Marshal(value)
		if err != nil {
			panic(err)
		}
		s = string(data)
	}
	return servicedef.ConfigEnvPrefix + key + "=" + s
}

// StartApp starts an instance of the named application routine and waits until it is ready.
// The test ends immediately, with a setup failure, if that doesn't work. The instance is
// stopped when the test ends.
func (t *T) StartApp(routine string, settings ...string) *harness.ServerHandle {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	h, err := harness.StartServer(ctx, harness.StartOptions{
		Routine: routine,
		Env:     settings,
		Config:  t.env.config,
		Logger:  t.context.DebugLogger(),
	})
	if err != nil {
		t.context.SetupFailed(err)
	}
	t.Debug("Started %s (pid %d, id %s) at %s", routine, h.PID, h.ID, h.BaseURL())
	t.Defer(func() { t.reportTeardownError(h.Close()) })
	return h
}

// reportTeardownError records a teardown failure only if nothing else has failed, so it
// can't hide the failure that the test is really about.
func (t *T) reportTeardownError(err error) {
	if err == nil {
		return
	}
	t.Debug("Teardown error: %s", err)
	if !t.context.Failed() {
		t.Errorf("teardown failed: %s", err)
	}
}

// HTTP returns a new direct HTTP driver that is closed when the test ends.
func (t *T) HTTP(opts ...driver.HTTPOption) *driver.HTTPDriver {
	d, err := driver.NewHTTPDriver(opts...)
	require.NoError(t, err)
	t.Defer(func() { _ = d.Close() })
	return d
}

// Browser returns a new headless browser driver that is closed when the test ends. The test
// is skipped if there is no browser. Call this before StartApp, so a skipped test doesn't
// start an application for nothing.
func (t *T) Browser() *driver.BrowserDriver {
	t.RequireCapability(CapabilityBrowser)
	d, err := driver.NewBrowserDriver()
	if err != nil {
		t.context.SetupFailed(err)
	}
	t.Defer(func() { _ = d.Close() })
	return d
}

// Do makes a request and fails the test immediately if no response could be captured.
func (t *T) Do(d driver.Driver, target driver.Target, req driver.RequestSpec) driver.ResponseCapture {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	t.Debug("%s %s", req.Method, req.URL(target.BaseURL()))
	resp, err := d.Do(ctx, target, req)
	require.NoError(t, err)
	t.Debug("Response: status %d, %d bytes", resp.StatusCode, len(resp.Body))
	return resp
}
