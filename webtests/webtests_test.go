package webtests

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/webcontract/web-contract-tests/framework"
	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/testapp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	harness.RunRoutineIfRequested(testapp.Routines())
	os.Exit(m.Run())
}

// goTestLogger reports the progress of the contract suite through the Go test log.
type goTestLogger struct {
	t *testing.T
}

func (l goTestLogger) TestStarted(framework.TestID) {}

func (l goTestLogger) TestError(id framework.TestID, err error) {
	l.t.Logf("[%s] %s", id, err)
}

func (l goTestLogger) TestFinished(id framework.TestID, failed bool, output framework.CapturedOutput) {
	if failed {
		var b strings.Builder
		output.Dump(&b, "    ")
		l.t.Logf("[%s] FAILED\n%s", id, b.String())
	}
}

func (l goTestLogger) TestSkipped(id framework.TestID, reason string) {
	l.t.Logf("[%s] skipped: %s", id, reason)
}

func TestContractSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("contract suite starts many processes")
	}
	results := RunTestSuite(harness.DefaultConfig(), nil, goTestLogger{t})
	assert.NotEmpty(t, results.Tests)
	for _, f := range results.Failures {
		t.Errorf("%s: %v", f.TestID, f.Errors)
	}
}

func runSingleTest(action func(*T)) framework.Results {
	env := newEnvironment(harness.Config{})
	return framework.Run(nil, nil, func(c *framework.Context) {
		(&T{context: c, env: env}).Run("test", action)
	})
}

func TestSetupFailureIsReportedAsSuch(t *testing.T) {
	var afterStart bool
	results := runSingleTest(func(t *T) {
		t.StartApp("no-such-routine")
		afterStart = true
	})

	assert.False(t, afterStart, "test should have stopped at the setup failure")
	require.Len(t, results.Failures, 1)
	require.NotEmpty(t, results.Failures[0].Errors)
	assert.True(t, strings.HasPrefix(results.Failures[0].Errors[0].Error(), "setup failed:"),
		"unexpected error: %s", results.Failures[0].Errors[0])
}

func TestTeardownErrorDoesNotMaskEarlierFailure(t *testing.T) {
	results := runSingleTest(func(t *T) {
		t.Defer(func() { t.reportTeardownError(errors.New("could not stop")) })
		t.Errorf("assertion failed")
	})

	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Equal(t, "assertion failed", results.Failures[0].Errors[0].Error())
}

func TestTeardownErrorFailsOtherwisePassingTest(t *testing.T) {
	results := runSingleTest(func(t *T) {
		t.Defer(func() { t.reportTeardownError(errors.New("could not stop")) })
	})

	require.Len(t, results.Failures, 1)
	assert.Equal(t, "teardown failed: could not stop", results.Failures[0].Errors[0].Error())
}

func TestAppIsStoppedWhenTestEnds(t *testing.T) {
	var handle *harness.ServerHandle
	results := runSingleTest(func(t *T) {
		handle = t.StartApp("hello")
		t.FailNow()
	})

	require.Len(t, results.Failures, 1)
	require.NotNil(t, handle)
	assert.Equal(t, harness.StateTerminated, handle.State())
	select {
	case <-handle.Exited():
	case <-time.After(time.Second):
		t.Fatal("process was not reaped")
	}
}

func TestSettingEncodesNonStrings(t *testing.T) {
	assert.Equal(t, "WEBAPP_SERVER_NAME=example.com", Setting("SERVER_NAME", "example.com"))
	assert.Equal(t, `WEBAPP_METHODS=["GET"]`, Setting("METHODS", []string{"GET"}))
	assert.Equal(t, "WEBAPP_METHODS=[]", Setting("METHODS", []string{}))
}
