package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
}

// Context is the state of one test or subtest. It implements the same basic contract as
// Go's *testing.T (Errorf, FailNow) so that the assert and require packages can be used
// with it, but it runs outside of the Go test runner.
type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	cleanups    []func()
}

// Run runs a top-level test action, returning the accumulated results of it and of all
// its subtests.
func Run(
	filter Filter,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			if !c.skipped {
				c.failed = true
				var addError error
				if _, ok := r.(*Context); ok {
					if len(c.errors) == 0 {
						addError = errors.New("test failed with no failure message")
					}
				} else {
					addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
				}
				if addError != nil {
					c.errors = append(c.errors, addError)
					c.env.testLogger.TestError(c.id, addError)
				}
			}
		}
		c.runCleanups()
		if len(c.id.Path) == 0 {
			return // the root context is not a test in itself
		}
		result := TestResult{TestID: c.id, Errors: c.errors, Skipped: c.skipped}
		c.env.results.Tests = append(c.env.results.Tests, result)
		if c.failed {
			c.env.results.Failures = append(c.env.results.Failures, result)
		}
	}()

	action(c)
}

// runCleanups calls deferred functions in reverse order. A panic in one of them is
// recorded as an error but does not stop the others from running.
func (c *Context) runCleanups() {
	for len(c.cleanups) > 0 {
		f := c.cleanups[len(c.cleanups)-1]
		c.cleanups = c.cleanups[:len(c.cleanups)-1]
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.Debug("panic in cleanup function: %+v", r)
					if !c.failed {
						c.failed = true
						err := fmt.Errorf("panic in cleanup function: %+v", r)
						c.errors = append(c.errors, err)
						c.env.testLogger.TestError(c.id, err)
					}
				}
			}()
			f()
		}()
	}
}

func (c *Context) ID() TestID {
	return c.id
}

// Run runs a subtest with its own Context.
func (c *Context) Run(name string, action func(*Context)) {
	id := TestID{Path: append(append([]string(nil), c.id.Path...), name)}

	c.env.testLogger.TestStarted(id)
	if c.env.filter != nil && !c.env.filter(id) {
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	c1 := &Context{
		id:  id,
		env: c.env,
	}
	c1.run(action)
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
	} else {
		c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output())
	}
}

// Defer schedules a function to run when the test ends, whether it passed, failed, or
// was skipped. Deferred functions run in last-in-first-out order, as with defer.
func (c *Context) Defer(cleanup func()) {
	c.cleanups = append(c.cleanups, cleanup)
}

func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, reformatError(err))
}

// SetupFailed marks the test as failed before it reached the point of making requests,
// and exits the test immediately. The error is reported with a distinct prefix so that
// setup problems can't be mistaken for failed assertions.
func (c *Context) SetupFailed(err error) {
	c.Errorf("setup failed: %s", err)
	c.FailNow()
}

func (c *Context) FailNow() {
	panic(c)
}

// Failed returns true if the test has been marked as failed so far.
func (c *Context) Failed() bool {
	return c.failed
}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}

// reformatError turns the multi-line output of testify assertions into something that
// reads better in a console log.
func reformatError(err error) error {
	s := err.Error()
	if !strings.Contains(s, "\n") {
		return err
	}
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(strings.TrimPrefix(line, "\t"), " \t")
	}
	return errors.New(strings.Join(lines, "\n"))
}
