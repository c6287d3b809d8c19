package webtests

import (
	"github.com/webcontract/web-contract-tests/framework"
	"github.com/webcontract/web-contract-tests/framework/harness"
)

// RunTestSuite runs every contract test. The binary that calls it must have called
// harness.RunRoutineIfRequested with the test application's routines at startup.
func RunTestSuite(
	config harness.Config,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	env := newEnvironment(config)
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := &T{context: c, env: env}

		t.Run("hello world", DoHelloWorldTests)
		t.Run("forms", DoFormTests)
		t.Run("query arguments", DoQueryArgumentTests)
		t.Run("redirects", DoRedirectTests)
		t.Run("templates", DoTemplateTests)
		t.Run("views", DoViewTests)
		t.Run("auth", DoAuthTests)
		t.Run("sessions", DoSessionTests)
		t.Run("JSON", DoJSONTests)
		t.Run("HTTP methods", DoHTTPMethodTests)
		t.Run("users", DoUserTests)
		t.Run("isolation", DoIsolationTests)
	})
}

// HasCapability reports whether the suite will be able to run tests that need a capability.
func HasCapability(name string) bool {
	return newEnvironment(harness.Config{}).hasCapability(name)
}
