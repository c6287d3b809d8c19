// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of web application tests. The base package contains
// the test context and result types; other components are in the subpackages harness (port
// allocation, process lifecycle, readiness probing) and driver (HTTP and browser requests).
//
// The general model is:
//
// 1. Each test launches the application under test in a child process of its own, bound to
// a randomly chosen port, and waits until a liveness endpoint answers.
//
// 2. The test issues requests against that process, either with a plain HTTP client or with
// a headless browser, and captures the responses.
//
// 3. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results. Resources acquired by a test are released by functions passed to
// Context.Defer, which run however the test exits.
//
// The domain-specific code that knows what is being tested is responsible for deciding which
// application routine to launch, which requests to send, and what the responses should be.
package framework
