// Package webtests contains the contract tests for the test application, and the T type that
// they are written against.
//
// Each test starts its own application instance in a child process through the harness
// package, makes requests with a driver, and checks the captured responses with the assert
// and require packages. Infrastructure that is not specific to these scenarios is in the
// framework package and its subpackages.
package webtests
