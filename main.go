package main

import (
	"github.com/webcontract/web-contract-tests/cmd"
	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/testapp"
)

var version = "dev"

func main() {
	// Test applications started by the suite are this same binary, re-executed.
	harness.RunRoutineIfRequested(testapp.Routines())

	cmd.SetVersion(version)
	cmd.Execute()
}
