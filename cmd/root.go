package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// errTestsFailed is returned by the run command when the suite ran but had failures, after
// the failures have already been reported.
var errTestsFailed = errors.New("some tests failed")

var rootCmd = &cobra.Command{
	Use:   "web-contract-tests",
	Short: "Contract tests for web applications",
	Long: `web-contract-tests starts instances of a test web application in their own processes,
sends requests to them directly and through a headless browser, and checks the responses.`,
	SilenceUsage: true,
}

func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the command line interface. It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "web-contract-tests version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRoutinesCmd())
}
