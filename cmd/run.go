package cmd

import (
	"fmt"

	"github.com/webcontract/web-contract-tests/framework"
	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/webtests"

	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath string
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
	browser    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the contract test suite",
		Long: `Runs every contract test, or the ones selected with --run and --skip.

Tests that need a browser are skipped if no Chrome or Chromium executable is installed,
unless --browser is given, in which case they fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML file with harness settings")
	cmd.Flags().Var(&opts.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	cmd.Flags().Var(&opts.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "show debug output for failed tests")
	cmd.Flags().BoolVar(&opts.debugAll, "debug-all", false, "show debug output for all tests")
	cmd.Flags().BoolVar(&opts.browser, "browser", false, "fail browser tests instead of skipping them when there is no browser")
	return cmd
}

func runSuite(cmd *cobra.Command, opts runOptions) error {
	config := harness.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if config, err = harness.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("browser") {
		config.Browser = opts.browser
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	framework.PrintFilterDescription(out, opts.filters, webtests.AllCapabilities, webtests.HasCapability)
	fmt.Fprintln(out, "Running test suite")

	testLogger := &framework.ConsoleTestLogger{
		DebugOutputOnFailure: opts.debug || opts.debugAll,
		DebugOutputOnSuccess: opts.debugAll,
		Output:               out,
	}
	results := webtests.RunTestSuite(config, opts.filters.AsFilter, testLogger)

	fmt.Fprintln(out)
	framework.PrintResults(out, results)
	if !results.OK() {
		return errTestsFailed
	}
	return nil
}
