package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrintFilterDescription describes, before a test run, which tests are going to be skipped
// because of filter parameters or because the environment lacks some capability.
func PrintFilterDescription(out io.Writer, filters RegexFilters, allCapabilities []string, hasCapability func(string) bool) {
	if filters.MustMatch.IsDefined() || filters.MustNotMatch.IsDefined() {
		fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this test run:")
		if filters.MustMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any not matching %s\n", filters.MustMatch)
		}
		if filters.MustNotMatch.IsDefined() {
			fmt.Fprintf(out, "  skip any matching %s\n", filters.MustNotMatch)
		}
		fmt.Fprintln(out)
	}

	var missingCapabilities []string
	for _, c := range allCapabilities {
		if !hasCapability(c) {
			missingCapabilities = append(missingCapabilities, c)
		}
	}
	if len(missingCapabilities) > 0 {
		fmt.Fprintln(out, "Some tests may be skipped because this environment does not support the following capabilities:")
		fmt.Fprintf(out, "  %s\n", strings.Join(missingCapabilities, ", "))
		fmt.Fprintln(out)
	}
}

// PrintResults writes a summary of a test run.
func PrintResults(out io.Writer, results Results) {
	if results.OK() {
		color.New(color.FgGreen).Fprintf(out, "All tests passed (%d run, %d skipped)\n",
			len(results.Tests)-results.Skipped(), results.Skipped())
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(out, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		}
	}
}
