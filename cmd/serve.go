package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/webcontract/web-contract-tests/servicedef"
	"github.com/webcontract/web-contract-tests/testapp"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		appConfig string
	)
	cmd := &cobra.Command{
		Use:   "serve <routine>",
		Short: "Run one test application in the foreground",
		Long: `Runs the named test application on 127.0.0.1 until it is interrupted. The application
reads its settings from WEBAPP_ environment variables, as it does when the test suite starts it,
and from the JSON or YAML file given with --app-config.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return testapp.Routines().Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %d", port)
			}
			if appConfig != "" {
				if err := os.Setenv(servicedef.ConfigEnvPrefix+servicedef.ConfigFile, appConfig); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return testapp.Routines().Run(ctx, args[0], port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8000, "port to listen on")
	cmd.Flags().StringVar(&appConfig, "app-config", "", "JSON or YAML file with application settings")
	return cmd
}
