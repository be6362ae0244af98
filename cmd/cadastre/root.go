package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cadastre",
		Short:         "Cadastral records: load, inspect, serve and PDF reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("env", "", "environment name (development enables console logs)")

	cmd.AddCommand(newLoadCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newPDFMatchCmd())
	cmd.AddCommand(newPDFReportCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the root command and exits 1 on any error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(1)
	}
}

// addDatabaseFlags registers the connection flags shared by load and serve.
// Unset flags fall back to the DB_* environment.
func addDatabaseFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "database host (DB_HOST)")
	flags.String("port", "", "database port (DB_PORT)")
	flags.String("database", "", "database name (DB_NAME)")
	flags.String("user", "", "database user (DB_USER)")
	flags.String("password", "", "database password (DB_PASSWORD)")
}
