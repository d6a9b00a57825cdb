package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/opendeploy/versioning/cmd/apiserver"
	"github.com/opendeploy/versioning/cmd/dbmigrator"
)

// BuildInfo will be set by the build system
var BuildInfo = "dev"

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versioning",
		Short: "Deployment version registry",
		Long:  `Versioning tracks which image, artifact and configuration versions are deployed where, keeping the full auditable history of every change.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(BuildInfo)
			},
		},
		apiserver.Cmd(),
		dbmigrator.Cmd(),
	)

	return cmd
}

func main() {
	ctx, cancelOnSignal := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancelOnSignal()

	err := rootCmd().ExecuteContext(ctx)
	if err != nil {
		slogctx.Error(ctx, "Failed to start the application", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
