package main

import (
	"fmt"

	"github.com/matheus3301/imsgwatch/internal/daemon"
	"github.com/matheus3301/imsgwatch/internal/paths"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "watch",
		Short:         "Poll chat.db and log changed message windows (default)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts)
		},
	}
}

// runWatch blocks until SIGINT or SIGTERM. fx exits the process with a
// non-zero code when startup or the loop fails.
func runWatch(opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := paths.EnsureDir(); err != nil {
		return fmt.Errorf("create %s: %w", paths.BaseDir(), err)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Config: cfg, Verbose: opts.Verbose}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	fmt.Println("Watching...")
	app.Run()
	fmt.Println("Exiting...")
	return nil
}
