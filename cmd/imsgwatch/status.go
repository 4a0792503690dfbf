package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/imsgwatch/internal/daemon"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newStatusCommand(rootOpts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Ask a running watcher whether it is watching",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			st, err := daemon.CheckHealth(ctx, cfg.SocketPath)
			if err != nil {
				return fmt.Errorf("cannot reach watcher at %s: %w", cfg.SocketPath, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), st.String())
			if st != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("watcher is not watching")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to wait for the watcher")

	return cmd
}
