package main

import (
	"time"

	"github.com/matheus3301/imsgwatch/internal/changelog"
	"github.com/matheus3301/imsgwatch/internal/chatdb"
	"github.com/matheus3301/imsgwatch/internal/message"
	"github.com/matheus3301/imsgwatch/internal/snapshot"
	"github.com/spf13/cobra"
)

type showOptions struct {
	Window        int
	IncludeFromMe bool
}

func newShowCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <target>",
		Short: "Print the current message window of a target",
		Long: `Print the latest messages of a target exactly as they would be written to
the change log. Useful to check that a target resolves and decodes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			if opts.Window > 0 {
				cfg.Window = opts.Window
			}
			if cmd.Flags().Changed("include-from-me") {
				cfg.IncludeFromMe = opts.IncludeFromMe
			}
			scope, err := chatdb.ParseScope(cfg.Scope)
			if err != nil {
				return err
			}

			db, err := chatdb.Open(cfg.ChatDBPath, cfg.QueryTimeout.Duration)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx := cmd.Context()
			target := args[0]
			handleID, err := db.ResolveHandle(ctx, target, cfg.Service)
			if err != nil {
				return err
			}
			rows, err := db.LatestMessages(ctx, chatdb.Query{
				HandleID:      handleID,
				Limit:         cfg.Window,
				ExcludeFromMe: !cfg.IncludeFromMe,
				Scope:         scope,
			})
			if err != nil {
				return err
			}
			recs, err := message.NormalizeAll(rows, time.Local)
			if err != nil {
				return err
			}
			return changelog.Format(cmd.OutOrStdout(), target, snapshot.Snapshot(recs), time.Now())
		},
	}

	cmd.Flags().IntVar(&opts.Window, "window", 0, "number of messages to show (default from config)")
	cmd.Flags().BoolVar(&opts.IncludeFromMe, "include-from-me", false, "include messages sent by this account")

	return cmd
}
