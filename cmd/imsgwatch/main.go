package main

import (
	"fmt"
	"os"

	"github.com/matheus3301/imsgwatch/internal/config"
	"github.com/matheus3301/imsgwatch/internal/paths"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	ConfigPath    string
	Targets       string
	ChatDBPath    string
	ChangeLogPath string
	Verbose       bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "imsgwatch",
		Short: "Record iMessages that disappear from chat.db",
		Long: `imsgwatch polls the Messages database for the latest messages of each
watched contact and appends the previous window to a change log whenever
it changes, so deleted and edited messages are kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", paths.ConfigPath(), "config file")
	cmd.PersistentFlags().StringVar(&opts.Targets, "targets", "", "comma separated phone numbers or emails (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ChatDBPath, "chat-db", "", "chat.db location (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ChangeLogPath, "change-log", "", "change log location (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

// load reads the config file, then the environment, then the flags.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if o.Targets != "" {
		cfg.Targets = config.ParseTargets(o.Targets)
	}
	if o.ChatDBPath != "" {
		cfg.ChatDBPath = o.ChatDBPath
	}
	if o.ChangeLogPath != "" {
		cfg.ChangeLogPath = o.ChangeLogPath
	}
	return cfg, nil
}
