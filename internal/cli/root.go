// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/config"
	"github.com/loorisr/tinychat/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// GLOBAL OPTIONS
// =============================================================================

// globalOptions holds the persistent flags and what PersistentPreRunE
// builds from them.
type globalOptions struct {
	configPath string
	endpoint   string
	model      string
	ephemeral  bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// loadConfig reads the config file and applies flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := o.applyOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides applies the --endpoint and --model flags to cfg and
// validates the result.
func (o *globalOptions) applyOverrides(cfg *config.Config) error {
	if o.endpoint != "" {
		cfg.Server.Endpoint = o.endpoint
	}
	if o.model != "" {
		cfg.Server.Model = o.model
	}
	return cfg.Validate()
}

func (o *globalOptions) buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if o.verbose {
		return logging.New(logging.Options{Verbose: true})
	}
	file, err := cfg.LogFile()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{Level: cfg.Log.Level, File: file})
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "tinychat",
		Short: "tinychat - terminal chat client for a streaming LLM backend",
		Long: `tinychat talks to a chat backend over a websocket, streams replies
as they are generated and keeps a local history of conversations.

Run without a subcommand to start the interactive TUI.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Config subcommands must work even with an invalid file.
			if skipConfigLoad(cmd) {
				opts.logger = zap.NewNop()
				return nil
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.buildLogger(cfg)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger
			logger.Debug("Starting tinychat",
				zap.String("command", cmd.Name()),
				zap.String("endpoint", cfg.Server.Endpoint),
				zap.String("storage", cfg.Storage.Backend))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.tinychat/config.toml)")
	flags.StringVarP(&opts.endpoint, "endpoint", "e", "", "backend base URL")
	flags.StringVarP(&opts.model, "model", "m", "", "model for this run (not stored)")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "keep history and preferences in memory only")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newTUICommand(opts),
		newAskCommand(opts),
		newReplCommand(opts),
		newModelsCommand(opts),
		newHistoryCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// skipConfigLoad reports whether cmd is a config subcommand that loads the
// file itself.
func skipConfigLoad(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
