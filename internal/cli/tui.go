// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/config"
	"github.com/loorisr/tinychat/internal/socket"
	"github.com/loorisr/tinychat/internal/ui/chat"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

func newTUICommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive chat TUI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

// runTUI wires the socket to a Bubble Tea program and runs it until quit.
func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	var program *tea.Program
	a, err := newChatApp(opts, func(ev socket.Event) {
		program.Send(chat.SocketEventMsg{Event: ev})
	})
	if err != nil {
		return err
	}
	defer a.Close()

	theme := styles.NewTheme(a.cfg.UI.Theme)
	m := chat.New(chat.Options{
		Session: a.session,
		Config:  a.cfg,
		Theme:   theme,
		Fetch:   a.client.ListModels,
		Logger:  a.log,
	})

	progOpts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if a.cfg.UI.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	program = tea.NewProgram(m, progOpts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	watchConfig(ctx, opts, a.log, func(cfg *config.Config, err error) {
		program.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
	})

	a.start()
	if _, err := program.Run(); err != nil {
		return err
	}
	a.log.Info("TUI exited")
	return nil
}

// watchConfig reloads the config file on change until ctx ends. Flag
// overrides are re-applied to every reloaded config. Missing files are not
// watched.
func watchConfig(ctx context.Context, opts *globalOptions, log *zap.Logger, onChange func(*config.Config, error)) {
	path := opts.configPath
	if path == "" {
		p, err := config.ActivePath()
		if err != nil {
			return
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	w, err := config.NewWatcher(path, log)
	if err != nil {
		log.Warn("Config watcher unavailable", zap.Error(err))
		return
	}
	go func() {
		defer w.Close()
		w.Run(ctx, func(cfg *config.Config, err error) {
			if err == nil {
				if err = opts.applyOverrides(cfg); err != nil {
					log.Warn("Reloaded config rejected", zap.Error(err))
					cfg = nil
				}
			}
			onChange(cfg, err)
		})
	}()
}
