// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loorisr/tinychat/internal/config"
	"github.com/loorisr/tinychat/internal/socket"
)

// =============================================================================
// MESSAGES
// =============================================================================

// SocketEventMsg carries a socket event into the Update loop.
type SocketEventMsg struct {
	Event socket.Event
}

// ModelsMsg is the result of a model list request.
type ModelsMsg struct {
	IDs []string
	Err error
}

// ConfigReloadedMsg is sent by the config watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// renderTickMsg flushes a deferred transcript render.
type renderTickMsg struct{}

// ModelFetcher lists the models offered by the backend.
type ModelFetcher func(ctx context.Context) ([]string, error)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// renderInterval caps streaming re-renders at roughly 30 per second.
const renderInterval = 33 * time.Millisecond

func renderTickCmd() tea.Cmd {
	return tea.Tick(renderInterval, func(time.Time) tea.Msg {
		return renderTickMsg{}
	})
}

func fetchModelsCmd(fetch ModelFetcher, timeout time.Duration) tea.Cmd {
	if fetch == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ids, err := fetch(ctx)
		return ModelsMsg{IDs: ids, Err: err}
	}
}
