// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/session"
	"github.com/loorisr/tinychat/internal/socket"
	"github.com/loorisr/tinychat/internal/ui/components"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles all Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			m.syncStatus()
			return m, cmd
		}

	case SocketEventMsg:
		cmds = append(cmds, m.handleSocketEvent(msg.Event))

	case ModelsMsg:
		m.handleModels(msg)

	case ConfigReloadedMsg:
		m.handleConfigReload(msg)

	case renderTickMsg:
		m.tickPending = false
		if m.dirty {
			m.refreshViewport()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Forward remaining messages to the input and viewport.
	if !m.showHistory {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncStatus()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYBOARD
// =============================================================================

// handleKey processes bindings. It reports false for keys the textarea
// should receive.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit, true
	}
	if m.showHistory {
		return m.handleHistoryKey(msg), true
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit(), true

	case key.Matches(msg, m.keys.NewChat):
		if err := m.session.NewConversation(); err != nil {
			m.setNotice(err.Error(), true)
			return nil, true
		}
		m.transcript.Reset()
		m.clearNotice()
		m.refreshViewport()
		return nil, true

	case key.Matches(msg, m.keys.History):
		m.openHistory()
		return nil, true

	case key.Matches(msg, m.keys.CycleModel):
		if err := m.session.CycleModel(); err != nil {
			m.setNotice(err.Error(), true)
		}
		return nil, true

	case key.Matches(msg, m.keys.RefreshModel):
		m.setNotice("Refreshing model list...", false)
		return fetchModelsCmd(m.fetch, m.cfg.RequestTimeout()), true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil, true
	}
	return nil, false
}

func (m *Model) submit() tea.Cmd {
	err := m.session.Submit(m.input.Value())
	switch {
	case err == nil:
		m.input.Reset()
		m.clearNotice()
	case errors.Is(err, session.ErrEmptyInput):
		return nil
	case errors.Is(err, socket.ErrNotConnected):
		m.setNotice("Not connected, message kept in the input", true)
		return nil
	default:
		m.setNotice(err.Error(), true)
		return nil
	}
	m.refreshViewport()
	return nil
}

// =============================================================================
// HISTORY PANE
// =============================================================================

func (m *Model) openHistory() {
	if h := m.session.History(); h != nil {
		m.history.SetItems(h.Newest())
	}
	m.history.Selected = 0
	m.showHistory = true
	m.input.Blur()
}

func (m *Model) closeHistory() {
	m.showHistory = false
	m.input.Focus()
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.closeHistory()

	case key.Matches(msg, m.keys.Up):
		m.history.Up()

	case key.Matches(msg, m.keys.Down):
		m.history.Down()

	case key.Matches(msg, m.keys.Open):
		stamp, ok := m.history.SelectedStamp()
		if !ok {
			return nil
		}
		if err := m.session.Open(stamp); err != nil {
			m.setNotice(err.Error(), true)
			return nil
		}
		m.transcript.Reset()
		m.clearNotice()
		m.closeHistory()
		m.refreshViewport()
		m.viewport.GotoBottom()

	case key.Matches(msg, m.keys.Delete):
		stamp, ok := m.history.SelectedStamp()
		if !ok {
			return nil
		}
		if _, err := m.session.RemoveHistory(stamp); err != nil {
			m.setNotice(err.Error(), true)
		}
		m.history.SetItems(m.session.History().Newest())
	}
	return nil
}

// =============================================================================
// SOCKET EVENTS
// =============================================================================

func (m *Model) handleSocketEvent(ev socket.Event) tea.Cmd {
	res := m.session.Handle(ev)

	switch ev.Type {
	case socket.EventOpen:
		m.clearNotice()
	case socket.EventError:
		m.setNotice(fmt.Sprintf("Connection error: %v", ev.Err), true)
	case socket.EventClose:
		if res.Err == nil {
			m.setNotice("Disconnected, reconnecting...", true)
		}
	}

	if res.Err != nil && ev.Type != socket.EventError {
		m.log.Debug("Session event failed", zap.Stringer("type", ev.Type), zap.Error(res.Err))
		m.setNotice(res.Err.Error(), true)
	}

	if res.Done {
		// Final render is never deferred.
		m.refreshViewport()
		return nil
	}
	if res.Chunk != "" || res.HasTool {
		return m.requestRender()
	}
	return nil
}

// =============================================================================
// MODELS AND CONFIG
// =============================================================================

func (m *Model) handleModels(msg ModelsMsg) {
	if msg.Err != nil {
		m.log.Warn("Failed to list models", zap.Error(msg.Err))
		m.setNotice(fmt.Sprintf("Model list unavailable: %v", msg.Err), true)
		return
	}
	m.session.ApplyModels(msg.IDs)
	if m.notice == "Refreshing model list..." {
		m.clearNotice()
	}
}

func (m *Model) handleConfigReload(msg ConfigReloadedMsg) {
	if msg.Err != nil {
		m.setNotice(fmt.Sprintf("Config not reloaded: %v", msg.Err), true)
		return
	}
	cfg := msg.Config
	m.status.ShowStats = cfg.UI.ShowStats
	if cfg.UI.Theme != m.cfg.UI.Theme || cfg.UI.CodeTheme != m.cfg.UI.CodeTheme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.status = components.NewStatusBar(m.theme)
		m.status.ShowStats = cfg.UI.ShowStats
		m.status.Width = m.width
		m.status.Hint = "ctrl+o history · tab model"
		m.transcript = components.NewTranscript(m.theme, components.NewMarkdown(m.theme.IsDark, cfg.UI.CodeTheme))
		m.history = components.NewHistoryList(m.theme)
		m.history.Width = m.width * 2 / 3
		m.history.Height = m.viewport.Height
		m.refreshViewport()
	}
	m.cfg = cfg
	m.setNotice("Config reloaded", false)
}
