// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m *Model) View() string {
	if !m.ready {
		return "Starting tinychat..."
	}

	var body string
	switch {
	case m.showHistory:
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.history.View())
	case !m.session.Started():
		body = m.homeView()
	default:
		body = m.viewport.View()
	}

	notice := ""
	if m.notice != "" {
		style := m.theme.Notice
		if m.noticeIsErr {
			style = m.theme.ErrorText
		}
		notice = style.MaxWidth(m.width).Render(m.notice)
	}

	input := m.theme.InputBorder.Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		notice,
		input,
		m.status.View(),
	)
}

// homeView is shown until the first message is sent.
func (m *Model) homeView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("tinychat"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(m.cfg.HTTPEndpoint()))
	b.WriteString("\n\n")

	if name := m.session.Model(); name != "" {
		b.WriteString(m.theme.Hint.Render("Model: "))
		b.WriteString(m.theme.StatusModel.Render(name))
		b.WriteString("\n")
	}
	if h := m.session.History(); h != nil && h.Len() > 0 {
		b.WriteString(m.theme.Hint.Render(fmt.Sprintf("%d saved conversations", h.Len())))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, binding := range m.keys.ShortHelp() {
		help := binding.Help()
		b.WriteString(m.theme.Hint.Render(fmt.Sprintf("%-10s %s", help.Key, help.Desc)))
		b.WriteString("\n")
	}

	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
		strings.TrimRight(b.String(), "\n"))
}
