// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/session"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the single line at the bottom of the screen.
type StatusBar struct {
	Status     session.Status
	Model      string
	Perf       model.Performance
	ShowStats  bool
	Generating bool
	Spinner    string // current spinner frame, shown while generating
	Hint       string
	Width      int

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, ShowStats: true, Status: session.StatusConnecting}
}

// View renders the status bar padded to Width.
func (s *StatusBar) View() string {
	if s.Width <= 0 {
		return ""
	}

	left := []string{s.statusSegment()}
	if s.Model != "" {
		left = append(left, s.theme.StatusModel.Render(s.Model))
	} else {
		left = append(left, s.theme.Muted.Render("no model"))
	}
	if s.Generating && s.Spinner != "" {
		left = append(left, s.Spinner)
	}
	leftStr := strings.Join(left, "  ")

	var right string
	if s.ShowStats && (s.Perf.TotalTokens > 0 || s.Generating) {
		right = s.theme.StatusStats.Render(s.Perf.Format())
	} else if s.Hint != "" {
		right = s.theme.Muted.Render(s.Hint)
	}

	gap := s.Width - lipgloss.Width(leftStr) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Drop the right segment rather than wrap.
		right = ""
		gap = s.Width - lipgloss.Width(leftStr) - 2
		if gap < 0 {
			gap = 0
		}
	}
	line := " " + leftStr + strings.Repeat(" ", gap) + right + " "
	return s.theme.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(line)
}

func (s *StatusBar) statusSegment() string {
	switch s.Status {
	case session.StatusConnected:
		return s.theme.StatusConnected.Render(styles.StatusIndicators.Connected + " connected")
	case session.StatusDisconnected:
		return s.theme.StatusDisconnected.Render(styles.StatusIndicators.Disconnected + " disconnected")
	case session.StatusError:
		return s.theme.StatusError.Render(styles.StatusIndicators.Error + " error")
	default:
		return s.theme.StatusConnecting.Render(styles.StatusIndicators.Connecting + " connecting")
	}
}
