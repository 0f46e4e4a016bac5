// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/loorisr/tinychat/internal/ui/styles"
)

// =============================================================================
// CLI STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	toolStyle   = lipgloss.NewStyle().Foreground(styles.Emerald)
	mutedStyle  = lipgloss.NewStyle().Foreground(styles.TextMuted)
	modelStyle  = lipgloss.NewStyle().Foreground(styles.Purple)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimary)
)
