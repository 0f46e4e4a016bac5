// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	Mode         string // auto, dark, light
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HOME SCREEN
	// ==========================================================================

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Hint     lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ToolLabel      lipgloss.Style
	UserText       lipgloss.Style
	ToolBox        lipgloss.Style
	Divider        lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar          lipgloss.Style
	StatusConnected    lipgloss.Style
	StatusConnecting   lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusError        lipgloss.Style
	StatusModel        lipgloss.Style
	StatusStats        lipgloss.Style

	// ==========================================================================
	// HISTORY PANE
	// ==========================================================================

	PaneBorder   lipgloss.Style
	PaneTitle    lipgloss.Style
	ItemNormal   lipgloss.Style
	ItemSelected lipgloss.Style
	ItemMeta     lipgloss.Style

	// ==========================================================================
	// INPUT AND NOTICES
	// ==========================================================================

	InputBorder lipgloss.Style
	Notice      lipgloss.Style
	ErrorText   lipgloss.Style
	Muted       lipgloss.Style
}

// NewTheme creates a theme for mode ("auto", "dark" or "light"). Unknown
// modes behave like "auto".
func NewTheme(mode string) *Theme {
	mode = strings.ToLower(mode)
	isDark := true
	switch mode {
	case "dark":
	case "light":
		isDark = false
	default:
		mode = "auto"
		isDark = termenv.HasDarkBackground()
	}
	// Adaptive colors follow the resolved background.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style name matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	// Home screen
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.Subtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.Hint = lipgloss.NewStyle().Foreground(TextMuted)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.ToolLabel = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	t.UserText = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.ToolBox = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Emerald).
		Padding(0, 1).
		MarginLeft(2)
	t.Divider = lipgloss.NewStyle().Foreground(Overlay)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().Background(SurfaceDim).Foreground(TextSecondary)
	t.StatusConnected = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	t.StatusConnecting = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	t.StatusDisconnected = lipgloss.NewStyle().Bold(true).Foreground(Rose)
	t.StatusError = lipgloss.NewStyle().Bold(true).Foreground(Rose).Underline(true)
	t.StatusModel = lipgloss.NewStyle().Foreground(Purple)
	t.StatusStats = lipgloss.NewStyle().Foreground(TextMuted)

	// History pane
	t.PaneBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple).MarginBottom(1)
	t.ItemNormal = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ItemSelected = lipgloss.NewStyle().Foreground(TextPrimary).Background(SelectionBg).Bold(true)
	t.ItemMeta = lipgloss.NewStyle().Foreground(TextMuted)

	// Input and notices
	t.InputBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)
	t.Notice = lipgloss.NewStyle().Foreground(Amber)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}
