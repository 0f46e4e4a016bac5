// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/muesli/reflow/wordwrap"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders assistant replies. The glamour renderer is rebuilt only
// when the width changes.
type Markdown struct {
	dark      bool
	codeTheme string
	width     int
	renderer  *glamour.TermRenderer
	failed    bool
}

// NewMarkdown creates a renderer. codeTheme is a chroma style name used for
// fenced code blocks.
func NewMarkdown(dark bool, codeTheme string) *Markdown {
	return &Markdown{dark: dark, codeTheme: codeTheme}
}

// SetWidth sets the wrap width.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width != m.width {
		m.width = width
		m.renderer = nil
		m.failed = false
	}
}

// Width returns the wrap width.
func (m *Markdown) Width() int { return m.width }

// Render converts markdown to styled terminal text. If glamour fails the
// text is word-wrapped and returned as is.
func (m *Markdown) Render(text string) string {
	if m.width == 0 {
		m.SetWidth(80)
	}
	if r := m.ensure(); r != nil {
		if out, err := r.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return wordwrap.String(text, m.width)
}

func (m *Markdown) ensure() *glamour.TermRenderer {
	if m.renderer != nil || m.failed {
		return m.renderer
	}
	cfg := glamourstyles.LightStyleConfig
	if m.dark {
		cfg = glamourstyles.DarkStyleConfig
	}
	if m.codeTheme != "" {
		cfg.CodeBlock.Chroma = nil
		cfg.CodeBlock.Theme = m.codeTheme
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(cfg),
		glamour.WithWordWrap(m.width),
	)
	if err != nil {
		m.failed = true
		return nil
	}
	m.renderer = r
	return r
}
