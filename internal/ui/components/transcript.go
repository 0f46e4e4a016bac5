// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT COMPONENT
// =============================================================================

// Transcript renders a conversation. Rendered messages are cached by
// content so only the streaming message is re-rendered on each chunk.
type Transcript struct {
	md    *Markdown
	theme *styles.Theme
	cache []renderedMessage
}

type renderedMessage struct {
	role    model.Role
	content string
	width   int
	out     string
}

// NewTranscript creates a transcript renderer.
func NewTranscript(theme *styles.Theme, md *Markdown) *Transcript {
	return &Transcript{theme: theme, md: md}
}

// Render returns the whole transcript wrapped to width.
func (t *Transcript) Render(msgs []model.Message, width int) string {
	t.md.SetWidth(width - 2)
	if len(t.cache) > len(msgs) {
		t.cache = t.cache[:len(msgs)]
	}

	parts := make([]string, 0, len(msgs))
	for i := range msgs {
		msg := &msgs[i]
		if i < len(t.cache) {
			c := t.cache[i]
			if c.role == msg.Role && c.content == msg.Content && c.width == width {
				parts = append(parts, c.out)
				continue
			}
		}
		out := t.renderMessage(msg, width)
		entry := renderedMessage{role: msg.Role, content: msg.Content, width: width, out: out}
		if i < len(t.cache) {
			t.cache[i] = entry
		} else {
			t.cache = append(t.cache, entry)
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n\n")
}

// Reset drops the render cache, e.g. after switching conversations.
func (t *Transcript) Reset() {
	t.cache = nil
}

func (t *Transcript) renderMessage(msg *model.Message, width int) string {
	switch msg.Role {
	case model.RoleUser:
		label := t.theme.UserLabel.Render(msg.Role.DisplayName())
		body := t.theme.UserText.Render(wordwrap.String(msg.Content, width-4))
		return label + "\n" + body

	case model.RoleTool:
		label := t.theme.ToolLabel.Render(msg.Role.DisplayName())
		body := t.theme.ToolBox.Render(wordwrap.String(msg.Content, width-8))
		return label + "\n" + body

	default:
		label := t.theme.AssistantLabel.Render(msg.Role.DisplayName())
		if msg.IsEmpty() {
			return label + "\n" + t.theme.Muted.Render("  ...")
		}
		return label + "\n" + t.md.Render(msg.Content)
	}
}
