// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/ui/styles"
	"github.com/loorisr/tinychat/internal/util"
)

// =============================================================================
// HISTORY LIST COMPONENT
// =============================================================================

// HistoryList is the selectable list of saved conversations, newest first.
type HistoryList struct {
	Items    []*model.Conversation
	Selected int
	Width    int
	Height   int

	theme *styles.Theme
}

// NewHistoryList creates an empty list.
func NewHistoryList(theme *styles.Theme) *HistoryList {
	return &HistoryList{theme: theme}
}

// SetItems replaces the entries, keeping the selection in range.
func (h *HistoryList) SetItems(items []*model.Conversation) {
	h.Items = items
	h.clamp()
}

// Up moves the selection up.
func (h *HistoryList) Up() {
	h.Selected--
	h.clamp()
}

// Down moves the selection down.
func (h *HistoryList) Down() {
	h.Selected++
	h.clamp()
}

// SelectedStamp returns the stamp of the selected entry.
func (h *HistoryList) SelectedStamp() (model.Stamp, bool) {
	if len(h.Items) == 0 {
		return 0, false
	}
	return h.Items[h.Selected].Time, true
}

func (h *HistoryList) clamp() {
	if h.Selected >= len(h.Items) {
		h.Selected = len(h.Items) - 1
	}
	if h.Selected < 0 {
		h.Selected = 0
	}
}

// View renders the list inside a bordered pane.
func (h *HistoryList) View() string {
	inner := h.Width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(h.theme.PaneTitle.Render(fmt.Sprintf("History (%d)", len(h.Items))))
	b.WriteString("\n")

	if len(h.Items) == 0 {
		b.WriteString(h.theme.Muted.Render("No saved conversations"))
		return h.theme.PaneBorder.Width(inner).Render(b.String())
	}

	// Each entry takes two lines.
	visible := (h.Height - 4) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if h.Selected >= visible {
		start = h.Selected - visible + 1
	}
	end := start + visible
	if end > len(h.Items) {
		end = len(h.Items)
	}

	for i := start; i < end; i++ {
		conv := h.Items[i]
		title := util.PadRight(conv.Title(inner-4), inner-4)
		meta := fmt.Sprintf("%s · %d messages", conv.Time.Time().Format("2006-01-02 15:04"), conv.Len())
		if i == h.Selected {
			b.WriteString(h.theme.ItemSelected.Render("> " + title))
		} else {
			b.WriteString(h.theme.ItemNormal.Render("  " + title))
		}
		b.WriteString("\n")
		b.WriteString(h.theme.ItemMeta.Render("  " + meta))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\n")
	b.WriteString(h.theme.Hint.Render("enter open · d delete · esc close"))
	return h.theme.PaneBorder.Width(inner).Render(b.String())
}
