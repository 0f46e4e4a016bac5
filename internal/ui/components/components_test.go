// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/session"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestMarkdown_RendersText(t *testing.T) {
	md := NewMarkdown(true, "monokai")
	md.SetWidth(60)
	out := md.Render("# Title\n\nSome **bold** text.\n\n```go\nfmt.Println(1)\n```")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "Println")
	assert.False(t, strings.HasPrefix(out, "\n"))
}

func TestMarkdown_MinimumWidth(t *testing.T) {
	md := NewMarkdown(false, "")
	md.SetWidth(3)
	assert.Equal(t, 20, md.Width())
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBar_View(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.Width = 100
	bar.Status = session.StatusConnected
	bar.Model = "llama3"
	bar.Perf = model.Performance{TimeToFirst: 120 * time.Millisecond, TokensPerSecond: 42, TotalTokens: 9}

	out := bar.View()
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "llama3")
	assert.Contains(t, out, "TTFT 120ms | 42.0 tok/s | 9 tokens")
	assert.Equal(t, 100, lipgloss.Width(out))

	bar.ShowStats = false
	bar.Hint = "ctrl+h history"
	out = bar.View()
	assert.NotContains(t, out, "tok/s")
	assert.Contains(t, out, "ctrl+h history")
}

func TestStatusBar_States(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.Width = 60
	for status, want := range map[session.Status]string{
		session.StatusConnecting:   "connecting",
		session.StatusDisconnected: "disconnected",
		session.StatusError:        "error",
	} {
		bar.Status = status
		assert.Contains(t, bar.View(), want)
	}
	assert.Contains(t, bar.View(), "no model")

	bar.Width = 0
	assert.Empty(t, bar.View())
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_Render(t *testing.T) {
	theme := testTheme()
	tr := NewTranscript(theme, NewMarkdown(true, "monokai"))
	conv := model.NewConversation()
	conv.Append(model.RoleUser, "What is Go?")
	conv.Append(model.RoleTool, "search: golang")
	conv.Append(model.RoleAssistant, "A programming language.")
	conv.Append(model.RoleAssistant, "")

	out := tr.Render(conv.Messages, 80)
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "What is Go?")
	assert.Contains(t, out, "Tool")
	assert.Contains(t, out, "search: golang")
	assert.Contains(t, out, "programming language")
	assert.Contains(t, out, "...")

	// Streaming into the last message only re-renders that message.
	conv.Last().AppendChunk("More")
	out = tr.Render(conv.Messages, 80)
	assert.Contains(t, out, "More")
	require.Len(t, tr.cache, 4)

	tr.Render(conv.Messages[:1], 80)
	assert.Len(t, tr.cache, 1)
	tr.Reset()
	assert.Empty(t, tr.cache)
}

// =============================================================================
// HISTORY LIST TESTS
// =============================================================================

func historyItems() []*model.Conversation {
	var items []*model.Conversation
	for i, q := range []string{"first question", "second question", "third question"} {
		c := model.NewConversation()
		c.Append(model.RoleUser, q)
		c.Time = model.Stamp(1700000000000 + int64(i))
		items = append(items, c)
	}
	return items
}

func TestHistoryList_Navigation(t *testing.T) {
	h := NewHistoryList(testTheme())
	_, ok := h.SelectedStamp()
	assert.False(t, ok)

	h.SetItems(historyItems())
	h.Up()
	assert.Equal(t, 0, h.Selected)
	h.Down()
	h.Down()
	h.Down()
	assert.Equal(t, 2, h.Selected)

	stamp, ok := h.SelectedStamp()
	require.True(t, ok)
	assert.Equal(t, model.Stamp(1700000000002), stamp)

	h.SetItems(historyItems()[:1])
	assert.Equal(t, 0, h.Selected)
}

func TestHistoryList_View(t *testing.T) {
	h := NewHistoryList(testTheme())
	h.Width, h.Height = 50, 20
	assert.Contains(t, h.View(), "No saved conversations")

	h.SetItems(historyItems())
	h.Down()
	out := h.View()
	assert.Contains(t, out, "History (3)")
	assert.Contains(t, out, "> second question")
	assert.Contains(t, out, "1 messages")
}
