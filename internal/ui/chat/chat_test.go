// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loorisr/tinychat/internal/config"
	"github.com/loorisr/tinychat/internal/session"
	"github.com/loorisr/tinychat/internal/socket"
	"github.com/loorisr/tinychat/internal/storage"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fakeTransport struct {
	open bool
	sent [][]byte
}

func (f *fakeTransport) IsOpen() bool { return f.open }

func (f *fakeTransport) Send(data []byte) error {
	f.sent = append(f.sent, data)
	return nil
}

func newTestModel(t *testing.T) (*Model, *fakeTransport) {
	t.Helper()
	kv := storage.NewMemoryKV()
	hist, err := storage.LoadHistory(kv, nil)
	require.NoError(t, err)

	transport := &fakeTransport{}
	sess := session.New(session.Config{Transport: transport, KV: kv, History: hist})
	m := New(Options{
		Session: sess,
		Config:  config.Default(),
		Theme:   styles.NewTheme("dark"),
		Fetch: func(context.Context) ([]string, error) {
			return []string{"mistral", "llama3"}, nil
		},
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, transport
}

func send(m *Model, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func socketFrame(raw string) SocketEventMsg {
	return SocketEventMsg{Event: socket.Event{Type: socket.EventMessage, Data: []byte(raw)}}
}

var opened = SocketEventMsg{Event: socket.Event{Type: socket.EventOpen}}

// =============================================================================
// TESTS
// =============================================================================

func TestHomeScreen(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	assert.Contains(t, out, "tinychat")
	assert.Contains(t, out, config.DefaultEndpoint)
	assert.Contains(t, out, "new chat")
	assert.Contains(t, out, "connecting")
}

func TestSubmitWhileDisconnectedKeepsInput(t *testing.T) {
	m, transport := newTestModel(t)
	m.input.SetValue("hello")

	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.Notice(), "Not connected")
	assert.Equal(t, "hello", m.input.Value())
	assert.Empty(t, transport.sent)
	assert.False(t, m.Session().Started())
}

func TestStreamingReply(t *testing.T) {
	m, transport := newTestModel(t)
	transport.open = true
	send(m, opened)
	assert.Equal(t, session.StatusConnected, m.status.Status)

	m.input.SetValue("hi there")
	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, transport.sent, 1)
	assert.Empty(t, m.input.Value())
	assert.True(t, m.Session().Generating())

	send(m, socketFrame(`{"assistant":"Hello"}`))
	send(m, socketFrame(`{"assistant":" world"}`))
	send(m, socketFrame(`{"event":"stop"}`))

	assert.False(t, m.Session().Generating())
	out := m.View()
	assert.Contains(t, out, "hi there")
	assert.Contains(t, out, "Hello world")
	assert.Equal(t, 1, m.Session().History().Len())
}

func TestRenderTickFlushesDeferredRender(t *testing.T) {
	m, transport := newTestModel(t)
	transport.open = true
	send(m, opened)
	m.input.SetValue("q")
	send(m, tea.KeyMsg{Type: tea.KeyEnter})

	send(m, socketFrame(`{"assistant":"a"}`))
	cmd := send(m, socketFrame(`{"assistant":"b"}`))
	if m.dirty {
		require.NotNil(t, cmd)
		assert.True(t, m.tickPending)
	}

	send(m, renderTickMsg{})
	assert.False(t, m.tickPending)
	assert.False(t, m.dirty)
	assert.Contains(t, m.viewport.View(), "ab")
}

func TestConnectionLostWhileGenerating(t *testing.T) {
	m, transport := newTestModel(t)
	transport.open = true
	send(m, opened)
	m.input.SetValue("q")
	send(m, tea.KeyMsg{Type: tea.KeyEnter})

	send(m, SocketEventMsg{Event: socket.Event{Type: socket.EventClose, Code: 1006}})
	assert.False(t, m.Session().Generating())
	assert.Contains(t, m.Notice(), session.ErrConnectionLost.Error())
	assert.Equal(t, session.StatusDisconnected, m.status.Status)
}

func TestModelsAndCycle(t *testing.T) {
	m, _ := newTestModel(t)
	ids, err := m.fetch(context.Background())
	require.NoError(t, err)

	send(m, ModelsMsg{IDs: ids})
	assert.Equal(t, []string{"llama3", "mistral"}, m.Session().Models())
	assert.Equal(t, "llama3", m.status.Model)

	send(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "mistral", m.status.Model)
}

func TestHistoryPane(t *testing.T) {
	m, transport := newTestModel(t)
	transport.open = true
	send(m, opened)
	m.input.SetValue("remember me")
	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	send(m, socketFrame(`{"assistant":"ok"}`))
	send(m, socketFrame(`{"event":"stop"}`))

	send(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Empty(t, m.Session().Messages())

	send(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.True(t, m.HistoryOpen())
	assert.Contains(t, m.View(), "remember me")

	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.HistoryOpen())
	assert.Len(t, m.Session().Messages(), 2)

	send(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Equal(t, 0, m.Session().History().Len())
	send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.HistoryOpen())
}

func TestConfigReload(t *testing.T) {
	m, _ := newTestModel(t)
	cfg := config.Default()
	cfg.UI.ShowStats = false
	cfg.UI.CodeTheme = "dracula"

	send(m, ConfigReloadedMsg{Config: cfg})
	assert.False(t, m.status.ShowStats)
	assert.Equal(t, "Config reloaded", m.Notice())
	assert.Equal(t, "dracula", m.cfg.UI.CodeTheme)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
