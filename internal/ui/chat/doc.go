// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the tinychat TUI.

The Model is a Bubble Tea model wrapping a session.Session. Socket events
reach it as SocketEventMsg through tea.Program.Send, so the session is only
touched from the Update loop.

# Key Components

## Model (model.go)

Input textarea, transcript viewport, status bar and history pane.

## Update Loop (update.go)

Keyboard handling, socket events, model list refreshes and config reloads.
Re-renders during streaming are rate limited and coalesced by a 33ms tick.

## View Rendering (view.go)

Home screen before the first message, transcript afterwards.

# Keyboard Shortcuts

  - Enter: send message
  - Alt+Enter / Ctrl+J: new line
  - Ctrl+N: new conversation
  - Ctrl+O: browse history (Up/Down, Enter open, D delete, Esc close)
  - Tab: next model
  - Ctrl+R: refresh model list
  - PgUp/PgDn: scroll transcript
  - Ctrl+C: quit
*/
package chat
