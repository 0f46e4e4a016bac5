// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the tinychat TUI.
//
// # Key Components
//
//   - Markdown: glamour renderer with a configurable code theme
//   - StatusBar: connection status, model and streaming stats
//   - Transcript: renders the messages of a conversation
//   - HistoryList: selectable list of saved conversations
//
// Components are plain values that render to strings. They hold no
// reference to the session; the chat model copies state into them.
package components
