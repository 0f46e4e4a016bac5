// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the tinychat command tree.
//
// Commands:
//
//	tinychat                  start the TUI (same as "tinychat tui")
//	tinychat ask QUESTION     send one message and stream the reply
//	tinychat repl             line-based chat with input history
//	tinychat models           list the backend's models
//	tinychat history ...      list, show, save, rm, export, import, clear
//	tinychat config ...       show, path, init, get, set
//
// Global flags: --config, --endpoint, --model, --ephemeral, --verbose.
//
// Logs go to the log file (log.file, default ~/.tinychat/tinychat.log).
// With --verbose they go to stderr at debug level instead.
package cli
