// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across tinychat.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//
// String Utilities:
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - PadRight: pad a string to a display width
//
// # Usage
//
//	// Write local storage atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Fit a history title into a list column
//	title := util.TruncateWidth(conv.Title(80), 40)
package util
