// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a single conversation to a standalone file.
//
// Formats:
//   - markdown: YAML front matter followed by one section per message
//   - html: self-contained page; message bodies are rendered from
//     markdown with goldmark and sanitized with bluemonday
//   - json: the conversation as stored in history
//
// Usage:
//
//	exp, err := export.New("html", export.DefaultOptions())
//	path, err := export.ToFile(conv, exp, opts)
package export
