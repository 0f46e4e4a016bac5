// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the tinychat TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves dark and light
terminals. The Theme resolves the background either from the terminal
(theme "auto", via termenv) or from configuration ("dark", "light").

# Color System (colors.go)

  - Purple: assistant messages, selections
  - Cyan: brand color, user messages
  - Emerald: connected status, tool output
  - Amber: connecting status, warnings
  - Rose: errors, disconnected status

# Usage

	theme := styles.NewTheme("auto")
	label := theme.AssistantLabel.Render("Assistant")
*/
package styles
