// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types shared by the session, the
// history store, and the user interfaces.
//
// # Key Types
//
//   - Conversation: a timestamped, ordered list of messages (one chat)
//   - Message: a single message with role and content
//   - Role: message role enumeration (user, assistant, tool)
//   - Stamp: millisecond timestamp identifying a conversation, null when unset
//   - Performance: time-to-first-token, tokens/sec and total token counters
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.RoleUser, "Hello!")
//	conv.Append(model.RoleAssistant, "")
//	conv.Last().Content += "Hi"
//
// The JSON form of a Conversation matches what the browser client kept in
// localStorage, e.g. {"time":1718000000000,"messages":[{"role":"user","content":"Hello!"}]}.
package model
