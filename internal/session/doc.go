// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat client's state: the current conversation,
// the generation flag, performance counters, connection status, and the
// model selection.
//
// A Session is driven by two inputs. Submit handles user input and sends the
// request over the Transport; Handle applies socket events as they arrive.
// Every assistant chunk is written through to the conversation history.
//
// # Concurrency
//
// Session is not safe for concurrent use. All calls must come from one
// goroutine: the Bubble Tea update loop in the TUI, or the command loop in
// ask and repl. Socket goroutines only produce socket.Event values that are
// forwarded to that goroutine.
//
// # Usage
//
//	sess := session.New(session.Config{
//		Transport: mgr,
//		KV:        kv,
//		History:   hist,
//	})
//	if err := sess.Submit("hello"); err != nil { ... }
//	res := sess.Handle(ev) // for each socket.Event
package session
