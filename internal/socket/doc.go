// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package socket manages the persistent websocket connection to the chat
// backend.
//
// The Manager dials the backend, reads frames on its own goroutine, and
// reconnects after a fixed delay whenever the connection closes. It never
// touches application state: every transport happening is delivered as an
// Event to a caller-supplied Sink, which is expected to forward it to the
// single goroutine that owns the session.
//
// # Events
//
//   - EventOpen: a connection was established
//   - EventMessage: a text frame arrived (Event.Data)
//   - EventError: the connection failed (Event.Err)
//   - EventClose: the connection is gone; a reconnect is scheduled
//
// # Usage
//
//	mgr := socket.New(socket.Options{URL: url}, func(ev socket.Event) {
//		program.Send(ev)
//	})
//	mgr.Start()
//	defer mgr.Close()
//
//	payload, _ := socket.EncodeRequest("hello", "llama3")
//	err := mgr.Send(payload)
package socket
