// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/socket"
)

// =============================================================================
// EVENT RESULTS
// =============================================================================

// Result describes what an event changed, for callers that print output as
// it streams (ask, repl). The TUI simply re-renders.
type Result struct {
	// Tool is the content of a tool message appended by this event.
	Tool    string
	HasTool bool

	// Chunk is assistant text appended by this event.
	Chunk string

	// Done is set when generation finished (normally or not).
	Done bool

	// StatusChanged is set when the connection status moved.
	StatusChanged bool

	// Err carries a failure raised by this event.
	Err error
}

// =============================================================================
// EVENT HANDLING
// =============================================================================

// Handle applies one socket event. Events must be passed in delivery order.
func (s *Session) Handle(ev socket.Event) Result {
	switch ev.Type {
	case socket.EventOpen:
		s.status = StatusConnected
		return Result{StatusChanged: true}

	case socket.EventError:
		s.status = StatusError
		s.lastErr = ev.Err
		return Result{StatusChanged: true, Err: ev.Err}

	case socket.EventClose:
		s.status = StatusDisconnected
		res := Result{StatusChanged: true}
		if s.generating {
			s.generating = false
			s.lastErr = ErrConnectionLost
			res.Done = true
			res.Err = ErrConnectionLost
		}
		return res

	case socket.EventMessage:
		frame, err := socket.ParseFrame(ev.Data)
		if err != nil {
			s.log.Warn("Ignoring frame", zap.String("conn", ev.ConnID), zap.Error(err))
			return Result{Err: fmt.Errorf("%w: %q", err, truncate(ev.Data, 64))}
		}
		if frame.Empty() {
			s.log.Debug("Frame has no known fields", zap.String("conn", ev.ConnID))
			return Result{}
		}
		return s.HandleFrame(frame)
	}
	return Result{}
}

// HandleFrame applies a decoded frame. Tagged fields are processed in the
// order token, event, tool, assistant.
func (s *Session) HandleFrame(f socket.Frame) Result {
	var res Result
	now := s.now()

	if f.HasToken {
		s.perf.TotalTokens += f.Token - s.tokens
		s.tokens = f.Token
		if !s.startTime.IsZero() {
			if elapsed := now.Sub(s.startTime); elapsed > 0 {
				s.perf.TokensPerSecond = model.TokensPerSecond(s.tokens, elapsed)
			}
		}
		s.startTime = time.Time{}
	}

	if f.HasEvent {
		s.generating = false
		res.Done = true
	}

	if f.HasTool {
		s.current.Append(model.RoleTool, f.Tool)
		s.gottenFirstChunk = false
		res.Tool, res.HasTool = f.Tool, true
	}

	if f.HasAssistant {
		s.appendAssistant(f.Assistant, now)
		res.Chunk = f.Assistant
		if err := s.save(now); err != nil {
			res.Err = err
		}
	}

	if f.IsError() {
		s.generating = false
		s.lastErr = &BackendError{Message: f.Message}
		res.Done = true
		res.Err = s.lastErr
	}

	return res
}

func (s *Session) appendAssistant(chunk string, now time.Time) {
	if !s.gottenFirstChunk {
		s.current.Append(model.RoleAssistant, "")
		s.gottenFirstChunk = true
	}
	s.current.Last().AppendChunk(chunk)

	s.tokens++
	s.perf.TotalTokens++
	if s.startTime.IsZero() {
		s.startTime = now
		s.perf.TimeToFirst = now.Sub(s.prefillStart)
	} else if elapsed := now.Sub(s.startTime); elapsed > 0 {
		s.perf.TokensPerSecond = model.TokensPerSecond(s.tokens, elapsed)
	}
}

// save writes the current conversation through to history with a fresh stamp.
func (s *Session) save(now time.Time) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.Upsert(s.current, model.StampOf(now)); err != nil {
		s.lastErr = err
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
