// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/socket"
)

// =============================================================================
// EVENT QUEUE
// =============================================================================

// eventQueue hands socket events to the command goroutine, which owns the
// session. The sink never blocks, so the manager keeps reconnecting while
// the command waits on user input. Stop must be called before the socket is
// closed; events arriving after it are dropped.
type eventQueue struct {
	mu      sync.Mutex
	pending []socket.Event
	ready   chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (q *eventQueue) sink(ev socket.Event) {
	select {
	case <-q.done:
		return
	default:
	}
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop removes the oldest event. Ready is re-armed while events remain.
func (q *eventQueue) pop() (socket.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return socket.Event{}, false
	}
	ev := q.pending[0]
	q.pending[0] = socket.Event{}
	q.pending = q.pending[1:]
	if len(q.pending) > 0 {
		q.signal()
	}
	return ev, true
}

// drain applies every queued event to the session without blocking.
func (q *eventQueue) drain(a *app) {
	for {
		ev, ok := q.pop()
		if !ok {
			return
		}
		if res := a.session.Handle(ev); res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			a.log.Debug("Queued event", zap.Stringer("type", ev.Type), zap.Error(res.Err))
		}
	}
}

func (q *eventQueue) stop() {
	q.once.Do(func() { close(q.done) })
}

// =============================================================================
// STREAMING
// =============================================================================

// waitOpen blocks until the socket opens. The first connection error is
// returned instead of waiting for a reconnect.
func waitOpen(ctx context.Context, a *app, q *eventQueue, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.ready:
			for {
				ev, ok := q.pop()
				if !ok {
					break
				}
				a.session.Handle(ev)
				switch ev.Type {
				case socket.EventOpen:
					return nil
				case socket.EventError:
					return fmt.Errorf("could not connect to %s: %w", a.socket.URL(), ev.Err)
				}
			}
		case <-timer.C:
			return fmt.Errorf("could not connect to %s: timed out after %s", a.socket.URL(), timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// streamReply submits text and applies events until the reply is done.
// Events queued since the last turn are applied first, so the session sees
// the current connection state. With live set, chunks are written to w as
// they arrive. The assistant text of the turn is returned.
func streamReply(ctx context.Context, a *app, q *eventQueue, text string, w io.Writer, live bool) (string, error) {
	q.drain(a)
	if err := a.session.Submit(text); err != nil {
		return "", err
	}

	var reply strings.Builder
	for {
		select {
		case <-q.ready:
			for {
				ev, ok := q.pop()
				if !ok {
					break
				}
				res := a.session.Handle(ev)
				if res.HasTool {
					fmt.Fprintln(w, toolStyle.Render("[tool] "+res.Tool))
				}
				if res.Chunk != "" {
					reply.WriteString(res.Chunk)
					if live {
						fmt.Fprint(w, res.Chunk)
					}
				}
				if res.Done {
					return reply.String(), res.Err
				}
				if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
					a.log.Warn("Stream event failed", zap.Stringer("type", ev.Type), zap.Error(res.Err))
				}
			}
		case <-ctx.Done():
			return reply.String(), ctx.Err()
		}
	}
}
