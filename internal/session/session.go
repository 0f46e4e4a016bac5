// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/backend"
	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/socket"
	"github.com/loorisr/tinychat/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned by Submit for blank input.
	ErrEmptyInput = errors.New("message is empty")

	// ErrGenerating is returned while a reply is still streaming.
	ErrGenerating = errors.New("a reply is still being generated")

	// ErrConnectionLost is reported when the socket closes mid-reply.
	ErrConnectionLost = errors.New("connection lost while generating")
)

// BackendError is a failure reported by the backend in a status frame.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return "backend error"
	}
	return "backend error: " + e.Message
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the connection status shown to the user.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// =============================================================================
// SESSION
// =============================================================================

// Transport sends outbound frames. *socket.Manager implements it.
type Transport interface {
	IsOpen() bool
	Send(data []byte) error
}

// Config wires a Session to its collaborators.
type Config struct {
	Transport Transport
	KV        storage.KV
	History   *storage.History
	Logger    *zap.Logger

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Session is the client state. See the package documentation for the
// single-goroutine rule.
type Session struct {
	transport Transport
	kv        storage.KV
	history   *storage.History
	log       *zap.Logger
	now       func() time.Time

	current    *model.Conversation
	generating bool
	started    bool
	status     Status
	lastErr    error

	models        []string
	model         string
	modelOverride bool

	// Streaming counters.
	perf             model.Performance
	prefillStart     time.Time
	startTime        time.Time
	tokens           int
	gottenFirstChunk bool
}

// New creates a Session with an empty current conversation. The stored
// model preference, if any, becomes the initial selection.
func New(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		transport: cfg.Transport,
		kv:        cfg.KV,
		history:   cfg.History,
		log:       log,
		now:       now,
		current:   model.NewConversation(),
		status:    StatusConnecting,
	}
	s.model = s.storedModel()
	return s
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Current returns the conversation being displayed.
func (s *Session) Current() *model.Conversation { return s.current }

// Messages returns the current transcript.
func (s *Session) Messages() []model.Message { return s.current.Messages }

// Generating reports whether a reply is streaming.
func (s *Session) Generating() bool { return s.generating }

// Started reports whether anything was submitted; false means the home screen.
func (s *Session) Started() bool { return s.started }

// Status returns the connection status.
func (s *Session) Status() Status { return s.status }

// LastError returns the most recent failure, or nil.
func (s *Session) LastError() error { return s.lastErr }

// Performance returns the streaming counters.
func (s *Session) Performance() model.Performance { return s.perf }

// Models returns the sorted model list.
func (s *Session) Models() []string { return s.models }

// Model returns the selected model name.
func (s *Session) Model() string { return s.model }

// History returns the history store (may be nil).
func (s *Session) History() *storage.History { return s.history }

// =============================================================================
// USER ACTIONS
// =============================================================================

// Submit sends text as a new user turn. Blank input, a reply in progress, and
// a closed socket are all rejected before any state changes.
func (s *Session) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	if s.generating {
		return ErrGenerating
	}
	if s.transport == nil || !s.transport.IsOpen() {
		return socket.ErrNotConnected
	}
	payload, err := socket.EncodeRequest(text, s.model)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	s.generating = true
	s.started = true
	s.lastErr = nil
	s.current.Append(model.RoleUser, text)

	s.prefillStart = s.now()
	s.startTime = time.Time{}
	s.perf.TokensPerSecond = 0
	s.tokens = 0
	s.gottenFirstChunk = false

	if err := s.transport.Send(payload); err != nil {
		s.generating = false
		s.lastErr = err
		return err
	}
	s.log.Debug("Message submitted", zap.String("model", s.model), zap.Int("chars", len(text)))
	return nil
}

// NewConversation starts a fresh, unstamped conversation.
func (s *Session) NewConversation() error {
	if s.generating {
		return ErrGenerating
	}
	s.current = model.NewConversation()
	s.gottenFirstChunk = false
	return nil
}

// Open makes the history entry stamped t the current conversation. Further
// replies update that entry in place.
func (s *Session) Open(t model.Stamp) error {
	if s.generating {
		return ErrGenerating
	}
	if s.history == nil {
		return storage.ErrNotFound
	}
	conv := s.history.Find(t)
	if conv == nil {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, t)
	}
	s.current = conv
	s.started = true
	s.gottenFirstChunk = false
	return nil
}

// RemoveHistory deletes the history entry stamped t. Unknown stamps are a
// no-op. The current conversation is left as is.
func (s *Session) RemoveHistory(t model.Stamp) (bool, error) {
	if s.history == nil {
		return false, nil
	}
	removed, err := s.history.Remove(t)
	if err != nil {
		s.lastErr = err
		return removed, fmt.Errorf("failed to remove conversation: %w", err)
	}
	if removed {
		s.log.Debug("Conversation removed", zap.Int64("time", int64(t)))
	}
	return removed, nil
}

// SelectModel chooses a model and stores it as the preference.
func (s *Session) SelectModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("model name is empty")
	}
	s.model = name
	s.modelOverride = false
	if s.kv == nil {
		return nil
	}
	if err := s.kv.Set(storage.ModelNameKey, name); err != nil {
		return fmt.Errorf("failed to store model preference: %w", err)
	}
	return nil
}

// UseModel selects a model for this process only. Later model lists do not
// change it and nothing is stored.
func (s *Session) UseModel(name string) {
	if name = strings.TrimSpace(name); name != "" {
		s.model = name
		s.modelOverride = true
	}
}

// ApplyModels replaces the model list with ids in collation order and picks
// the stored preference, or else the first entry.
func (s *Session) ApplyModels(ids []string) {
	s.models = backend.SortModels(ids)
	if s.modelOverride {
		return
	}
	if pref := s.storedModel(); pref != "" {
		s.model = pref
	} else if len(s.models) > 0 {
		s.model = s.models[0]
	}
}

// CycleModel selects the model after the current one and stores it.
func (s *Session) CycleModel() error {
	if len(s.models) == 0 {
		return nil
	}
	next := s.models[0]
	for i, m := range s.models {
		if m == s.model {
			next = s.models[(i+1)%len(s.models)]
			break
		}
	}
	return s.SelectModel(next)
}

func (s *Session) storedModel() string {
	if s.kv == nil {
		return ""
	}
	v, ok, err := s.kv.Get(storage.ModelNameKey)
	if err != nil {
		s.log.Warn("Failed to read model preference", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
