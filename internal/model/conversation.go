// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// STAMP TYPE
// =============================================================================

// Stamp identifies a conversation: milliseconds since the Unix epoch.
// The zero Stamp means "not yet stamped" and encodes as JSON null.
type Stamp int64

// StampOf converts a wall-clock time to a Stamp.
func StampOf(t time.Time) Stamp {
	return Stamp(t.UnixMilli())
}

// IsZero reports whether the stamp is unset.
func (s Stamp) IsZero() bool {
	return s == 0
}

// Time converts the stamp back to a time.Time. The zero stamp yields the zero time.
func (s Stamp) Time() time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(s))
}

// String returns the decimal form of the stamp, or "null".
func (s Stamp) String() string {
	if s == 0 {
		return "null"
	}
	return strconv.FormatInt(int64(s), 10)
}

// ParseStamp parses the decimal form produced by String.
func ParseStamp(text string) (Stamp, error) {
	if text == "null" || text == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, err
	}
	return Stamp(n), nil
}

// MarshalJSON encodes the zero stamp as null.
func (s Stamp) MarshalJSON() ([]byte, error) {
	if s == 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(int64(s), 10)), nil
}

// UnmarshalJSON accepts null, integers and floats (Date.now() values
// round-tripped through other tools sometimes gain a fraction).
func (s *Stamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stamp(int64(f))
	return nil
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is one chat: the messages of every turn plus the stamp of its
// last update. The stamp is the identity used by the history store.
type Conversation struct {
	Time     Stamp     `json:"time"`
	Messages []Message `json:"messages"`
}

// NewConversation returns an unstamped conversation with no messages.
func NewConversation() *Conversation {
	return &Conversation{Messages: []Message{}}
}

// Append adds a message and returns a pointer to it.
func (c *Conversation) Append(role Role, content string) *Message {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
	return &c.Messages[len(c.Messages)-1]
}

// Last returns the most recent message, or nil when there are none.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Title returns a preview of the first user message, used in history lists.
func (c *Conversation) Title(maxWidth int) string {
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser && !c.Messages[i].IsEmpty() {
			return c.Messages[i].Preview(maxWidth)
		}
	}
	return "New conversation"
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return &Conversation{Time: c.Time, Messages: msgs}
}

// =============================================================================
// EXPORT
// =============================================================================

// Markdown renders the conversation as a Markdown document.
func (c *Conversation) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# " + c.Title(60) + "\n\n")
	if !c.Time.IsZero() {
		sb.WriteString("Updated: " + c.Time.Time().UTC().Format(time.RFC3339) + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, msg := range c.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "**:\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// JSON returns the conversation as indented JSON.
func (c *Conversation) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
