// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// STAMP TESTS
// =============================================================================

func TestStamp_NullWhenUnset(t *testing.T) {
	data, err := json.Marshal(NewConversation())
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":null,"messages":[]}`, string(data))
}

func TestStamp_DecodesBrowserHistory(t *testing.T) {
	raw := `[{"time":1718000000000,"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]},
	         {"time":null,"messages":[]}]`

	var convs []Conversation
	require.NoError(t, json.Unmarshal([]byte(raw), &convs))
	require.Len(t, convs, 2)

	assert.Equal(t, Stamp(1718000000000), convs[0].Time)
	assert.Equal(t, RoleAssistant, convs[0].Messages[1].Role)
	assert.True(t, convs[1].Time.IsZero())
}

func TestStamp_FractionalValueTruncates(t *testing.T) {
	var s Stamp
	require.NoError(t, json.Unmarshal([]byte("1718000000000.7"), &s))
	assert.Equal(t, Stamp(1718000000000), s)
}

func TestStamp_TimeRoundTrip(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	s := StampOf(now)
	assert.True(t, s.Time().Equal(now))
	assert.True(t, Stamp(0).Time().IsZero())

	parsed, err := ParseStamp(s.String())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	parsed, err = ParseStamp("null")
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())

	_, err = ParseStamp("yesterday")
	assert.Error(t, err)
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendAndLast(t *testing.T) {
	conv := NewConversation()
	assert.Nil(t, conv.Last())

	conv.Append(RoleUser, "question")
	conv.Append(RoleAssistant, "")
	conv.Last().AppendChunk("Hel")
	conv.Last().AppendChunk("lo")

	require.Equal(t, 2, conv.Len())
	assert.Equal(t, "Hello", conv.Messages[1].Content)
}

func TestConversation_Title(t *testing.T) {
	conv := NewConversation()
	assert.Equal(t, "New conversation", conv.Title(20))

	conv.Append(RoleTool, "Using tool *weather*")
	conv.Append(RoleUser, "what is\nthe   weather in Paris today, and tomorrow?")
	title := conv.Title(20)
	assert.True(t, strings.HasPrefix(title, "what is the weath"), title)
	assert.LessOrEqual(t, len([]rune(title)), 20)
}

func TestConversation_CloneIsDeep(t *testing.T) {
	conv := NewConversation()
	conv.Append(RoleUser, "a")
	clone := conv.Clone()
	clone.Messages[0].Content = "b"
	assert.Equal(t, "a", conv.Messages[0].Content)
}

func TestConversation_Markdown(t *testing.T) {
	conv := &Conversation{Time: 1718000000000}
	conv.Append(RoleUser, "hi")
	conv.Append(RoleAssistant, "**hello**")

	md := conv.Markdown()
	assert.Contains(t, md, "# hi")
	assert.Contains(t, md, "Updated: 2024-06-10T06:13:20Z")
	assert.Contains(t, md, "**You**:\n\nhi")
	assert.Contains(t, md, "**Assistant**:\n\n**hello**")
}

// =============================================================================
// ROLE / PERFORMANCE TESTS
// =============================================================================

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleTool.Valid())
	assert.False(t, Role("system").Valid())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
}

func TestPerformance_Format(t *testing.T) {
	p := Performance{TimeToFirst: 234 * time.Millisecond, TokensPerSecond: 51.25, TotalTokens: 128}
	assert.Equal(t, "TTFT 234ms | 51.2 tok/s | 128 tokens", p.Format())
	assert.Zero(t, TokensPerSecond(10, 0))
	assert.InDelta(t, 20.0, TokensPerSecond(10, 500*time.Millisecond), 1e-9)
}
