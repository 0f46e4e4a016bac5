// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package socket

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/loorisr/tinychat/internal/util"
)

// ErrMalformedFrame is returned for inbound data that is not a JSON object.
var ErrMalformedFrame = errors.New("malformed frame")

// =============================================================================
// INBOUND FRAMES
// =============================================================================

// Frame is one decoded inbound message. A frame may carry several tagged
// fields; the Has* flags report which were present.
type Frame struct {
	Token    int
	HasToken bool

	Event    string
	HasEvent bool

	Tool    string
	HasTool bool

	Assistant    string
	HasAssistant bool

	// Status and Message carry the backend's failure report
	// ({"status":"error","message":...}).
	Status  string
	Message string
}

// IsError reports whether the frame is a backend failure report.
func (f Frame) IsError() bool {
	return f.Status == "error"
}

// Empty reports whether the frame carried no field tinychat understands.
func (f Frame) Empty() bool {
	return !f.HasToken && !f.HasEvent && !f.HasTool && !f.HasAssistant && !f.IsError()
}

// ParseFrame decodes a text frame. Unknown fields are ignored.
func ParseFrame(data []byte) (Frame, error) {
	if !gjson.ValidBytes(data) {
		return Frame{}, ErrMalformedFrame
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Frame{}, ErrMalformedFrame
	}

	var f Frame
	fields := root.Map()
	if v, ok := fields["token"]; ok {
		f.Token, f.HasToken = int(v.Int()), true
	}
	if v, ok := fields["event"]; ok {
		f.Event, f.HasEvent = v.String(), true
	}
	if v, ok := fields["tool"]; ok {
		f.Tool, f.HasTool = v.String(), true
	}
	if v, ok := fields["assistant"]; ok {
		f.Assistant, f.HasAssistant = v.String(), true
	}
	f.Status = fields["status"].String()
	f.Message = fields["message"].String()
	return f, nil
}

// =============================================================================
// OUTBOUND REQUEST
// =============================================================================

type request struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// EncodeRequest builds the outbound chat payload.
func EncodeRequest(message, model string) ([]byte, error) {
	return util.MarshalJSON(request{Message: message, Model: model})
}
