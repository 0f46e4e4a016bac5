// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/model"
	"github.com/loorisr/tinychat/internal/util"
)

// =============================================================================
// HISTORY STORE
// =============================================================================

// History is the ordered list of saved conversations, kept under
// HistoriesKey. Conversations are identified by their Time stamp; no two
// entries ever share one. Every mutation rewrites the whole list.
//
// History is not safe for concurrent use; the session mutates it from its
// event loop only.
type History struct {
	kv      KV
	log     *zap.Logger
	entries []*model.Conversation
}

// LoadHistory reads the history from kv. A missing key yields an empty
// history; a malformed value is logged and also yields an empty history.
func LoadHistory(kv KV, log *zap.Logger) (*History, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &History{kv: kv, log: log}

	raw, ok, err := kv.Get(HistoriesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if !ok || raw == "" {
		return h, nil
	}

	var entries []*model.Conversation
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Warn("Discarding malformed history", zap.Error(err), zap.Int("bytes", len(raw)))
		return h, nil
	}

	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Messages == nil {
			e.Messages = []model.Message{}
		}
		h.entries = append(h.entries, e)
	}
	log.Debug("History loaded", zap.Int("conversations", len(h.entries)))
	return h, nil
}

// Len returns the number of saved conversations.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns the conversations in stored order (oldest insertion first).
func (h *History) Entries() []*model.Conversation {
	out := make([]*model.Conversation, len(h.entries))
	copy(out, h.entries)
	return out
}

// Newest returns the conversations sorted by stamp, most recent first.
func (h *History) Newest() []*model.Conversation {
	out := h.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time > out[j].Time
	})
	return out
}

// Find returns the conversation stamped t, or nil.
func (h *History) Find(t model.Stamp) *model.Conversation {
	if i := h.indexOf(t); i >= 0 {
		return h.entries[i]
	}
	return nil
}

// Upsert finds the entry whose stamp equals conv.Time, restamps conv with
// stamp and replaces that entry, or appends conv when there was none. The
// whole history is then persisted.
//
// If stamp is already used by a different entry it is bumped by one
// millisecond until unique, so the identity invariant holds even when two
// conversations are touched within the same millisecond.
func (h *History) Upsert(conv *model.Conversation, stamp model.Stamp) error {
	idx := -1
	// An unstamped conversation has never been saved.
	if !conv.Time.IsZero() {
		idx = h.indexOf(conv.Time)
	}
	conv.Time = h.uniqueStamp(stamp, idx)
	if idx >= 0 {
		h.entries[idx] = conv
	} else {
		h.entries = append(h.entries, conv)
	}
	return h.persist()
}

// Remove deletes the entry stamped t and persists immediately. It reports
// whether an entry was removed; an unknown stamp is a no-op and writes nothing.
func (h *History) Remove(t model.Stamp) (bool, error) {
	idx := h.indexOf(t)
	if idx < 0 {
		return false, nil
	}
	h.entries = append(h.entries[:idx], h.entries[idx+1:]...)
	return true, h.persist()
}

// Clear removes every conversation.
func (h *History) Clear() error {
	h.entries = nil
	return h.persist()
}

// Import appends conversations from another history (for example a
// localStorage.histories value exported from the browser client).
// Unstamped conversations receive fallback; clashing stamps are bumped.
// It returns the number of conversations added.
func (h *History) Import(convs []*model.Conversation, fallback model.Stamp) (int, error) {
	added := 0
	for _, c := range convs {
		if c == nil || len(c.Messages) == 0 {
			continue
		}
		c = c.Clone()
		stamp := c.Time
		if stamp.IsZero() {
			stamp = fallback
		}
		c.Time = h.uniqueStamp(stamp, -1)
		h.entries = append(h.entries, c)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, h.persist()
}

// indexOf returns the index of the entry stamped t, or -1.
func (h *History) indexOf(t model.Stamp) int {
	for i, e := range h.entries {
		if e.Time == t {
			return i
		}
	}
	return -1
}

// uniqueStamp returns the first stamp >= s not used by any entry other than self.
func (h *History) uniqueStamp(s model.Stamp, self int) model.Stamp {
	for {
		clash := false
		for i, e := range h.entries {
			if i != self && e.Time == s {
				clash = true
				break
			}
		}
		if !clash {
			return s
		}
		s++
	}
}

// persist writes the full history to local storage.
func (h *History) persist() error {
	entries := h.entries
	if entries == nil {
		entries = []*model.Conversation{}
	}
	data, err := util.MarshalJSON(entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := h.kv.Set(HistoriesKey, string(data)); err != nil {
		h.log.Error("Failed to persist history", zap.Error(err))
		return err
	}
	return nil
}
