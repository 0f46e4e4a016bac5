// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides tinychat's local storage and conversation history.
//
// Local storage is a small string key/value space, the terminal counterpart
// of a browser's localStorage. Two keys are used: "histories" holds the whole
// conversation history as one JSON array, and "model_name" holds the last
// selected model.
//
// # Key Types
//
//   - KV: local storage interface (Get, Set, Delete, Keys, Close)
//   - FileKV: all keys in one JSON file, written atomically
//   - SQLiteKV: keys in a SQLite table (pure Go driver)
//   - MemoryKV: process-local storage for tests and --ephemeral runs
//   - History: the conversation history kept under the "histories" key
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, dataDir)
//	hist, err := storage.LoadHistory(kv, logger)
//	err = hist.Upsert(conv, model.StampOf(time.Now()))
//	removed, err := hist.Remove(conv.Time)
//
// # Storage Location
//
// The file and sqlite backends live in ~/.tinychat/ (localstorage.json or
// localstorage.db) unless storage.data_dir says otherwise.
package storage
