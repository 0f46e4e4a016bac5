// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tinychat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ServerConfig: backend endpoint, socket and models paths, timeouts
//   - StorageConfig: local storage backend and data directory
//   - UIConfig: theme, code theme, stats, alternate screen
//   - LogConfig: log level and file
//   - Watcher: reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (applied by the cli package)
//   - Environment variables (TINYCHAT_*)
//   - ~/.tinychat/config.toml
//   - ~/.tinychat/config.json
//   - Built-in defaults
//
// TINYCHAT_HOME moves the ~/.tinychat directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	wsURL, err := cfg.SocketURL()
package config
