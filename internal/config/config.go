// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tinychat.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/chroma/v2/styles"
	"go.uber.org/zap/zapcore"

	"github.com/loorisr/tinychat/internal/storage"
	"github.com/loorisr/tinychat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tinychat configuration.
type Config struct {
	// Backend connection
	Server ServerConfig `toml:"server" json:"server"`

	// Local storage
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`
}

// ServerConfig describes the chat backend.
type ServerConfig struct {
	// Endpoint is the backend base URL; the socket URL is derived from it.
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// SocketPath is the websocket path (default: /chat)
	SocketPath string `toml:"socket_path" json:"socket_path"`

	// ModelsPath is the models list path (default: /models)
	ModelsPath string `toml:"models_path" json:"models_path"`

	// Model forces a model for this run; empty means use the stored choice.
	Model string `toml:"model" json:"model"`

	ReconnectDelayMs   int `toml:"reconnect_delay_ms" json:"reconnect_delay_ms"`
	HandshakeTimeoutMs int `toml:"handshake_timeout_ms" json:"handshake_timeout_ms"`
	RequestTimeoutMs   int `toml:"request_timeout_ms" json:"request_timeout_ms"`
}

// StorageConfig selects the local storage backend.
type StorageConfig struct {
	// Backend is one of file, sqlite, memory.
	Backend string `toml:"backend" json:"backend"`

	// DataDir holds local storage files; empty means the config directory.
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme     string `toml:"theme" json:"theme"`           // auto, dark, light
	CodeTheme string `toml:"code_theme" json:"code_theme"` // chroma style name
	ShowStats bool   `toml:"show_stats" json:"show_stats"`
	AltScreen bool   `toml:"alt_screen" json:"alt_screen"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"` // empty means tinychat.log in the config directory
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultEndpoint       = "http://127.0.0.1:8000"
	DefaultSocketPath     = "/chat"
	DefaultModelsPath     = "/models"
	DefaultReconnectDelay = 5000
	DefaultHandshake      = 10000
	DefaultRequestTimeout = 10000
	DefaultCodeTheme      = "monokai"
	DefaultLogFileName    = "tinychat.log"

	minReconnectDelayMs = 100
)

// ValidThemes lists the accepted ui.theme values.
var ValidThemes = []string{"auto", "dark", "light"}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Endpoint:           DefaultEndpoint,
			SocketPath:         DefaultSocketPath,
			ModelsPath:         DefaultModelsPath,
			ReconnectDelayMs:   DefaultReconnectDelay,
			HandshakeTimeoutMs: DefaultHandshake,
			RequestTimeoutMs:   DefaultRequestTimeout,
		},
		Storage: StorageConfig{
			Backend: string(storage.BackendFile),
		},
		UI: UIConfig{
			Theme:     "auto",
			CodeTheme: DefaultCodeTheme,
			ShowStats: true,
			AltScreen: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tinychat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TINYCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tinychat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read: the TOML file if it
// exists, else the JSON file if it exists, else the TOML path.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	p, err := ActivePath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(p); statErr != nil {
		cfg := Default()
		return finish(cfg)
	}
	return LoadFromPath(p)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(p string) (*Config, error) {
	cfg := Default()

	// Determine file type and load accordingly
	if strings.HasSuffix(p, ".json") {
		if err := LoadJSON(cfg, p); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", p, err)
		}
	} else {
		if err := LoadTOML(cfg, p); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", p, err)
		}
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, p string) error {
	if _, err := toml.DecodeFile(p, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Server.Endpoint == "" {
		cfg.Server.Endpoint = defaults.Server.Endpoint
	}
	if cfg.Server.SocketPath == "" {
		cfg.Server.SocketPath = defaults.Server.SocketPath
	}
	if cfg.Server.ModelsPath == "" {
		cfg.Server.ModelsPath = defaults.Server.ModelsPath
	}
	if cfg.Server.ReconnectDelayMs == 0 {
		cfg.Server.ReconnectDelayMs = defaults.Server.ReconnectDelayMs
	}
	if cfg.Server.HandshakeTimeoutMs == 0 {
		cfg.Server.HandshakeTimeoutMs = defaults.Server.HandshakeTimeoutMs
	}
	if cfg.Server.RequestTimeoutMs == 0 {
		cfg.Server.RequestTimeoutMs = defaults.Server.RequestTimeoutMs
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.CodeTheme == "" {
		cfg.UI.CodeTheme = defaults.UI.CodeTheme
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	p, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, p)
}

// SaveTOML saves the configuration to a TOML file with a header comment.
func SaveTOML(cfg *Config, p string) error {
	var buf strings.Builder
	buf.WriteString("# tinychat configuration file\n")
	buf.WriteString("# Environment variables TINYCHAT_* override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(p, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, p string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(p, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors as ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Server
	if u, err := url.Parse(c.Server.Endpoint); err != nil || u.Host == "" {
		add("server.endpoint", "invalid URL '%s'", c.Server.Endpoint)
	} else if _, ok := socketSchemes[u.Scheme]; !ok {
		add("server.endpoint", "unsupported scheme '%s', must be one of: http, https, ws, wss", u.Scheme)
	}
	if !strings.HasPrefix(c.Server.SocketPath, "/") {
		add("server.socket_path", "must start with '/'")
	}
	if !strings.HasPrefix(c.Server.ModelsPath, "/") {
		add("server.models_path", "must start with '/'")
	}
	if c.Server.ReconnectDelayMs < minReconnectDelayMs {
		add("server.reconnect_delay_ms", "must be at least %d", minReconnectDelayMs)
	}
	if c.Server.HandshakeTimeoutMs <= 0 {
		add("server.handshake_timeout_ms", "must be positive")
	}
	if c.Server.RequestTimeoutMs <= 0 {
		add("server.request_timeout_ms", "must be positive")
	}

	// Storage
	if _, err := storage.ParseBackend(c.Storage.Backend); err != nil {
		add("storage.backend", "invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend)
	}

	// UI
	if !contains(ValidThemes, strings.ToLower(c.UI.Theme)) {
		add("ui.theme", "invalid theme '%s', must be one of: %s", c.UI.Theme, strings.Join(ValidThemes, ", "))
	}
	if _, ok := styles.Registry[strings.ToLower(c.UI.CodeTheme)]; !ok {
		add("ui.code_theme", "unknown code theme '%s'", c.UI.CodeTheme)
	}

	// Log
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "invalid level '%s'", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

var socketSchemes = map[string]string{
	"http":  "ws",
	"https": "wss",
	"ws":    "ws",
	"wss":   "wss",
}

// SocketURL derives the websocket URL from the endpoint: http becomes ws,
// https becomes wss, and the socket path replaces the endpoint path.
func (c *Config) SocketURL() (string, error) {
	u, err := url.Parse(c.Server.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	scheme, ok := socketSchemes[u.Scheme]
	if !ok {
		return "", fmt.Errorf("invalid endpoint: unsupported scheme %q", u.Scheme)
	}
	u.Scheme = scheme
	u.Path = path.Join("/", strings.TrimSuffix(u.Path, "/"), c.Server.SocketPath)
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// HTTPEndpoint returns the endpoint with a ws scheme mapped back to http,
// for the models fetch.
func (c *Config) HTTPEndpoint() string {
	e := c.Server.Endpoint
	switch {
	case strings.HasPrefix(e, "ws://"):
		return "http://" + strings.TrimPrefix(e, "ws://")
	case strings.HasPrefix(e, "wss://"):
		return "https://" + strings.TrimPrefix(e, "wss://")
	}
	return e
}

// ReconnectDelay returns server.reconnect_delay_ms as a duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Server.ReconnectDelayMs) * time.Millisecond
}

// HandshakeTimeout returns server.handshake_timeout_ms as a duration.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Server.HandshakeTimeoutMs) * time.Millisecond
}

// RequestTimeout returns server.request_timeout_ms as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutMs) * time.Millisecond
}

// DataDir resolves storage.data_dir, defaulting to the config directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return expandHome(c.Storage.DataDir)
	}
	return ConfigDir()
}

// LogFile resolves log.file, defaulting to tinychat.log in the config directory.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultLogFileName), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - TINYCHAT_ENDPOINT: overrides server.endpoint
//   - TINYCHAT_MODEL: overrides server.model
//   - TINYCHAT_DATA_DIR: overrides storage.data_dir
//   - TINYCHAT_STORAGE: overrides storage.backend
//   - TINYCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TINYCHAT_ENDPOINT"); v != "" {
		c.Server.Endpoint = v
	}
	if v := os.Getenv("TINYCHAT_MODEL"); v != "" {
		c.Server.Model = v
	}
	if v := os.Getenv("TINYCHAT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("TINYCHAT_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("TINYCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get returns a value by its dotted TOML key (e.g. "server.endpoint").
func (c *Config) Get(key string) (any, error) {
	field, err := c.field(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field named by its dotted TOML key.
func (c *Config) Set(key, value string) error {
	field, err := c.field(key)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Kind())
	}
	return nil
}

func (c *Config) field(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key %q, expected section.name", key)
	}
	section, ok := fieldByTag(reflect.ValueOf(c).Elem(), parts[0])
	if !ok || section.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("unknown section: %s", parts[0])
	}
	field, ok := fieldByTag(section, parts[1])
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown field: %s", key)
	}
	return field, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// Keys returns every dotted key, sorted.
func Keys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, tomlName(section)+"."+tomlName(section.Type.Field(j)))
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
