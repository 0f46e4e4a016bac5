// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/loorisr/tinychat/internal/backend"
	"github.com/loorisr/tinychat/internal/config"
	"github.com/loorisr/tinychat/internal/session"
	"github.com/loorisr/tinychat/internal/socket"
	"github.com/loorisr/tinychat/internal/storage"
)

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app bundles everything a chat command needs: storage, history, the
// backend client and, when a sink is given, the socket and the session.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	kv      storage.KV
	history *storage.History
	client  *backend.Client
	socket  *socket.Manager
	session *session.Session

	closeOnce sync.Once
}

// openStore opens the configured KV store, or a memory store when ephemeral.
func openStore(cfg *config.Config, ephemeral bool) (storage.KV, error) {
	if ephemeral {
		return storage.NewMemoryKV(), nil
	}
	b, err := storage.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	kv, err := storage.Open(b, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage in %s: %w", b, dir, err)
	}
	return kv, nil
}

// newStoreApp opens storage and history only.
func newStoreApp(opts *globalOptions) (*app, error) {
	kv, err := openStore(opts.cfg, opts.ephemeral)
	if err != nil {
		return nil, err
	}
	hist, err := storage.LoadHistory(kv, opts.logger)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return &app{
		cfg:     opts.cfg,
		log:     opts.logger,
		kv:      kv,
		history: hist,
		client:  newBackendClient(opts.cfg),
	}, nil
}

// newChatApp opens storage and creates the socket manager and session.
// The socket is not started; call start once the sink can receive events.
func newChatApp(opts *globalOptions, sink socket.Sink) (*app, error) {
	a, err := newStoreApp(opts)
	if err != nil {
		return nil, err
	}
	wsURL, err := a.cfg.SocketURL()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.socket = socket.New(socket.Options{
		URL:              wsURL,
		ReconnectDelay:   a.cfg.ReconnectDelay(),
		HandshakeTimeout: a.cfg.HandshakeTimeout(),
		Logger:           a.log,
	}, sink)

	a.session = session.New(session.Config{
		Transport: a.socket,
		KV:        a.kv,
		History:   a.history,
		Logger:    a.log,
	})
	if a.cfg.Server.Model != "" {
		a.session.UseModel(a.cfg.Server.Model)
	}
	return a, nil
}

func newBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClientWithConfig(&backend.ClientConfig{
		Endpoint:   cfg.HTTPEndpoint(),
		ModelsPath: cfg.Server.ModelsPath,
		Timeout:    cfg.RequestTimeout(),
	})
}

func (a *app) start() {
	a.log.Info("Connecting", zap.String("url", a.socket.URL()))
	a.socket.Start()
}

// Close stops the socket and closes storage. Safe to call more than once.
func (a *app) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.socket != nil {
			errs = append(errs, a.socket.Close())
		}
		errs = append(errs, a.kv.Close())
	})
	return errors.Join(errs...)
}
