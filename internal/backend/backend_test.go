// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(endpoint string) *Client {
	return NewClientWithConfig(&ClientConfig{Endpoint: endpoint})
}

// =============================================================================
// LIST MODELS TESTS
// =============================================================================

func TestListModels_SortsIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"b","object":"model"},{"id":"a"}]}`))
	}))
	defer srv.Close()

	ids, err := newTestClient(srv.URL + "/").ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestListModels_CustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{Endpoint: srv.URL, ModelsPath: "/v1/models"})
	ids, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListModels_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListModels(context.Background())
	require.Error(t, err)

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeInvalidResponse, ce.Type)
	assert.Contains(t, err.Error(), "500")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestListModels_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListModels(context.Background())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestListModels_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).ListModels(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestListModels_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClientWithConfig(&ClientConfig{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.ListModels(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	assert.Equal(t, DefaultEndpoint, c.Endpoint())
	assert.Equal(t, DefaultModelsPath, c.config.ModelsPath)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

// =============================================================================
// SORT TESTS
// =============================================================================

func TestSortModels(t *testing.T) {
	in := []string{"gamma", "Beta", "alpha"}
	out := SortModels(in)

	assert.Equal(t, []string{"alpha", "Beta", "gamma"}, out)
	assert.Equal(t, []string{"gamma", "Beta", "alpha"}, in, "input must not be modified")
	assert.Empty(t, SortModels(nil))
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "unreachable", ErrTypeUnreachable.String())
	assert.Equal(t, "timeout", ErrTypeTimeout.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
}
