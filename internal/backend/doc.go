// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the chat backend's REST
// surface. Chat traffic itself goes over the websocket (package socket);
// this package only fetches the list of available models.
//
// The models endpoint returns an OpenAI-style list:
//
//	GET <endpoint>/models
//	{"data": [{"id": "llama3"}, {"id": "mistral"}]}
//
// Example:
//
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    Endpoint: "http://127.0.0.1:8000",
//	})
//	ids, err := client.ListModels(ctx)
package backend
