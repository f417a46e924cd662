// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestOllamaClient creates an OllamaClient pointing to a test server,
// bypassing environment variable configuration.
func newTestOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

func TestOllamaClient_Chat(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		resp := ollamaChatResponse{
			Message: datatypes.Message{Role: "assistant", Content: "resposta"},
			Done:    true,
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "test-model")
	messages := []datatypes.Message{
		{Role: "system", Content: "Você é um assistente."},
		{Role: "user", Content: "Olá"},
	}

	answer, err := client.Chat(context.Background(), messages, GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "resposta", answer)
}

func TestOllamaClient_Chat_ModelNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'missing' not found"}`))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "missing")

	_, err := client.Chat(context.Background(), []datatypes.Message{{Role: "user", Content: "oi"}},
		GenerationParams{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull missing")
}

func TestOllamaClient_Chat_GenerationParamOverrides(t *testing.T) {
	t.Parallel()

	var gotOptions map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotOptions = req.Options

		resp := ollamaChatResponse{
			Message: datatypes.Message{Role: "assistant", Content: "ok"},
			Done:    true,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	temp := float32(0.7)
	maxTokens := 256
	client := newTestOllamaClient(server.URL, "test-model")

	_, err := client.Chat(context.Background(), []datatypes.Message{{Role: "user", Content: "oi"}},
		GenerationParams{Temperature: &temp, MaxTokens: &maxTokens})

	require.NoError(t, err)
	// json decodes numbers as float64
	assert.InDelta(t, 0.7, gotOptions["temperature"], 0.001)
	assert.InDelta(t, 256, gotOptions["num_predict"], 0.001)
	assert.InDelta(t, 20, gotOptions["top_k"], 0.001, "unset params keep defaults")
}

func TestOllamaClient_ChatStream_EmitsTokensInOrder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Olá"},"done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":", tudo"},"done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" bem?"},"done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "test-model")

	var tokens []string
	answer, err := client.ChatStream(context.Background(),
		[]datatypes.Message{{Role: "user", Content: "oi"}}, GenerationParams{},
		func(event StreamEvent) error {
			require.Equal(t, StreamEventToken, event.Type)
			tokens = append(tokens, event.Content)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"Olá", ", tudo", " bem?"}, tokens)
	assert.Equal(t, "Olá, tudo bem?", answer)
}

func TestOllamaClient_ChatStream_CallbackErrorAborts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"a"},"done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"b"},"done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "test-model")
	abort := errors.New("client went away")

	calls := 0
	partial, err := client.ChatStream(context.Background(),
		[]datatypes.Message{{Role: "user", Content: "oi"}}, GenerationParams{},
		func(event StreamEvent) error {
			calls++
			return abort
		})

	require.Error(t, err)
	assert.ErrorIs(t, err, abort)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", partial)
}

func TestOllamaClient_ChatStream_ErrorChunk(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"par"},"done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"error":"unexpected EOF from model"}` + "\n"))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "test-model")

	partial, err := client.ChatStream(context.Background(),
		[]datatypes.Message{{Role: "user", Content: "oi"}}, GenerationParams{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF from model")
	assert.Equal(t, "par", partial)
}

func TestNewClient_UnsupportedBackend(t *testing.T) {
	t.Parallel()

	_, err := NewClient("bedrock")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM backend")
}
