// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/docassist/services/ingest"
	"github.com/AleutianAI/docassist/services/llm"
	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/rag"
	"github.com/AleutianAI/docassist/services/vectorstore"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

type mockLLMClient struct{}

func (m *mockLLMClient) Chat(_ context.Context, _ []datatypes.Message,
	_ llm.GenerationParams) (string, error) {
	return "mock chat response", nil
}

func (m *mockLLMClient) ChatStream(_ context.Context, _ []datatypes.Message,
	_ llm.GenerationParams, callback llm.StreamCallback) (string, error) {
	_ = callback(llm.StreamEvent{Type: llm.StreamEventToken, Content: "mock stream"})
	return "mock stream", nil
}

type mockRetriever struct{}

func (m *mockRetriever) Retrieve(_ context.Context, _ string) ([]vectorstore.ScoredChunk, error) {
	return nil, nil
}

type mockStore struct {
	vectorstore.Store
}

type mockEmbedder struct{}

func (mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1}, nil
}

func (mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1}
	}
	return vectors, nil
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersAllRoutes(t *testing.T) {
	router := gin.New()
	workflow, err := rag.NewWorkflow(&mockRetriever{}, &mockLLMClient{}, llm.GenerationParams{})
	require.NoError(t, err)
	manager, err := ingest.NewManager(&mockStore{}, mockEmbedder{}, ingest.Options{})
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	SetupRoutes(router, workflow, manager, t.TempDir())

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/chat"},
		{"POST", "/v1/chat/stream"},
		{"POST", "/v1/mask"},
		{"POST", "/v1/documents"},
		{"GET", "/v1/documents"},
		{"GET", "/v1/documents/stats"},
		{"DELETE", "/v1/documents"},
		{"DELETE", "/v1/documents/:documentId"},
	}

	routes := router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range routes {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		assert.True(t, found, "route %s %s not registered", want.method, want.path)
	}
}

func TestSetupRoutes_HealthResponds(t *testing.T) {
	router := gin.New()
	workflow, err := rag.NewWorkflow(&mockRetriever{}, &mockLLMClient{}, llm.GenerationParams{})
	require.NoError(t, err)
	manager, err := ingest.NewManager(&mockStore{}, mockEmbedder{}, ingest.Options{})
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	SetupRoutes(router, workflow, manager, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
