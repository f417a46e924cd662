// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Env mutation keeps these tests serial (no t.Parallel).

func withBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_BACKEND_TYPE", "ollama")
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PORT", "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	withBaseEnv(t)

	cfg, err := Load(writeConfig(t, ""))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:8081", cfg.Weaviate.Host)
	assert.Equal(t, "ollama", cfg.LLM.Backend)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.True(t, cfg.LLM.Streaming)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.7, cfg.Retrieval.ScoreThreshold, 1e-9)
	assert.True(t, cfg.Ingestion.MaskPII, "masking defaults to on")
	assert.Equal(t, "*", cfg.Ingestion.MaskChar)
}

func TestLoad_YamlOverrides(t *testing.T) {
	withBaseEnv(t)

	path := writeConfig(t, `
server:
  port: 9090
llm:
  temperature: 0.2
  streaming: false
chunking:
  chunk_size: 500
  chunk_overlap: 50
retrieval:
  top_k: 3
  score_threshold: 0.5
ingestion:
  mask_pii: false
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.False(t, cfg.LLM.Streaming)
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.5, cfg.Retrieval.ScoreThreshold, 1e-9)
	assert.False(t, cfg.Ingestion.MaskPII, "explicit opt-out is honored")
}

func TestLoad_EnvOverridesPort(t *testing.T) {
	withBaseEnv(t)
	t.Setenv("PORT", "3000")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))

	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	withBaseEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestLoad_MissingOpenAIKeyFails(t *testing.T) {
	withBaseEnv(t)
	t.Setenv("LLM_BACKEND_TYPE", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load(writeConfig(t, ""))

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_MissingOllamaURLFails(t *testing.T) {
	withBaseEnv(t)
	t.Setenv("OLLAMA_BASE_URL", "")

	_, err := Load(writeConfig(t, ""))

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "OLLAMA_BASE_URL")
}

func TestLoad_OverlapMustBeSmallerThanSize(t *testing.T) {
	withBaseEnv(t)

	_, err := Load(writeConfig(t, "chunking:\n  chunk_size: 100\n  chunk_overlap: 100\n"))

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoad_InvalidYamlFails(t *testing.T) {
	withBaseEnv(t)

	_, err := Load(writeConfig(t, "::not yaml::"))

	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
