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
	"fmt"
	"strings"

	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
)

// GenerationParams carries per-request sampling overrides. Nil fields
// fall back to the backend's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	// Chat sends a full conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)

	// ChatStream streams the assistant reply token by token through the
	// callback and returns the accumulated text. A non-nil callback
	// error aborts the stream and is returned to the caller.
	ChatStream(ctx context.Context, messages []datatypes.Message, params GenerationParams,
		callback StreamCallback) (string, error)
}

// NewClient builds the configured LLM backend. Recognized backends are
// "ollama" (the default) and "openai".
func NewClient(backend string) (LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "ollama":
		return NewOllamaClient()
	case "openai":
		return NewOpenAIClient()
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %q", backend)
	}
}
