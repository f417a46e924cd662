// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package embedding turns text into dense vectors through a pluggable
// provider. Queries and document chunks must be embedded by the same
// provider and model or the similarity scores are meaningless.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Provider computes embedding vectors for text.
type Provider interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider builds the configured embedding backend. Recognized
// providers are "ollama" (the default) and "openai".
func NewProvider(provider, model string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "ollama":
		return NewOllamaProvider(model)
	case "openai":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", provider)
	}
}
