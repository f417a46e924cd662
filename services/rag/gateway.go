// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/docassist/services/embedding"
	"github.com/AleutianAI/docassist/services/vectorstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("docassist.rag")

// DocumentRetriever is the retrieval boundary the workflow depends on.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string) ([]vectorstore.ScoredChunk, error)
}

// RetrieveOptions tunes the retrieval gateway.
type RetrieveOptions struct {
	// TopK is how many chunks to request from the index.
	TopK int

	// ScoreThreshold drops chunks scoring below it. Similarity is
	// 1 - distance, so 0.7 keeps only close matches.
	ScoreThreshold float64

	// Filter restricts retrieval to chunks matching these metadata
	// fields exactly. Optional.
	Filter map[string]string
}

// EnsureDefaults fills zero fields with the service defaults.
func (o *RetrieveOptions) EnsureDefaults() {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.ScoreThreshold == 0 {
		o.ScoreThreshold = 0.7
	}
}

// Gateway embeds the query and searches the vector index.
//
// # Description
//
// Gateway is the single entry to the retrieval path. It never panics:
// every failure comes back as a *RetrievalError so the workflow can
// degrade to an error answer instead of crashing the request.
//
// # Thread Safety
//
// Safe for concurrent use; it holds no mutable state.
type Gateway struct {
	store    vectorstore.Store
	embedder embedding.Provider
	opts     RetrieveOptions
}

var _ DocumentRetriever = (*Gateway)(nil)

// NewGateway creates a retrieval gateway.
func NewGateway(store vectorstore.Store, embedder embedding.Provider,
	opts RetrieveOptions) (*Gateway, error) {

	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	if embedder == nil {
		return nil, errors.New("embedder must not be nil")
	}
	opts.EnsureDefaults()
	return &Gateway{store: store, embedder: embedder, opts: opts}, nil
}

// Retrieve implements the DocumentRetriever interface.
//
// # Description
//
// Embeds the query, asks the index for the TopK nearest chunks and
// drops everything under the score threshold. The surviving chunks keep
// the index order; no re-ranking happens here.
//
// # Outputs
//
//   - []vectorstore.ScoredChunk: may be empty when nothing clears the
//     threshold. Empty is not an error.
//   - error: *RetrievalError on embedding or index failure.
func (g *Gateway) Retrieve(ctx context.Context, query string) ([]vectorstore.ScoredChunk, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("rag.top_k", g.opts.TopK))
	span.SetAttributes(attribute.Float64("rag.score_threshold", g.opts.ScoreThreshold))

	vector, err := g.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &RetrievalError{
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("failed to embed query: %v", err),
			Retryable:  true,
		}
	}

	chunks, err := g.store.Query(ctx, vector, g.opts.TopK, g.opts.Filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &RetrievalError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    fmt.Sprintf("vector index query failed: %v", err),
			Retryable:  true,
		}
	}

	filtered := make([]vectorstore.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Similarity >= g.opts.ScoreThreshold {
			filtered = append(filtered, chunk)
		}
	}

	span.SetAttributes(attribute.Int("rag.chunks_returned", len(filtered)))
	slog.Debug("Retrieved chunks", "requested", g.opts.TopK,
		"candidates", len(chunks), "above_threshold", len(filtered))
	return filtered, nil
}
