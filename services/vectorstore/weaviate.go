// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("docassist.vectorstore")

// ClassName is the Weaviate class holding document chunks.
const ClassName = "DocumentChunk"

// Config configures the Weaviate connection.
type Config struct {
	Host   string
	Scheme string

	// ConnectRetries bounds the readiness probe at construction.
	ConnectRetries int

	// RetryDelay is the fixed wait between readiness probes.
	RetryDelay time.Duration
}

// EnsureDefaults fills the zero fields with working defaults.
func (c *Config) EnsureDefaults() {
	if c.Scheme == "" {
		c.Scheme = "http"
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
}

// WeaviateStore implements Store against a Weaviate instance.
type WeaviateStore struct {
	client *weaviate.Client
}

var _ Store = (*WeaviateStore)(nil)

// NewWeaviateStore connects to Weaviate and waits for it to become
// ready, probing cfg.ConnectRetries times with cfg.RetryDelay between
// attempts before giving up.
func NewWeaviateStore(ctx context.Context, cfg Config) (*WeaviateStore, error) {
	cfg.EnsureDefaults()
	if cfg.Host == "" {
		return nil, fmt.Errorf("weaviate host must not be empty")
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		ready, err := client.Misc().ReadyChecker().Do(ctx)
		if err == nil && ready {
			slog.Info("Connected to Weaviate", "host", cfg.Host, "attempt", attempt)
			return &WeaviateStore{client: client}, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("weaviate not ready")
		}
		slog.Warn("Weaviate not ready, retrying", "host", cfg.Host,
			"attempt", attempt, "max_attempts", cfg.ConnectRetries, "error", lastErr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("weaviate at %s://%s unreachable after %d attempts: %w",
		cfg.Scheme, cfg.Host, cfg.ConnectRetries, lastErr)
}

// EnsureSchema implements the Store interface.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(ClassName).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check class existence: %w", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      ClassName,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "document_id", DataType: []string{"text"}},
			{Name: "document_name", DataType: []string{"text"}},
			{Name: "chunk_index", DataType: []string{"int"}},
			{Name: "page_number", DataType: []string{"int"}},
			{Name: "total_pages", DataType: []string{"int"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create class %s: %w", ClassName, err)
	}
	slog.Info("Created Weaviate class", "class", ClassName)
	return nil
}

// UpsertChunks implements the Store interface.
func (s *WeaviateStore) UpsertChunks(ctx context.Context, chunks []Chunk,
	vectors [][]float32) (int, error) {

	ctx, span := tracer.Start(ctx, "WeaviateStore.UpsertChunks")
	defer span.End()
	span.SetAttributes(attribute.Int("vectorstore.chunk_count", len(chunks)))

	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk count %d does not match vector count %d",
			len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		objects[i] = &models.Object{
			Class:  ClassName,
			ID:     strfmt.UUID(ChunkID(chunk.DocumentID, chunk.ChunkIndex, chunk.Text)),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"document_id":   chunk.DocumentID,
				"document_name": chunk.DocumentName,
				"chunk_index":   chunk.ChunkIndex,
				"page_number":   chunk.PageNumber,
				"total_pages":   chunk.TotalPages,
				"source":        chunk.Source,
				"text":          chunk.Text,
			},
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	stored := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			stored++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "error", errItem.Message)
			}
		}
	}
	if stored < len(chunks) {
		slog.Warn("Weaviate batch import partially failed",
			"stored", stored, "requested", len(chunks))
	}
	return stored, nil
}

// Query implements the Store interface.
func (s *WeaviateStore) Query(ctx context.Context, vector []float32, topK int,
	filter map[string]string) ([]ScoredChunk, error) {

	ctx, span := tracer.Start(ctx, "WeaviateStore.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("vectorstore.top_k", topK))

	if topK <= 0 {
		topK = 5
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	fields := []graphql.Field{
		{Name: "document_id"},
		{Name: "document_name"},
		{Name: "chunk_index"},
		{Name: "page_number"},
		{Name: "total_pages"},
		{Name: "source"},
		{Name: "text"},
		{Name: "_additional { distance }"},
	}

	query := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK)

	if len(filter) > 0 {
		query = query.WithWhere(whereFromFilter(filter))
	}

	result, err := query.Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("weaviate query failed: %w", err)
	}
	if len(result.Errors) > 0 {
		err := fmt.Errorf("weaviate query error: %s", result.Errors[0].Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return parseQueryResponse(result.Data)
}

// DeleteDocument implements the Store interface.
func (s *WeaviateStore) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	ctx, span := tracer.Start(ctx, "WeaviateStore.DeleteDocument")
	defer span.End()
	span.SetAttributes(attribute.String("vectorstore.document_id", documentID))

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(ClassName).
		WithWhere(filters.Where().
			WithPath([]string{"document_id"}).
			WithOperator(filters.Equal).
			WithValueString(documentID)).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}

	deleted := 0
	if resp != nil && resp.Results != nil {
		deleted = int(resp.Results.Successful)
	}
	slog.Info("Deleted document chunks", "document_id", documentID, "deleted", deleted)
	return deleted, nil
}

// ListDocuments implements the Store interface.
func (s *WeaviateStore) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	agg, err := s.client.GraphQL().Aggregate().
		WithClassName(ClassName).
		WithGroupBy("document_id").
		WithFields(
			graphql.Field{Name: "groupedBy", Fields: []graphql.Field{{Name: "value"}}},
			graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}},
		).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate documents: %w", err)
	}
	if len(agg.Errors) > 0 {
		return nil, fmt.Errorf("weaviate aggregate error: %s", agg.Errors[0].Message)
	}

	return parseDocumentGroups(agg.Data)
}

// Count implements the Store interface.
func (s *WeaviateStore) Count(ctx context.Context) (int, error) {
	agg, err := s.client.GraphQL().Aggregate().
		WithClassName(ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	if len(agg.Errors) > 0 {
		return 0, fmt.Errorf("weaviate aggregate error: %s", agg.Errors[0].Message)
	}

	return parseChunkCount(agg.Data)
}

// Clear implements the Store interface. The class is dropped and
// recreated rather than deleted object by object.
func (s *WeaviateStore) Clear(ctx context.Context) error {
	if err := s.client.Schema().ClassDeleter().WithClassName(ClassName).Do(ctx); err != nil {
		return fmt.Errorf("failed to drop class %s: %w", ClassName, err)
	}
	slog.Info("Dropped Weaviate class", "class", ClassName)
	return s.EnsureSchema(ctx)
}

func whereFromFilter(filter map[string]string) *filters.WhereBuilder {
	operands := make([]*filters.WhereBuilder, 0, len(filter))
	for key, value := range filter {
		operands = append(operands, filters.Where().
			WithPath([]string{key}).
			WithOperator(filters.Equal).
			WithValueString(value))
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}
