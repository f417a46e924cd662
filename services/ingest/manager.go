// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ingest turns PDF and text files into indexed, embedded chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AleutianAI/docassist/services/embedding"
	"github.com/AleutianAI/docassist/services/masking"
	"github.com/AleutianAI/docassist/services/vectorstore"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("docassist.ingest")

// Options tunes the ingestion pipeline.
type Options struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// ChunkOverlap is how many characters neighboring chunks share.
	ChunkOverlap int

	// MaxFileBytes caps the size of a single file.
	MaxFileBytes int64

	// MaskPII runs the masking engine over extracted text before it is
	// chunked and indexed.
	MaskPII bool

	// MaskChar is the substitution character for masking.
	MaskChar string
}

// EnsureDefaults fills zero fields with the service defaults.
func (o *Options) EnsureDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = 200
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = 50 << 20 // 50 MiB
	}
	if o.MaskChar == "" {
		o.MaskChar = masking.DefaultMaskChar
	}
}

// IndexResult summarizes one ingested file.
type IndexResult struct {
	DocumentID string `json:"document_id"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

// FileResult is the per-file outcome inside a batch.
type FileResult struct {
	File       string `json:"file"`
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}

// BatchReport aggregates a whole batch.
type BatchReport struct {
	Results   []FileResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// ProgressFunc is invoked after each file of a batch finishes.
type ProgressFunc func(done, total int, result FileResult)

// Stats reports the current index size.
type Stats struct {
	Documents   int `json:"documents"`
	TotalChunks int `json:"total_chunks"`
}

// Manager owns the ingestion pipeline: extract, optionally mask, chunk,
// embed and upsert.
//
// # Thread Safety
//
// Safe for concurrent use. Background batches run on a single-worker
// pool, so queued jobs execute one at a time in submission order.
type Manager struct {
	store    vectorstore.Store
	embedder embedding.Provider
	opts     Options
	pool     *ants.Pool
}

// NewManager creates an ingestion manager.
func NewManager(store vectorstore.Store, embedder embedding.Provider, opts Options) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	if embedder == nil {
		return nil, errors.New("embedder must not be nil")
	}
	opts.EnsureDefaults()

	// One worker on purpose: ingestion is IO and embedding bound, and a
	// single lane keeps batches ordered without locking the store.
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion pool: %w", err)
	}
	return &Manager{store: store, embedder: embedder, opts: opts, pool: pool}, nil
}

// Close releases the background worker pool.
func (m *Manager) Close() {
	m.pool.Release()
}

// IndexFile ingests a single file.
//
// # Description
//
// Validates the file (supported extension, size cap), extracts its
// pages, masks PII when enabled, chunks the text, embeds every chunk in
// one batch and upserts the result. Chunk IDs are deterministic, so
// indexing the same file again overwrites instead of duplicating.
//
// # Outputs
//
//   - *IndexResult: counts for the ingested file.
//   - error: *ValidationError for rejected files; other errors for
//     pipeline failures.
func (m *Manager) IndexFile(ctx context.Context, path string) (*IndexResult, error) {
	ctx, span := tracer.Start(ctx, "Manager.IndexFile")
	defer span.End()
	span.SetAttributes(attribute.String("ingest.file", filepath.Base(path)))

	documentID := filepath.Base(path)

	if !IsSupportedFile(path) {
		return nil, &ValidationError{
			File:   documentID,
			Reason: fmt.Sprintf("unsupported file type %q", filepath.Ext(path)),
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ValidationError{File: documentID, Reason: fmt.Sprintf("cannot stat file: %v", err)}
	}
	if info.Size() > m.opts.MaxFileBytes {
		return nil, &ValidationError{
			File:   documentID,
			Reason: fmt.Sprintf("file size %d exceeds limit %d", info.Size(), m.opts.MaxFileBytes),
		}
	}

	pages, err := ExtractPages(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(pages) == 0 {
		return nil, &ValidationError{File: documentID, Reason: "no extractable text"}
	}

	if m.opts.MaskPII {
		for i := range pages {
			pages[i].Text = masking.MaskAll(pages[i].Text, m.opts.MaskChar, nil)
		}
	}

	splitter := newSplitter(m.opts.ChunkSize, m.opts.ChunkOverlap)
	chunks, err := chunkPages(splitter, documentID, documentID, path, pages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, &ValidationError{File: documentID, Reason: "no chunks produced"}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to embed chunks for %s: %w", documentID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	stored, err := m.store.UpsertChunks(ctx, chunks, vectors)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to store chunks for %s: %w", documentID, err)
	}

	slog.Info("Indexed document", "document_id", documentID,
		"pages", len(pages), "chunks", stored, "masked", m.opts.MaskPII)
	span.SetAttributes(attribute.Int("ingest.chunks", stored))
	return &IndexResult{DocumentID: documentID, Pages: len(pages), Chunks: stored}, nil
}

// ProcessBatch ingests files sequentially. A failing file is recorded
// in the report and the batch moves on; progress fires after each file.
func (m *Manager) ProcessBatch(ctx context.Context, paths []string, progress ProgressFunc) *BatchReport {
	ctx, span := tracer.Start(ctx, "Manager.ProcessBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("ingest.batch_size", len(paths)))

	report := &BatchReport{Results: make([]FileResult, 0, len(paths))}
	for i, path := range paths {
		result := FileResult{File: filepath.Base(path)}

		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			report.Failed++
			report.Results = append(report.Results, result)
			continue
		}

		indexed, err := m.IndexFile(ctx, path)
		if err != nil {
			slog.Warn("Batch file failed", "file", path, "error", err)
			result.Error = err.Error()
			report.Failed++
		} else {
			result.DocumentID = indexed.DocumentID
			result.Chunks = indexed.Chunks
			report.Succeeded++
		}
		report.Results = append(report.Results, result)
		if progress != nil {
			progress(i+1, len(paths), result)
		}
	}
	return report
}

// EnqueueBatch schedules a batch on the background worker and returns
// immediately. Jobs run one at a time in submission order.
func (m *Manager) EnqueueBatch(ctx context.Context, paths []string) error {
	err := m.pool.Submit(func() {
		report := m.ProcessBatch(context.WithoutCancel(ctx), paths, nil)
		slog.Info("Background batch finished",
			"files", len(paths), "succeeded", report.Succeeded, "failed", report.Failed)
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue ingestion batch: %w", err)
	}
	return nil
}

// ListDocuments returns the indexed documents with chunk counts.
func (m *Manager) ListDocuments(ctx context.Context) ([]vectorstore.DocumentInfo, error) {
	return m.store.ListDocuments(ctx)
}

// DeleteDocument removes one document from the index and returns how
// many chunks were deleted.
func (m *Manager) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	return m.store.DeleteDocument(ctx, documentID)
}

// Clear drops the whole index.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Stats reports document and chunk counts.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	docs, err := m.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	count, err := m.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Documents: len(docs), TotalChunks: count}, nil
}
