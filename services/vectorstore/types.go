// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vectorstore persists document chunks and their embedding
// vectors in Weaviate and serves nearest-neighbor queries over them.
package vectorstore

import (
	"context"
	"crypto/md5"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Chunk is one indexed fragment of a document.
type Chunk struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	ChunkIndex   int    `json:"chunk_index"`
	PageNumber   int    `json:"page_number"`
	TotalPages   int    `json:"total_pages"`
	Source       string `json:"source"`
	Text         string `json:"text"`
}

// ScoredChunk is a chunk returned by a similarity query. Similarity is
// 1 - distance rounded to 4 decimal places; for cosine distance it lies
// in [-1, 1], with 1 meaning identical direction.
type ScoredChunk struct {
	Chunk
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// DocumentInfo summarizes one indexed document.
type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// Store is the persistence boundary for indexed chunks. Implementations
// must keep Query results in index order (most similar first) and must
// not re-sort after filtering.
type Store interface {
	// EnsureSchema creates the chunk class if it does not exist.
	EnsureSchema(ctx context.Context) error

	// UpsertChunks writes chunks with their vectors. len(vectors) must
	// equal len(chunks). Returns the number of chunks stored. Chunk IDs
	// are deterministic, so re-ingesting a document overwrites in place.
	UpsertChunks(ctx context.Context, chunks []Chunk, vectors [][]float32) (int, error)

	// Query returns up to topK chunks nearest to vector, optionally
	// restricted by exact-match metadata filters.
	Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]ScoredChunk, error)

	// DeleteDocument removes every chunk of a document and returns how
	// many were deleted.
	DeleteDocument(ctx context.Context, documentID string) (int, error)

	// ListDocuments returns the indexed documents with chunk counts.
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Clear drops every stored chunk and recreates the schema.
	Clear(ctx context.Context) error
}

// ChunkID derives the deterministic object ID for a chunk: a UUID built
// from the md5 of document id, chunk index and the first 100 characters
// of the chunk text. Identical input always maps to the same ID, which
// is what makes re-ingestion an idempotent upsert.
func ChunkID(documentID string, chunkIndex int, text string) string {
	runes := []rune(text)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	seed := fmt.Sprintf("%s_%d_%s", documentID, chunkIndex, string(runes))
	hash := md5.Sum([]byte(seed))
	id, _ := uuid.FromBytes(hash[:])
	return id.String()
}

// Similarity converts a distance into the score stored on ScoredChunk.
func Similarity(distance float64) float64 {
	return math.Round((1-distance)*10000) / 10000
}
