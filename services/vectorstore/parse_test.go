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
	"testing"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID_Deterministic(t *testing.T) {
	t.Parallel()

	first := ChunkID("manual.pdf", 3, "conteúdo do capítulo")
	second := ChunkID("manual.pdf", 3, "conteúdo do capítulo")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, ChunkID("manual.pdf", 4, "conteúdo do capítulo"))
	assert.NotEqual(t, first, ChunkID("outro.pdf", 3, "conteúdo do capítulo"))
}

func TestChunkID_OnlyFirstHundredCharactersMatter(t *testing.T) {
	t.Parallel()

	prefix := ""
	for i := 0; i < 100; i++ {
		prefix += "á" // multibyte on purpose, the cut is by character
	}

	assert.Equal(t,
		ChunkID("doc", 0, prefix+"tail one"),
		ChunkID("doc", 0, prefix+"another tail"))
	assert.NotEqual(t,
		ChunkID("doc", 0, prefix[:len(prefix)/2]),
		ChunkID("doc", 0, prefix))
}

func TestSimilarity_Rounding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		distance float64
		expected float64
	}{
		{distance: 0, expected: 1},
		{distance: 0.25, expected: 0.75},
		{distance: 0.123456, expected: 0.8765},
		{distance: 1.5, expected: -0.5},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, Similarity(tt.distance), 1e-9)
	}
}

func TestParseQueryResponse_PreservesOrder(t *testing.T) {
	t.Parallel()

	data := map[string]models.JSONObject{
		"Get": map[string]interface{}{
			ClassName: []interface{}{
				map[string]interface{}{
					"document_id":   "manual.pdf",
					"document_name": "manual.pdf",
					"chunk_index":   float64(0),
					"page_number":   float64(2),
					"total_pages":   float64(10),
					"source":        "manual.pdf",
					"text":          "primeiro trecho",
					"_additional":   map[string]interface{}{"distance": 0.1},
				},
				map[string]interface{}{
					"document_id":   "manual.pdf",
					"document_name": "manual.pdf",
					"chunk_index":   float64(7),
					"page_number":   float64(5),
					"total_pages":   float64(10),
					"source":        "manual.pdf",
					"text":          "segundo trecho",
					"_additional":   map[string]interface{}{"distance": 0.4},
				},
			},
		},
	}

	chunks, err := parseQueryResponse(data)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "primeiro trecho", chunks[0].Text)
	assert.Equal(t, 2, chunks[0].PageNumber)
	assert.InDelta(t, 0.9, chunks[0].Similarity, 1e-9)
	assert.Equal(t, "segundo trecho", chunks[1].Text)
	assert.InDelta(t, 0.6, chunks[1].Similarity, 1e-9)
}

func TestParseQueryResponse_SkipsMalformedObjects(t *testing.T) {
	t.Parallel()

	data := map[string]models.JSONObject{
		"Get": map[string]interface{}{
			ClassName: []interface{}{
				"not an object",
				map[string]interface{}{
					"document_id": "doc",
					"text":        "ok",
					"_additional": map[string]interface{}{"distance": 0.2},
				},
			},
		},
	}

	chunks, err := parseQueryResponse(data)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "ok", chunks[0].Text)
}

func TestParseQueryResponse_EmptyPayload(t *testing.T) {
	t.Parallel()

	chunks, err := parseQueryResponse(map[string]models.JSONObject{})

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestParseDocumentGroups(t *testing.T) {
	t.Parallel()

	data := map[string]models.JSONObject{
		"Aggregate": map[string]interface{}{
			ClassName: []interface{}{
				map[string]interface{}{
					"groupedBy": map[string]interface{}{"value": "zebra.pdf"},
					"meta":      map[string]interface{}{"count": float64(4)},
				},
				map[string]interface{}{
					"groupedBy": map[string]interface{}{"value": "atlas.pdf"},
					"meta":      map[string]interface{}{"count": float64(12)},
				},
			},
		},
	}

	docs, err := parseDocumentGroups(data)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, DocumentInfo{DocumentID: "atlas.pdf", Chunks: 12}, docs[0],
		"listing is sorted by document id")
	assert.Equal(t, DocumentInfo{DocumentID: "zebra.pdf", Chunks: 4}, docs[1])
}

func TestParseChunkCount(t *testing.T) {
	t.Parallel()

	data := map[string]models.JSONObject{
		"Aggregate": map[string]interface{}{
			ClassName: []interface{}{
				map[string]interface{}{
					"meta": map[string]interface{}{"count": float64(42)},
				},
			},
		},
	}

	count, err := parseChunkCount(data)

	require.NoError(t, err)
	assert.Equal(t, 42, count)

	count, err = parseChunkCount(map[string]models.JSONObject{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
