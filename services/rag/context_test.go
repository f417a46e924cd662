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
	"testing"

	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatContext_EmptyReturnsSentinel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Nenhum documento relevante foi encontrado.", FormatContext(nil))
	assert.Equal(t, NoDocumentsContext, FormatContext([]vectorstore.ScoredChunk{}))
}

func TestFormatContext_RendersNumberedBlocks(t *testing.T) {
	t.Parallel()

	chunks := []vectorstore.ScoredChunk{
		scored("manual.pdf", 3, 0.9123, "Texto do primeiro trecho."),
		scored("guia.pdf", 7, 0.75, "Texto do segundo trecho."),
	}

	got := FormatContext(chunks)

	expected := "[Documento 1: manual.pdf - Página 3 - Relevância: 0.91]\n" +
		"Texto do primeiro trecho.\n" +
		"\n---\n" +
		"[Documento 2: guia.pdf - Página 7 - Relevância: 0.75]\n" +
		"Texto do segundo trecho.\n"
	assert.Equal(t, expected, got)
}

func TestFormatContext_UnknownNameAndPage(t *testing.T) {
	t.Parallel()

	chunk := vectorstore.ScoredChunk{
		Chunk:      vectorstore.Chunk{Text: "trecho sem metadados"},
		Similarity: 0.8,
	}

	got := FormatContext([]vectorstore.ScoredChunk{chunk})

	assert.Contains(t, got, "[Documento 1: Desconhecido - Página ? - Relevância: 0.80]")
}

func TestCollectSources_DedupesExactTuples(t *testing.T) {
	t.Parallel()

	chunks := []vectorstore.ScoredChunk{
		scored("manual.pdf", 3, 0.9, "trecho a"),
		scored("manual.pdf", 3, 0.9, "trecho b"), // same citation, other chunk
		scored("manual.pdf", 4, 0.9, "trecho c"), // other page survives
		scored("manual.pdf", 3, 0.8, "trecho d"), // other score survives
	}

	sources := CollectSources(chunks)

	require.Len(t, sources, 3)
	assert.Equal(t, datatypes.SourceInfo{DocumentName: "manual.pdf", PageNumber: 3, Score: 0.9}, sources[0])
	assert.Equal(t, datatypes.SourceInfo{DocumentName: "manual.pdf", PageNumber: 4, Score: 0.9}, sources[1])
	assert.Equal(t, datatypes.SourceInfo{DocumentName: "manual.pdf", PageNumber: 3, Score: 0.8}, sources[2])
}

func TestCollectSources_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CollectSources(nil))
}
