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
	"fmt"
	"strings"

	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/vectorstore"
)

// NoDocumentsContext is the sentinel fed to the LLM when retrieval ran
// but nothing cleared the threshold. User-facing text stays in
// Portuguese: it ends up quoted in answers.
const NoDocumentsContext = "Nenhum documento relevante foi encontrado."

// FormatContext renders retrieved chunks into the evidence block for
// the prompt. Each chunk becomes a bracketed header with its source
// document, page and relevance score, followed by the chunk text;
// blocks are separated by a "---" divider.
func FormatContext(chunks []vectorstore.ScoredChunk) string {
	if len(chunks) == 0 {
		return NoDocumentsContext
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		name := chunk.DocumentName
		if name == "" {
			name = "Desconhecido"
		}
		var page interface{} = "?"
		if chunk.PageNumber > 0 {
			page = chunk.PageNumber
		}
		parts = append(parts, fmt.Sprintf(
			"[Documento %d: %s - Página %v - Relevância: %.2f]\n%s\n",
			i+1, name, page, chunk.Similarity, chunk.Text))
	}
	return strings.Join(parts, "\n---\n")
}

// CollectSources builds the citation list for the answer. Exact
// duplicate citations (same document, page and score) collapse to one
// entry; first-seen order is preserved.
func CollectSources(chunks []vectorstore.ScoredChunk) []datatypes.SourceInfo {
	sources := make([]datatypes.SourceInfo, 0, len(chunks))
	seen := make(map[datatypes.SourceInfo]bool, len(chunks))
	for _, chunk := range chunks {
		source := datatypes.SourceInfo{
			DocumentName: chunk.DocumentName,
			PageNumber:   chunk.PageNumber,
			Score:        chunk.Similarity,
		}
		if seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	return sources
}
