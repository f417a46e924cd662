// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ingest

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/docassist/services/vectorstore"
	"github.com/tmc/langchaingo/textsplitter"
)

// chunkSeparators split on paragraph, line and sentence boundaries
// before falling back to words and characters.
var chunkSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// newSplitter builds the recursive character splitter used for every
// document type.
func newSplitter(chunkSize, chunkOverlap int) textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(chunkSeparators),
	)
}

// chunkPages splits each page and assembles the store chunks. The chunk
// index runs across the whole document so deterministic IDs stay stable
// page to page.
func chunkPages(splitter textsplitter.TextSplitter, documentID, documentName, source string,
	pages []Page) ([]vectorstore.Chunk, error) {

	totalPages := 0
	for _, page := range pages {
		if page.Number > totalPages {
			totalPages = page.Number
		}
	}

	chunks := make([]vectorstore.Chunk, 0, len(pages))
	index := 0
	for _, page := range pages {
		parts, err := splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, vectorstore.Chunk{
				DocumentID:   documentID,
				DocumentName: documentName,
				ChunkIndex:   index,
				PageNumber:   page.Number,
				TotalPages:   totalPages,
				Source:       source,
				Text:         part,
			})
			index++
		}
	}
	return chunks, nil
}
