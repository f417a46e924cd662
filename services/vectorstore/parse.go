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
	"sort"

	"github.com/weaviate/weaviate/entities/models"
)

// parseQueryResponse turns the GraphQL Get payload into scored chunks,
// preserving Weaviate's nearest-first ordering. Malformed entries are
// skipped rather than failing the whole query.
func parseQueryResponse(data map[string]models.JSONObject) ([]ScoredChunk, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return []ScoredChunk{}, nil
	}
	objects, ok := get[ClassName].([]interface{})
	if !ok {
		return []ScoredChunk{}, nil
	}

	chunks := make([]ScoredChunk, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		chunk := ScoredChunk{
			Chunk: Chunk{
				DocumentID:   asString(m["document_id"]),
				DocumentName: asString(m["document_name"]),
				ChunkIndex:   asInt(m["chunk_index"]),
				PageNumber:   asInt(m["page_number"]),
				TotalPages:   asInt(m["total_pages"]),
				Source:       asString(m["source"]),
				Text:         asString(m["text"]),
			},
		}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			chunk.Distance = asFloat(additional["distance"])
		}
		chunk.Similarity = Similarity(chunk.Distance)
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// parseDocumentGroups turns the Aggregate group-by payload into document
// summaries, sorted by document id for stable listings.
func parseDocumentGroups(data map[string]models.JSONObject) ([]DocumentInfo, error) {
	docs := []DocumentInfo{}
	aggMap, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return docs, nil
	}
	groups, ok := aggMap[ClassName].([]interface{})
	if !ok {
		return docs, nil
	}

	for _, groupItem := range groups {
		groupMap, ok := groupItem.(map[string]interface{})
		if !ok {
			continue
		}
		info := DocumentInfo{}
		if groupedBy, ok := groupMap["groupedBy"].(map[string]interface{}); ok {
			info.DocumentID = asString(groupedBy["value"])
		}
		if meta, ok := groupMap["meta"].(map[string]interface{}); ok {
			info.Chunks = asInt(meta["count"])
		}
		if info.DocumentID == "" {
			continue
		}
		docs = append(docs, info)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].DocumentID < docs[j].DocumentID })
	return docs, nil
}

// parseChunkCount extracts the total object count from an ungrouped
// Aggregate payload.
func parseChunkCount(data map[string]models.JSONObject) (int, error) {
	aggMap, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	groups, ok := aggMap[ClassName].([]interface{})
	if !ok || len(groups) == 0 {
		return 0, nil
	}
	groupMap, ok := groups[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := groupMap["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	return asInt(meta["count"]), nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asInt(v interface{}) int {
	return int(asFloat(v))
}
