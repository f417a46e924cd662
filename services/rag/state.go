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
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/vectorstore"
)

// State identifies a step of the answer pipeline.
type State int

const (
	// StateAnalyze decides whether the query needs document retrieval.
	StateAnalyze State = iota

	// StateRetrieve fetches relevant chunks from the vector index.
	StateRetrieve

	// StateFormat renders the retrieved chunks into the prompt context.
	StateFormat

	// StateGenerate produces the answer with the LLM.
	StateGenerate

	// StateDone is the terminal state.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateAnalyze:
		return "analyze"
	case StateRetrieve:
		return "retrieve"
	case StateFormat:
		return "format"
	case StateGenerate:
		return "generate"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// QueryContext is the value threaded through the pipeline. Transitions
// receive it by value and return an updated copy, so a step can only
// change what it explicitly sets.
type QueryContext struct {
	// Query is the user's question, verbatim.
	Query string `json:"query"`

	// History is the prior conversation, oldest first.
	History []datatypes.Message `json:"history,omitempty"`

	// NeedsRetrieval is decided by StateAnalyze.
	NeedsRetrieval bool `json:"needs_retrieval"`

	// Chunks holds the retrieved evidence, most similar first.
	Chunks []vectorstore.ScoredChunk `json:"chunks,omitempty"`

	// Sources are the deduplicated citations backing the answer.
	Sources []datatypes.SourceInfo `json:"sources,omitempty"`

	// Context is the formatted evidence block fed to the LLM.
	Context string `json:"context,omitempty"`

	// Answer is the generated reply.
	Answer string `json:"answer,omitempty"`

	// Error records a recoverable pipeline failure. A set Error means
	// later steps were skipped or degraded.
	Error string `json:"error,omitempty"`
}

// greetings are queries answered without touching the index.
var greetings = map[string]bool{
	"oi":        true,
	"olá":       true,
	"bom dia":   true,
	"boa tarde": true,
	"boa noite": true,
	"hello":     true,
	"hi":        true,
}

// needsRetrieval applies the greeting heuristic: exact greetings and
// queries shorter than 3 characters skip retrieval. Length is counted
// in runes so accented queries are not penalized.
func needsRetrieval(query string) bool {
	trimmed := strings.TrimSpace(query)
	if greetings[strings.ToLower(trimmed)] {
		return false
	}
	return utf8.RuneCountInString(trimmed) >= 3
}
