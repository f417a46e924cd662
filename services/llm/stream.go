// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "github.com/AleutianAI/docassist/services/orchestrator/datatypes"

// StreamEventType discriminates the events flowing through a stream.
type StreamEventType string

const (
	// StreamEventToken carries one generated text fragment.
	StreamEventToken StreamEventType = "token"

	// StreamEventSources carries the citations backing the answer.
	StreamEventSources StreamEventType = "sources"

	// StreamEventDone marks the end of a successful stream.
	StreamEventDone StreamEventType = "done"

	// StreamEventError marks an aborted stream. Error holds the cause.
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one append-only event in a streamed answer. Events are
// emitted in order and never retracted; consumers concatenate token
// contents to reconstruct the full answer.
type StreamEvent struct {
	Type    StreamEventType        `json:"type"`
	Content string                 `json:"content,omitempty"`
	Sources []datatypes.SourceInfo `json:"sources,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// StreamCallback receives stream events as they are produced. Returning
// an error stops the stream; the producer propagates that error.
type StreamCallback func(event StreamEvent) error
