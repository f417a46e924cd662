// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// StreamEvent is one Server-Sent Event on the chat stream.
//
// # Description
//
// Events carry incremental answer tokens, the citation list, and
// terminal done or error markers. Each event is stamped with an Id and
// CreatedAt, and chained to its predecessor through Hash and PrevHash
// so a client can verify that no event was dropped or reordered.
//
// # Fields
//
//   - Id: UUID v4, assigned by the writer.
//   - Type: one of "token", "sources", "done", "error".
//   - CreatedAt: Unix milliseconds, assigned by the writer.
//   - Content: token text; only on token events.
//   - Sources: citations; only on sources events.
//   - Error: client-safe message; only on error events.
//   - RequestId: correlates the stream with the ChatRequest; on done.
//   - Hash: SHA-256 over this event's content fields.
//   - PrevHash: Hash of the previous event, empty on the first.
type StreamEvent struct {
	Id        string       `json:"id"`
	Type      string       `json:"type"`
	CreatedAt int64        `json:"created_at"`
	Content   string       `json:"content,omitempty"`
	Sources   []SourceInfo `json:"sources,omitempty"`
	Error     string       `json:"error,omitempty"`
	RequestId string       `json:"request_id,omitempty"`
	Hash      string       `json:"hash"`
	PrevHash  string       `json:"prev_hash,omitempty"`
}
