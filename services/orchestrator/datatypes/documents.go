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

// =============================================================================
// Document Management
// =============================================================================

// DocumentSummary is one indexed document in a listing.
type DocumentSummary struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

// DocumentListResponse is the body of GET /v1/documents.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// UploadFileResult is the per-file outcome of an upload batch.
type UploadFileResult struct {
	File       string `json:"file"`
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}

// UploadResponse is the body of POST /v1/documents.
type UploadResponse struct {
	Results   []UploadFileResult `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// DeleteDocumentResponse is the body of DELETE /v1/documents/:documentId.
type DeleteDocumentResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

// StatsResponse is the body of GET /v1/documents/stats.
type StatsResponse struct {
	Documents   int `json:"documents"`
	TotalChunks int `json:"total_chunks"`
}

// =============================================================================
// Masking
// =============================================================================

// MaskRequest is the body of POST /v1/mask.
//
// # Fields
//
//   - Text: Required. The text to redact, up to 32KB.
//   - Types: Optional. Masking categories to apply; empty means all.
//   - MaskChar: Optional. Substitution character, defaults to "*".
type MaskRequest struct {
	Text     string   `json:"text" validate:"required,maxbytes"`
	Types    []string `json:"types" validate:"max=16"`
	MaskChar string   `json:"mask_char" validate:"omitempty,len=1"`
}

// Validate validates the MaskRequest fields.
func (r *MaskRequest) Validate() error {
	return validate.Struct(r)
}

// MaskResponse is the body returned by POST /v1/mask.
type MaskResponse struct {
	MaskedText string `json:"masked_text"`
}
