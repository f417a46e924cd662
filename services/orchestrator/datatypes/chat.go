// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response structures for the
// HTTP service.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxQueryBytes is the maximum size of a query or message content.
	MaxQueryBytes = 32 * 1024 // 32KB

	// MaxHistoryMessages is the maximum conversation history length.
	MaxHistoryMessages = 100
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// validate is the validator for all request datatypes, initialized with
// the custom byte-size validator.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces MaxQueryBytes on string fields. Byte length
// is checked, not rune count, to bound memory, not characters.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxQueryBytes
}

// =============================================================================
// Shared Types
// =============================================================================

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// SourceInfo is one citation backing an answer. The struct is
// comparable on purpose: citation dedup keys on the full value.
type SourceInfo struct {
	DocumentName string  `json:"document_name"`
	PageNumber   int     `json:"page_number"`
	Score        float64 `json:"score"`
}

// =============================================================================
// Chat Request / Response
// =============================================================================

// ChatRequest is the body of POST /v1/chat and /v1/chat/stream.
//
// # Fields
//
//   - RequestID: Optional. UUID v4 for tracing; generated when absent.
//   - Timestamp: Optional. Unix milliseconds (UTC); filled when absent.
//   - Query: Required. The user's question, up to 32KB.
//   - History: Optional. Prior conversation, oldest first, up to 100
//     messages, each content up to 32KB.
type ChatRequest struct {
	RequestID string    `json:"request_id" validate:"omitempty,uuid4"`
	Timestamp int64     `json:"timestamp" validate:"gte=0"`
	Query     string    `json:"query" validate:"required,maxbytes"`
	History   []Message `json:"history" validate:"max=100,dive"`
}

// Validate validates the ChatRequest fields. Call after binding and
// EnsureDefaults.
func (r *ChatRequest) Validate() error {
	return validate.Struct(r)
}

// EnsureDefaults populates RequestID and Timestamp when the client did
// not send them.
func (r *ChatRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.NewString()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// ChatResponse is the body returned by POST /v1/chat.
type ChatResponse struct {
	ResponseID       string       `json:"response_id"`
	RequestID        string       `json:"request_id"`
	Timestamp        int64        `json:"timestamp"`
	Answer           string       `json:"answer"`
	Sources          []SourceInfo `json:"sources,omitempty"`
	Error            string       `json:"error,omitempty"`
	ProcessingTimeMs int64        `json:"processing_time_ms,omitempty"`
}

// NewChatResponse creates a ChatResponse with generated ID and
// timestamp, echoing the request ID for correlation.
func NewChatResponse(requestID, answer string, sources []SourceInfo) *ChatResponse {
	return &ChatResponse{
		ResponseID: uuid.NewString(),
		RequestID:  requestID,
		Timestamp:  time.Now().UnixMilli(),
		Answer:     answer,
		Sources:    sources,
	}
}
