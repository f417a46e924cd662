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

import "fmt"

// =============================================================================
// Error Types
// =============================================================================

// RetrievalError wraps failures from the retrieval path (query embedding
// or the vector index).
//
// # Description
//
// RetrievalError provides structured error information for retrieval
// failures, including whether the error is retryable. Retrieval failures
// are recoverable from the workflow's point of view: the answer pipeline
// records them on the query context and skips generation instead of
// crashing the request.
//
// # Fields
//
//   - StatusCode: HTTP-like status describing the failure class.
//   - Message: Human readable cause.
//   - Retryable: Whether a retry with backoff could succeed.
type RetrievalError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

// Error implements the error interface for RetrievalError.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval error (status %d): %s", e.StatusCode, e.Message)
}

// IsRetrievalError checks if an error is a RetrievalError.
func IsRetrievalError(err error) bool {
	_, ok := err.(*RetrievalError)
	return ok
}

// GenerationError wraps failures from the LLM backend. The workflow
// converts these into an apologetic answer rather than an empty one.
type GenerationError struct {
	Message string
	Err     error
}

// Error implements the error interface for GenerationError.
func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("generation error: %s", e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError checks if an error is a GenerationError.
func IsGenerationError(err error) bool {
	_, ok := err.(*GenerationError)
	return ok
}
