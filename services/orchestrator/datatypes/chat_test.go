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

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_EnsureDefaults(t *testing.T) {
	req := ChatRequest{Query: "O que diz o laudo?"}
	req.EnsureDefaults()

	_, err := uuid.Parse(req.RequestID)
	assert.NoError(t, err, "generated request ID must be a valid UUID")
	assert.Greater(t, req.Timestamp, int64(0))
}

func TestChatRequest_EnsureDefaultsKeepsProvidedValues(t *testing.T) {
	req := ChatRequest{
		RequestID: "6f1e1c9a-8a3b-4f62-9a77-3f5ce0a54321",
		Timestamp: 1700000000000,
		Query:     "pergunta",
	}
	req.EnsureDefaults()

	assert.Equal(t, "6f1e1c9a-8a3b-4f62-9a77-3f5ce0a54321", req.RequestID)
	assert.Equal(t, int64(1700000000000), req.Timestamp)
}

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{
			name: "valid minimal",
			req:  ChatRequest{Query: "O que diz o laudo?"},
		},
		{
			name:    "missing query",
			req:     ChatRequest{},
			wantErr: true,
		},
		{
			name:    "query over byte limit",
			req:     ChatRequest{Query: strings.Repeat("a", MaxQueryBytes+1)},
			wantErr: true,
		},
		{
			name: "query at byte limit",
			req:  ChatRequest{Query: strings.Repeat("a", MaxQueryBytes)},
		},
		{
			name: "valid history",
			req: ChatRequest{
				Query: "e agora?",
				History: []Message{
					{Role: "user", Content: "primeira pergunta"},
					{Role: "assistant", Content: "primeira resposta"},
				},
			},
		},
		{
			name: "invalid history role",
			req: ChatRequest{
				Query:   "pergunta",
				History: []Message{{Role: "robot", Content: "oi"}},
			},
			wantErr: true,
		},
		{
			name: "history message without content",
			req: ChatRequest{
				Query:   "pergunta",
				History: []Message{{Role: "user"}},
			},
			wantErr: true,
		},
		{
			name:    "invalid request id",
			req:     ChatRequest{RequestID: "not-a-uuid", Query: "pergunta"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChatRequest_ValidateHistoryLimit(t *testing.T) {
	history := make([]Message, MaxHistoryMessages+1)
	for i := range history {
		history[i] = Message{Role: "user", Content: "m"}
	}
	req := ChatRequest{Query: "pergunta", History: history}

	assert.Error(t, req.Validate())

	req.History = history[:MaxHistoryMessages]
	assert.NoError(t, req.Validate())
}

func TestNewChatResponse(t *testing.T) {
	sources := []SourceInfo{{DocumentName: "laudo.pdf", PageNumber: 2, Score: 0.91}}
	resp := NewChatResponse("req-1", "resposta", sources)

	require.NotNil(t, resp)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "resposta", resp.Answer)
	assert.Equal(t, sources, resp.Sources)
	assert.NotEmpty(t, resp.ResponseID)
	assert.Greater(t, resp.Timestamp, int64(0))
}

func TestMaskRequest_Validate(t *testing.T) {
	assert.NoError(t, (&MaskRequest{Text: "CPF: 123.456.789-00"}).Validate())
	assert.Error(t, (&MaskRequest{}).Validate(), "text is required")
	assert.Error(t, (&MaskRequest{Text: "x", MaskChar: "##"}).Validate(),
		"mask char must be a single character")
}
