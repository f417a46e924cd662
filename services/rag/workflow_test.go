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
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/docassist/services/llm"
	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Spies
// =============================================================================

// spyRetriever records calls and serves canned chunks.
type spyRetriever struct {
	Chunks    []vectorstore.ScoredChunk
	Err       error
	CallCount int
	LastQuery string
}

func (s *spyRetriever) Retrieve(ctx context.Context, query string) ([]vectorstore.ScoredChunk, error) {
	s.CallCount++
	s.LastQuery = query
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Chunks, nil
}

// mockLLMClient records the messages it was handed and replies with a
// fixed answer.
type mockLLMClient struct {
	Answer          string
	Tokens          []string
	Err             error
	ChatCallCount   int
	StreamCallCount int
	LastMessages    []datatypes.Message
}

func (m *mockLLMClient) Chat(ctx context.Context, messages []datatypes.Message,
	params llm.GenerationParams) (string, error) {

	m.ChatCallCount++
	m.LastMessages = messages
	if m.Err != nil {
		return "", m.Err
	}
	return m.Answer, nil
}

func (m *mockLLMClient) ChatStream(ctx context.Context, messages []datatypes.Message,
	params llm.GenerationParams, callback llm.StreamCallback) (string, error) {

	m.StreamCallCount++
	m.LastMessages = messages
	if m.Err != nil {
		return "", m.Err
	}
	var answer strings.Builder
	for _, token := range m.Tokens {
		answer.WriteString(token)
		if callback != nil {
			if err := callback(llm.StreamEvent{Type: llm.StreamEventToken, Content: token}); err != nil {
				return answer.String(), err
			}
		}
	}
	return answer.String(), nil
}

func newTestWorkflow(t *testing.T, retriever DocumentRetriever, client llm.LLMClient) *Workflow {
	t.Helper()
	w, err := NewWorkflow(retriever, client, llm.GenerationParams{})
	require.NoError(t, err)
	return w
}

// =============================================================================
// Analysis heuristic
// =============================================================================

func TestNeedsRetrieval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query    string
		expected bool
	}{
		{query: "oi", expected: false},
		{query: "Olá", expected: false},
		{query: "  BOM DIA  ", expected: false},
		{query: "hello", expected: false},
		{query: "ab", expected: false},   // under 3 characters
		{query: "éé", expected: false},   // runes, not bytes
		{query: "ééé", expected: true},   // 3 runes is enough
		{query: "oi, tudo bem?", expected: true},
		{query: "Qual o horário de funcionamento?", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.expected, needsRetrieval(tt.query))
		})
	}
}

// =============================================================================
// Run
// =============================================================================

func TestWorkflow_Run_GreetingSkipsRetrieval(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{}
	client := &mockLLMClient{Answer: "Olá! Posso responder perguntas sobre seus documentos."}
	w := newTestWorkflow(t, retriever, client)

	qc, err := w.Run(context.Background(), "oi", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, retriever.CallCount, "greetings never touch the index")
	assert.Equal(t, 1, client.ChatCallCount)
	assert.False(t, qc.NeedsRetrieval)
	assert.Empty(t, qc.Sources)
	assert.Empty(t, qc.Context)
	assert.Equal(t, "Olá! Posso responder perguntas sobre seus documentos.", qc.Answer)

	require.NotEmpty(t, client.LastMessages)
	assert.Equal(t, "system", client.LastMessages[0].Role)
	assert.NotContains(t, client.LastMessages[0].Content, "CONTEXTO",
		"greeting uses the no-retrieval prompt")
}

func TestWorkflow_Run_GroundedAnswer(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{Chunks: []vectorstore.ScoredChunk{
		scored("manual.pdf", 12, 0.92, "O horário de funcionamento é das 8h às 18h."),
	}}
	client := &mockLLMClient{Answer: "Funciona das 8h às 18h (página 12)."}
	w := newTestWorkflow(t, retriever, client)

	qc, err := w.Run(context.Background(), "Qual o horário de funcionamento?",
		[]datatypes.Message{{Role: "user", Content: "contexto anterior"}})

	require.NoError(t, err)
	assert.Equal(t, 1, retriever.CallCount)
	assert.Equal(t, "Qual o horário de funcionamento?", retriever.LastQuery)
	assert.True(t, qc.NeedsRetrieval)
	assert.Empty(t, qc.Error)
	assert.Equal(t, "Funciona das 8h às 18h (página 12).", qc.Answer)

	require.Len(t, qc.Sources, 1)
	assert.Equal(t, datatypes.SourceInfo{
		DocumentName: "manual.pdf", PageNumber: 12, Score: 0.92,
	}, qc.Sources[0])

	// system prompt carries the formatted evidence, history sits between
	// system and the current query
	require.Len(t, client.LastMessages, 3)
	assert.Contains(t, client.LastMessages[0].Content, "CONTEXTO")
	assert.Contains(t, client.LastMessages[0].Content,
		"[Documento 1: manual.pdf - Página 12 - Relevância: 0.92]")
	assert.Equal(t, "contexto anterior", client.LastMessages[1].Content)
	assert.Equal(t, "Qual o horário de funcionamento?", client.LastMessages[2].Content)
}

func TestWorkflow_Run_NoRelevantDocuments(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{Chunks: nil}
	client := &mockLLMClient{Answer: "Não encontrei a informação nos documentos."}
	w := newTestWorkflow(t, retriever, client)

	qc, err := w.Run(context.Background(), "pergunta sem resposta nos documentos", nil)

	require.NoError(t, err)
	assert.Equal(t, NoDocumentsContext, qc.Context)
	assert.Empty(t, qc.Sources)
	assert.Contains(t, client.LastMessages[0].Content, NoDocumentsContext,
		"the sentinel is what grounds the 'not found' answer")
}

func TestWorkflow_Run_RetrievalFailureSkipsGeneration(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{Err: &RetrievalError{
		StatusCode: 503, Message: "index down", Retryable: true,
	}}
	client := &mockLLMClient{Answer: "nunca usado"}
	w := newTestWorkflow(t, retriever, client)

	qc, err := w.Run(context.Background(), "Qual o procedimento?", nil)

	require.NoError(t, err, "pipeline failures are recorded, not returned")
	assert.Equal(t, 0, client.ChatCallCount, "generation is skipped after a retrieval failure")
	assert.Empty(t, qc.Answer)
	assert.Empty(t, qc.Chunks)
	assert.Empty(t, qc.Sources)
	assert.Contains(t, qc.Error, "Erro ao recuperar documentos")
	assert.Contains(t, qc.Error, "index down")
}

func TestWorkflow_Run_GenerationFailureProducesApologeticAnswer(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{Chunks: []vectorstore.ScoredChunk{
		scored("manual.pdf", 1, 0.9, "trecho"),
	}}
	client := &mockLLMClient{Err: errors.New("model timeout")}
	w := newTestWorkflow(t, retriever, client)

	qc, err := w.Run(context.Background(), "Qual o procedimento?", nil)

	require.NoError(t, err)
	assert.Contains(t, qc.Answer, "Desculpe, ocorreu um erro ao gerar a resposta")
	assert.Contains(t, qc.Answer, "model timeout")
	assert.Equal(t, "model timeout", qc.Error)
	assert.Len(t, qc.Sources, 1, "citations from retrieval are kept")
}

func TestWorkflow_Run_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := newTestWorkflow(t, &spyRetriever{}, &mockLLMClient{})

	_, err := w.Run(ctx, "pergunta qualquer", nil)

	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Transition value semantics
// =============================================================================

func TestWorkflow_Transition_DoesNotClobberUnrelatedFields(t *testing.T) {
	t.Parallel()

	w := newTestWorkflow(t, &spyRetriever{}, &mockLLMClient{Answer: "ok"})

	qc := QueryContext{
		Query:   "oi",
		History: []datatypes.Message{{Role: "user", Content: "antes"}},
		Answer:  "resposta pré-existente",
	}

	next, out := w.Transition(context.Background(), StateAnalyze, qc)

	assert.Equal(t, StateGenerate, next)
	assert.False(t, out.NeedsRetrieval)
	assert.Equal(t, "resposta pré-existente", out.Answer, "analyze only sets the retrieval flag")
	assert.Equal(t, qc.History, out.History)
	// the input value is untouched
	assert.False(t, qc.NeedsRetrieval)
}

// =============================================================================
// RunStream
// =============================================================================

func TestWorkflow_RunStream_EventOrder(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{Chunks: []vectorstore.ScoredChunk{
		scored("manual.pdf", 2, 0.88, "trecho relevante"),
	}}
	client := &mockLLMClient{Tokens: []string{"Funciona ", "das 8h ", "às 18h."}}
	w := newTestWorkflow(t, retriever, client)

	var events []llm.StreamEvent
	qc, err := w.RunStream(context.Background(), "Qual o horário?", nil,
		func(event llm.StreamEvent) error {
			events = append(events, event)
			return nil
		})

	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, llm.StreamEventToken, events[0].Type)
	assert.Equal(t, llm.StreamEventToken, events[1].Type)
	assert.Equal(t, llm.StreamEventToken, events[2].Type)
	assert.Equal(t, llm.StreamEventSources, events[3].Type)
	require.Len(t, events[3].Sources, 1)
	assert.Equal(t, "manual.pdf", events[3].Sources[0].DocumentName)
	assert.Equal(t, llm.StreamEventDone, events[4].Type)
	assert.Equal(t, "Funciona das 8h às 18h.", qc.Answer)
}

func TestWorkflow_RunStream_RetrievalFailureEmitsErrorEvent(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{Err: &RetrievalError{StatusCode: 503, Message: "index down"}}
	client := &mockLLMClient{}
	w := newTestWorkflow(t, retriever, client)

	var events []llm.StreamEvent
	qc, err := w.RunStream(context.Background(), "Qual o procedimento?", nil,
		func(event llm.StreamEvent) error {
			events = append(events, event)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 0, client.StreamCallCount)
	require.Len(t, events, 1)
	assert.Equal(t, llm.StreamEventError, events[0].Type)
	assert.Contains(t, events[0].Error, "index down")
	assert.NotEmpty(t, qc.Error)
}

func TestWorkflow_RunStream_GenerationFailureEmitsErrorEvent(t *testing.T) {
	t.Parallel()

	retriever := &spyRetriever{Chunks: []vectorstore.ScoredChunk{
		scored("manual.pdf", 2, 0.88, "trecho"),
	}}
	client := &mockLLMClient{Err: errors.New("model crashed")}
	w := newTestWorkflow(t, retriever, client)

	var events []llm.StreamEvent
	qc, err := w.RunStream(context.Background(), "Qual o horário?", nil,
		func(event llm.StreamEvent) error {
			events = append(events, event)
			return nil
		})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, llm.StreamEventError, events[0].Type)
	assert.Contains(t, events[0].Error, "model crashed")
	assert.Contains(t, qc.Answer, "Desculpe, ocorreu um erro ao gerar a resposta")
}

func TestWorkflow_RunStream_NilCallbackRejected(t *testing.T) {
	t.Parallel()

	w := newTestWorkflow(t, &spyRetriever{}, &mockLLMClient{})

	_, err := w.RunStream(context.Background(), "pergunta", nil, nil)

	assert.Error(t, err)
}
