// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rag runs the question answering pipeline: analyze the query,
// retrieve supporting chunks, format them into a prompt context and
// generate a grounded answer with citations.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/docassist/services/llm"
	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Workflow drives the answer pipeline as an explicit state machine.
//
// # Description
//
// Each step is a transition from one State to the next over a
// QueryContext passed by value. The pipeline is:
//
//	analyze -> retrieve -> format -> generate -> done
//
// with two shortcuts: queries that need no retrieval jump from analyze
// straight to generate, and a retrieval failure jumps to done with the
// error recorded and no answer generated.
//
// # Thread Safety
//
// Safe for concurrent use; per-request state lives in the QueryContext.
type Workflow struct {
	retriever DocumentRetriever
	llm       llm.LLMClient
	params    llm.GenerationParams
}

// NewWorkflow creates an answer workflow.
func NewWorkflow(retriever DocumentRetriever, client llm.LLMClient,
	params llm.GenerationParams) (*Workflow, error) {

	if retriever == nil {
		return nil, errors.New("retriever must not be nil")
	}
	if client == nil {
		return nil, errors.New("llm client must not be nil")
	}
	return &Workflow{retriever: retriever, llm: client, params: params}, nil
}

// Transition executes one pipeline step and returns the next state with
// the updated context. It never panics and never returns an error:
// failures are recorded on the QueryContext.
func (w *Workflow) Transition(ctx context.Context, state State, qc QueryContext) (State, QueryContext) {
	switch state {
	case StateAnalyze:
		qc.NeedsRetrieval = needsRetrieval(qc.Query)
		if !qc.NeedsRetrieval {
			return StateGenerate, qc
		}
		return StateRetrieve, qc

	case StateRetrieve:
		chunks, err := w.retriever.Retrieve(ctx, qc.Query)
		if err != nil {
			slog.Error("Retrieval failed", "error", err)
			qc.Chunks = nil
			qc.Sources = nil
			qc.Error = fmt.Sprintf("Erro ao recuperar documentos: %v", err)
			return StateDone, qc
		}
		qc.Chunks = chunks
		qc.Sources = CollectSources(chunks)
		return StateFormat, qc

	case StateFormat:
		if !qc.NeedsRetrieval {
			qc.Context = ""
		} else {
			qc.Context = FormatContext(qc.Chunks)
		}
		return StateGenerate, qc

	case StateGenerate:
		answer, err := w.llm.Chat(ctx, buildMessages(qc), w.params)
		if err != nil {
			slog.Error("Generation failed", "error", err)
			qc.Answer = fmt.Sprintf("Desculpe, ocorreu um erro ao gerar a resposta: %v", err)
			qc.Error = err.Error()
			return StateDone, qc
		}
		qc.Answer = answer
		return StateDone, qc
	}
	return StateDone, qc
}

// Run executes the pipeline to completion.
//
// # Description
//
// Runs transitions from StateAnalyze until StateDone. Pipeline failures
// do not surface as errors here; they are recorded on the returned
// QueryContext (Error set, Answer possibly apologetic). The returned
// error is non-nil only for context cancellation.
func (w *Workflow) Run(ctx context.Context, query string, history []datatypes.Message) (QueryContext, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Run")
	defer span.End()

	qc := QueryContext{Query: query, History: history}
	state := StateAnalyze
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return qc, err
		}
		state, qc = w.Transition(ctx, state, qc)
	}

	span.SetAttributes(
		attribute.Bool("rag.needs_retrieval", qc.NeedsRetrieval),
		attribute.Int("rag.chunk_count", len(qc.Chunks)),
		attribute.Bool("rag.had_error", qc.Error != ""),
	)
	return qc, nil
}

// RunStream executes the pipeline, streaming the answer.
//
// # Description
//
// The pre-generation steps run exactly as in Run. Generation then
// streams through the callback: token events as the model produces
// them, one sources event carrying the citations, and a final done
// event. A retrieval or generation failure emits an error event
// instead; events are append-only and never retracted.
//
// # Outputs
//
//   - QueryContext: the final pipeline state, including the full
//     accumulated answer.
//   - error: non-nil when the callback aborts or the context ends.
func (w *Workflow) RunStream(ctx context.Context, query string, history []datatypes.Message,
	callback llm.StreamCallback) (QueryContext, error) {

	ctx, span := tracer.Start(ctx, "Workflow.RunStream")
	defer span.End()

	if callback == nil {
		return QueryContext{Query: query, History: history}, errors.New("callback must not be nil")
	}

	qc := QueryContext{Query: query, History: history}
	state := StateAnalyze
	for state != StateDone && state != StateGenerate {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return qc, err
		}
		state, qc = w.Transition(ctx, state, qc)
	}

	// Retrieval failed; the pipeline ended without generation.
	if state == StateDone {
		if err := callback(llm.StreamEvent{Type: llm.StreamEventError, Error: qc.Error}); err != nil {
			return qc, fmt.Errorf("stream callback aborted: %w", err)
		}
		return qc, nil
	}

	answer, err := w.llm.ChatStream(ctx, buildMessages(qc), w.params, callback)
	if err != nil {
		slog.Error("Streaming generation failed", "error", err)
		qc.Answer = fmt.Sprintf("Desculpe, ocorreu um erro ao gerar a resposta: %v", err)
		qc.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if cbErr := callback(llm.StreamEvent{Type: llm.StreamEventError, Error: err.Error()}); cbErr != nil {
			return qc, fmt.Errorf("stream callback aborted: %w", cbErr)
		}
		return qc, nil
	}
	qc.Answer = answer

	if len(qc.Sources) > 0 {
		if err := callback(llm.StreamEvent{Type: llm.StreamEventSources, Sources: qc.Sources}); err != nil {
			return qc, fmt.Errorf("stream callback aborted: %w", err)
		}
	}
	if err := callback(llm.StreamEvent{Type: llm.StreamEventDone}); err != nil {
		return qc, fmt.Errorf("stream callback aborted: %w", err)
	}
	return qc, nil
}
