// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/docassist/services/llm"
	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/orchestrator/observability"
	"github.com/AleutianAI/docassist/services/rag"
)

// keepAliveInterval is how often an SSE comment is sent while the
// model is generating. Load balancers commonly cut idle connections at
// 60s; 15s keeps a healthy margin.
const keepAliveInterval = 15 * time.Second

// HandleChatStream answers POST /v1/chat/stream with Server-Sent Events.
//
// # Description
//
// Binds and validates the ChatRequest, then runs the answer pipeline
// with streaming generation. The client receives token events as the
// model produces them, one sources event with the citations, and a
// final done event carrying the request ID. A pipeline failure emits a
// single error event instead and closes the stream.
//
// Validation failures are returned as plain JSON before any SSE bytes
// are written.
func HandleChatStream(workflow *rag.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleChatStream")
		defer span.End()
		start := time.Now()

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the chat stream request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			slog.Warn("Rejected chat stream request", "request_id", req.RequestID, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		SetSSEHeaders(c.Writer)
		writer, err := NewSSEWriter(c.Writer)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			return
		}

		observability.DefaultMetrics.StreamStarted()
		defer observability.DefaultMetrics.StreamEnded()

		// Keepalive pings run until generation finishes. The SSE writer
		// is mutex-guarded, so pings interleave safely with tokens.
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(keepAliveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := writer.WriteKeepAlive(); err != nil {
						return
					}
					observability.DefaultMetrics.RecordKeepAlive()
				case <-done:
					return
				}
			}
		}()

		qc, err := workflow.RunStream(ctx, req.Query, req.History, func(event llm.StreamEvent) error {
			switch event.Type {
			case llm.StreamEventToken:
				return writer.WriteToken(event.Content)
			case llm.StreamEventSources:
				return writer.WriteSources(event.Sources)
			case llm.StreamEventError:
				return writer.WriteError(event.Error)
			case llm.StreamEventDone:
				return writer.WriteDone(req.RequestID)
			}
			return nil
		})
		if err != nil {
			// A write error here means the client went away; there is
			// nothing left to send.
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Warn("Chat stream aborted", "request_id", req.RequestID, "error", err)
			observability.DefaultMetrics.RecordRequest(observability.EndpointChatStream, false,
				time.Since(start).Seconds())
			return
		}

		observability.DefaultMetrics.RecordRetrievedChunks(len(qc.Chunks))
		observability.DefaultMetrics.RecordRequest(observability.EndpointChatStream, qc.Error == "",
			time.Since(start).Seconds())
	}
}
