// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers of the HTTP service.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/orchestrator/observability"
	"github.com/AleutianAI/docassist/services/rag"
)

var tracer = otel.Tracer("docassist.orchestrator.handlers")

// HandleChat answers POST /v1/chat.
//
// # Description
//
// Binds and validates the ChatRequest, runs the answer pipeline to
// completion and returns the answer with its citations. Pipeline
// failures are reported inside the response body: a retrieval failure
// returns 502 with the error set, a generation failure returns 200
// with an apologetic answer and the error set.
func HandleChat(workflow *rag.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()
		start := time.Now()

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the chat request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			slog.Warn("Rejected chat request", "request_id", req.RequestID, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		qc, err := workflow.Run(ctx, req.Query, req.History)
		if err != nil {
			// Only context cancellation reaches here.
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			observability.DefaultMetrics.RecordRequest(observability.EndpointChat, false,
				time.Since(start).Seconds())
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}

		resp := datatypes.NewChatResponse(req.RequestID, qc.Answer, qc.Sources)
		resp.Error = qc.Error
		resp.ProcessingTimeMs = time.Since(start).Milliseconds()

		observability.DefaultMetrics.RecordRetrievedChunks(len(qc.Chunks))
		observability.DefaultMetrics.RecordRequest(observability.EndpointChat, qc.Error == "",
			time.Since(start).Seconds())

		// An empty answer with an error set means retrieval failed and
		// generation never ran.
		if qc.Error != "" && qc.Answer == "" {
			c.JSON(http.StatusBadGateway, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
