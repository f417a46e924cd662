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

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/docassist/services/masking"
	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/orchestrator/observability"
)

// HandleMask answers POST /v1/mask.
//
// # Description
//
// Applies the masking engine to the request text. With no types given,
// every rule runs; otherwise only the named categories, always in
// their fixed engine order. Unknown category names are ignored. Only
// the masked text is returned and the original is never logged.
func HandleMask() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracer.Start(c.Request.Context(), "HandleMask")
		defer span.End()

		var req datatypes.MaskRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the mask request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		maskChar := req.MaskChar
		if maskChar == "" {
			maskChar = masking.DefaultMaskChar
		}

		masked := masking.Mask(req.Text, req.Types, maskChar)

		span.SetAttributes(
			attribute.Int("mask.text_bytes", len(req.Text)),
			attribute.Int("mask.types", len(req.Types)),
		)
		observability.DefaultMetrics.RecordMaskRequest()
		c.JSON(http.StatusOK, datatypes.MaskResponse{MaskedText: masked})
	}
}
