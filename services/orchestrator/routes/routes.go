// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/docassist/services/ingest"
	"github.com/AleutianAI/docassist/services/orchestrator/handlers"
	"github.com/AleutianAI/docassist/services/rag"
)

// SetupRoutes registers all HTTP routes on the router.
func SetupRoutes(router *gin.Engine, workflow *rag.Workflow, manager *ingest.Manager,
	uploadDir string) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/chat", handlers.HandleChat(workflow))
		v1.POST("/chat/stream", handlers.HandleChatStream(workflow))
		v1.POST("/mask", handlers.HandleMask())

		documents := v1.Group("/documents")
		{
			documents.POST("", handlers.UploadDocuments(manager, uploadDir))
			documents.GET("", handlers.ListDocuments(manager))
			documents.GET("/stats", handlers.GetStats(manager))
			documents.DELETE("", handlers.ClearDocuments(manager))
			documents.DELETE("/:documentId", handlers.DeleteDocument(manager))
		}
	}
}
