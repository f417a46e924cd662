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
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/docassist/services/ingest"
	"github.com/AleutianAI/docassist/services/orchestrator/datatypes"
	"github.com/AleutianAI/docassist/services/orchestrator/observability"
)

// UploadDocuments answers POST /v1/documents.
//
// # Description
//
// Accepts a multipart form with one or more files under the "files"
// field, saves them to the upload directory and ingests them as a
// batch. Per-file failures are reported in the response; the batch
// continues past them. Files keep their original base name, which
// becomes the document ID, so re-uploading a file replaces its chunks.
func UploadDocuments(manager *ingest.Manager, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "UploadDocuments")
		defer span.End()

		form, err := c.MultipartForm()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
			return
		}
		span.SetAttributes(attribute.Int("upload.files", len(files)))

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Cannot create upload directory", "dir", uploadDir, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store uploads"})
			return
		}

		paths := make([]string, 0, len(files))
		for _, file := range files {
			// Base strips any path components a client may smuggle in.
			dest := filepath.Join(uploadDir, filepath.Base(file.Filename))
			if err := c.SaveUploadedFile(file, dest); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				slog.Error("Failed to save upload", "file", file.Filename, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store uploads"})
				return
			}
			paths = append(paths, dest)
		}

		report := manager.ProcessBatch(ctx, paths, nil)

		resp := datatypes.UploadResponse{
			Results:   make([]datatypes.UploadFileResult, 0, len(report.Results)),
			Succeeded: report.Succeeded,
			Failed:    report.Failed,
		}
		for _, result := range report.Results {
			observability.DefaultMetrics.RecordIndexedDocument(result.Error == "", result.Chunks)
			resp.Results = append(resp.Results, datatypes.UploadFileResult{
				File:       result.File,
				DocumentID: result.DocumentID,
				Chunks:     result.Chunks,
				Error:      result.Error,
			})
		}

		status := http.StatusOK
		if report.Succeeded == 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, resp)
	}
}

// ListDocuments answers GET /v1/documents with the indexed documents
// and their chunk counts.
func ListDocuments(manager *ingest.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "ListDocuments")
		defer span.End()

		docs, err := manager.ListDocuments(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to list documents", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
			return
		}

		resp := datatypes.DocumentListResponse{
			Documents: make([]datatypes.DocumentSummary, 0, len(docs)),
			Count:     len(docs),
		}
		for _, doc := range docs {
			resp.Documents = append(resp.Documents, datatypes.DocumentSummary{
				DocumentID: doc.DocumentID,
				Chunks:     doc.Chunks,
			})
		}
		c.JSON(http.StatusOK, resp)
	}
}

// DeleteDocument answers DELETE /v1/documents/:documentId. Deleting a
// document that is not indexed is not an error; it reports zero chunks.
func DeleteDocument(manager *ingest.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "DeleteDocument")
		defer span.End()

		documentID := c.Param("documentId")
		if documentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "documentId is required"})
			return
		}
		span.SetAttributes(attribute.String("document.id", documentID))

		deleted, err := manager.DeleteDocument(ctx, documentID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to delete document", "document_id", documentID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
			return
		}

		slog.Info("Deleted document", "document_id", documentID, "chunks", deleted)
		c.JSON(http.StatusOK, datatypes.DeleteDocumentResponse{
			DocumentID:    documentID,
			ChunksDeleted: deleted,
		})
	}
}

// ClearDocuments answers DELETE /v1/documents, dropping the whole index.
func ClearDocuments(manager *ingest.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "ClearDocuments")
		defer span.End()

		if err := manager.Clear(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to clear index", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear index"})
			return
		}

		slog.Info("Cleared document index")
		c.JSON(http.StatusOK, gin.H{"status": "cleared"})
	}
}

// GetStats answers GET /v1/documents/stats with document and chunk
// counts.
func GetStats(manager *ingest.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "GetStats")
		defer span.End()

		stats, err := manager.Stats(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to read index stats", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read stats"})
			return
		}

		c.JSON(http.StatusOK, datatypes.StatsResponse{
			Documents:   stats.Documents,
			TotalChunks: stats.TotalChunks,
		})
	}
}
