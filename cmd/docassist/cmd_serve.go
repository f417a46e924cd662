// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/docassist/services/config"
	"github.com/AleutianAI/docassist/services/embedding"
	"github.com/AleutianAI/docassist/services/ingest"
	"github.com/AleutianAI/docassist/services/llm"
	"github.com/AleutianAI/docassist/services/orchestrator/observability"
	"github.com/AleutianAI/docassist/services/orchestrator/routes"
	"github.com/AleutianAI/docassist/services/rag"
	"github.com/AleutianAI/docassist/services/vectorstore"
)

// runServe wires the full service and blocks until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cleanup, err := initTracer()
	if err != nil {
		return fmt.Errorf("failed to setup the OTLP tracer: %w", err)
	}
	defer cleanup(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := vectorstore.NewWeaviateStore(ctx, vectorstore.Config{
		Host:   cfg.Weaviate.Host,
		Scheme: cfg.Weaviate.Scheme,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Weaviate: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure the index schema: %w", err)
	}

	embedder, err := embedding.NewProvider(cfg.Embedding.Provider, cfg.Embedding.Model)
	if err != nil {
		return err
	}
	llmClient, err := llm.NewClient(cfg.LLM.Backend)
	if err != nil {
		return err
	}

	gateway, err := rag.NewGateway(store, embedder, rag.RetrieveOptions{
		TopK:           cfg.Retrieval.TopK,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
	})
	if err != nil {
		return err
	}
	params := llm.GenerationParams{
		Temperature: &cfg.LLM.Temperature,
		MaxTokens:   &cfg.LLM.MaxTokens,
	}
	workflow, err := rag.NewWorkflow(gateway, llmClient, params)
	if err != nil {
		return err
	}

	manager, err := ingest.NewManager(store, embedder, ingest.Options{
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
		MaxFileBytes: cfg.Ingestion.MaxFileMB << 20,
		MaskPII:      cfg.Ingestion.MaskPII,
		MaskChar:     cfg.Ingestion.MaskChar,
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	observability.InitMetrics()

	router := gin.Default()
	router.Use(otelgin.Middleware("docassist"))
	routes.SetupRoutes(router, workflow, manager, cfg.Server.UploadDir)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("Starting the docassist server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Ingestion.WatchDir {
		if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
			return fmt.Errorf("cannot create watch directory: %w", err)
		}
		watcher, err := ingest.NewWatcher(manager, cfg.Server.UploadDir)
		if err != nil {
			return fmt.Errorf("failed to start the directory watcher: %w", err)
		}
		group.Go(func() error {
			slog.Info("Watching directory for documents", "dir", cfg.Server.UploadDir)
			if err := watcher.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
