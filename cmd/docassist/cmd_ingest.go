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
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/docassist/services/config"
	"github.com/AleutianAI/docassist/services/embedding"
	"github.com/AleutianAI/docassist/services/ingest"
	"github.com/AleutianAI/docassist/services/vectorstore"
)

// runIngest indexes the given files and directories in one batch and
// prints a per-file report.
func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paths, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported files found (supported: .pdf, .txt, .md)")
	}

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

	report := manager.ProcessBatch(ctx, paths, func(done, total int, result ingest.FileResult) {
		if result.Error != "" {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s: FAILED: %s\n", done, total, result.File, result.Error)
			return
		}
		fmt.Printf("[%d/%d] %s: %d chunks\n", done, total, result.File, result.Chunks)
	})

	fmt.Printf("Done: %d succeeded, %d failed\n", report.Succeeded, report.Failed)
	if report.Succeeded == 0 {
		return fmt.Errorf("all %d files failed", report.Failed)
	}
	return nil
}

// collectFiles expands arguments into a flat list of supported files.
// Directories are walked recursively; unsupported files inside them are
// skipped silently, but a file named directly is kept so the batch can
// report why it was rejected.
func collectFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && ingest.IsSupportedFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot walk %s: %w", arg, err)
		}
	}
	return paths, nil
}
