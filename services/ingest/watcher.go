// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher ingests supported files dropped into a directory. Each new
// file is queued on the manager's background worker, so heavy ingestion
// never runs on the watch loop.
type Watcher struct {
	manager *Manager
	dir     string

	// settleDelay is how long a file must sit quiet before ingestion,
	// so half-copied files are not picked up.
	settleDelay time.Duration
}

// NewWatcher creates a directory watcher feeding the manager.
func NewWatcher(manager *Manager, dir string) (*Watcher, error) {
	if manager == nil {
		return nil, errors.New("manager must not be nil")
	}
	if dir == "" {
		return nil, errors.New("watch directory must not be empty")
	}
	return &Watcher{manager: manager, dir: dir, settleDelay: 2 * time.Second}, nil
}

// Run watches the directory until the context ends.
//
// # Description
//
// Create and write events on supported files arm a per-file timer; when
// a file stops changing for the settle delay it is enqueued for
// ingestion. Timer state lives on the loop goroutine, no locking.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	slog.Info("Watching upload directory", "dir", w.dir)

	pending := make(map[string]*time.Timer)
	ready := make(chan string)

	for {
		select {
		case <-ctx.Done():
			for _, timer := range pending {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsSupportedFile(event.Name) {
				continue
			}
			path := event.Name
			if timer, exists := pending[path]; exists {
				timer.Reset(w.settleDelay)
				continue
			}
			pending[path] = time.AfterFunc(w.settleDelay, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(pending, path)
			slog.Info("New file detected", "file", path)
			if err := w.manager.EnqueueBatch(ctx, []string{path}); err != nil {
				slog.Error("Failed to enqueue watched file", "file", path, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}
