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
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/CodebaseGenius/pkg/logging"
)

// runWatch is the entry point for "genius watch". It performs an
// initial generation, then regenerates after filesystem changes settle
// for the debounce interval. Blocks until interrupted.
func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if debugMetrics {
		shutdown, err := initDebugMetrics()
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	settings, err := resolveSettings(cmd, args[0])
	if err != nil {
		return err
	}
	log := logging.Default()

	if err := generateOnce(ctx, settings); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	skip := make(map[string]bool)
	for _, d := range defaultScannerIgnoreDirs() {
		skip[d] = true
	}
	for _, d := range settings.ignoreDirs {
		skip[d] = true
	}
	if err := addWatchDirs(watcher, settings.repoPath, skip); err != nil {
		return err
	}

	debounce := time.Duration(debounceMs) * time.Millisecond
	fmt.Printf("Watching %s (debounce %v). Press Ctrl-C to stop.\n", settings.repoPath, debounce)

	// The timer fires once events stop arriving for the debounce
	// interval. A stopped timer with no pending run is the idle state.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need to be watched too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !skip[filepath.Base(event.Name)] {
						_ = addWatchDirs(watcher, event.Name, skip)
					}
				}
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-timer.C:
			log.Info("change detected, regenerating")
			if err := generateOnce(ctx, settings); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error("regeneration failed", "error", err)
			}
		}
	}
}

// addWatchDirs registers root and every non-skipped subdirectory with
// the watcher. fsnotify does not watch recursively on its own.
func addWatchDirs(watcher *fsnotify.Watcher, root string, skip map[string]bool) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skip[d.Name()] {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			logging.Default().Warn("failed to watch directory", "path", p, "error", err)
		}
		return nil
	})
}
