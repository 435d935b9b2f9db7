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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/pipeline"
)

// runGenerate is the entry point for "genius generate".
func runGenerate(cmd *cobra.Command, args []string) error {
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
	return generateOnce(ctx, settings)
}

// generateOnce runs one full pipeline pass and writes the artifacts.
// Shared by generate and watch.
func generateOnce(ctx context.Context, settings runSettings) error {
	svc, err := buildService(settings)
	if err != nil {
		return err
	}
	scanner, err := buildScanner(settings, svc)
	if err != nil {
		return err
	}

	result, err := svc.Generate(ctx, scanner, pipeline.Metadata{
		Name:      settings.name,
		SourceURL: settings.sourceURL,
	})
	if err != nil {
		return err
	}
	if err := writeArtifacts(settings, result); err != nil {
		return err
	}
	printSummary(settings, result)
	return nil
}
