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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CodebaseGenius/cmd/genius/config"
	"github.com/AleutianAI/CodebaseGenius/pkg/logging"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/pipeline"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/render"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/source"
)

// documentFileName is the markdown artifact written into the output
// directory. The diagram lands next to it under the path the document
// references.
const documentFileName = "documentation.md"

// runSettings is the merged view of config file and command flags.
// Flags win when explicitly set.
type runSettings struct {
	repoPath   string
	outputDir  string
	format     render.Format
	workers    int
	name       string
	sourceURL  string
	ignoreDirs []string
}

// resolveSettings merges the global config with the command's flags.
func resolveSettings(cmd *cobra.Command, repoPath string) (runSettings, error) {
	s := runSettings{
		repoPath:  repoPath,
		outputDir: config.Global.Output.Dir,
		workers:   config.Global.Pipeline.Workers,
		name:      repoName,
		sourceURL: sourceURL,
	}

	formatName := config.Global.Output.DiagramFormat
	if cmd.Flags().Changed("format") {
		formatName = diagramFormat
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return runSettings{}, err
	}
	s.format = format

	if cmd.Flags().Changed("output") {
		s.outputDir = outputDir
	}
	if cmd.Flags().Changed("workers") && workers > 0 {
		s.workers = workers
	}
	if s.name == "" {
		abs, err := filepath.Abs(repoPath)
		if err != nil {
			return runSettings{}, fmt.Errorf("resolving repository path: %w", err)
		}
		s.name = filepath.Base(abs)
	}

	s.ignoreDirs = append(s.ignoreDirs, config.Global.Pipeline.IgnoreDirs...)
	s.ignoreDirs = append(s.ignoreDirs, ignoreDirs...)
	return s, nil
}

// buildService constructs the pipeline service for the settings.
func buildService(s runSettings) (*pipeline.Service, error) {
	return pipeline.NewService(
		pipeline.WithWorkers(s.workers),
		pipeline.WithDiagramFormat(s.format),
		pipeline.WithLogger(logging.Default()),
	)
}

// buildScanner constructs the repository scanner for the settings,
// using the service registry for extension detection.
func buildScanner(s runSettings, svc *pipeline.Service) (*source.Scanner, error) {
	opts := []source.ScannerOption{
		source.WithExtensionLanguages(svc.Registry().ExtensionLanguages()),
	}
	if len(s.ignoreDirs) > 0 {
		merged := append([]string{}, defaultScannerIgnoreDirs()...)
		merged = append(merged, s.ignoreDirs...)
		opts = append(opts, source.WithIgnoreDirs(merged))
	}
	return source.NewScanner(s.repoPath, opts...)
}

// defaultScannerIgnoreDirs mirrors the scanner's built-in skip list so
// user-supplied additions extend it instead of replacing it.
func defaultScannerIgnoreDirs() []string {
	return []string{
		".git", ".hg", ".svn", "node_modules", "__pycache__",
		"venv", ".venv", "dist", "build", "vendor", ".idea", ".vscode",
	}
}

// writeArtifacts writes the markdown document and diagram into the
// output directory.
func writeArtifacts(s runSettings, result *pipeline.Result) error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	docPath := filepath.Join(s.outputDir, documentFileName)
	if err := os.WriteFile(docPath, result.Markdown, 0644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	diagramPath := filepath.Join(s.outputDir, "call_graph"+s.format.Ext())
	if err := os.WriteFile(diagramPath, result.Diagram, 0644); err != nil {
		return fmt.Errorf("writing diagram: %w", err)
	}
	return nil
}

// printSummary reports the run outcome on stdout.
func printSummary(s runSettings, result *pipeline.Result) {
	fmt.Printf("Documentation written to %s\n", filepath.Join(s.outputDir, documentFileName))
	fmt.Printf("  files: %d  classes: %d  functions: %d\n",
		result.Stats.FileCount, result.Stats.ClassCount, result.Stats.FunctionCount)
	fmt.Printf("  calls: %d  inherits: %d  imports: %d  unresolved: %d\n",
		result.Stats.CallEdgeCount, result.Stats.InheritsEdgeCount,
		result.Stats.ImportEdgeCount, result.Stats.UnresolvedCount)
	if result.Diagnostics.EmptyRepository {
		fmt.Println("  note: no supported source files were found")
	}
	if n := len(result.Diagnostics.ParseFailures); n > 0 {
		fmt.Printf("  warning: %d file(s) failed to parse\n", n)
	}
	if n := len(result.Diagnostics.SkippedFiles); n > 0 {
		fmt.Printf("  skipped: %d file(s) with no registered extractor\n", n)
	}
}
