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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/CodebaseGenius/cmd/genius/config"
	"github.com/AleutianAI/CodebaseGenius/pkg/logging"
)

// --- Global Command Variables ---
var (
	outputDir     string
	diagramFormat string
	workers       int
	repoName      string
	sourceURL     string
	ignoreDirs    []string
	debounceMs    int

	quiet        bool
	logLevel     string
	jsonLogs     bool
	debugMetrics bool

	rootCmd = &cobra.Command{
		Use:   "genius",
		Short: "A cli that generates code documentation from a repository",
		Long: `Codebase Genius parses a repository with tree-sitter, links
				declarations into a code context graph, and renders markdown
				documentation with a function call diagram.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			level := config.Global.Logging.Level
			if cmd.Flags().Changed("log-level") {
				level = logLevel
			}
			json := config.Global.Logging.JSON || jsonLogs
			logging.SetDefault(logging.New(logging.Config{
				Level:   logging.ParseLevel(level),
				Service: "genius",
				JSON:    json,
				Quiet:   quiet,
			}))
			return nil
		},
	}

	generateCmd = &cobra.Command{
		Use:   "generate [repository path]",
		Short: "Generate markdown documentation and a call graph for a repository",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate, // Defined in cmd_generate.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [repository path]",
		Short: "Regenerate documentation whenever repository files change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch, // Defined in cmd_watch.go
	}

	languagesCmd = &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages and file extensions",
		RunE:  runLanguages, // Defined in cmd_languages.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&debugMetrics, "debug-metrics", false,
		"Print OpenTelemetry metrics to stdout when the command exits")

	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config)")
	generateCmd.Flags().StringVarP(&diagramFormat, "format", "f", "", "Diagram format: svg, dot, or mermaid")
	generateCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Extraction worker count (0 uses the config value)")
	generateCmd.Flags().StringVar(&repoName, "name", "", "Repository display name (default: directory name)")
	generateCmd.Flags().StringVar(&sourceURL, "source-url", "", "Repository URL shown in the document header")
	generateCmd.Flags().StringSliceVar(&ignoreDirs, "ignore-dir", nil, "Additional directory names to skip")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config)")
	watchCmd.Flags().StringVarP(&diagramFormat, "format", "f", "", "Diagram format: svg, dot, or mermaid")
	watchCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Extraction worker count (0 uses the config value)")
	watchCmd.Flags().StringVar(&repoName, "name", "", "Repository display name (default: directory name)")
	watchCmd.Flags().StringVar(&sourceURL, "source-url", "", "Repository URL shown in the document header")
	watchCmd.Flags().StringSliceVar(&ignoreDirs, "ignore-dir", nil, "Additional directory names to skip")
	watchCmd.Flags().IntVar(&debounceMs, "debounce", 500, "Milliseconds to wait after the last change before regenerating")

	rootCmd.AddCommand(languagesCmd)
}
