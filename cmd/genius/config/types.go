// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "runtime"

type GeniusConfig struct {
	// Output: where generated documentation is written
	Output OutputConfig `yaml:"output"`

	// Pipeline: extraction worker pool and file filters
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging: verbosity and format of CLI logs
	Logging LoggingConfig `yaml:"logging"`
}

type OutputConfig struct {
	Dir           string `yaml:"dir"`            // e.g. ./docs
	DiagramFormat string `yaml:"diagram_format"` // "svg", "dot", or "mermaid"
}

type PipelineConfig struct {
	Workers    int      `yaml:"workers"`     // 0 means NumCPU
	IgnoreDirs []string `yaml:"ignore_dirs"` // extra directory names to skip
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	JSON  bool   `yaml:"json"`
}

func DefaultConfig() GeniusConfig {
	return GeniusConfig{
		Output: OutputConfig{
			Dir:           "docs",
			DiagramFormat: "svg",
		},
		Pipeline: PipelineConfig{
			Workers:    runtime.NumCPU(),
			IgnoreDirs: []string{},
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
