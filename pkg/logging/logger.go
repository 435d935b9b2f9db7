// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for Codebase Genius components.
//
// The package is a thin layer over Go's standard library slog package.
// It exists so every component configures logging the same way: severity
// filtering, an optional JSON handler for machine consumption, a service
// attribute stamped on every record, and a quiet mode that suppresses
// everything below Error for scripted use.
//
// # Basic Usage
//
// For CLI usage with text output on stderr:
//
//	logger := logging.Default()
//	logger.Info("generation started", "root", repoRoot)
//	logger.Error("generation failed", "error", err)
//
// # Configured Usage
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelDebug,
//	    Service: "genius",
//	    JSON:    true,
//	})
//
// # Log Levels
//
// Four levels are supported, matching slog conventions:
//
//   - Debug: development troubleshooting, verbose output
//   - Info: normal operations (run start/end, per-file progress)
//   - Warn: recoverable issues (parse failures, unresolved references)
//   - Error: operation failures (but the run continues where possible)
//
// # Thread Safety
//
// Logger is safe for concurrent use; the underlying slog.Logger is
// thread-safe and Logger itself holds no mutable state after creation.
//
// # Security Considerations
//
// This package does NOT automatically redact sensitive data. Callers
// must ensure file contents and secrets are not logged verbatim.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels.
//
// Levels follow the slog convention and are ordered by severity:
// Debug < Info < Warn < Error. Setting a minimum level filters out
// all logs below that level.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for potentially problematic situations the run
	// survives, such as a file that failed to parse.
	LevelWarn

	// LevelError is for error conditions.
	LevelError
)

// String returns the human-readable name of the level.
//
// Returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level.
//
// Matching is case-insensitive on the common spellings ("debug",
// "info", "warn", "warning", "error"). Unknown names fall back to
// LevelInfo so a typo in a config file never silences errors.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// All fields have sensible defaults. A zero-value Config creates a
// logger that writes Info+ messages to stderr in text format.
type Config struct {
	// Level is the minimum severity to emit. Defaults to LevelInfo.
	Level Level

	// Service is attached to every record as the "service" attribute.
	// Empty means no service attribute.
	Service string

	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool

	// Quiet raises the effective level to LevelError regardless of
	// Level. Intended for scripted invocations that only want output
	// artifacts on stdout.
	Quiet bool

	// Writer overrides the output destination. Defaults to os.Stderr.
	// Primarily for tests.
	Writer io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger wraps slog.Logger with the package's configuration conventions.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from cfg.
//
// New never fails: invalid configuration degrades to the defaults
// rather than returning an error, because logging must be available
// before anything else is.
func New(cfg Config) *Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	level := cfg.Level
	if cfg.Quiet {
		level = LevelError
	}
	opts := &slog.HandlerOptions{Level: level.toSlogLevel()}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return &Logger{Logger: logger}
}

// defaultLogger holds the logger installed by SetDefault.
var defaultLogger atomic.Pointer[Logger]

// Default returns the logger installed by SetDefault, or a fresh
// zero-value-configured Logger (Info level, text format, stderr) when
// none has been installed.
func Default() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return New(Config{})
}

// SetDefault installs l as the process-wide default, for both this
// package's Default and packages that log through slog directly.
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(l)
	slog.SetDefault(l.Logger)
}
