// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline wires extraction, graph building, resolution, and
// rendering into the single Generate operation the CLI calls.
//
// Extraction runs in parallel with a bounded worker pool; everything
// after the extraction barrier (build, resolve, render) is
// single-threaded, which keeps the output independent of scheduling.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/CodebaseGenius/pkg/logging"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/graph"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/render"
)

// FileInfo names one repository file offered for extraction.
type FileInfo struct {
	// Path is repository-relative, forward-slash separated.
	Path string

	// Language is the detected language, or "" when unknown.
	Language string
}

// Source enumerates and reads repository files. Implementations:
// source.Scanner for directories, in-memory fakes for tests.
type Source interface {
	// Files lists the candidate files. Order does not matter; the
	// pipeline sorts where determinism requires it.
	Files(ctx context.Context) ([]FileInfo, error)

	// Read returns the content of one listed file.
	Read(ctx context.Context, path string) ([]byte, error)
}

// ReadmeProvider is optionally implemented by sources that can locate
// a repository README for the document overview.
type ReadmeProvider interface {
	// Readme returns the README text, or "" when none exists.
	Readme(ctx context.Context) (string, error)
}

// Metadata carries repository identity into the rendered document.
type Metadata struct {
	Name      string
	SourceURL string
}

// ParseFailure records a file that produced no extraction result.
// Always a diagnostic, never fatal.
type ParseFailure struct {
	FilePath string
	Err      error
}

// Error implements the error interface.
func (p *ParseFailure) Error() string {
	return fmt.Sprintf("parse failure in %s: %v", p.FilePath, p.Err)
}

// Unwrap returns the underlying error.
func (p *ParseFailure) Unwrap() error { return p.Err }

// Diagnostics is the non-fatal problem report for one run.
type Diagnostics struct {
	// RunID uniquely identifies the run in logs and reports.
	RunID string

	// ParseFailures lists files that yielded nothing.
	ParseFailures []*ParseFailure

	// Unresolved lists references the resolver declined to guess at.
	Unresolved []graph.UnresolvedReference

	// SkippedFiles lists files with no registered extractor.
	SkippedFiles []string

	// EmptyRepository is true when no extractable file was found.
	// The run still succeeds with empty-but-valid artifacts.
	EmptyRepository bool
}

// Result is the output of one Generate run.
type Result struct {
	// Markdown is the rendered document.
	Markdown []byte

	// Diagram is the rendered call-graph diagram.
	Diagram []byte

	// Graph is the frozen code context graph.
	Graph *graph.Graph

	// Stats summarizes the graph.
	Stats graph.Stats

	// Diagnostics reports everything non-fatal that went wrong.
	Diagnostics Diagnostics
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets the extraction worker limit. Defaults to
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithDiagramFormat selects the diagram output syntax.
func WithDiagramFormat(f render.Format) Option {
	return func(s *Service) { s.diagramFormat = f }
}

// WithDiagramPath overrides the diagram path referenced from the
// document.
func WithDiagramPath(p string) Option {
	return func(s *Service) {
		if p != "" {
			s.diagramPath = p
		}
	}
}

// WithRegistry replaces the default extractor registry.
func WithRegistry(r *ast.ExtractorRegistry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service runs the documentation pipeline.
//
// Thread Safety: a Service is immutable after construction and safe
// for concurrent Generate calls.
type Service struct {
	registry      *ast.ExtractorRegistry
	workers       int
	diagramFormat render.Format
	diagramPath   string
	logger        *logging.Logger

	builder  *graph.Builder
	resolver *graph.Resolver
	document *render.DocumentRenderer
	diagram  *render.DiagramRenderer
}

// NewService creates a Service with the default extractors (Python,
// Go, JavaScript) registered.
func NewService(opts ...Option) (*Service, error) {
	registry := ast.NewExtractorRegistry()
	for _, e := range []ast.Extractor{
		ast.NewPythonExtractor(),
		ast.NewGoExtractor(),
		ast.NewJavaScriptExtractor(),
	} {
		if err := registry.Register(e); err != nil {
			return nil, fmt.Errorf("registering %s extractor: %w", e.Language(), err)
		}
	}

	s := &Service{
		registry:      registry,
		workers:       runtime.NumCPU(),
		diagramFormat: render.FormatSVG,
		logger:        logging.Default(),
		builder:       graph.NewBuilder(),
		resolver:      graph.NewResolver(),
		document:      render.NewDocumentRenderer(),
		diagram:       render.NewDiagramRenderer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.diagramPath == "" {
		s.diagramPath = "call_graph" + s.diagramFormat.Ext()
	}
	return s, nil
}

// Registry exposes the extractor registry, e.g. for the scanner's
// language detection.
func (s *Service) Registry() *ast.ExtractorRegistry { return s.registry }

// Generate runs the full pipeline over src.
//
// Extraction is parallel up to the worker limit; per-file failures
// become ParseFailure diagnostics and never abort the run. The
// returned error is non-nil only for source enumeration failures,
// cancellation, or internal invariant violations.
func (s *Service) Generate(ctx context.Context, src Source, meta Metadata) (*Result, error) {
	runID := uuid.NewString()
	log := &logging.Logger{Logger: s.logger.With("run_id", runID)}

	files, err := src.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	diag := Diagnostics{RunID: runID}

	// Partition into extractable and skipped.
	type job struct {
		info      FileInfo
		extractor ast.Extractor
	}
	var jobs []job
	for _, f := range files {
		lang := f.Language
		if lang == "" {
			if e, err := s.registry.ForExtension(path.Ext(f.Path)); err == nil {
				lang = e.Language()
			}
		}
		extractor, err := s.registry.ForLanguage(lang)
		if err != nil {
			diag.SkippedFiles = append(diag.SkippedFiles, f.Path)
			continue
		}
		jobs = append(jobs, job{info: f, extractor: extractor})
	}
	diag.EmptyRepository = len(jobs) == 0

	log.Info("generation started",
		"files", len(files),
		"extractable", len(jobs),
		"skipped", len(diag.SkippedFiles))

	// Parallel extraction. Each worker writes only its own slot, so
	// no mutex is needed; the Wait call is the barrier.
	results := make([]*ast.FileResult, len(jobs))
	failures := make([]*ParseFailure, len(jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for i, j := range jobs {
		i, j := i, j
		eg.Go(func() error {
			content, err := src.Read(egCtx, j.info.Path)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				failures[i] = &ParseFailure{FilePath: j.info.Path, Err: err}
				return nil
			}
			result, err := j.extractor.Extract(egCtx, content, j.info.Path)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				failures[i] = &ParseFailure{FilePath: j.info.Path, Err: err}
				return nil
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	var extracted []*ast.FileResult
	for i := range jobs {
		if failures[i] != nil {
			diag.ParseFailures = append(diag.ParseFailures, failures[i])
			log.Warn("parse failure", "file", failures[i].FilePath, "error", failures[i].Err)
			continue
		}
		if results[i] != nil {
			extracted = append(extracted, results[i])
		}
	}

	// Build and resolve, single-threaded.
	buildResult, err := s.builder.Build(ctx, extracted)
	if err != nil {
		return nil, err
	}
	for _, fe := range buildResult.FileErrors {
		diag.ParseFailures = append(diag.ParseFailures, &ParseFailure{FilePath: fe.FilePath, Err: fe.Err})
	}

	unresolved, err := s.resolver.Resolve(ctx, buildResult.Graph, extracted)
	if err != nil {
		return nil, err
	}
	diag.Unresolved = unresolved

	g := buildResult.Graph
	stats := graph.Aggregate(g, unresolved)

	// Render.
	overview := s.readmeOverview(ctx, src, log)
	markdown := s.document.Render(g, stats, render.RepoMetadata{
		Name:        meta.Name,
		SourceURL:   meta.SourceURL,
		Overview:    overview,
		DiagramPath: s.diagramPath,
	})
	diagramBytes, err := s.diagram.Render(g, s.diagramFormat)
	if err != nil {
		return nil, fmt.Errorf("rendering diagram: %w", err)
	}

	log.Info("generation finished",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"parse_failures", len(diag.ParseFailures),
		"unresolved", len(diag.Unresolved))

	return &Result{
		Markdown:    markdown,
		Diagram:     diagramBytes,
		Graph:       g,
		Stats:       stats,
		Diagnostics: diag,
	}, nil
}

// readmeOverview produces the overview text from the source's README,
// when available.
func (s *Service) readmeOverview(ctx context.Context, src Source, log *logging.Logger) string {
	rp, ok := src.(ReadmeProvider)
	if !ok {
		return ""
	}
	readme, err := rp.Readme(ctx)
	if err != nil {
		log.Warn("reading README failed", "error", err)
		return ""
	}
	if strings.TrimSpace(readme) == "" {
		return ""
	}
	return SummarizeReadme(readme)
}
