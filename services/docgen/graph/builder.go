// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
)

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxNodes overrides the graph node limit.
func WithMaxNodes(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.maxNodes = n
		}
	}
}

// WithMaxEdges overrides the graph edge limit.
func WithMaxEdges(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.maxEdges = n
		}
	}
}

// Builder merges per-file extraction results into one graph.
//
// Build creates nodes for every declaration and contains edges for the
// declaration forest, and nothing else; calls, inherits, and imports
// edges are the Resolver's job. Build is deterministic: results are
// processed in file path order regardless of the order extraction
// finished in.
//
// Thread Safety: a Builder is stateless between Build calls and safe
// for concurrent use; each call produces an independent graph.
type Builder struct {
	maxNodes int
	maxEdges int
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		maxNodes: DefaultMaxNodes,
		maxEdges: DefaultMaxEdges,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build merges results into a new graph.
//
// Per-file problems (validation failures, duplicate files, node
// limits) are recorded as FileErrors and the build continues; the
// returned error is non-nil only for cancellation. The graph is left
// in StateBuilding so the resolver can add edges.
//
// Build is idempotent: the same results produce an identical graph.
func (b *Builder) Build(ctx context.Context, results []*ast.FileResult) (*BuildResult, error) {
	start := time.Now()
	ctx, span := startSpan(ctx, "graph.build",
		attribute.Int("files", len(results)))
	defer span.End()

	g := NewGraph()
	g.maxNodes = b.maxNodes
	g.maxEdges = b.maxEdges
	out := &BuildResult{Graph: g}

	// Deterministic processing order, independent of extraction
	// scheduling.
	sorted := make([]*ast.FileResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	seenFiles := make(map[string]bool, len(sorted))
	for _, r := range sorted {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("%w: %v", ErrBuildCancelled, err)
		}
		if seenFiles[r.FilePath] {
			out.FileErrors = append(out.FileErrors, &FileError{
				FilePath: r.FilePath,
				Err:      fmt.Errorf("duplicate file result"),
			})
			continue
		}
		seenFiles[r.FilePath] = true

		if err := r.Validate(); err != nil {
			out.FileErrors = append(out.FileErrors, &FileError{FilePath: r.FilePath, Err: err})
			continue
		}
		b.addFile(g, r, out)
	}

	out.Incomplete = out.HasErrors()
	recordBuild(ctx, time.Since(start).Seconds(), g.NodeCount())
	return out, nil
}

// addFile inserts one file's declarations and containment edges.
func (b *Builder) addFile(g *Graph, r *ast.FileResult, out *BuildResult) {
	for _, decl := range r.Declarations {
		if err := g.AddNode(decl); err != nil {
			out.FileErrors = append(out.FileErrors, &FileError{FilePath: r.FilePath, Err: err})
			continue
		}
	}
	for _, decl := range r.Declarations {
		if decl.ParentID == "" {
			continue
		}
		err := g.AddEdge(Edge{
			SourceID: decl.ParentID,
			TargetID: decl.ID,
			Kind:     EdgeContains,
		})
		if err != nil {
			out.EdgeErrors = append(out.EdgeErrors, &EdgeError{
				SourceID: decl.ParentID,
				TargetID: decl.ID,
				Kind:     EdgeContains,
				Err:      err,
			})
		}
	}
}
