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
	"fmt"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
)

// FileError records a per-file problem during the build. Non-fatal:
// the build continues with the remaining files.
type FileError struct {
	FilePath string
	Err      error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s: %v", e.FilePath, e.Err)
}

// Unwrap returns the underlying error for errors.Is matching.
func (e *FileError) Unwrap() error { return e.Err }

// EdgeError records an edge that could not be added. Non-fatal.
type EdgeError struct {
	SourceID string
	TargetID string
	Kind     EdgeKind
	Err      error
}

// Error implements the error interface.
func (e *EdgeError) Error() string {
	return fmt.Sprintf("edge %s -> %s (%s): %v", e.SourceID, e.TargetID, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is matching.
func (e *EdgeError) Unwrap() error { return e.Err }

// UnresolvedReference is a reference the resolver declined to guess
// at. It is diagnostic output, never an edge.
type UnresolvedReference struct {
	// Reference is the raw reference as extracted.
	Reference ast.Reference

	// Reason says why resolution failed: "no match" or "ambiguous".
	Reason string
}

// String renders the unresolved reference for diagnostics.
func (u UnresolvedReference) String() string {
	return fmt.Sprintf("%s:%d: %s %q unresolved: %s",
		u.Reference.FilePath, u.Reference.Line, u.Reference.Kind, u.Reference.Text, u.Reason)
}

// BuildResult is the outcome of a build pass.
type BuildResult struct {
	// Graph is the built graph. Never nil, possibly empty.
	Graph *Graph

	// FileErrors are per-file problems encountered during the build.
	FileErrors []*FileError

	// EdgeErrors are edges that failed to insert.
	EdgeErrors []*EdgeError

	// Incomplete is true when any errors occurred; the graph is still
	// usable.
	Incomplete bool
}

// HasErrors reports whether any file or edge errors occurred.
func (r *BuildResult) HasErrors() bool {
	return len(r.FileErrors) > 0 || len(r.EdgeErrors) > 0
}
