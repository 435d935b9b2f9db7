// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph implements the code context graph: a unified node and
// edge table built from per-file extraction results, with deterministic
// reference resolution and summary statistics.
//
// The graph has a two-phase lifecycle. During building, nodes and edges
// are added and indexes are maintained incrementally. Freeze validates
// the indexes and flips the graph to read-only; after that, mutation
// returns ErrGraphFrozen and reads need no locking.
package graph

import "errors"

// Sentinel errors. Callers match with errors.Is.
var (
	// ErrGraphFrozen indicates a mutation was attempted after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen")

	// ErrNodeNotFound indicates a lookup for an unknown node id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode indicates AddNode was called twice with the
	// same id.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrInvalidNode indicates a node failed validation.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidEdge indicates an edge with an unknown kind or a
	// missing endpoint.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrMaxNodesExceeded indicates the configured node limit was hit.
	ErrMaxNodesExceeded = errors.New("max nodes exceeded")

	// ErrMaxEdgesExceeded indicates the configured edge limit was hit.
	ErrMaxEdgesExceeded = errors.New("max edges exceeded")

	// ErrBuildCancelled indicates the context was cancelled during a
	// build or resolve pass.
	ErrBuildCancelled = errors.New("build cancelled")

	// ErrIndexCorruption indicates Freeze found an index inconsistent
	// with the node or edge table.
	ErrIndexCorruption = errors.New("index corruption detected")
)
