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

import "github.com/AleutianAI/CodebaseGenius/services/docgen/ast"

// Stats summarizes a resolved graph. Counts are derived purely from
// the graph and the unresolved list, so recomputing them on the same
// inputs always gives the same values.
type Stats struct {
	// FileCount is the number of module nodes (one per extracted
	// file).
	FileCount int

	// ClassCount is the number of class nodes.
	ClassCount int

	// FunctionCount is the number of function nodes, methods
	// included.
	FunctionCount int

	// CallEdgeCount is the number of calls edges, duplicates
	// included.
	CallEdgeCount int

	// InheritsEdgeCount is the number of inherits edges.
	InheritsEdgeCount int

	// ImportEdgeCount is the number of imports edges.
	ImportEdgeCount int

	// UnresolvedCount is the number of references the resolver
	// declined to resolve.
	UnresolvedCount int
}

// Aggregate computes Stats from a graph and the resolver's unresolved
// list. Safe to call on an empty graph: all counts are zero.
func Aggregate(g *Graph, unresolved []UnresolvedReference) Stats {
	if g == nil {
		return Stats{UnresolvedCount: len(unresolved)}
	}
	return Stats{
		FileCount:         len(g.NodesByKind(ast.KindModule)),
		ClassCount:        len(g.NodesByKind(ast.KindClass)),
		FunctionCount:     len(g.NodesByKind(ast.KindFunction)),
		CallEdgeCount:     len(g.edgesByKind[EdgeCalls]),
		InheritsEdgeCount: len(g.edgesByKind[EdgeInherits]),
		ImportEdgeCount:   len(g.edgesByKind[EdgeImports]),
		UnresolvedCount:   len(unresolved),
	}
}
