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
	"sort"
	"sync"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
)

// EdgeKind classifies graph edges.
type EdgeKind int

const (
	// EdgeContains links a container to a declaration it encloses.
	// Contains edges form a forest: every node has at most one
	// containing parent.
	EdgeContains EdgeKind = iota

	// EdgeCalls links a caller to a callee. May form cycles.
	EdgeCalls

	// EdgeInherits links a class to its base class. May form cycles
	// in pathological inputs; the graph does not reject them.
	EdgeInherits

	// EdgeImports links a module to a module it imports.
	EdgeImports

	// NumEdgeKinds sizes per-kind index arrays.
	NumEdgeKinds
)

// String returns the lowercase edge kind name.
func (k EdgeKind) String() string {
	switch k {
	case EdgeContains:
		return "contains"
	case EdgeCalls:
		return "calls"
	case EdgeInherits:
		return "inherits"
	case EdgeImports:
		return "imports"
	default:
		return "unknown"
	}
}

// Edge is one directed relationship between two nodes.
type Edge struct {
	// SourceID and TargetID are node ids. Both endpoints always exist
	// in the graph; unresolved references never become edges.
	SourceID string
	TargetID string

	// Kind classifies the edge.
	Kind EdgeKind

	// FilePath and Line locate the evidence for the edge (the call
	// site, the class header, the import statement). Zero for
	// contains edges, which are structural.
	FilePath string
	Line     int
}

// Node is one declaration in the graph.
type Node struct {
	// ID equals Decl.ID.
	ID string

	// Decl is the declaration this node represents.
	Decl *ast.Declaration

	// Outgoing and Incoming are indexes into the graph's edge table,
	// populated during building.
	Outgoing []int
	Incoming []int
}

// GraphState is the lifecycle state of a Graph.
type GraphState int

const (
	// StateBuilding allows mutation.
	StateBuilding GraphState = iota

	// StateReadOnly is entered by Freeze; mutation is rejected and
	// reads are lock-free.
	StateReadOnly
)

// String returns "building" or "readonly".
func (s GraphState) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxNodes bounds graph growth on hostile inputs.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxEdges bounds edge growth on hostile inputs.
	DefaultMaxEdges = 5_000_000
)

// Graph is the code context graph: a flat node table plus an edge
// list, with secondary indexes for the lookups the resolver and the
// renderers need.
//
// Thread Safety: a Graph in StateBuilding must be confined to one
// goroutine or externally synchronized; the mutex only guards the
// state flip. After Freeze the graph is immutable and safe for
// concurrent reads.
type Graph struct {
	mu    sync.RWMutex
	state GraphState

	nodes map[string]*Node
	edges []Edge

	// nodeOrder preserves insertion order for deterministic iteration
	// before sorting.
	nodeOrder []string

	// Secondary indexes, maintained incrementally.
	nodesByName      map[string][]string   // unqualified name -> node ids
	nodesByQualified map[string][]string   // qualified name -> node ids
	nodesByFile      map[string][]string   // file path -> node ids
	nodesByKind      map[ast.Kind][]string // kind -> node ids
	edgesByKind      [NumEdgeKinds][]int   // kind -> edge indexes

	maxNodes int
	maxEdges int
}

// NewGraph creates an empty graph in StateBuilding with default
// limits.
func NewGraph() *Graph {
	return &Graph{
		state:            StateBuilding,
		nodes:            make(map[string]*Node),
		nodesByName:      make(map[string][]string),
		nodesByQualified: make(map[string][]string),
		nodesByFile:      make(map[string][]string),
		nodesByKind:      make(map[ast.Kind][]string),
		maxNodes:         DefaultMaxNodes,
		maxEdges:         DefaultMaxEdges,
	}
}

// State returns the current lifecycle state.
func (g *Graph) State() GraphState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// AddNode inserts a declaration as a node.
//
// Returns ErrGraphFrozen after Freeze, ErrDuplicateNode for a repeated
// id, ErrInvalidNode for a declaration that fails validation, and
// ErrMaxNodesExceeded at the node limit.
func (g *Graph) AddNode(decl *ast.Declaration) error {
	if g.State() != StateBuilding {
		return ErrGraphFrozen
	}
	if decl == nil {
		return fmt.Errorf("%w: nil declaration", ErrInvalidNode)
	}
	if err := decl.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	if _, exists := g.nodes[decl.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, decl.ID)
	}
	if len(g.nodes) >= g.maxNodes {
		return fmt.Errorf("%w: limit %d", ErrMaxNodesExceeded, g.maxNodes)
	}

	node := &Node{ID: decl.ID, Decl: decl}
	g.nodes[decl.ID] = node
	g.nodeOrder = append(g.nodeOrder, decl.ID)
	g.nodesByName[decl.Name] = append(g.nodesByName[decl.Name], decl.ID)
	g.nodesByQualified[decl.QualifiedName] = append(g.nodesByQualified[decl.QualifiedName], decl.ID)
	g.nodesByFile[decl.FilePath] = append(g.nodesByFile[decl.FilePath], decl.ID)
	g.nodesByKind[decl.Kind] = append(g.nodesByKind[decl.Kind], decl.ID)
	return nil
}

// AddEdge inserts an edge between two existing nodes.
//
// Self-edges are permitted for calls (recursion) and rejected for
// contains. Returns ErrNodeNotFound if either endpoint is missing.
func (g *Graph) AddEdge(e Edge) error {
	if g.State() != StateBuilding {
		return ErrGraphFrozen
	}
	if e.Kind < 0 || e.Kind >= NumEdgeKinds {
		return fmt.Errorf("%w: kind %d", ErrInvalidEdge, e.Kind)
	}
	if _, ok := g.nodes[e.SourceID]; !ok {
		return fmt.Errorf("%w: source %s", ErrNodeNotFound, e.SourceID)
	}
	if _, ok := g.nodes[e.TargetID]; !ok {
		return fmt.Errorf("%w: target %s", ErrNodeNotFound, e.TargetID)
	}
	if e.Kind == EdgeContains && e.SourceID == e.TargetID {
		return fmt.Errorf("%w: contains self-edge on %s", ErrInvalidEdge, e.SourceID)
	}
	if len(g.edges) >= g.maxEdges {
		return fmt.Errorf("%w: limit %d", ErrMaxEdgesExceeded, g.maxEdges)
	}

	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.edgesByKind[e.Kind] = append(g.edgesByKind[e.Kind], idx)
	g.nodes[e.SourceID].Outgoing = append(g.nodes[e.SourceID].Outgoing, idx)
	g.nodes[e.TargetID].Incoming = append(g.nodes[e.TargetID].Incoming, idx)
	return nil
}

// GetNode returns the node with the given id.
func (g *Graph) GetNode(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// HasNode reports whether id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edges returns the edge table. Callers must not mutate it.
func (g *Graph) Edges() []Edge { return g.edges }

// Edge returns the edge at index i.
func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// EdgesByKind returns the edges of one kind, in insertion order.
func (g *Graph) EdgesByKind(kind EdgeKind) []Edge {
	if kind < 0 || kind >= NumEdgeKinds {
		return nil
	}
	out := make([]Edge, 0, len(g.edgesByKind[kind]))
	for _, idx := range g.edgesByKind[kind] {
		out = append(out, g.edges[idx])
	}
	return out
}

// NodesByQualifiedName returns the ids of nodes with the given
// qualified name, sorted. More than one id means the name collides
// across files.
func (g *Graph) NodesByQualifiedName(qual string) []string {
	ids := append([]string(nil), g.nodesByQualified[qual]...)
	sort.Strings(ids)
	return ids
}

// NodesByName returns the ids of nodes with the given unqualified
// name, sorted.
func (g *Graph) NodesByName(name string) []string {
	ids := append([]string(nil), g.nodesByName[name]...)
	sort.Strings(ids)
	return ids
}

// NodesByKind returns the ids of nodes of one kind, sorted.
func (g *Graph) NodesByKind(kind ast.Kind) []string {
	ids := append([]string(nil), g.nodesByKind[kind]...)
	sort.Strings(ids)
	return ids
}

// NodesByFile returns the ids of nodes declared in a file, in
// insertion (source) order.
func (g *Graph) NodesByFile(filePath string) []string {
	return append([]string(nil), g.nodesByFile[filePath]...)
}

// Files returns the distinct file paths with nodes, sorted.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.nodesByFile))
	for f := range g.nodesByFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// NodeIDs returns all node ids, sorted.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Freeze validates the indexes and flips the graph to StateReadOnly.
// Idempotent: freezing a frozen graph is a no-op.
func (g *Graph) Freeze() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateReadOnly {
		return nil
	}
	if err := g.validateIndexes(); err != nil {
		return err
	}
	g.state = StateReadOnly
	return nil
}

// validateIndexes cross-checks every secondary index against the node
// and edge tables.
func (g *Graph) validateIndexes() error {
	if len(g.nodeOrder) != len(g.nodes) {
		return fmt.Errorf("%w: order has %d entries, table has %d",
			ErrIndexCorruption, len(g.nodeOrder), len(g.nodes))
	}
	indexed := 0
	for name, ids := range g.nodesByName {
		for _, id := range ids {
			n, ok := g.nodes[id]
			if !ok {
				return fmt.Errorf("%w: name index %q references missing node %s",
					ErrIndexCorruption, name, id)
			}
			if n.Decl.Name != name {
				return fmt.Errorf("%w: node %s indexed under name %q",
					ErrIndexCorruption, id, name)
			}
			indexed++
		}
	}
	if indexed != len(g.nodes) {
		return fmt.Errorf("%w: name index covers %d of %d nodes",
			ErrIndexCorruption, indexed, len(g.nodes))
	}
	edgeIndexed := 0
	for kind, idxs := range g.edgesByKind {
		for _, i := range idxs {
			if i < 0 || i >= len(g.edges) {
				return fmt.Errorf("%w: edge index %d out of range", ErrIndexCorruption, i)
			}
			if g.edges[i].Kind != EdgeKind(kind) {
				return fmt.Errorf("%w: edge %d indexed under kind %s",
					ErrIndexCorruption, i, EdgeKind(kind))
			}
			edgeIndexed++
		}
	}
	if edgeIndexed != len(g.edges) {
		return fmt.Errorf("%w: kind index covers %d of %d edges",
			ErrIndexCorruption, edgeIndexed, len(g.edges))
	}
	// Contains edges must form a forest: at most one containing
	// parent per node.
	parents := make(map[string]string)
	for _, i := range g.edgesByKind[EdgeContains] {
		e := g.edges[i]
		if prev, ok := parents[e.TargetID]; ok && prev != e.SourceID {
			return fmt.Errorf("%w: node %s contained by both %s and %s",
				ErrIndexCorruption, e.TargetID, prev, e.SourceID)
		}
		parents[e.TargetID] = e.SourceID
	}
	return nil
}
