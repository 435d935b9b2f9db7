// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/graph"
)

// declFixture builds a declaration without going through extraction.
func declFixture(filePath, qual, name string, kind ast.Kind, parentID string, start, end int, sig, doc string) *ast.Declaration {
	return &ast.Declaration{
		ID:            ast.GenerateID(filePath, qual),
		Kind:          kind,
		Name:          name,
		QualifiedName: qual,
		FilePath:      filePath,
		StartLine:     start,
		EndLine:       end,
		Signature:     sig,
		DocSummary:    doc,
		ParentID:      parentID,
		Exported:      true,
		Language:      "python",
	}
}

// fixtureGraph builds a small two-file graph with classes, functions,
// and one resolved call.
func fixtureGraph(t *testing.T) (*graph.Graph, graph.Stats) {
	t.Helper()
	g := graph.NewGraph()

	mu := declFixture("pkg/util.py", "pkg.util", "util", ast.KindModule, "", 1, 30, "", "Utility helpers.")
	base := declFixture("pkg/util.py", "pkg.util.Base", "Base", ast.KindClass, mu.ID, 3, 10, "Base", "Base class.")
	greet := declFixture("pkg/util.py", "pkg.util.Base.greet", "greet", ast.KindFunction, base.ID, 5, 7, "greet(self)", "")
	child := declFixture("pkg/util.py", "pkg.util.Child", "Child", ast.KindClass, mu.ID, 12, 20, "Child(Base)", "")
	run := declFixture("pkg/util.py", "pkg.util.Child.run", "run", ast.KindFunction, child.ID, 13, 15, "run(self)", "")

	mm := declFixture("main.py", "main", "main", ast.KindModule, "", 1, 10, "", "")
	mainFn := declFixture("main.py", "main.main", "main", ast.KindFunction, mm.ID, 2, 8, "main()", "Entry point.")

	for _, d := range []*ast.Declaration{mu, base, greet, child, run, mm, mainFn} {
		require.NoError(t, g.AddNode(d))
	}
	for _, d := range []*ast.Declaration{base, greet, child, run, mainFn} {
		require.NoError(t, g.AddEdge(graph.Edge{SourceID: d.ParentID, TargetID: d.ID, Kind: graph.EdgeContains}))
	}
	require.NoError(t, g.AddEdge(graph.Edge{
		SourceID: mainFn.ID, TargetID: run.ID, Kind: graph.EdgeCalls, FilePath: "main.py", Line: 4,
	}))
	require.NoError(t, g.AddEdge(graph.Edge{
		SourceID: run.ID, TargetID: greet.ID, Kind: graph.EdgeCalls, FilePath: "pkg/util.py", Line: 14,
	}))
	require.NoError(t, g.AddEdge(graph.Edge{
		SourceID: child.ID, TargetID: base.ID, Kind: graph.EdgeInherits, FilePath: "pkg/util.py", Line: 12,
	}))
	require.NoError(t, g.Freeze())

	return g, graph.Aggregate(g, nil)
}

func TestDocumentRendererSectionOrder(t *testing.T) {
	g, stats := fixtureGraph(t)
	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{Name: "demo"}))

	sections := []string{
		"# demo - Code Documentation",
		"## Overview",
		"## Repository Statistics",
		"## File Structure",
		"## Code Structure",
		"## Function Call Graph",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(doc, s)
		require.GreaterOrEqual(t, idx, 0, "section %q missing", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}
}

func TestDocumentRendererStatisticsTable(t *testing.T) {
	g, stats := fixtureGraph(t)
	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{Name: "demo"}))

	assert.Contains(t, doc, "| Files | 2 |")
	assert.Contains(t, doc, "| Classes | 2 |")
	assert.Contains(t, doc, "| Functions | 3 |")
	assert.Contains(t, doc, "| Call Edges | 2 |")
	assert.Contains(t, doc, "| Inheritance Edges | 1 |")
	assert.Contains(t, doc, "| Unresolved References | 0 |")
}

func TestDocumentRendererCodeStructure(t *testing.T) {
	g, stats := fixtureGraph(t)
	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{Name: "demo"}))

	assert.Contains(t, doc, "### `main.py`")
	assert.Contains(t, doc, "### `pkg/util.py`")
	assert.Contains(t, doc, "Utility helpers.")
	assert.Contains(t, doc, "- `Child(Base)` (lines 12-20)")
	assert.Contains(t, doc, "  - `run(self)` (lines 13-15)")
	assert.Contains(t, doc, "- `main()` (lines 2-8): Entry point.")

	// Files render sorted: main.py before pkg/util.py.
	assert.Less(t, strings.Index(doc, "### `main.py`"), strings.Index(doc, "### `pkg/util.py`"))
}

func TestDocumentRendererDeeplyNestedDeclarations(t *testing.T) {
	g := graph.NewGraph()

	mod := declFixture("a.py", "a", "a", ast.KindModule, "", 1, 12, "", "")
	cls := declFixture("a.py", "a.A", "A", ast.KindClass, mod.ID, 1, 10, "A", "")
	method := declFixture("a.py", "a.A.m", "m", ast.KindFunction, cls.ID, 2, 8, "m(self)", "")
	inner := declFixture("a.py", "a.A.m.inner", "inner", ast.KindFunction, method.ID, 3, 5, "inner()", "")
	topFn := declFixture("a.py", "a.top", "top", ast.KindFunction, mod.ID, 11, 12, "top()", "")
	local := declFixture("a.py", "a.top.local", "local", ast.KindFunction, topFn.ID, 11, 12, "local()", "")

	for _, d := range []*ast.Declaration{mod, cls, method, inner, topFn, local} {
		require.NoError(t, g.AddNode(d))
	}
	for _, d := range []*ast.Declaration{cls, method, inner, topFn, local} {
		require.NoError(t, g.AddEdge(graph.Edge{SourceID: d.ParentID, TargetID: d.ID, Kind: graph.EdgeContains}))
	}
	require.NoError(t, g.AddEdge(graph.Edge{
		SourceID: method.ID, TargetID: inner.ID, Kind: graph.EdgeCalls, FilePath: "a.py", Line: 7,
	}))
	require.NoError(t, g.Freeze())
	stats := graph.Aggregate(g, nil)

	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{Name: "deep"}))

	// Every counted declaration appears, indented by containment depth.
	assert.Contains(t, doc, "| Functions | 4 |")
	assert.Contains(t, doc, "- `A` (lines 1-10)")
	assert.Contains(t, doc, "  - `m(self)` (lines 2-8)")
	assert.Contains(t, doc, "    - `inner()` (lines 3-5)")
	assert.Contains(t, doc, "- `top()` (lines 11-12)")
	assert.Contains(t, doc, "  - `local()` (lines 11-12)")
}

func TestDocumentRendererFileStructureTree(t *testing.T) {
	g, stats := fixtureGraph(t)
	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{Name: "demo"}))

	assert.Contains(t, doc, "pkg/\n    util.py\n")
	assert.Contains(t, doc, "main.py\n")
}

func TestDocumentRendererDiagramReference(t *testing.T) {
	g, stats := fixtureGraph(t)
	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{Name: "demo", DiagramPath: "out/graph.dot"}))
	assert.Contains(t, doc, "![Call Graph](out/graph.dot)")
}

func TestDocumentRendererOverviewFromMetadata(t *testing.T) {
	g, stats := fixtureGraph(t)
	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{
		Name:      "demo",
		SourceURL: "https://example.com/demo.git",
		Overview:  "A demo project.",
	}))
	assert.Contains(t, doc, "**Repository:** https://example.com/demo.git")
	assert.Contains(t, doc, "A demo project.")
}

func TestDocumentRendererEmptyRepository(t *testing.T) {
	g := graph.NewGraph()
	require.NoError(t, g.Freeze())
	stats := graph.Aggregate(g, nil)

	doc := string(NewDocumentRenderer().Render(g, stats, RepoMetadata{Name: "empty"}))
	assert.Contains(t, doc, "No supported source files were found")
	assert.Contains(t, doc, "| Files | 0 |")
	assert.Contains(t, doc, "(empty)")
	assert.Contains(t, doc, "No function calls were resolved.")
}

func TestDocumentRendererByteDeterministic(t *testing.T) {
	g, stats := fixtureGraph(t)
	meta := RepoMetadata{Name: "demo", SourceURL: "https://example.com/demo.git"}
	r := NewDocumentRenderer()
	a := r.Render(g, stats, meta)
	b := r.Render(g, stats, meta)
	assert.Equal(t, a, b)
}
