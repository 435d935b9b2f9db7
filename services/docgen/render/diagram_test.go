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

// callGraphFixture builds a graph with two resolved calls, one of
// them duplicated, plus an isolated function.
func callGraphFixture(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()

	m := declFixture("a.py", "a", "a", ast.KindModule, "", 1, 20, "", "")
	f := declFixture("a.py", "a.f", "f", ast.KindFunction, m.ID, 2, 6, "f()", "")
	h := declFixture("a.py", "a.helper", "helper", ast.KindFunction, m.ID, 8, 10, "helper()", "")
	iso := declFixture("a.py", "a.isolated", "isolated", ast.KindFunction, m.ID, 12, 14, "isolated()", "")

	for _, d := range []*ast.Declaration{m, f, h, iso} {
		require.NoError(t, g.AddNode(d))
	}
	for _, d := range []*ast.Declaration{f, h, iso} {
		require.NoError(t, g.AddEdge(graph.Edge{SourceID: d.ParentID, TargetID: d.ID, Kind: graph.EdgeContains}))
	}
	// f calls helper twice: collapses to one diagram edge with count.
	for _, line := range []int{3, 4} {
		require.NoError(t, g.AddEdge(graph.Edge{
			SourceID: f.ID, TargetID: h.ID, Kind: graph.EdgeCalls, FilePath: "a.py", Line: line,
		}))
	}
	require.NoError(t, g.AddEdge(graph.Edge{
		SourceID: f.ID, TargetID: f.ID, Kind: graph.EdgeCalls, FilePath: "a.py", Line: 5,
	}))
	require.NoError(t, g.Freeze())
	return g
}

func TestDiagramRendererDOT(t *testing.T) {
	g := callGraphFixture(t)
	out, err := NewDiagramRenderer().Render(g, FormatDOT)
	require.NoError(t, err)
	dot := string(out)

	assert.Contains(t, dot, "digraph CallGraph {")
	assert.Contains(t, dot, "rankdir=LR;")
	assert.Contains(t, dot, "fillcolor=lightblue")
	assert.Contains(t, dot, `"a.f" -> "a.helper" [label="2"];`)
	assert.Contains(t, dot, `"a.f" -> "a.f";`)
	// Isolated declarations are omitted from the diagram.
	assert.NotContains(t, dot, "a.isolated")
}

func TestDiagramRendererMermaid(t *testing.T) {
	g := callGraphFixture(t)
	out, err := NewDiagramRenderer().Render(g, FormatMermaid)
	require.NoError(t, err)
	mmd := string(out)

	assert.True(t, strings.HasPrefix(mmd, "graph LR\n"))
	assert.Contains(t, mmd, `n0["a.f"]`)
	assert.Contains(t, mmd, `n1["a.helper"]`)
	assert.Contains(t, mmd, "n0 -->|2| n1")
	assert.Contains(t, mmd, "n0 --> n0")
	assert.NotContains(t, mmd, "isolated")
}

func TestDiagramRendererSVG(t *testing.T) {
	g := callGraphFixture(t)
	out, err := NewDiagramRenderer().Render(g, FormatSVG)
	require.NoError(t, err)
	svg := string(out)

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
	assert.Contains(t, svg, "a.f")
	assert.Contains(t, svg, "a.helper")
	assert.Contains(t, svg, "marker-end")
	assert.NotContains(t, svg, "isolated")
}

func TestDiagramRendererEmptyGraph(t *testing.T) {
	g := graph.NewGraph()
	require.NoError(t, g.Freeze())
	r := NewDiagramRenderer()

	dot, err := r.Render(g, FormatDOT)
	require.NoError(t, err)
	assert.Contains(t, string(dot), "digraph CallGraph {")

	mmd, err := r.Render(g, FormatMermaid)
	require.NoError(t, err)
	assert.Equal(t, "graph LR\n", string(mmd))

	svg, err := r.Render(g, FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "No resolved calls")
}

func TestDiagramRendererDeterministic(t *testing.T) {
	g := callGraphFixture(t)
	r := NewDiagramRenderer()
	for _, format := range []Format{FormatDOT, FormatMermaid, FormatSVG} {
		a, err := r.Render(g, format)
		require.NoError(t, err)
		b, err := r.Render(g, format)
		require.NoError(t, err)
		assert.Equal(t, a, b, "format %s", format)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("dot")
	require.NoError(t, err)
	assert.Equal(t, FormatDOT, f)

	f, err = ParseFormat("MERMAID")
	require.NoError(t, err)
	assert.Equal(t, FormatMermaid, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)

	_, err = ParseFormat("png")
	assert.Error(t, err)

	assert.Equal(t, ".dot", FormatDOT.Ext())
	assert.Equal(t, ".mmd", FormatMermaid.Ext())
	assert.Equal(t, ".svg", FormatSVG.Ext())
}
