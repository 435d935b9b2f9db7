// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package render turns a resolved code context graph into output
// artifacts: a markdown document and a call-graph diagram.
//
// Rendering is byte-deterministic: every collection is explicitly
// sorted and no timestamps or environment data enter the output, so
// the same graph always produces identical bytes.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/graph"
)

// RepoMetadata carries the repository-level fields the document
// references.
type RepoMetadata struct {
	// Name is the repository display name.
	Name string

	// SourceURL is the repository origin, if known.
	SourceURL string

	// Overview is the prose overview, typically the README summary.
	// Empty means a placeholder line is rendered.
	Overview string

	// DiagramPath is the relative path the diagram reference points
	// at. Defaults to "call_graph.svg".
	DiagramPath string
}

// DocumentRenderer produces the markdown document.
//
// Section order is fixed: overview, statistics, file structure,
// per-file code structure, call graph reference. Renderer instances
// are stateless and safe for concurrent use.
type DocumentRenderer struct{}

// NewDocumentRenderer creates a DocumentRenderer.
func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{}
}

// Render produces the full markdown document for a resolved graph.
//
// The graph may be empty; the document is still rendered with zeroed
// statistics and an explanatory overview.
func (r *DocumentRenderer) Render(g *graph.Graph, stats graph.Stats, meta RepoMetadata) []byte {
	var b strings.Builder

	name := meta.Name
	if name == "" {
		name = "Repository"
	}
	diagramPath := meta.DiagramPath
	if diagramPath == "" {
		diagramPath = "call_graph.svg"
	}

	fmt.Fprintf(&b, "# %s - Code Documentation\n\n", name)
	if meta.SourceURL != "" {
		fmt.Fprintf(&b, "**Repository:** %s\n\n", meta.SourceURL)
	}
	b.WriteString("**Generated by:** Codebase Genius\n\n")
	b.WriteString("---\n\n")

	r.renderOverview(&b, g, meta)
	r.renderStatistics(&b, stats)
	r.renderFileStructure(&b, g)
	r.renderCodeStructure(&b, g)

	b.WriteString("## Function Call Graph\n\n")
	if stats.CallEdgeCount == 0 {
		b.WriteString("No function calls were resolved.\n")
	} else {
		fmt.Fprintf(&b, "![Call Graph](%s)\n", diagramPath)
	}

	return []byte(b.String())
}

func (r *DocumentRenderer) renderOverview(b *strings.Builder, g *graph.Graph, meta RepoMetadata) {
	b.WriteString("## Overview\n\n")
	switch {
	case meta.Overview != "":
		b.WriteString(strings.TrimSpace(meta.Overview))
		b.WriteString("\n\n")
	case g == nil || g.NodeCount() == 0:
		b.WriteString("No supported source files were found in this repository.\n\n")
	default:
		b.WriteString("No README was found; see the code structure below.\n\n")
	}
}

func (r *DocumentRenderer) renderStatistics(b *strings.Builder, stats graph.Stats) {
	b.WriteString("## Repository Statistics\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Files | %d |\n", stats.FileCount)
	fmt.Fprintf(b, "| Classes | %d |\n", stats.ClassCount)
	fmt.Fprintf(b, "| Functions | %d |\n", stats.FunctionCount)
	fmt.Fprintf(b, "| Call Edges | %d |\n", stats.CallEdgeCount)
	fmt.Fprintf(b, "| Inheritance Edges | %d |\n", stats.InheritsEdgeCount)
	fmt.Fprintf(b, "| Import Edges | %d |\n", stats.ImportEdgeCount)
	fmt.Fprintf(b, "| Unresolved References | %d |\n", stats.UnresolvedCount)
	b.WriteString("\n")
}

// fileTreeNode is one directory or file in the structure rendering.
type fileTreeNode struct {
	name     string
	isDir    bool
	children map[string]*fileTreeNode
}

func (r *DocumentRenderer) renderFileStructure(b *strings.Builder, g *graph.Graph) {
	b.WriteString("## File Structure\n\n")
	files := []string{}
	if g != nil {
		files = g.Files()
	}
	if len(files) == 0 {
		b.WriteString("```\n(empty)\n```\n\n")
		return
	}

	root := &fileTreeNode{isDir: true, children: make(map[string]*fileTreeNode)}
	for _, f := range files {
		cur := root
		segs := strings.Split(f, "/")
		for i, seg := range segs {
			child, ok := cur.children[seg]
			if !ok {
				child = &fileTreeNode{
					name:     seg,
					isDir:    i < len(segs)-1,
					children: make(map[string]*fileTreeNode),
				}
				cur.children[seg] = child
			}
			cur = child
		}
	}

	b.WriteString("```\n")
	writeTree(b, root, 0)
	b.WriteString("```\n\n")
}

// writeTree renders the file tree with directories before files, each
// level sorted by name.
func writeTree(b *strings.Builder, n *fileTreeNode, depth int) {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, c := n.children[names[i]], n.children[names[j]]
		if a.isDir != c.isDir {
			return a.isDir
		}
		return a.name < c.name
	})
	for _, name := range names {
		child := n.children[name]
		b.WriteString(strings.Repeat("    ", depth))
		if child.isDir {
			b.WriteString(child.name + "/\n")
		} else {
			b.WriteString(child.name + "\n")
		}
		writeTree(b, child, depth+1)
	}
}

func (r *DocumentRenderer) renderCodeStructure(b *strings.Builder, g *graph.Graph) {
	b.WriteString("## Code Structure\n\n")
	if g == nil || g.NodeCount() == 0 {
		b.WriteString("No declarations were extracted.\n\n")
		return
	}

	for _, filePath := range g.Files() {
		fmt.Fprintf(b, "### `%s`\n\n", filePath)

		ids := g.NodesByFile(filePath)
		byParent := make(map[string][]*ast.Declaration)
		var module *ast.Declaration
		for _, id := range ids {
			n, err := g.GetNode(id)
			if err != nil {
				continue
			}
			d := n.Decl
			if d.Kind == ast.KindModule {
				module = d
				continue
			}
			byParent[d.ParentID] = append(byParent[d.ParentID], d)
		}
		if module == nil {
			continue
		}
		if module.DocSummary != "" {
			fmt.Fprintf(b, "%s\n\n", module.DocSummary)
		}

		top := byParent[module.ID]
		classes := filterKind(top, ast.KindClass)
		functions := filterKind(top, ast.KindFunction)

		if len(classes) > 0 {
			b.WriteString("**Classes:**\n\n")
			for _, cls := range classes {
				writeDeclTree(b, byParent, cls, 0)
			}
			b.WriteString("\n")
		}
		if len(functions) > 0 {
			b.WriteString("**Functions:**\n\n")
			for _, fn := range functions {
				writeDeclTree(b, byParent, fn, 0)
			}
			b.WriteString("\n")
		}
		if len(classes) == 0 && len(functions) == 0 {
			b.WriteString("No classes or functions.\n\n")
		}
	}
}

// writeDeclTree renders a declaration and everything nested inside it,
// one indent level per containment step. Contains edges form a forest,
// so the recursion terminates.
func writeDeclTree(b *strings.Builder, byParent map[string][]*ast.Declaration, d *ast.Declaration, level int) {
	writeDeclLine(b, d, level)
	for _, child := range byParent[d.ID] {
		writeDeclTree(b, byParent, child, level+1)
	}
}

// writeDeclLine renders one declaration bullet at the given nesting
// level.
func writeDeclLine(b *strings.Builder, d *ast.Declaration, level int) {
	sig := d.Signature
	if sig == "" {
		sig = d.Name
	}
	b.WriteString(strings.Repeat("  ", level))
	fmt.Fprintf(b, "- `%s` (lines %d-%d)", sig, d.StartLine, d.EndLine)
	if d.DocSummary != "" {
		fmt.Fprintf(b, ": %s", d.DocSummary)
	}
	b.WriteString("\n")
}

// filterKind keeps declarations of one kind, preserving source order.
func filterKind(decls []*ast.Declaration, kind ast.Kind) []*ast.Declaration {
	var out []*ast.Declaration
	for _, d := range decls {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
