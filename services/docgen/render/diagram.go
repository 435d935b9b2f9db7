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
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/graph"
)

// Format selects the diagram output syntax.
type Format string

const (
	// FormatDOT emits Graphviz DOT source; layout is delegated to an
	// external Graphviz installation.
	FormatDOT Format = "dot"

	// FormatMermaid emits a Mermaid flowchart.
	FormatMermaid Format = "mermaid"

	// FormatSVG emits a self-contained SVG with a circular layout;
	// no external tool required.
	FormatSVG Format = "svg"
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "dot":
		return FormatDOT, nil
	case "mermaid":
		return FormatMermaid, nil
	case "svg", "":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unknown diagram format %q", s)
	}
}

// Ext returns the file extension for the format, with a leading dot.
func (f Format) Ext() string {
	switch f {
	case FormatDOT:
		return ".dot"
	case FormatMermaid:
		return ".mmd"
	default:
		return ".svg"
	}
}

// diagramEdge is one deduplicated caller/callee pair.
type diagramEdge struct {
	src, dst string // node labels
	count    int
}

// DiagramRenderer projects the graph's calls edges into a diagram.
//
// Nodes are labeled with qualified names; nodes without any call edge
// are omitted from the diagram (they remain in the document). Output
// is byte-deterministic: nodes sort by label, edges by (source,
// target), and duplicate call sites collapse into one edge with a
// count label.
type DiagramRenderer struct{}

// NewDiagramRenderer creates a DiagramRenderer.
func NewDiagramRenderer() *DiagramRenderer {
	return &DiagramRenderer{}
}

// Render produces the diagram bytes for the graph's calls edges. An
// empty or call-free graph renders to a valid empty diagram.
func (r *DiagramRenderer) Render(g *graph.Graph, format Format) ([]byte, error) {
	labels, edges := r.project(g)
	switch format {
	case FormatDOT:
		return r.renderDOT(labels, edges), nil
	case FormatMermaid:
		return r.renderMermaid(labels, edges), nil
	case FormatSVG:
		return r.renderSVG(labels, edges), nil
	default:
		return nil, fmt.Errorf("unknown diagram format %q", format)
	}
}

// project extracts sorted node labels and deduplicated edges from the
// graph's calls edges.
func (r *DiagramRenderer) project(g *graph.Graph) ([]string, []diagramEdge) {
	if g == nil {
		return nil, nil
	}
	counts := make(map[[2]string]int)
	labelSet := make(map[string]bool)
	for _, e := range g.EdgesByKind(graph.EdgeCalls) {
		src, err := g.GetNode(e.SourceID)
		if err != nil {
			continue
		}
		dst, err := g.GetNode(e.TargetID)
		if err != nil {
			continue
		}
		key := [2]string{src.Decl.QualifiedName, dst.Decl.QualifiedName}
		counts[key]++
		labelSet[key[0]] = true
		labelSet[key[1]] = true
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	edges := make([]diagramEdge, 0, len(counts))
	for key, n := range counts {
		edges = append(edges, diagramEdge{src: key[0], dst: key[1], count: n})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].src != edges[j].src {
			return edges[i].src < edges[j].src
		}
		return edges[i].dst < edges[j].dst
	})
	return labels, edges
}

// renderDOT emits Graphviz source matching the conventional call
// graph styling: left-to-right, rounded light blue boxes.
func (r *DiagramRenderer) renderDOT(labels []string, edges []diagramEdge) []byte {
	var b strings.Builder
	b.WriteString("digraph CallGraph {\n")
	b.WriteString("    rankdir=LR;\n")
	b.WriteString("    node [shape=box, style=\"rounded,filled\", fillcolor=lightblue];\n")
	b.WriteString("    label=\"Function Call Graph\";\n")
	b.WriteString("    fontsize=16;\n")
	for _, l := range labels {
		fmt.Fprintf(&b, "    %s;\n", dotQuote(l))
	}
	for _, e := range edges {
		if e.count > 1 {
			fmt.Fprintf(&b, "    %s -> %s [label=\"%d\"];\n", dotQuote(e.src), dotQuote(e.dst), e.count)
		} else {
			fmt.Fprintf(&b, "    %s -> %s;\n", dotQuote(e.src), dotQuote(e.dst))
		}
	}
	b.WriteString("}\n")
	return []byte(b.String())
}

// renderMermaid emits a Mermaid flowchart with stable generated ids.
func (r *DiagramRenderer) renderMermaid(labels []string, edges []diagramEdge) []byte {
	var b strings.Builder
	b.WriteString("graph LR\n")
	ids := make(map[string]string, len(labels))
	for i, l := range labels {
		id := fmt.Sprintf("n%d", i)
		ids[l] = id
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", id, mermaidEscape(l))
	}
	for _, e := range edges {
		if e.count > 1 {
			fmt.Fprintf(&b, "    %s -->|%d| %s\n", ids[e.src], e.count, ids[e.dst])
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", ids[e.src], ids[e.dst])
		}
	}
	return []byte(b.String())
}

// renderSVG emits a self-contained SVG using a circular layout. Not a
// substitute for a real layout engine, but dependency-free and stable.
func (r *DiagramRenderer) renderSVG(labels []string, edges []diagramEdge) []byte {
	const (
		width   = 1200.0
		height  = 900.0
		nodeW   = 180.0
		nodeH   = 36.0
		padding = 60.0
	)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		width, height, width, height)
	b.WriteString(`  <defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="#333"/></marker></defs>` + "\n")
	fmt.Fprintf(&b, `  <text x="%.0f" y="30" font-family="Arial" font-size="18" text-anchor="middle" font-weight="bold">Function Call Graph</text>`+"\n", width/2)

	if len(labels) == 0 {
		fmt.Fprintf(&b, `  <text x="%.0f" y="%.0f" font-family="Arial" font-size="14" text-anchor="middle" fill="#666">No resolved calls</text>`+"\n", width/2, height/2)
		b.WriteString("</svg>\n")
		return []byte(b.String())
	}

	// Node centers on a circle, in label order.
	cx, cy := width/2, height/2
	rx := width/2 - nodeW/2 - padding
	ry := height/2 - nodeH/2 - padding
	centers := make(map[string][2]float64, len(labels))
	for i, l := range labels {
		angle := 2 * math.Pi * float64(i) / float64(len(labels))
		x := cx + rx*math.Cos(angle)
		y := cy + ry*math.Sin(angle)
		centers[l] = [2]float64{x, y}
	}

	for _, e := range edges {
		s, d := centers[e.src], centers[e.dst]
		if e.src == e.dst {
			// Self call: a small loop above the node.
			fmt.Fprintf(&b, `  <path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="#333" marker-end="url(#arrow)"/>`+"\n",
				s[0]-20, s[1]-nodeH/2, s[0]-40, s[1]-nodeH/2-40, s[0]+40, s[1]-nodeH/2-40, s[0]+20, s[1]-nodeH/2)
			continue
		}
		fmt.Fprintf(&b, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" marker-end="url(#arrow)"/>`+"\n",
			s[0], s[1], d[0], d[1])
		if e.count > 1 {
			fmt.Fprintf(&b, `  <text x="%.1f" y="%.1f" font-family="Arial" font-size="11" text-anchor="middle" fill="#333">%d</text>`+"\n",
				(s[0]+d[0])/2, (s[1]+d[1])/2-4, e.count)
		}
	}

	for _, l := range labels {
		c := centers[l]
		fmt.Fprintf(&b, `  <rect x="%.1f" y="%.1f" width="%.0f" height="%.0f" rx="8" fill="lightblue" stroke="#336"/>`+"\n",
			c[0]-nodeW/2, c[1]-nodeH/2, nodeW, nodeH)
		fmt.Fprintf(&b, `  <text x="%.1f" y="%.1f" font-family="Arial" font-size="12" text-anchor="middle">%s</text>`+"\n",
			c[0], c[1]+4, svgEscape(truncateLabel(l, 28)))
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

// dotQuote quotes and escapes a DOT identifier.
func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// mermaidEscape neutralizes characters with Mermaid syntax meaning.
func mermaidEscape(s string) string {
	replacer := strings.NewReplacer(
		`"`, "#quot;",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"|", "/",
	)
	return replacer.Replace(s)
}

// svgEscape escapes XML-significant characters.
func svgEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}

// truncateLabel shortens long labels from the front, keeping the most
// specific trailing segments visible.
func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
