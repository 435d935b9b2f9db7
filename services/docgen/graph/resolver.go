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
	"path"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
)

// Resolver turns raw references into calls, inherits, and imports
// edges.
//
// Resolution is deterministic and conservative. For every reference
// three lookups run in order and the first hit wins:
//
//  1. same-file match on the qualified name (with self/cls/this
//     expanded against the enclosing class)
//  2. import-qualified match through the file's import bindings
//  3. globally-unique unqualified match on the last name segment
//
// A reference whose import binding points outside the repository, or
// whose unqualified name matches zero or several declarations, becomes
// an UnresolvedReference. The resolver never guesses.
//
// Resolve is single-threaded by design; it runs after the parallel
// extraction barrier.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// fileScope is the per-file resolution context derived from imports.
type fileScope struct {
	modulePath string

	// bindings maps a local name (or dotted prefix) to the qualified
	// path it stands for.
	bindings map[string]string

	// wildcards are modules pulled in by "from m import *".
	wildcards []string
}

// Resolve adds calls, inherits, and imports edges to g from the raw
// references in results, freezes the graph, and returns the
// references it declined to resolve.
//
// References are processed in (file, line) order so the outcome never
// depends on extraction scheduling. Duplicate call sites produce
// duplicate edges; renderers collapse them.
func (r *Resolver) Resolve(ctx context.Context, g *Graph, results []*ast.FileResult) ([]UnresolvedReference, error) {
	start := time.Now()
	ctx, span := startSpan(ctx, "graph.resolve",
		attribute.Int("files", len(results)))
	defer span.End()

	sorted := make([]*ast.FileResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			sorted = append(sorted, res)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	scopes := make(map[string]*fileScope, len(sorted))
	for _, res := range sorted {
		scopes[res.FilePath] = buildFileScope(res)
	}

	// Phase A: imports edges, module to module.
	for _, res := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuildCancelled, err)
		}
		r.resolveImports(g, res)
	}

	// Phase B: calls and inherits, in deterministic reference order.
	var unresolved []UnresolvedReference
	resolved := 0
	for _, res := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuildCancelled, err)
		}
		refs := append([]ast.Reference(nil), res.References...)
		sort.SliceStable(refs, func(i, j int) bool { return refs[i].Line < refs[j].Line })

		scope := scopes[res.FilePath]
		for _, ref := range refs {
			if ref.Text == "" {
				continue
			}
			targetID, reason := r.resolveReference(g, scope, ref)
			if targetID == "" {
				unresolved = append(unresolved, UnresolvedReference{Reference: ref, Reason: reason})
				continue
			}
			kind := EdgeCalls
			if ref.Kind == ast.ReferenceBase {
				kind = EdgeInherits
			}
			err := g.AddEdge(Edge{
				SourceID: ref.SourceID,
				TargetID: targetID,
				Kind:     kind,
				FilePath: ref.FilePath,
				Line:     ref.Line,
			})
			if err != nil {
				unresolved = append(unresolved, UnresolvedReference{
					Reference: ref,
					Reason:    fmt.Sprintf("edge rejected: %v", err),
				})
				continue
			}
			resolved++
		}
	}

	if err := g.Freeze(); err != nil {
		return unresolved, fmt.Errorf("freeze failed: %w", err)
	}
	recordResolve(ctx, time.Since(start).Seconds(), resolved, len(unresolved))
	return unresolved, nil
}

// resolveImports adds module-to-module imports edges for imports that
// name a module inside the repository. External imports are skipped
// silently; they are expected, not errors.
func (r *Resolver) resolveImports(g *Graph, res *ast.FileResult) {
	sourceID := ast.GenerateID(res.FilePath, res.ModulePath)
	if !g.HasNode(sourceID) {
		return
	}
	for _, imp := range res.Imports {
		module := resolveModulePath(imp.Module, res.FilePath)
		if module == "" {
			continue
		}
		targetID, ok := r.uniqueModule(g, module)
		if !ok {
			continue
		}
		if targetID == sourceID {
			continue
		}
		// Edge errors here can only be duplicates of structural
		// invariants already reported; ignore.
		_ = g.AddEdge(Edge{
			SourceID: sourceID,
			TargetID: targetID,
			Kind:     EdgeImports,
			FilePath: res.FilePath,
			Line:     imp.Line,
		})
	}
}

// uniqueModule returns the id of the single module node with the
// given qualified name, if exactly one exists.
func (r *Resolver) uniqueModule(g *Graph, qual string) (string, bool) {
	var found string
	for _, id := range g.NodesByQualifiedName(qual) {
		n, err := g.GetNode(id)
		if err != nil || n.Decl.Kind != ast.KindModule {
			continue
		}
		if found != "" {
			return "", false
		}
		found = id
	}
	return found, found != ""
}

// resolveReference runs the three lookups for one reference and
// returns the target node id, or "" with the unresolved reason.
func (r *Resolver) resolveReference(g *Graph, scope *fileScope, ref ast.Reference) (string, string) {
	text := ref.Text

	// Step 1a: expand self/cls/this against the enclosing class and
	// look in the same file. A miss falls through: the member may be
	// inherited from a base in another scope.
	if rest, ok := stripSelfPrefix(text); ok {
		if ref.EnclosingClass != "" {
			id := ast.GenerateID(ref.FilePath, ref.EnclosingClass+"."+rest)
			if r.kindMatches(g, id, ref.Kind) {
				return id, ""
			}
		}
		text = rest
	}

	// Step 1b: same-file qualified match.
	id := ast.GenerateID(ref.FilePath, scope.modulePath+"."+text)
	if r.kindMatches(g, id, ref.Kind) {
		return id, ""
	}

	// Step 2: import-qualified match. If the name is bound by an
	// import, the import decides: an external target is unresolved,
	// never guessed at globally.
	if quals, bound := scope.expand(text); bound {
		candidates := r.collectCandidates(g, quals, ref.Kind)
		switch len(candidates) {
		case 1:
			return candidates[0], ""
		case 0:
			return "", "no match"
		default:
			return "", "ambiguous"
		}
	}

	// Step 3: globally-unique match on the last name segment.
	last := text
	if i := strings.LastIndex(text, "."); i >= 0 {
		last = text[i+1:]
	}
	var candidates []string
	for _, nid := range g.NodesByName(last) {
		if r.kindMatches(g, nid, ref.Kind) {
			candidates = append(candidates, nid)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], ""
	case 0:
		return "", "no match"
	default:
		return "", "ambiguous"
	}
}

// collectCandidates gathers kind-compatible nodes for a set of
// qualified names, deduplicated and sorted.
func (r *Resolver) collectCandidates(g *Graph, quals []string, kind ast.ReferenceKind) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range quals {
		for _, id := range g.NodesByQualifiedName(q) {
			if seen[id] || !r.kindMatches(g, id, kind) {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// kindMatches reports whether the node exists and can be the target
// of the reference kind: classes for bases, functions or classes
// (constructors) for calls.
func (r *Resolver) kindMatches(g *Graph, id string, kind ast.ReferenceKind) bool {
	n, err := g.GetNode(id)
	if err != nil {
		return false
	}
	switch kind {
	case ast.ReferenceBase:
		return n.Decl.Kind == ast.KindClass
	case ast.ReferenceCall:
		return n.Decl.Kind == ast.KindFunction || n.Decl.Kind == ast.KindClass
	default:
		return false
	}
}

// stripSelfPrefix removes a leading self./cls./this. segment.
func stripSelfPrefix(text string) (string, bool) {
	for _, prefix := range []string{"self.", "cls.", "this."} {
		if strings.HasPrefix(text, prefix) {
			return text[len(prefix):], true
		}
	}
	return "", false
}

// buildFileScope derives the import bindings for one file.
func buildFileScope(res *ast.FileResult) *fileScope {
	scope := &fileScope{
		modulePath: res.ModulePath,
		bindings:   make(map[string]string),
	}
	for _, imp := range res.Imports {
		module := resolveModulePath(imp.Module, res.FilePath)
		if module == "" {
			continue
		}
		if imp.IsWildcard {
			scope.wildcards = append(scope.wildcards, module)
			continue
		}
		if len(imp.Names) == 0 {
			if imp.Alias != "" {
				scope.bindings[imp.Alias] = module
			} else {
				scope.bindings[imp.Module] = module
			}
			continue
		}
		for _, name := range imp.Names {
			local, original := name, name
			// "orig as alias" keeps both sides of a renamed import.
			if i := strings.Index(name, " as "); i >= 0 {
				original = name[:i]
				local = name[i+len(" as "):]
			}
			scope.bindings[local] = module + "." + original
		}
		if imp.Alias != "" {
			scope.bindings[imp.Alias] = module
		}
	}
	return scope
}

// expand maps a reference text through the import bindings. The
// longest bound dotted prefix wins; wildcard modules contribute one
// candidate each. The second return is false when no binding applies.
func (s *fileScope) expand(text string) ([]string, bool) {
	prefix := text
	for {
		if target, ok := s.bindings[prefix]; ok {
			rest := strings.TrimPrefix(text, prefix)
			return []string{target + rest}, true
		}
		i := strings.LastIndex(prefix, ".")
		if i < 0 {
			break
		}
		prefix = prefix[:i]
	}
	if len(s.wildcards) > 0 && !strings.Contains(text, ".") {
		quals := make([]string, 0, len(s.wildcards))
		for _, m := range s.wildcards {
			quals = append(quals, m+"."+text)
		}
		return quals, true
	}
	return nil, false
}

// resolveModulePath normalizes an import module spec to a dotted
// qualified module name. Python relative imports resolve against the
// importing file's package; JavaScript relative paths resolve against
// the importing file's directory. Absolute specs pass through.
func resolveModulePath(module, filePath string) string {
	if module == "" {
		return ""
	}
	dir := path.Dir(filePath)
	if dir == "." {
		dir = ""
	}

	// JavaScript style: "./util.js", "../lib/x".
	if strings.HasPrefix(module, "./") || strings.HasPrefix(module, "../") {
		joined := path.Join(dir, module)
		joined = strings.TrimSuffix(joined, path.Ext(joined))
		if strings.HasPrefix(joined, "..") {
			return ""
		}
		return strings.ReplaceAll(joined, "/", ".")
	}

	// Python style: ".sibling", "..core.engine", ".".
	if strings.HasPrefix(module, ".") {
		dots := 0
		for dots < len(module) && module[dots] == '.' {
			dots++
		}
		rest := module[dots:]
		base := ""
		if dir != "" {
			segs := strings.Split(dir, "/")
			if up := dots - 1; up > 0 {
				if up >= len(segs) {
					segs = nil
				} else {
					segs = segs[:len(segs)-up]
				}
			}
			base = strings.Join(segs, ".")
		} else if dots > 1 {
			return ""
		}
		switch {
		case base == "" && rest == "":
			return ""
		case base == "":
			return rest
		case rest == "":
			return base
		default:
			return base + "." + rest
		}
	}

	return module
}
