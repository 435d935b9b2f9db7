// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/graph"
	"github.com/AleutianAI/CodebaseGenius/services/docgen/render"
)

// memSource is an in-memory Source for tests.
type memSource struct {
	files  map[string][]byte
	readme string
}

func (m *memSource) Files(ctx context.Context) ([]FileInfo, error) {
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	infos := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		infos = append(infos, FileInfo{Path: p})
	}
	return infos, nil
}

func (m *memSource) Read(ctx context.Context, path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

func (m *memSource) Readme(ctx context.Context) (string, error) {
	return m.readme, nil
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(opts...)
	require.NoError(t, err)
	return s
}

func TestGenerateTwoFileScenario(t *testing.T) {
	src := &memSource{files: map[string][]byte{
		"a.py": []byte("import b\n\n\ndef f():\n    b.g()\n"),
		"b.py": []byte("def g():\n    pass\n"),
	}}

	svc := newTestService(t)
	result, err := svc.Generate(context.Background(), src, Metadata{Name: "demo"})
	require.NoError(t, err)

	want := graph.Stats{
		FileCount:       2,
		FunctionCount:   2,
		CallEdgeCount:   1,
		ImportEdgeCount: 1,
	}
	assert.Equal(t, want, result.Stats)
	assert.Empty(t, result.Diagnostics.ParseFailures)
	assert.Empty(t, result.Diagnostics.Unresolved)
	assert.False(t, result.Diagnostics.EmptyRepository)
	assert.NotEmpty(t, result.Diagnostics.RunID)

	doc := string(result.Markdown)
	assert.Contains(t, doc, "# demo - Code Documentation")
	assert.Contains(t, doc, "### `a.py`")
	assert.Contains(t, doc, "- `f()`")
	assert.Contains(t, doc, "![Call Graph](call_graph.svg)")

	assert.Contains(t, string(result.Diagram), "<svg")
	assert.Equal(t, graph.StateReadOnly, result.Graph.State())
}

func TestGenerateParseFailurePartial(t *testing.T) {
	src := &memSource{files: map[string][]byte{
		"good.py": []byte("def ok():\n    pass\n"),
		"bad.py":  {0xff, 0xfe, 0x00},
	}}

	svc := newTestService(t)
	result, err := svc.Generate(context.Background(), src, Metadata{Name: "demo"})
	require.NoError(t, err)

	require.Len(t, result.Diagnostics.ParseFailures, 1)
	assert.Equal(t, "bad.py", result.Diagnostics.ParseFailures[0].FilePath)

	// The good file is still documented.
	assert.Equal(t, 1, result.Stats.FileCount)
	assert.Contains(t, string(result.Markdown), "### `good.py`")
	assert.False(t, result.Diagnostics.EmptyRepository)
}

func TestGenerateEmptyRepository(t *testing.T) {
	src := &memSource{files: map[string][]byte{
		"README.md": []byte("# hello\n"),
		"data.csv":  []byte("a,b\n"),
	}}

	svc := newTestService(t)
	result, err := svc.Generate(context.Background(), src, Metadata{Name: "empty"})
	require.NoError(t, err)

	assert.True(t, result.Diagnostics.EmptyRepository)
	assert.ElementsMatch(t, []string{"README.md", "data.csv"}, result.Diagnostics.SkippedFiles)
	assert.Equal(t, graph.Stats{}, result.Stats)

	// Artifacts are still produced, empty but valid.
	assert.Contains(t, string(result.Markdown), "No supported source files were found")
	assert.Contains(t, string(result.Markdown), "| Files | 0 |")
	assert.NotEmpty(t, result.Diagram)
}

func TestGenerateMixedLanguages(t *testing.T) {
	src := &memSource{files: map[string][]byte{
		"app.py":  []byte("def main():\n    pass\n"),
		"util.js": []byte("export function helper() {}\n"),
		"lib.go":  []byte("package lib\n\nfunc Run() {}\n"),
	}}

	svc := newTestService(t)
	result, err := svc.Generate(context.Background(), src, Metadata{Name: "poly"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.FileCount)
	assert.Equal(t, 3, result.Stats.FunctionCount)
	doc := string(result.Markdown)
	assert.Contains(t, doc, "### `app.py`")
	assert.Contains(t, doc, "### `util.js`")
	assert.Contains(t, doc, "### `lib.go`")
}

func TestGenerateReadmeOverview(t *testing.T) {
	src := &memSource{
		files: map[string][]byte{
			"a.py": []byte("def f():\n    pass\n"),
		},
		readme: "# Demo\n\nDemo is a tool for demonstrating things.\n\n## Install\n\n```\npip install demo\n```\n",
	}

	svc := newTestService(t)
	result, err := svc.Generate(context.Background(), src, Metadata{Name: "demo"})
	require.NoError(t, err)
	assert.Contains(t, string(result.Markdown), "Demo is a tool for demonstrating things.")
}

func TestGenerateDeterministicOutput(t *testing.T) {
	src := &memSource{files: map[string][]byte{
		"a.py": []byte("import b\n\n\ndef f():\n    b.g()\n"),
		"b.py": []byte("def g():\n    f2()\n\n\ndef f2():\n    pass\n"),
	}}

	svc := newTestService(t, WithWorkers(4))
	r1, err := svc.Generate(context.Background(), src, Metadata{Name: "demo"})
	require.NoError(t, err)
	r2, err := svc.Generate(context.Background(), src, Metadata{Name: "demo"})
	require.NoError(t, err)

	assert.Equal(t, r1.Markdown, r2.Markdown)
	assert.Equal(t, r1.Diagram, r2.Diagram)
	assert.Equal(t, r1.Stats, r2.Stats)
}

func TestGenerateDiagramFormatOption(t *testing.T) {
	src := &memSource{files: map[string][]byte{
		"a.py": []byte("def f():\n    g()\n\n\ndef g():\n    pass\n"),
	}}

	svc := newTestService(t, WithDiagramFormat(render.FormatDOT))
	result, err := svc.Generate(context.Background(), src, Metadata{Name: "demo"})
	require.NoError(t, err)

	assert.Contains(t, string(result.Diagram), "digraph CallGraph")
	assert.Contains(t, string(result.Markdown), "![Call Graph](call_graph.dot)")
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &memSource{files: map[string][]byte{
		"a.py": []byte("def f():\n    pass\n"),
	}}
	svc := newTestService(t)
	_, err := svc.Generate(ctx, src, Metadata{Name: "demo"})
	assert.Error(t, err)
}
