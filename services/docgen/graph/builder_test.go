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
	"math/rand"
	"reflect"
	"testing"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/ast"
)

// testFileResult assembles a FileResult with a module plus decls.
func testFileResult(filePath string, decls ...*ast.Declaration) *ast.FileResult {
	module := testModule(filePath)
	all := append([]*ast.Declaration{module}, decls...)
	return &ast.FileResult{
		FilePath:     filePath,
		Language:     "python",
		ModulePath:   module.QualifiedName,
		Declarations: all,
	}
}

func TestBuilderBuild(t *testing.T) {
	ma := testModule("a.py")
	fa := testDecl(ma, "f", ast.KindFunction, 2)
	ca := testDecl(ma, "C", ast.KindClass, 10)
	mth := testDecl(ca, "m", ast.KindFunction, 11)

	ra := &ast.FileResult{
		FilePath:     "a.py",
		Language:     "python",
		ModulePath:   "a",
		Declarations: []*ast.Declaration{ma, fa, ca, mth},
	}
	rb := testFileResult("b.py")

	builder := NewBuilder()
	result, err := builder.Build(context.Background(), []*ast.FileResult{ra, rb})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if result.HasErrors() {
		t.Fatalf("unexpected errors: %v %v", result.FileErrors, result.EdgeErrors)
	}

	g := result.Graph
	if got := g.NodeCount(); got != 5 {
		t.Errorf("NodeCount = %d, want 5", got)
	}
	contains := g.EdgesByKind(EdgeContains)
	if len(contains) != 3 {
		t.Errorf("contains edges = %d, want 3", len(contains))
	}
	// Method hangs off the class, not the module.
	found := false
	for _, e := range contains {
		if e.SourceID == ca.ID && e.TargetID == mth.ID {
			found = true
		}
	}
	if !found {
		t.Error("missing contains edge class -> method")
	}
	if g.State() != StateBuilding {
		t.Errorf("state = %v, want building (resolver freezes)", g.State())
	}
}

func TestBuilderOrderIndependence(t *testing.T) {
	ma := testModule("a.py")
	fa := testDecl(ma, "f", ast.KindFunction, 2)
	mb := testModule("b.py")
	fb := testDecl(mb, "g", ast.KindFunction, 2)

	ra := &ast.FileResult{FilePath: "a.py", Language: "python", ModulePath: "a",
		Declarations: []*ast.Declaration{ma, fa}}
	rb := &ast.FileResult{FilePath: "b.py", Language: "python", ModulePath: "b",
		Declarations: []*ast.Declaration{mb, fb}}

	builder := NewBuilder()
	r1, err := builder.Build(context.Background(), []*ast.FileResult{ra, rb})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := builder.Build(context.Background(), []*ast.FileResult{rb, ra})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(r1.Graph.NodeIDs(), r2.Graph.NodeIDs()) {
		t.Errorf("node ids differ by input order:\n%v\n%v", r1.Graph.NodeIDs(), r2.Graph.NodeIDs())
	}
	if !reflect.DeepEqual(r1.Graph.Edges(), r2.Graph.Edges()) {
		t.Errorf("edges differ by input order")
	}
}

func TestBuilderDuplicateFile(t *testing.T) {
	ra := testFileResult("a.py")
	builder := NewBuilder()
	result, err := builder.Build(context.Background(), []*ast.FileResult{ra, ra})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.FileErrors) != 1 {
		t.Fatalf("FileErrors = %v, want one duplicate error", result.FileErrors)
	}
	if !result.Incomplete {
		t.Error("Incomplete = false, want true")
	}
	if result.Graph.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", result.Graph.NodeCount())
	}
}

func TestBuilderInvalidResultSkipped(t *testing.T) {
	bad := &ast.FileResult{
		FilePath:     "bad.py",
		Language:     "python",
		ModulePath:   "bad",
		Declarations: []*ast.Declaration{testDecl(testModule("bad.py"), "f", ast.KindFunction, 2)},
	}
	good := testFileResult("good.py")

	builder := NewBuilder()
	result, err := builder.Build(context.Background(), []*ast.FileResult{bad, good})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.FileErrors) != 1 {
		t.Fatalf("FileErrors = %v, want 1", result.FileErrors)
	}
	if result.FileErrors[0].FilePath != "bad.py" {
		t.Errorf("error file = %s, want bad.py", result.FileErrors[0].FilePath)
	}
	if !result.Graph.HasNode(ast.GenerateID("good.py", "good")) {
		t.Error("good file missing from graph")
	}
}

// TestBuilderRandomNestingForest builds randomly generated nesting
// structures and checks the contains edges always form a forest:
// single parent per node, chains ending at a module, no cycles. The
// seed is fixed so a failure reproduces.
func TestBuilderRandomNestingForest(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 25; trial++ {
		fileCount := 1 + rng.Intn(4)
		var results []*ast.FileResult
		wantNodes, wantContains := 0, 0

		for f := 0; f < fileCount; f++ {
			filePath := fmt.Sprintf("t%d/mod%d.py", trial, f)
			module := testModule(filePath)
			pool := []*ast.Declaration{module}
			for i := 0; i < rng.Intn(12); i++ {
				parent := pool[rng.Intn(len(pool))]
				kind := ast.KindFunction
				if rng.Intn(2) == 0 {
					kind = ast.KindClass
				}
				pool = append(pool, testDecl(parent, fmt.Sprintf("d%d", i), kind, i+2))
			}
			results = append(results, &ast.FileResult{
				FilePath:     filePath,
				Language:     "python",
				ModulePath:   module.QualifiedName,
				Declarations: pool,
			})
			wantNodes += len(pool)
			wantContains += len(pool) - 1
		}

		result, err := NewBuilder().Build(context.Background(), results)
		if err != nil {
			t.Fatalf("trial %d: Build failed: %v", trial, err)
		}
		if result.HasErrors() {
			t.Fatalf("trial %d: unexpected errors: %v %v", trial, result.FileErrors, result.EdgeErrors)
		}
		g := result.Graph
		if g.NodeCount() != wantNodes {
			t.Fatalf("trial %d: NodeCount = %d, want %d", trial, g.NodeCount(), wantNodes)
		}

		parentOf := make(map[string]string)
		for _, e := range g.EdgesByKind(EdgeContains) {
			if prev, ok := parentOf[e.TargetID]; ok {
				t.Fatalf("trial %d: node %s contained by both %s and %s", trial, e.TargetID, prev, e.SourceID)
			}
			parentOf[e.TargetID] = e.SourceID
		}
		if len(parentOf) != wantContains {
			t.Fatalf("trial %d: contains edges = %d, want %d", trial, len(parentOf), wantContains)
		}

		for _, id := range g.NodeIDs() {
			cur := id
			steps := 0
			for {
				p, ok := parentOf[cur]
				if !ok {
					break
				}
				cur = p
				if steps++; steps > g.NodeCount() {
					t.Fatalf("trial %d: containment cycle reachable from %s", trial, id)
				}
			}
			root, err := g.GetNode(cur)
			if err != nil {
				t.Fatalf("trial %d: chain root %s missing: %v", trial, cur, err)
			}
			if root.Decl.Kind != ast.KindModule {
				t.Fatalf("trial %d: chain from %s ends at non-module %s", trial, id, cur)
			}
		}

		if err := g.Freeze(); err != nil {
			t.Fatalf("trial %d: Freeze failed: %v", trial, err)
		}
	}
}

func TestBuilderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	builder := NewBuilder()
	_, err := builder.Build(ctx, []*ast.FileResult{testFileResult("a.py")})
	if err == nil {
		t.Fatal("Build with cancelled context succeeded")
	}
}

func TestBuilderEmptyInput(t *testing.T) {
	builder := NewBuilder()
	result, err := builder.Build(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.NodeCount() != 0 || result.HasErrors() {
		t.Errorf("empty build: nodes=%d errors=%v", result.Graph.NodeCount(), result.HasErrors())
	}
}
