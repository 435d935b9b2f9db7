// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides types and interfaces for language-agnostic source
// extraction.
//
// This package defines the data structures every extractor produces for
// the documentation pipeline: declarations (modules, classes, functions),
// raw references (call candidates and base-class candidates that a later
// resolution pass turns into graph edges), and import records. All
// extractor implementations (Python, Go, JavaScript) produce output
// conforming to these types.
//
// Design principles:
//   - Language-agnostic: types work for any supported language
//   - Extraction never resolves: references carry raw text, not targets
//   - No map[string]interface{} - concrete types only
package ast

import (
	"fmt"
	"path"
	"strings"
)

// Kind represents the type of declaration extracted from source code.
//
// The set is deliberately small. Language constructs are mapped to the
// closest kind: a Python method is a KindFunction whose parent is a
// KindClass, a Go struct with methods is a KindClass, a source file is
// a KindModule.
type Kind int

const (
	// KindUnknown indicates an unrecognized declaration.
	KindUnknown Kind = iota

	// KindModule represents a source file as a declaration. Every
	// extracted file yields exactly one module declaration that parents
	// the file's top-level classes and functions.
	KindModule

	// KindClass represents a class-like type declaration.
	// Examples: Python class, Go struct or interface, JavaScript class.
	KindClass

	// KindFunction represents a function or method. Methods are
	// functions whose ParentID points at a KindClass declaration.
	KindFunction
)

// String returns the lowercase kind name used in logs and rendered
// output.
func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Declaration is a single named code element extracted from a file.
//
// Declarations form a forest per file: the module declaration is the
// root, classes and functions hang off it through ParentID, and nested
// definitions hang off their enclosing declaration. The flat slice
// plus ParentID representation lets the graph builder create nodes and
// containment edges in one pass without recursion.
//
// Thread Safety: Declaration values are immutable after extraction and
// safe to share across goroutines.
type Declaration struct {
	// ID uniquely identifies the declaration across the whole run.
	// Always GenerateID(FilePath, QualifiedName).
	ID string

	// Kind classifies the declaration.
	Kind Kind

	// Name is the bare identifier, e.g. "parse" or "Scanner".
	Name string

	// QualifiedName is the dotted path from the module root, e.g.
	// "pkg.scanner.Scanner.walk". Unique within a file by construction.
	QualifiedName string

	// FilePath is the repository-relative path of the defining file,
	// always forward-slash separated.
	FilePath string

	// StartLine and EndLine are 1-based inclusive source lines. The
	// module declaration spans the whole file.
	StartLine int
	EndLine   int

	// Signature is the display form of the declaration, e.g.
	// "run(cfg, *, dry_run=False)" or "Scanner(Base)". Empty for
	// modules.
	Signature string

	// DocSummary is the first line of the declaration's documentation
	// comment or docstring, if any.
	DocSummary string

	// ParentID is the ID of the enclosing declaration. Empty only for
	// the module declaration.
	ParentID string

	// Exported reports whether the declaration is part of the file's
	// public surface under the language's conventions (capitalization
	// in Go, no leading underscore in Python).
	Exported bool

	// Language is the extractor language that produced this
	// declaration, e.g. "python".
	Language string
}

// Validate checks structural invariants of the declaration.
//
// Returns a descriptive error for the first violated invariant, nil if
// the declaration is well formed.
func (d *Declaration) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDeclaration)
	}
	if d.QualifiedName == "" {
		return fmt.Errorf("%w: %q has empty qualified name", ErrInvalidDeclaration, d.Name)
	}
	if d.FilePath == "" {
		return fmt.Errorf("%w: %q has empty file path", ErrInvalidDeclaration, d.QualifiedName)
	}
	if d.ID != GenerateID(d.FilePath, d.QualifiedName) {
		return fmt.Errorf("%w: %q has id %q, want %q",
			ErrInvalidDeclaration, d.QualifiedName, d.ID, GenerateID(d.FilePath, d.QualifiedName))
	}
	if d.Kind == KindUnknown {
		return fmt.Errorf("%w: %q has unknown kind", ErrInvalidDeclaration, d.QualifiedName)
	}
	if d.StartLine < 1 || d.EndLine < d.StartLine {
		return fmt.Errorf("%w: %q has invalid line range %d-%d",
			ErrInvalidDeclaration, d.QualifiedName, d.StartLine, d.EndLine)
	}
	if d.Kind == KindModule && d.ParentID != "" {
		return fmt.Errorf("%w: module %q has a parent", ErrInvalidDeclaration, d.QualifiedName)
	}
	if d.Kind != KindModule && d.ParentID == "" {
		return fmt.Errorf("%w: %q has no parent", ErrInvalidDeclaration, d.QualifiedName)
	}
	return nil
}

// GenerateID builds the stable declaration identifier from the file
// path and the qualified name. Two files declaring the same qualified
// name therefore yield two distinct IDs.
func GenerateID(filePath, qualifiedName string) string {
	return filePath + ":" + qualifiedName
}

// ModuleQualifiedName derives the dotted module name for a file path:
// the extension is stripped, path separators become dots, and a
// trailing "__init__" segment is dropped so Python packages resolve to
// their directory name.
//
// Example: "pkg/util/__init__.py" -> "pkg.util".
func ModuleQualifiedName(filePath string) string {
	p := strings.TrimSuffix(filePath, path.Ext(filePath))
	p = strings.TrimSuffix(p, "/__init__")
	if p == "__init__" {
		p = ""
	}
	return strings.ReplaceAll(p, "/", ".")
}

// ReferenceKind classifies a raw reference.
type ReferenceKind int

const (
	// ReferenceCall is a call-site candidate: the text that appeared
	// in function position at a call expression.
	ReferenceCall ReferenceKind = iota

	// ReferenceBase is a base-class candidate from a class declaration
	// header.
	ReferenceBase
)

// String returns "call", "base", or "unknown".
func (k ReferenceKind) String() string {
	switch k {
	case ReferenceCall:
		return "call"
	case ReferenceBase:
		return "base"
	default:
		return "unknown"
	}
}

// Reference is a raw, unresolved mention of another declaration.
//
// Extraction records exactly what the source says (possibly dotted,
// e.g. "helpers.run" or "self.close"); resolution decides later what,
// if anything, it names. References are never guesses: an extractor
// that cannot determine the textual target of a call records nothing.
type Reference struct {
	// Kind is call or base.
	Kind ReferenceKind

	// Text is the raw reference text as written, dots preserved.
	Text string

	// SourceID is the ID of the declaration the reference occurs in.
	// For a base reference this is the class being declared; for a
	// call it is the innermost enclosing function, class, or module.
	SourceID string

	// EnclosingClass is the qualified name of the nearest enclosing
	// class, if any. Lets resolution expand "self.x" and "this.x".
	EnclosingClass string

	// FilePath and Line locate the reference for diagnostics and
	// deterministic resolution order.
	FilePath string
	Line     int
}

// Import is one import statement extracted from a file.
type Import struct {
	// Module is the dotted module path as written, with relative
	// Python imports preserved (".sibling" keeps its leading dot).
	Module string

	// Names are the symbols pulled in by a from-import; empty for a
	// whole-module import.
	Names []string

	// Alias is the local binding name when the import is renamed
	// ("import numpy as np" -> Alias "np"). Empty when unaliased.
	Alias string

	// IsWildcard marks "from m import *" style imports.
	IsWildcard bool

	// Line is the 1-based source line of the statement.
	Line int
}

// FileResult is everything extracted from a single file.
//
// A FileResult with zero declarations and a non-empty Errors slice
// represents a file that failed to parse; the pipeline records it as a
// parse failure and continues. A FileResult may also be partial: any
// declarations recovered before a syntax error are kept.
type FileResult struct {
	// FilePath is the repository-relative path, forward-slash
	// separated.
	FilePath string

	// Language is the extractor language, e.g. "python".
	Language string

	// ModulePath is ModuleQualifiedName(FilePath), cached because both
	// the builder and the resolver need it.
	ModulePath string

	// Declarations is the flat declaration list, module first, in
	// source order. ParentID links express nesting.
	Declarations []*Declaration

	// References are the raw call and base candidates in source order.
	References []Reference

	// Imports are the file's import statements in source order.
	Imports []Import

	// Errors holds human-readable extraction problems (syntax errors,
	// truncated constructs). Non-fatal: the rest of the result is
	// still valid.
	Errors []string
}

// Validate checks the result's internal consistency: the first
// declaration must be the module, all IDs must be unique, and every
// ParentID must name an earlier declaration in the slice.
func (r *FileResult) Validate() error {
	if r.FilePath == "" {
		return fmt.Errorf("%w: empty file path", ErrInvalidResult)
	}
	if len(r.Declarations) == 0 {
		return nil
	}
	if r.Declarations[0].Kind != KindModule {
		return fmt.Errorf("%w: %s: first declaration is %s, want module",
			ErrInvalidResult, r.FilePath, r.Declarations[0].Kind)
	}
	seen := make(map[string]bool, len(r.Declarations))
	for _, d := range r.Declarations {
		if err := d.Validate(); err != nil {
			return err
		}
		if d.FilePath != r.FilePath {
			return fmt.Errorf("%w: %s: declaration %q belongs to %s",
				ErrInvalidResult, r.FilePath, d.QualifiedName, d.FilePath)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: %s: duplicate id %q", ErrInvalidResult, r.FilePath, d.ID)
		}
		if d.ParentID != "" && !seen[d.ParentID] {
			return fmt.Errorf("%w: %s: %q references unknown parent %q",
				ErrInvalidResult, r.FilePath, d.QualifiedName, d.ParentID)
		}
		seen[d.ID] = true
	}
	for _, ref := range r.References {
		if ref.Text == "" {
			return fmt.Errorf("%w: %s: empty reference text", ErrInvalidResult, r.FilePath)
		}
		if !seen[ref.SourceID] {
			return fmt.Errorf("%w: %s: reference %q from unknown source %q",
				ErrInvalidResult, r.FilePath, ref.Text, ref.SourceID)
		}
	}
	return nil
}
