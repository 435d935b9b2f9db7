// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptExtractorOption configures a JavaScriptExtractor instance.
type JavaScriptExtractorOption func(*JavaScriptExtractor)

// WithJavaScriptMaxFileSize sets the maximum file size the extractor
// accepts.
func WithJavaScriptMaxFileSize(bytes int64) JavaScriptExtractorOption {
	return func(e *JavaScriptExtractor) {
		if bytes > 0 {
			e.maxFileSize = bytes
		}
	}
}

// JavaScriptExtractor implements the Extractor interface for
// JavaScript (including ES modules and JSX-free React code).
//
// Classes map to class declarations with extends clauses as base
// references; function declarations, class methods, and arrow
// functions bound by const/let become function declarations.
//
// Thread Safety: safe for concurrent use; each Extract call creates
// its own tree-sitter parser.
type JavaScriptExtractor struct {
	maxFileSize int64
}

// NewJavaScriptExtractor creates a JavaScriptExtractor with the given
// options.
func NewJavaScriptExtractor(opts ...JavaScriptExtractorOption) *JavaScriptExtractor {
	e := &JavaScriptExtractor{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses JavaScript source and returns declarations,
// references, and imports. Partial results are returned for files
// with syntax errors; a non-nil error means nothing could be
// extracted.
func (e *JavaScriptExtractor) Extract(ctx context.Context, content []byte, filePath string) (*FileResult, error) {
	start := time.Now()
	ctx, span := startExtractSpan(ctx, "javascript", filePath)
	defer span.End()

	result, err := e.extract(ctx, content, filePath)
	recordExtract(ctx, "javascript", time.Since(start).Seconds(), result, err)
	return result, err
}

func (e *JavaScriptExtractor) extract(ctx context.Context, content []byte, filePath string) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract canceled before start: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("%w: nil content", ErrInvalidContent)
	}
	if int64(len(content)) > e.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrInvalidContent, len(content), e.maxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract canceled after parse: %w", err)
	}

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: nil root node", ErrParseFailed)
	}

	result := &FileResult{
		FilePath:     filePath,
		Language:     "javascript",
		ModulePath:   ModuleQualifiedName(filePath),
		Declarations: make([]*Declaration, 0),
		References:   make([]Reference, 0),
		Imports:      make([]Import, 0),
	}
	if root.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	endLine := int(root.EndPoint().Row) + 1
	if endLine < 1 {
		endLine = 1
	}
	name := result.ModulePath
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	module := &Declaration{
		ID:            GenerateID(filePath, result.ModulePath),
		Kind:          KindModule,
		Name:          name,
		QualifiedName: result.ModulePath,
		FilePath:      filePath,
		StartLine:     1,
		EndLine:       endLine,
		Exported:      true,
		Language:      "javascript",
	}
	result.Declarations = append(result.Declarations, module)

	w := &jsWalker{content: content, filePath: filePath, result: result}
	w.walkBody(root, module, "", 0)

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	return result, nil
}

// Language returns "javascript".
func (e *JavaScriptExtractor) Language() string { return "javascript" }

// Extensions returns the extensions this extractor handles.
func (e *JavaScriptExtractor) Extensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx"}
}

type jsWalker struct {
	content  []byte
	filePath string
	result   *FileResult
}

// walkBody processes the statements of a program, class body, or
// function body.
func (w *jsWalker) walkBody(body *sitter.Node, parent *Declaration, enclosingClass string, depth int) {
	if depth > maxWalkDepth {
		w.result.Errors = append(w.result.Errors, "nesting limit reached, deeper declarations skipped")
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "import_statement":
			w.processImport(child)
		case "class_declaration":
			w.processClass(child, parent, depth)
		case "function_declaration", "generator_function_declaration":
			w.processFunction(child, parent, enclosingClass, depth)
		case "method_definition":
			w.processFunction(child, parent, enclosingClass, depth)
		case "lexical_declaration", "variable_declaration":
			w.processVariableFunctions(child, parent, enclosingClass, depth)
		case "export_statement":
			// Unwrap "export ..." to the inner declaration.
			w.walkBody(child, parent, enclosingClass, depth)
		default:
			w.collectCalls(child, parent, enclosingClass, depth)
		}
	}
}

// processClass extracts a class declaration, its extends reference,
// and its methods.
func (w *jsWalker) processClass(node *sitter.Node, parent *Declaration, depth int) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	qual := parent.QualifiedName + "." + name

	var base string
	var baseLine int
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "class_heritage" {
			baseLine = int(child.StartPoint().Row) + 1
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "identifier" || gc.Type() == "member_expression" {
					base = w.text(gc)
				}
			}
		}
	}

	sig := name
	if base != "" {
		sig = name + "(" + base + ")"
	}
	decl := &Declaration{
		ID:            GenerateID(w.filePath, qual),
		Kind:          KindClass,
		Name:          name,
		QualifiedName: qual,
		FilePath:      w.filePath,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Signature:     sig,
		ParentID:      parent.ID,
		Exported:      !strings.HasPrefix(name, "_"),
		Language:      "javascript",
	}
	w.result.Declarations = append(w.result.Declarations, decl)

	if base != "" {
		w.addReference(Reference{
			Kind:     ReferenceBase,
			Text:     base,
			SourceID: decl.ID,
			FilePath: w.filePath,
			Line:     baseLine,
		})
	}

	if body := node.ChildByFieldName("body"); body != nil {
		w.walkBody(body, decl, qual, depth+1)
	}
}

// processFunction extracts a function declaration or class method.
func (w *jsWalker) processFunction(node *sitter.Node, parent *Declaration, enclosingClass string, depth int) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	params := ""
	if p := node.ChildByFieldName("parameters"); p != nil {
		params = w.text(p)
	}
	w.addFunction(node, name, params, parent, enclosingClass, depth)
}

// processVariableFunctions extracts "const f = () => ..." and
// "const f = function() ..." bindings as function declarations.
func (w *jsWalker) processVariableFunctions(node *sitter.Node, parent *Declaration, enclosingClass string, depth int) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		value := child.ChildByFieldName("value")
		if nameNode == nil || value == nil || nameNode.Type() != "identifier" {
			continue
		}
		switch value.Type() {
		case "arrow_function", "function_expression", "generator_function":
			params := ""
			if p := value.ChildByFieldName("parameters"); p != nil {
				params = w.text(p)
			}
			w.addFunction(value, w.text(nameNode), params, parent, enclosingClass, depth)
		default:
			w.collectCalls(value, parent, enclosingClass, depth)
		}
	}
}

func (w *jsWalker) addFunction(node *sitter.Node, name, params string, parent *Declaration, enclosingClass string, depth int) {
	qual := parent.QualifiedName + "." + name
	id := GenerateID(w.filePath, qual)
	for _, d := range w.result.Declarations {
		// Getter/setter pairs share a name; keep the first.
		if d.ID == id {
			return
		}
	}
	decl := &Declaration{
		ID:            id,
		Kind:          KindFunction,
		Name:          name,
		QualifiedName: qual,
		FilePath:      w.filePath,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Signature:     name + params,
		ParentID:      parent.ID,
		Exported:      !strings.HasPrefix(name, "_"),
		Language:      "javascript",
	}
	w.result.Declarations = append(w.result.Declarations, decl)

	if body := node.ChildByFieldName("body"); body != nil {
		w.walkBody(body, decl, enclosingClass, depth+1)
	}
}

// processImport records an ES module import statement.
func (w *jsWalker) processImport(node *sitter.Node) {
	src := node.ChildByFieldName("source")
	if src == nil {
		return
	}
	module := strings.Trim(w.text(src), "'\"`")
	imp := Import{
		Module: module,
		Line:   int(node.StartPoint().Row) + 1,
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "namespace_import":
			for i := 0; i < int(n.ChildCount()); i++ {
				if id := n.Child(i); id.Type() == "identifier" {
					imp.Alias = w.text(id)
				}
			}
			return
		case "import_specifier":
			// "name as alias" keeps the local binding.
			if a := n.ChildByFieldName("alias"); a != nil {
				imp.Names = append(imp.Names, w.text(a))
			} else if nm := n.ChildByFieldName("name"); nm != nil {
				imp.Names = append(imp.Names, w.text(nm))
			}
			return
		case "identifier":
			// Default import binding.
			imp.Names = append(imp.Names, w.text(n))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c.Type() == "import_clause" {
			walk(c)
		}
	}
	w.result.Imports = append(w.result.Imports, imp)
}

// collectCalls records call_expression targets without descending into
// nested declarations.
func (w *jsWalker) collectCalls(node *sitter.Node, source *Declaration, enclosingClass string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch node.Type() {
	case "function_declaration", "class_declaration", "method_definition",
		"arrow_function", "function_expression":
		return
	}
	if node.Type() == "call_expression" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			if target := jsCallTargetText(fn, w.content); target != "" {
				w.addReference(Reference{
					Kind:           ReferenceCall,
					Text:           target,
					SourceID:       source.ID,
					EnclosingClass: enclosingClass,
					FilePath:       w.filePath,
					Line:           int(node.StartPoint().Row) + 1,
				})
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.collectCalls(node.Child(i), source, enclosingClass, depth+1)
	}
}

// jsCallTargetText returns the dotted target of a call expression.
// "this" is kept as a segment so resolution can expand it against the
// enclosing class.
func jsCallTargetText(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case "identifier":
		return string(content[node.StartByte():node.EndByte()])
	case "this":
		return "this"
	case "member_expression":
		obj := node.ChildByFieldName("object")
		prop := node.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return ""
		}
		base := jsCallTargetText(obj, content)
		if base == "" {
			return ""
		}
		return base + "." + string(content[prop.StartByte():prop.EndByte()])
	default:
		return ""
	}
}

func (w *jsWalker) addReference(ref Reference) {
	if len(w.result.References) >= maxReferencesPerFile {
		return
	}
	w.result.References = append(w.result.References, ref)
}

func (w *jsWalker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

// Compile-time interface compliance check.
var _ Extractor = (*JavaScriptExtractor)(nil)
