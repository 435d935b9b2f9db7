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
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractorOption configures a GoExtractor instance.
type GoExtractorOption func(*GoExtractor)

// WithGoMaxFileSize sets the maximum file size the extractor accepts.
func WithGoMaxFileSize(bytes int64) GoExtractorOption {
	return func(e *GoExtractor) {
		if bytes > 0 {
			e.maxFileSize = bytes
		}
	}
}

// GoExtractor implements the Extractor interface for Go.
//
// Struct and interface types map to class declarations; methods attach
// to their receiver's type when it is declared in the same file and to
// the module otherwise. Embedded types become base references.
//
// Thread Safety: safe for concurrent use; each Extract call creates
// its own tree-sitter parser.
type GoExtractor struct {
	maxFileSize int64
}

// NewGoExtractor creates a GoExtractor with the given options.
func NewGoExtractor(opts ...GoExtractorOption) *GoExtractor {
	e := &GoExtractor{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses Go source and returns declarations, references, and
// imports. Partial results are returned for files with syntax errors;
// a non-nil error means nothing could be extracted.
func (e *GoExtractor) Extract(ctx context.Context, content []byte, filePath string) (*FileResult, error) {
	start := time.Now()
	ctx, span := startExtractSpan(ctx, "go", filePath)
	defer span.End()

	result, err := e.extract(ctx, content, filePath)
	recordExtract(ctx, "go", time.Since(start).Seconds(), result, err)
	return result, err
}

func (e *GoExtractor) extract(ctx context.Context, content []byte, filePath string) (*FileResult, error) {
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
	parser.SetLanguage(golang.GetLanguage())

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
		Language:     "go",
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
		Language:      "go",
	}
	result.Declarations = append(result.Declarations, module)

	w := &goWalker{content: content, filePath: filePath, result: result, module: module}

	// Types first so same-file methods can attach to their receiver
	// class; then functions and methods.
	w.collectImportsAndTypes(root)
	w.collectFunctions(root)

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	return result, nil
}

// Language returns "go".
func (e *GoExtractor) Language() string { return "go" }

// Extensions returns the extensions this extractor handles.
func (e *GoExtractor) Extensions() []string { return []string{".go"} }

type goWalker struct {
	content  []byte
	filePath string
	result   *FileResult
	module   *Declaration
}

func (w *goWalker) collectImportsAndTypes(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_declaration":
			w.processImports(child)
		case "type_declaration":
			for j := 0; j < int(child.ChildCount()); j++ {
				if spec := child.Child(j); spec.Type() == "type_spec" {
					w.processTypeSpec(spec)
				}
			}
		}
	}
}

func (w *goWalker) collectFunctions(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "function_declaration":
			w.processFunction(child, "")
		case "method_declaration":
			w.processFunction(child, w.receiverTypeName(child))
		}
	}
}

// processImports records each import_spec under an import declaration.
func (w *goWalker) processImports(node *sitter.Node) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "import_spec" {
			var module, alias string
			if p := n.ChildByFieldName("path"); p != nil {
				module = strings.Trim(w.text(p), `"`)
			}
			if a := n.ChildByFieldName("name"); a != nil {
				alias = w.text(a)
			}
			if module != "" && alias != "." && alias != "_" {
				w.result.Imports = append(w.result.Imports, Import{
					Module: module,
					Alias:  alias,
					Line:   int(n.StartPoint().Row) + 1,
				})
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
}

// processTypeSpec extracts struct and interface types as class
// declarations, with embedded types as base references.
func (w *goWalker) processTypeSpec(spec *sitter.Node) {
	nameNode := spec.ChildByFieldName("name")
	typeNode := spec.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	if typeNode.Type() != "struct_type" && typeNode.Type() != "interface_type" {
		return
	}
	name := w.text(nameNode)
	qual := w.module.QualifiedName + "." + name

	decl := &Declaration{
		ID:            GenerateID(w.filePath, qual),
		Kind:          KindClass,
		Name:          name,
		QualifiedName: qual,
		FilePath:      w.filePath,
		StartLine:     int(spec.StartPoint().Row) + 1,
		EndLine:       int(spec.EndPoint().Row) + 1,
		Signature:     name,
		ParentID:      w.module.ID,
		Exported:      goExported(name),
		Language:      "go",
	}
	w.result.Declarations = append(w.result.Declarations, decl)

	for _, emb := range w.embeddedTypes(typeNode) {
		w.addReference(Reference{
			Kind:     ReferenceBase,
			Text:     emb,
			SourceID: decl.ID,
			FilePath: w.filePath,
			Line:     int(typeNode.StartPoint().Row) + 1,
		})
	}
}

// embeddedTypes returns the names of embedded fields or interfaces.
func (w *goWalker) embeddedTypes(typeNode *sitter.Node) []string {
	var out []string
	switch typeNode.Type() {
	case "struct_type":
		var walk func(n *sitter.Node)
		walk = func(n *sitter.Node) {
			if n.Type() == "field_declaration" {
				// Embedded fields have a type but no field name.
				if n.ChildByFieldName("name") == nil {
					if t := n.ChildByFieldName("type"); t != nil {
						if text := embeddedTypeText(t, w.content); text != "" {
							out = append(out, text)
						}
					}
				}
				return
			}
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i))
			}
		}
		walk(typeNode)
	case "interface_type":
		for i := 0; i < int(typeNode.ChildCount()); i++ {
			child := typeNode.Child(i)
			if child.Type() == "type_identifier" || child.Type() == "qualified_type" {
				out = append(out, w.text(child))
			}
		}
	}
	return out
}

// embeddedTypeText unwraps pointers on embedded fields and keeps only
// named types.
func embeddedTypeText(n *sitter.Node, content []byte) string {
	switch n.Type() {
	case "type_identifier", "qualified_type":
		return string(content[n.StartByte():n.EndByte()])
	case "pointer_type":
		for i := 0; i < int(n.ChildCount()); i++ {
			if text := embeddedTypeText(n.Child(i), content); text != "" {
				return text
			}
		}
	}
	return ""
}

// processFunction extracts a function or method declaration and the
// call references in its body. receiver is the receiver's type name,
// "" for plain functions.
func (w *goWalker) processFunction(node *sitter.Node, receiver string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)

	params := ""
	if p := node.ChildByFieldName("parameters"); p != nil {
		params = w.text(p)
	}

	parent := w.module
	qual := w.module.QualifiedName + "." + name
	enclosingClass := ""
	if receiver != "" {
		recvQual := w.module.QualifiedName + "." + receiver
		if cls := w.findDeclaration(recvQual); cls != nil {
			parent = cls
			enclosingClass = recvQual
		}
		qual = w.module.QualifiedName + "." + receiver + "." + name
	}

	decl := &Declaration{
		ID:            GenerateID(w.filePath, qual),
		Kind:          KindFunction,
		Name:          name,
		QualifiedName: qual,
		FilePath:      w.filePath,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Signature:     name + params,
		ParentID:      parent.ID,
		Exported:      goExported(name),
		Language:      "go",
	}
	w.result.Declarations = append(w.result.Declarations, decl)

	if body := node.ChildByFieldName("body"); body != nil {
		w.collectCalls(body, decl, enclosingClass, 0)
	}
}

// receiverTypeName extracts the bare type name from a method receiver.
func (w *goWalker) receiverTypeName(node *sitter.Node) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var name string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if name != "" {
			return
		}
		if n.Type() == "type_identifier" {
			name = w.text(n)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(recv)
	return name
}

// collectCalls walks a function body recording call_expression targets.
// Function literals stay attributed to the declaring function.
func (w *goWalker) collectCalls(node *sitter.Node, source *Declaration, enclosingClass string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if node.Type() == "call_expression" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			if target := goCallTargetText(fn, w.content); target != "" {
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

// goCallTargetText returns the dotted target of a call expression, or
// "" when the function position is dynamic (call results, indexes,
// literals).
func goCallTargetText(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case "identifier":
		return string(content[node.StartByte():node.EndByte()])
	case "selector_expression":
		operand := node.ChildByFieldName("operand")
		field := node.ChildByFieldName("field")
		if operand == nil || field == nil {
			return ""
		}
		base := goCallTargetText(operand, content)
		if base == "" {
			return ""
		}
		return base + "." + string(content[field.StartByte():field.EndByte()])
	default:
		return ""
	}
}

func (w *goWalker) findDeclaration(qualifiedName string) *Declaration {
	id := GenerateID(w.filePath, qualifiedName)
	for _, d := range w.result.Declarations {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (w *goWalker) addReference(ref Reference) {
	if len(w.result.References) >= maxReferencesPerFile {
		return
	}
	w.result.References = append(w.result.References, ref)
}

func (w *goWalker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

// goExported reports whether a Go identifier is exported.
func goExported(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

// Compile-time interface compliance check.
var _ Extractor = (*GoExtractor)(nil)
