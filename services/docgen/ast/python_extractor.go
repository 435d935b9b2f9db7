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
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const (
	// DefaultMaxFileSize is the largest file an extractor accepts.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// warnFileSize triggers a log line for unusually large inputs.
	warnFileSize = 1024 * 1024

	// maxWalkDepth bounds tree recursion against pathological nesting.
	maxWalkDepth = 512

	// maxReferencesPerFile caps raw reference extraction per file.
	maxReferencesPerFile = 10000
)

// PythonExtractorOption configures a PythonExtractor instance.
type PythonExtractorOption func(*PythonExtractor)

// WithPythonMaxFileSize sets the maximum file size the extractor will
// accept.
func WithPythonMaxFileSize(bytes int64) PythonExtractorOption {
	return func(e *PythonExtractor) {
		if bytes > 0 {
			e.maxFileSize = bytes
		}
	}
}

// PythonExtractor implements the Extractor interface for Python.
//
// Description:
//
//	PythonExtractor uses tree-sitter to parse Python source and emit
//	module, class, and function declarations, plus raw call and
//	base-class references for the resolver. Each Extract call creates
//	its own tree-sitter parser instance internally.
//
// Thread Safety:
//
//	PythonExtractor instances are safe for concurrent use. Multiple
//	goroutines may call Extract simultaneously on the same instance.
//
// Example:
//
//	ex := NewPythonExtractor()
//	result, err := ex.Extract(ctx, []byte("def hello(): pass"), "main.py")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range result.Declarations {
//	    fmt.Printf("%s: %s\n", d.Kind, d.QualifiedName)
//	}
type PythonExtractor struct {
	maxFileSize int64
}

// NewPythonExtractor creates a PythonExtractor with the given options.
func NewPythonExtractor(opts ...PythonExtractorOption) *PythonExtractor {
	e := &PythonExtractor{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses Python source and returns declarations, references,
// and imports.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing;
//     tree-sitter parsing itself cannot be interrupted mid-parse.
//   - content: Raw Python source bytes. Must be valid UTF-8.
//   - filePath: Repository-relative path using forward slashes.
//
// Outputs:
//   - *FileResult: Extracted declarations and references. Partial
//     results are returned for syntactically invalid code, with the
//     problem noted in Errors.
//   - error: Non-nil only for complete failures (ErrInvalidContent,
//     ErrParseFailed, context cancellation).
//
// Thread Safety: safe for concurrent use.
func (e *PythonExtractor) Extract(ctx context.Context, content []byte, filePath string) (*FileResult, error) {
	start := time.Now()
	ctx, span := startExtractSpan(ctx, "python", filePath)
	defer span.End()

	result, err := e.extract(ctx, content, filePath)
	recordExtract(ctx, "python", time.Since(start).Seconds(), result, err)
	return result, err
}

func (e *PythonExtractor) extract(ctx context.Context, content []byte, filePath string) (*FileResult, error) {
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
	if len(content) > warnFileSize {
		slog.Warn("extracting large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

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
		Language:     "python",
		ModulePath:   ModuleQualifiedName(filePath),
		Declarations: make([]*Declaration, 0),
		References:   make([]Reference, 0),
		Imports:      make([]Import, 0),
	}
	if root.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	module := e.moduleDeclaration(root, content, filePath, result.ModulePath)
	result.Declarations = append(result.Declarations, module)

	w := &pyWalker{content: content, filePath: filePath, result: result}
	w.walkBody(root, module, "", 0)

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	return result, nil
}

// Language returns "python".
func (e *PythonExtractor) Language() string { return "python" }

// Extensions returns the extensions this extractor handles.
func (e *PythonExtractor) Extensions() []string { return []string{".py", ".pyi"} }

// moduleDeclaration builds the file-level declaration, with the module
// docstring's first line as the summary.
func (e *PythonExtractor) moduleDeclaration(root *sitter.Node, content []byte, filePath, modulePath string) *Declaration {
	name := modulePath
	if i := strings.LastIndex(modulePath, "."); i >= 0 {
		name = modulePath[i+1:]
	}
	if name == "" {
		name = filePath
	}

	endLine := int(root.EndPoint().Row) + 1
	if endLine < 1 {
		endLine = 1
	}
	return &Declaration{
		ID:            GenerateID(filePath, modulePath),
		Kind:          KindModule,
		Name:          name,
		QualifiedName: modulePath,
		FilePath:      filePath,
		StartLine:     1,
		EndLine:       endLine,
		DocSummary:    firstLine(moduleDocstring(root, content)),
		Exported:      true,
		Language:      "python",
	}
}

// pyWalker carries the per-file extraction state through the tree walk.
type pyWalker struct {
	content  []byte
	filePath string
	result   *FileResult
}

// walkBody processes the statements of a module, class, or function
// body. parent is the enclosing declaration; enclosingClass is the
// qualified name of the nearest class, if any.
func (w *pyWalker) walkBody(body *sitter.Node, parent *Declaration, enclosingClass string, depth int) {
	if depth > maxWalkDepth {
		w.result.Errors = append(w.result.Errors, "nesting limit reached, deeper declarations skipped")
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "import_statement":
			w.processImport(child)
		case "import_from_statement":
			w.processImportFrom(child)
		case "class_definition":
			w.processClass(child, parent, depth)
		case "function_definition":
			w.processFunction(child, parent, enclosingClass, depth)
		case "decorated_definition":
			// Unwrap to the inner definition; decorators themselves are
			// not declarations.
			for j := 0; j < int(child.ChildCount()); j++ {
				inner := child.Child(j)
				switch inner.Type() {
				case "class_definition":
					w.processClass(inner, parent, depth)
				case "function_definition":
					w.processFunction(inner, parent, enclosingClass, depth)
				}
			}
		default:
			// Plain statements can still contain calls attributed to
			// the enclosing declaration.
			w.collectCalls(child, parent, enclosingClass, depth)
		}
	}
}

// processClass extracts a class declaration, its base references, and
// its members.
func (w *pyWalker) processClass(node *sitter.Node, parent *Declaration, depth int) {
	var name string
	var bases []string
	var baseLine int
	var bodyNode *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = w.text(child)
		case "argument_list":
			baseLine = int(child.StartPoint().Row) + 1
			for j := 0; j < int(child.ChildCount()); j++ {
				arg := child.Child(j)
				if arg.Type() == "identifier" || arg.Type() == "attribute" {
					bases = append(bases, w.text(arg))
				}
			}
		case "block":
			bodyNode = child
		}
	}
	if name == "" {
		return
	}

	qual := parent.QualifiedName + "." + name
	sig := name
	if len(bases) > 0 {
		sig = name + "(" + strings.Join(bases, ", ") + ")"
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
		Exported:      pyExported(name),
		Language:      "python",
	}
	if bodyNode != nil {
		decl.DocSummary = firstLine(blockDocstring(bodyNode, w.content))
	}
	w.result.Declarations = append(w.result.Declarations, decl)

	for _, base := range bases {
		w.addReference(Reference{
			Kind:     ReferenceBase,
			Text:     base,
			SourceID: decl.ID,
			FilePath: w.filePath,
			Line:     baseLine,
		})
	}

	if bodyNode != nil {
		w.walkBody(bodyNode, decl, qual, depth+1)
	}
}

// processFunction extracts a function or method declaration and the
// calls in its body.
func (w *pyWalker) processFunction(node *sitter.Node, parent *Declaration, enclosingClass string, depth int) {
	var name, params string
	var bodyNode *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = w.text(child)
		case "parameters":
			params = w.text(child)
		case "block":
			bodyNode = child
		}
	}
	if name == "" {
		return
	}

	qual := parent.QualifiedName + "." + name
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
		Exported:      pyExported(name),
		Language:      "python",
	}
	if bodyNode != nil {
		decl.DocSummary = firstLine(blockDocstring(bodyNode, w.content))
	}
	w.result.Declarations = append(w.result.Declarations, decl)

	if bodyNode != nil {
		w.walkBody(bodyNode, decl, enclosingClass, depth+1)
	}
}

// processImport handles "import a.b" and "import a.b as c".
func (w *pyWalker) processImport(node *sitter.Node) {
	line := int(node.StartPoint().Row) + 1
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			w.result.Imports = append(w.result.Imports, Import{
				Module: w.text(child),
				Line:   line,
			})
		case "aliased_import":
			var module, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					module = w.text(gc)
				case "identifier":
					alias = w.text(gc)
				}
			}
			if module != "" {
				w.result.Imports = append(w.result.Imports, Import{
					Module: module,
					Alias:  alias,
					Line:   line,
				})
			}
		}
	}
}

// processImportFrom handles "from a.b import x, y as z" including
// relative and wildcard forms.
func (w *pyWalker) processImportFrom(node *sitter.Node) {
	var module string
	var names []string
	var isWildcard, sawImport bool
	line := int(node.StartPoint().Row) + 1

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			// import_prefix holds the dots, dotted_name the rest.
			var prefix, rest string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "import_prefix":
					prefix = w.text(gc)
				case "dotted_name":
					rest = w.text(gc)
				}
			}
			module = prefix + rest
		case "dotted_name":
			if !sawImport {
				module = w.text(child)
			} else {
				names = append(names, w.text(child))
			}
		case "identifier":
			if sawImport {
				names = append(names, w.text(child))
			}
		case "wildcard_import":
			isWildcard = true
		case "aliased_import":
			var original, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					if original == "" {
						original = w.text(gc)
					}
				case "identifier":
					alias = w.text(gc)
				}
			}
			if original != "" && alias != "" {
				names = append(names, original+" as "+alias)
			} else if original != "" {
				names = append(names, original)
			}
		}
	}
	if module == "" {
		return
	}
	w.result.Imports = append(w.result.Imports, Import{
		Module:     module,
		Names:      names,
		IsWildcard: isWildcard,
		Line:       line,
	})
}

// collectCalls walks an arbitrary statement subtree recording call
// references, without descending into nested definitions (those get
// their own walkBody pass with the correct source declaration).
func (w *pyWalker) collectCalls(node *sitter.Node, source *Declaration, enclosingClass string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	if node.Type() == "function_definition" || node.Type() == "class_definition" {
		return
	}
	if node.Type() == "call" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			if target := callTargetText(fn, w.content); target != "" {
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

func (w *pyWalker) addReference(ref Reference) {
	if len(w.result.References) >= maxReferencesPerFile {
		return
	}
	w.result.References = append(w.result.References, ref)
}

func (w *pyWalker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

// callTargetText returns the dotted text of a call's function node, or
// "" when the target is dynamic (subscripts, call results, lambdas)
// and recording it would be a guess.
func callTargetText(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case "identifier":
		return string(content[node.StartByte():node.EndByte()])
	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return ""
		}
		base := callTargetText(obj, content)
		if base == "" {
			return ""
		}
		return base + "." + string(content[attr.StartByte():attr.EndByte()])
	default:
		return ""
	}
}

// moduleDocstring returns the file-level docstring, if the first
// statement is a bare string.
func moduleDocstring(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "comment" {
			continue
		}
		if child.Type() == "expression_statement" && child.ChildCount() > 0 {
			if s := child.Child(0); s.Type() == "string" {
				return stripQuotes(string(content[s.StartByte():s.EndByte()]))
			}
		}
		return ""
	}
	return ""
}

// blockDocstring returns the docstring of a class or function body.
func blockDocstring(block *sitter.Node, content []byte) string {
	if block.ChildCount() == 0 {
		return ""
	}
	first := block.Child(0)
	if first.Type() == "expression_statement" && first.ChildCount() > 0 {
		if s := first.Child(0); s.Type() == "string" {
			return stripQuotes(string(content[s.StartByte():s.EndByte()]))
		}
	}
	return ""
}

func stripQuotes(raw string) string {
	return strings.TrimSpace(strings.Trim(raw, `"'`))
}

// firstLine reduces a docstring to its summary line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// pyExported reports whether a Python name is public by convention:
// dunder names are public, other underscore-prefixed names are not.
func pyExported(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return !strings.HasPrefix(name, "_")
}

// Compile-time interface compliance check.
var _ Extractor = (*PythonExtractor)(nil)
