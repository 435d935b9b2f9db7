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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSample = `package scanner

import (
	"fmt"
	ignore "github.com/sabhiram/go-gitignore"
)

type Base struct{}

type Scanner struct {
	Base
	matcher *ignore.GitIgnore
}

func (s *Scanner) Walk() error {
	s.visit()
	return fmt.Errorf("boom")
}

func (s *Scanner) visit() {}

func New() *Scanner {
	return &Scanner{}
}
`

func TestGoExtractorDeclarations(t *testing.T) {
	ex := NewGoExtractor()
	result, err := ex.Extract(context.Background(), []byte(goSample), "internal/scanner/scanner.go")
	require.NoError(t, err)

	assert.Equal(t, "go", result.Language)
	assert.Equal(t, "internal.scanner.scanner", result.ModulePath)

	module := result.Declarations[0]
	assert.Equal(t, KindModule, module.Kind)

	scanner := declByQual(t, result, "internal.scanner.scanner.Scanner")
	assert.Equal(t, KindClass, scanner.Kind)
	assert.True(t, scanner.Exported)

	walk := declByQual(t, result, "internal.scanner.scanner.Scanner.Walk")
	assert.Equal(t, KindFunction, walk.Kind)
	assert.Equal(t, scanner.ID, walk.ParentID)
	assert.Equal(t, "Walk()", walk.Signature)

	visit := declByQual(t, result, "internal.scanner.scanner.Scanner.visit")
	assert.False(t, visit.Exported)

	newFn := declByQual(t, result, "internal.scanner.scanner.New")
	assert.Equal(t, module.ID, newFn.ParentID)

	assert.Len(t, result.Declarations, 6)
}

func TestGoExtractorReferencesAndImports(t *testing.T) {
	ex := NewGoExtractor()
	result, err := ex.Extract(context.Background(), []byte(goSample), "internal/scanner/scanner.go")
	require.NoError(t, err)

	// Embedded struct field becomes a base reference.
	assert.Equal(t, []string{"Base"}, refTexts(result, ReferenceBase))
	assert.ElementsMatch(t, []string{"s.visit", "fmt.Errorf"}, refTexts(result, ReferenceCall))

	require.Len(t, result.Imports, 2)
	assert.Equal(t, "fmt", result.Imports[0].Module)
	assert.Equal(t, "github.com/sabhiram/go-gitignore", result.Imports[1].Module)
	assert.Equal(t, "ignore", result.Imports[1].Alias)
}

func TestGoExtractorInterfaceEmbedding(t *testing.T) {
	src := `package io

type Reader interface {
	Read(p []byte) (int, error)
}

type ReadCloser interface {
	Reader
	Close() error
}
`
	ex := NewGoExtractor()
	result, err := ex.Extract(context.Background(), []byte(src), "io/io.go")
	require.NoError(t, err)

	rc := declByQual(t, result, "io.io.ReadCloser")
	assert.Equal(t, KindClass, rc.Kind)
	assert.Equal(t, []string{"Reader"}, refTexts(result, ReferenceBase))
}

func TestGoExtractorMethodWithoutSameFileType(t *testing.T) {
	src := `package ext

func (w Writer) Flush() {}
`
	ex := NewGoExtractor()
	result, err := ex.Extract(context.Background(), []byte(src), "ext/flush.go")
	require.NoError(t, err)

	// Receiver type declared elsewhere: the method keeps its
	// receiver-qualified name but hangs off the module.
	flush := declByQual(t, result, "ext.flush.Writer.Flush")
	assert.Equal(t, result.Declarations[0].ID, flush.ParentID)
}

func TestGoExtractorInvalidContent(t *testing.T) {
	ex := NewGoExtractor()
	_, err := ex.Extract(context.Background(), nil, "a.go")
	assert.ErrorIs(t, err, ErrInvalidContent)

	small := NewGoExtractor(WithGoMaxFileSize(4))
	_, err = small.Extract(context.Background(), []byte(goSample), "a.go")
	assert.ErrorIs(t, err, ErrInvalidContent)
}
