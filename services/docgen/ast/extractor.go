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
	"sort"
	"strings"
	"sync"
)

// Extractor is the interface all language extractors implement.
//
// Implementations must be stateless and safe for concurrent use; the
// pipeline calls Extract from multiple goroutines. Each Extract call
// creates its own tree-sitter parser because parsers are not
// thread-safe.
type Extractor interface {
	// Extract parses content and returns the file's declarations,
	// references, and imports.
	//
	// A syntactically broken file yields a partial FileResult with the
	// problems noted in Errors; Extract returns a non-nil error only
	// when nothing could be extracted (ErrParseFailed,
	// ErrInvalidContent, or context cancellation).
	Extract(ctx context.Context, content []byte, filePath string) (*FileResult, error)

	// Language returns the lowercase language name, e.g. "python".
	Language() string

	// Extensions returns the file extensions this extractor handles,
	// each with a leading dot.
	Extensions() []string
}

// ExtractorRegistry maps languages and file extensions to extractors.
//
// Thread Safety: all methods are safe for concurrent use.
type ExtractorRegistry struct {
	mu          sync.RWMutex
	byLanguage  map[string]Extractor
	byExtension map[string]Extractor
}

// NewExtractorRegistry creates an empty registry.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		byLanguage:  make(map[string]Extractor),
		byExtension: make(map[string]Extractor),
	}
}

// Register adds an extractor under its language and all its
// extensions. Registering a language twice is an error; extensions
// must not collide across extractors.
func (r *ExtractorRegistry) Register(e Extractor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lang := strings.ToLower(e.Language())
	if _, exists := r.byLanguage[lang]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, lang)
	}
	for _, ext := range e.Extensions() {
		ext = strings.ToLower(ext)
		if prev, exists := r.byExtension[ext]; exists {
			return fmt.Errorf("%w: extension %s claimed by %s",
				ErrAlreadyRegistered, ext, prev.Language())
		}
	}

	r.byLanguage[lang] = e
	for _, ext := range e.Extensions() {
		r.byExtension[strings.ToLower(ext)] = e
	}
	return nil
}

// ForLanguage returns the extractor registered for the language.
func (r *ExtractorRegistry) ForLanguage(language string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byLanguage[strings.ToLower(language)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return e, nil
}

// ForExtension returns the extractor for a file extension (with or
// without the leading dot).
func (r *ExtractorRegistry) ForExtension(ext string) (Extractor, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExtension[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedLanguage, ext)
	}
	return e, nil
}

// Languages returns the registered language names, sorted.
func (r *ExtractorRegistry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ExtensionLanguages returns a copy of the extension-to-language map,
// used by the repository scanner to classify files.
func (r *ExtractorRegistry) ExtensionLanguages() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := make(map[string]string, len(r.byExtension))
	for ext, e := range r.byExtension {
		m[ext] = e.Language()
	}
	return m
}
