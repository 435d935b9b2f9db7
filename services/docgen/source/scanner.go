// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package source enumerates repository files for the documentation
// pipeline. The Scanner walks a directory tree, honors .gitignore,
// skips VCS and build artifacts, and classifies files by extension.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/pipeline"
)

// defaultIgnoreDirs are directory names skipped at any depth.
var defaultIgnoreDirs = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"__pycache__",
	"venv",
	".venv",
	"dist",
	"build",
	"vendor",
	".idea",
	".vscode",
}

// readmeNames are the README filenames probed in order.
var readmeNames = []string{"README.md", "README.rst", "README.txt", "README", "readme.md"}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithIgnoreDirs replaces the default directory skip list.
func WithIgnoreDirs(dirs []string) ScannerOption {
	return func(s *Scanner) {
		if len(dirs) > 0 {
			s.ignoreDirs = make(map[string]bool, len(dirs))
			for _, d := range dirs {
				s.ignoreDirs[d] = true
			}
		}
	}
}

// WithExtensionLanguages sets the extension-to-language map, normally
// ExtensionLanguages() from the extractor registry.
func WithExtensionLanguages(m map[string]string) ScannerOption {
	return func(s *Scanner) {
		if len(m) > 0 {
			s.extLangs = m
		}
	}
}

// WithMaxFileSize skips files larger than the given byte count.
func WithMaxFileSize(bytes int64) ScannerOption {
	return func(s *Scanner) {
		if bytes > 0 {
			s.maxFileSize = bytes
		}
	}
}

// Scanner implements pipeline.Source over a local directory.
//
// A .gitignore at the repository root is honored; nested .gitignore
// files are not (a known simplification). Paths returned by Files are
// repository-relative with forward slashes.
//
// Thread Safety: Scanner is immutable after construction and safe for
// concurrent use.
type Scanner struct {
	root        string
	ignoreDirs  map[string]bool
	extLangs    map[string]string
	maxFileSize int64
	matcher     *ignore.GitIgnore
}

// NewScanner creates a Scanner rooted at dir.
//
// Returns an error when dir does not exist or is not a directory.
func NewScanner(dir string, opts ...ScannerOption) (*Scanner, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning root: %s is not a directory", dir)
	}

	s := &Scanner{
		root:        dir,
		ignoreDirs:  make(map[string]bool, len(defaultIgnoreDirs)),
		maxFileSize: 10 * 1024 * 1024,
	}
	for _, d := range defaultIgnoreDirs {
		s.ignoreDirs[d] = true
	}
	for _, opt := range opts {
		opt(s)
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		matcher, err := ignore.CompileIgnoreFile(gitignorePath)
		if err == nil {
			s.matcher = matcher
		}
	}
	return s, nil
}

// Files walks the tree and returns the extractable files, sorted by
// path.
func (s *Scanner) Files(ctx context.Context) ([]pipeline.FileInfo, error) {
	var infos []pipeline.FileInfo

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			if s.matcher != nil && s.matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.matcher != nil && s.matcher.MatchesPath(rel) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(rel))
		lang := ""
		if s.extLangs != nil {
			var ok bool
			lang, ok = s.extLangs[ext]
			if !ok {
				return nil
			}
		}

		if info, err := d.Info(); err == nil && info.Size() > s.maxFileSize {
			return nil
		}

		infos = append(infos, pipeline.FileInfo{Path: rel, Language: lang})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.root, err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// Read returns the content of a file previously listed by Files.
func (s *Scanner) Read(ctx context.Context, relPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filepath.IsAbs(relPath) || strings.Contains(relPath, "..") {
		return nil, fmt.Errorf("invalid path %q", relPath)
	}
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(relPath)))
}

// Readme returns the repository README content, or "" when none of
// the conventional names exists.
func (s *Scanner) Readme(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, name := range readmeNames {
		content, err := os.ReadFile(filepath.Join(s.root, name))
		if err == nil {
			return string(content), nil
		}
	}
	return "", nil
}

// Compile-time interface compliance checks.
var (
	_ pipeline.Source         = (*Scanner)(nil)
	_ pipeline.ReadmeProvider = (*Scanner)(nil)
)
