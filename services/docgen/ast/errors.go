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

import "errors"

// Sentinel errors for extraction. Callers match with errors.Is.
var (
	// ErrUnsupportedLanguage indicates no extractor is registered for
	// the requested language or extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed indicates tree-sitter could not produce a usable
	// tree for the file. The file is reported as a parse failure and
	// the run continues.
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidContent indicates the input bytes cannot be extracted
	// at all, e.g. nil content.
	ErrInvalidContent = errors.New("invalid content")

	// ErrInvalidDeclaration indicates a declaration violates a
	// structural invariant (see Declaration.Validate).
	ErrInvalidDeclaration = errors.New("invalid declaration")

	// ErrInvalidResult indicates a FileResult is internally
	// inconsistent (see FileResult.Validate).
	ErrInvalidResult = errors.New("invalid file result")

	// ErrAlreadyRegistered indicates a second extractor was registered
	// for a language already present in the registry.
	ErrAlreadyRegistered = errors.New("extractor already registered")
)
