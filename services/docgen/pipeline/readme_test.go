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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeReadmeStripsScaffolding(t *testing.T) {
	readme := `# MyTool

[![build](https://example.com/badge.svg)](https://example.com)

MyTool analyzes repositories and renders documentation.

It supports Python, Go, and JavaScript.

## Install

` + "```\npip install mytool\n```" + `

More prose that should not appear.
`
	got := SummarizeReadme(readme)
	assert.Contains(t, got, "MyTool analyzes repositories and renders documentation.")
	assert.Contains(t, got, "It supports Python, Go, and JavaScript.")
	assert.NotContains(t, got, "# MyTool")
	assert.NotContains(t, got, "badge")
	assert.NotContains(t, got, "pip install")
	assert.NotContains(t, got, "More prose")
}

func TestSummarizeReadmeJoinsWrappedLines(t *testing.T) {
	readme := "First line of a paragraph\nwrapped onto a second line.\n"
	got := SummarizeReadme(readme)
	assert.Equal(t, "First line of a paragraph wrapped onto a second line.", got)
}

func TestSummarizeReadmeTruncates(t *testing.T) {
	long := strings.Repeat("word ", 300)
	got := SummarizeReadme(long)
	assert.LessOrEqual(t, len(got), summaryMaxLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSummarizeReadmeEmpty(t *testing.T) {
	assert.Equal(t, "", SummarizeReadme(""))
	assert.Equal(t, "", SummarizeReadme("# Only a heading\n"))
}
