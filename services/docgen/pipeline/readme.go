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

import "strings"

const (
	// summaryMaxParagraphs bounds the extractive README summary.
	summaryMaxParagraphs = 2

	// summaryMaxLen bounds the summary length in bytes.
	summaryMaxLen = 600
)

// SummarizeReadme produces a short extractive summary of a README:
// the first prose paragraphs with markdown scaffolding (headings,
// badges, code blocks, HTML) stripped. Purely mechanical; no language
// model is involved.
func SummarizeReadme(readme string) string {
	lines := strings.Split(readme, "\n")

	var paragraphs []string
	var current []string
	inCode := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.TrimSpace(strings.Join(current, " "))
		current = nil
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inCode = !inCode
			flush()
			continue
		}
		if inCode {
			continue
		}
		if trimmed == "" {
			flush()
			if len(paragraphs) >= summaryMaxParagraphs {
				break
			}
			continue
		}
		if isScaffolding(trimmed) {
			flush()
			continue
		}
		current = append(current, trimmed)
	}
	flush()

	if len(paragraphs) > summaryMaxParagraphs {
		paragraphs = paragraphs[:summaryMaxParagraphs]
	}
	summary := strings.Join(paragraphs, "\n\n")
	return truncateAtWord(summary, summaryMaxLen)
}

// isScaffolding reports whether a README line is structure rather
// than prose: headings, badges, tables, HTML, horizontal rules.
func isScaffolding(line string) bool {
	switch {
	case strings.HasPrefix(line, "#"):
		return true
	case strings.HasPrefix(line, "|"):
		return true
	case strings.HasPrefix(line, "<"):
		return true
	case strings.HasPrefix(line, "[!["): // badge
		return true
	case strings.HasPrefix(line, "!["):
		return true
	case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "==="):
		return true
	default:
		return false
	}
}

// truncateAtWord shortens s to at most max bytes, cutting at a word
// boundary and appending an ellipsis marker.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "..."
}
