// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CodebaseGenius/services/docgen/pipeline"
)

// runLanguages is the entry point for "genius languages".
func runLanguages(cmd *cobra.Command, args []string) error {
	svc, err := pipeline.NewService()
	if err != nil {
		return err
	}
	registry := svc.Registry()

	// Invert extension -> language into language -> extensions.
	byLanguage := make(map[string][]string)
	for ext, lang := range registry.ExtensionLanguages() {
		byLanguage[lang] = append(byLanguage[lang], ext)
	}

	for _, lang := range registry.Languages() {
		exts := byLanguage[lang]
		sort.Strings(exts)
		fmt.Printf("%-12s %s\n", lang, strings.Join(exts, " "))
	}
	return nil
}
