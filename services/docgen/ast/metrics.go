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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("genius.ast")
	meter  = otel.Meter("genius.ast")

	metricsOnce sync.Once

	extractDuration  metric.Float64Histogram
	declarationCount metric.Int64Counter
	referenceCount   metric.Int64Counter
	extractFailures  metric.Int64Counter
)

// initMetrics creates the package instruments once. Instrument
// creation errors are swallowed: with no meter provider installed the
// instruments are no-ops, which is the desired CLI default.
func initMetrics() {
	metricsOnce.Do(func() {
		extractDuration, _ = meter.Float64Histogram(
			"genius.ast.extract.duration",
			metric.WithDescription("Time to extract one file"),
			metric.WithUnit("s"),
		)
		declarationCount, _ = meter.Int64Counter(
			"genius.ast.declarations",
			metric.WithDescription("Declarations extracted"),
		)
		referenceCount, _ = meter.Int64Counter(
			"genius.ast.references",
			metric.WithDescription("Raw references extracted"),
		)
		extractFailures, _ = meter.Int64Counter(
			"genius.ast.extract.failures",
			metric.WithDescription("Files that failed extraction"),
		)
	})
}

// startExtractSpan opens the per-file extraction span and ensures the
// instruments exist.
func startExtractSpan(ctx context.Context, language, filePath string) (context.Context, trace.Span) {
	initMetrics()
	return tracer.Start(ctx, "ast.extract",
		trace.WithAttributes(
			attribute.String("language", language),
			attribute.String("file", filePath),
		))
}

// recordExtract records the outcome of one extraction.
func recordExtract(ctx context.Context, language string, seconds float64, result *FileResult, err error) {
	attrs := metric.WithAttributes(attribute.String("language", language))
	if extractDuration != nil {
		extractDuration.Record(ctx, seconds, attrs)
	}
	if err != nil {
		if extractFailures != nil {
			extractFailures.Add(ctx, 1, attrs)
		}
		return
	}
	if result != nil {
		if declarationCount != nil {
			declarationCount.Add(ctx, int64(len(result.Declarations)), attrs)
		}
		if referenceCount != nil {
			referenceCount.Add(ctx, int64(len(result.References)), attrs)
		}
	}
}
