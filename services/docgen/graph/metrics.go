// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("genius.graph")
	meter  = otel.Meter("genius.graph")

	metricsOnce sync.Once

	buildDuration   metric.Float64Histogram
	resolveDuration metric.Float64Histogram
	nodesBuilt      metric.Int64Counter
	edgesResolved   metric.Int64Counter
	refsUnresolved  metric.Int64Counter
)

// initMetrics creates the package instruments once; creation errors
// leave the instruments as no-ops.
func initMetrics() {
	metricsOnce.Do(func() {
		buildDuration, _ = meter.Float64Histogram(
			"genius.graph.build.duration",
			metric.WithDescription("Time to build the graph"),
			metric.WithUnit("s"),
		)
		resolveDuration, _ = meter.Float64Histogram(
			"genius.graph.resolve.duration",
			metric.WithDescription("Time to resolve references"),
			metric.WithUnit("s"),
		)
		nodesBuilt, _ = meter.Int64Counter(
			"genius.graph.nodes",
			metric.WithDescription("Nodes added to the graph"),
		)
		edgesResolved, _ = meter.Int64Counter(
			"genius.graph.edges.resolved",
			metric.WithDescription("References resolved to edges"),
		)
		refsUnresolved, _ = meter.Int64Counter(
			"genius.graph.edges.unresolved",
			metric.WithDescription("References left unresolved"),
		)
	})
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	initMetrics()
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func recordBuild(ctx context.Context, seconds float64, nodes int) {
	if buildDuration != nil {
		buildDuration.Record(ctx, seconds)
	}
	if nodesBuilt != nil {
		nodesBuilt.Add(ctx, int64(nodes))
	}
}

func recordResolve(ctx context.Context, seconds float64, resolved, unresolved int) {
	if resolveDuration != nil {
		resolveDuration.Record(ctx, seconds)
	}
	if edgesResolved != nil {
		edgesResolved.Add(ctx, int64(resolved))
	}
	if refsUnresolved != nil {
		refsUnresolved.Add(ctx, int64(unresolved))
	}
}
