// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for cache operations.
var meter = otel.Meter("geoset.cache")

// Metrics for cache operations. Only the slow paths record anything.
var (
	cacheComputes        metric.Int64Counter
	cacheDetaches        metric.Int64Counter
	cacheComputeDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheComputes, err = meter.Int64Counter(
			"geoset_cache_computes_total",
			metric.WithDescription("Total number of lazy cache computations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheDetaches, err = meter.Int64Counter(
			"geoset_cache_detaches_total",
			metric.WithDescription("Total number of shared cache detaches"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheComputeDuration, err = meter.Float64Histogram(
			"geoset_cache_compute_duration_seconds",
			metric.WithDescription("Duration of lazy cache computations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordCompute records one compute of the named cache.
func recordCompute(name string, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache", name))
	ctx := context.Background()
	cacheComputes.Add(ctx, 1, attrs)
	cacheComputeDuration.Record(ctx, duration.Seconds(), attrs)
}

// recordDetach records a handle leaving a shared allocation.
func recordDetach(name, reason string) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheDetaches.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("cache", name),
			attribute.String("reason", reason),
		),
	)
}
