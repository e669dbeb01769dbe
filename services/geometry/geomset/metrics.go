// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package geomset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Copy-on-write and traversal metrics.
var (
	componentClones = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoset_component_cow_clones_total",
		Help: "Components cloned because write access was requested on a shared component",
	}, []string{"kind"})

	componentInPlaceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoset_component_inplace_writes_total",
		Help: "Write accesses served without a copy",
	}, []string{"kind"})

	modifyDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoset_modify_dispatch_total",
		Help: "Instance levels visited by ModifyGeometrySets, by dispatch mode",
	}, []string{"mode"})

	modifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoset_modify_duration_seconds",
		Help:    "Duration of ModifyGeometrySets calls",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	})
)
