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
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"cogentcore.org/core/math32"
	"github.com/AleutianAI/geoset/pkg/ux"
	"github.com/AleutianAI/geoset/services/geometry/geomset"
	"github.com/AleutianAI/geoset/services/geometry/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	metricClones   = "geoset_component_cow_clones_total"
	metricInPlace  = "geoset_component_inplace_writes_total"
	countCloned    = "cloned"
	countInPlace   = "in_place"
	countVisited   = "sets_visited"
	countUnchanged = "original_unchanged"
)

func newModifyCmd(a *app) *cobra.Command {
	var (
		translate  string
		sequential bool
		maxWorkers int
	)
	cmd := &cobra.Command{
		Use:   "modify <scene.yaml>",
		Short: "Translate a copy of a scene and report copy-on-write activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseVec3(translate)
			if err != nil {
				return err
			}
			opts := a.cfg.ModifyOptions()
			if cmd.Flags().Changed("sequential") {
				opts.Sequential = sequential
			}
			if cmd.Flags().Changed("max-workers") {
				opts.MaxWorkers = maxWorkers
			}

			ctx, span := telemetry.StartSpan(cmd.Context(), tracerName, "modify")
			defer span.End()

			_, original, err := a.loadScene(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := translateCopy(ctx, original, offset, opts)
			if err != nil {
				telemetry.RecordError(span, err)
				return err
			}
			res.print(a.printer)
			return nil
		},
	}
	cmd.Flags().StringVar(&translate, "translate", "0,0,0", "offset as x,y,z")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "visit nested sets one at a time")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "bound on concurrent nested-set tasks")
	return cmd
}

type modifyResult struct {
	visited        []string
	cloned         int
	inPlace        int
	before, after  math32.Box3
	moved          math32.Box3
	hasBounds      bool
	originalIntact bool
}

// translateCopy moves every realized payload of a copy of original by
// offset and reports how the copy-on-write counters moved.
func translateCopy(ctx context.Context, original *geomset.Set, offset math32.Vector3, opts geomset.ModifyOptions) (*modifyResult, error) {
	res := &modifyResult{}
	res.before, res.hasBounds = original.ComputeBounds(false)
	snapshot := snapshotTree(original)

	working := original.Copy()
	startClones, startInPlace := cowCounters()

	var mu sync.Mutex
	err := working.ModifyGeometrySets(ctx, func(ctx context.Context, s *geomset.Set) error {
		translateSet(ctx, s, offset)
		mu.Lock()
		res.visited = append(res.visited, s.Name())
		mu.Unlock()
		return nil
	}, geomset.WithModifyOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("modify: %w", err)
	}

	endClones, endInPlace := cowCounters()
	res.cloned = int(endClones - startClones)
	res.inPlace = int(endInPlace - startInPlace)
	slices.Sort(res.visited)

	res.after, _ = original.ComputeBounds(false)
	res.moved, _ = working.ComputeBounds(false)
	res.originalIntact = slices.EqualFunc(snapshot, snapshotTree(original), setState.equal)
	return res, nil
}

// setState is what modify may not change in one set of the original tree.
type setState struct {
	name       string
	bounds     math32.Box3
	hasBounds  bool
	transforms []math32.Matrix4
}

func (a setState) equal(b setState) bool {
	return a.name == b.name &&
		a.hasBounds == b.hasBounds &&
		a.bounds == b.bounds &&
		slices.Equal(a.transforms, b.transforms)
}

// snapshotTree records the state of root and of every set nested in its
// instances, depth first, each set once.
func snapshotTree(root *geomset.Set) []setState {
	var out []setState
	seen := make(map[*geomset.Set]bool)
	var walk func(*geomset.Set)
	walk = func(s *geomset.Set) {
		if seen[s] {
			return
		}
		seen[s] = true
		st := setState{name: s.Name()}
		st.bounds, st.hasBounds = s.ComputeBounds(false)
		in := s.Instances()
		if in != nil {
			st.transforms = slices.Clone(in.Transforms())
		}
		out = append(out, st)
		if in != nil {
			in.ForEachReferencedGeometry(walk)
		}
	}
	walk(root)
	return out
}

func translateSet(ctx context.Context, s *geomset.Set, offset math32.Vector3) {
	if s.Has(geomset.KindMesh) {
		s.MeshForWrite().Translate(offset)
	}
	if s.Has(geomset.KindCurve) {
		s.CurvesForWrite().Translate(offset)
	}
	if s.Has(geomset.KindPointCloud) {
		s.PointCloudForWrite().Translate(offset)
	}
	if s.Has(geomset.KindVolume) {
		if err := s.LoadVolume(ctx); err != nil {
			slog.Warn("volume not translated", slog.String("set", s.Name()), slog.Any("error", err))
			return
		}
		for _, g := range s.VolumeForWrite().Grids() {
			g.Transform[12] += offset.X
			g.Transform[13] += offset.Y
			g.Transform[14] += offset.Z
		}
	}
}

func (r *modifyResult) print(p *ux.Printer) {
	p.Title("Modify")
	lines := make([]ux.TreeLine, len(r.visited))
	for i, name := range r.visited {
		lines[i] = ux.TreeLine{Text: name}
	}
	p.Tree(lines)

	if r.hasBounds {
		p.KeyValues("bounds", [][2]string{
			{"original", formatVec(r.after.Min) + " " + formatVec(r.after.Max)},
			{"modified", formatVec(r.moved.Min) + " " + formatVec(r.moved.Max)},
		})
	}

	intact := 0
	if r.originalIntact {
		intact = 1
	}
	p.Counts(
		[]string{countVisited, countCloned, countInPlace, countUnchanged},
		map[string]int{
			countVisited:   len(r.visited),
			countCloned:    r.cloned,
			countInPlace:   r.inPlace,
			countUnchanged: intact,
		},
	)
	if r.originalIntact {
		p.Success("original scene unchanged")
	} else {
		p.Warning("original scene changed")
	}
}

// cowCounters sums the copy-on-write counters over all kinds.
func cowCounters() (clones, inPlace float64) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return 0, 0
	}
	for _, mf := range families {
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		switch mf.GetName() {
		case metricClones:
			clones = sum
		case metricInPlace:
			inPlace = sum
		}
	}
	return clones, inPlace
}

func parseVec3(s string) (math32.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math32.Vector3{}, fmt.Errorf("translate %q: want x,y,z", s)
	}
	var v [3]float32
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return math32.Vector3{}, fmt.Errorf("translate %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return math32.Vec3(v[0], v[1], v[2]), nil
}
