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
	"maps"
	"slices"
	"strings"

	"cogentcore.org/core/math32"
	"github.com/AleutianAI/geoset/pkg/ux"
	"github.com/AleutianAI/geoset/services/geometry/geomset"
	"github.com/AleutianAI/geoset/services/geometry/telemetry"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		useRadius   bool
		propagateTo string
	)
	cmd := &cobra.Command{
		Use:   "inspect <scene.yaml>",
		Short: "Print the set tree, bounds and propagated attributes of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := geomset.ParseKind(propagateTo)
			if err != nil {
				return err
			}

			ctx, span := telemetry.StartSpan(cmd.Context(), tracerName, "inspect")
			defer span.End()

			sc, root, err := a.loadScene(ctx, args[0])
			if err != nil {
				return err
			}

			p := a.printer
			p.Title("Scene " + sc.ID)
			p.Tree(setTree(root))

			if box, ok := root.ComputeBounds(useRadius); ok {
				p.KeyValues("bounds", [][2]string{
					{"min", formatVec(box.Min)},
					{"max", formatVec(box.Max)},
				})
			} else {
				p.Info("root has no realized geometry")
			}

			kinds := root.GatherComponentKinds(true, true)
			names := make([]string, len(kinds))
			for i, k := range kinds {
				names[i] = k.String()
			}
			p.KeyValues("kinds", [][2]string{{"present", strings.Join(names, ", ")}})

			attrs := root.GatherAttributesForPropagation(geomset.AllKinds(), target, true, nil)
			pairs := make([][2]string, 0, len(attrs))
			for _, name := range slices.Sorted(maps.Keys(attrs)) {
				k := attrs[name]
				pairs = append(pairs, [2]string{name, k.Domain.String() + " " + k.Type.String()})
			}
			p.KeyValues("propagate to "+target.String(), pairs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useRadius, "radius", false, "include point and curve radii in bounds")
	cmd.Flags().StringVar(&propagateTo, "propagate-to", geomset.KindPointCloud.String(), "component kind attributes are propagated to")
	return cmd
}

// setTree lists root and its nested sets depth first. A set reached again
// through another reference is listed once more but not expanded.
func setTree(root *geomset.Set) []ux.TreeLine {
	var lines []ux.TreeLine
	seen := make(map[*geomset.Set]bool)
	var walk func(s *geomset.Set, depth int)
	walk = func(s *geomset.Set, depth int) {
		if seen[s] {
			lines = append(lines, ux.TreeLine{Depth: depth, Text: fmt.Sprintf("%q (shared)", s.Name())})
			return
		}
		seen[s] = true
		lines = append(lines, ux.TreeLine{Depth: depth, Text: s.String()})
		if in := s.Instances(); in != nil {
			in.ForEachReferencedGeometry(func(child *geomset.Set) {
				walk(child, depth+1)
			})
		}
	}
	walk(root, 0)
	return lines
}

func formatVec(v math32.Vector3) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
