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
	"fmt"

	"cogentcore.org/core/math32"

	"github.com/AleutianAI/geoset/services/geometry/cache"
)

// ComputeBounds returns the bounding box of the realized geometry directly
// in the set. Instances and edit hints are not included.
//
// Description:
//
//	Each payload answers from its own bounds cache, so repeated calls
//	and calls on shallow copies do not recompute anything.
//
// Inputs:
//
//	useRadius - Grow point cloud and curve bounds by the point radius.
//
// Outputs:
//
//	math32.Box3 - Union of the payload bounds.
//	bool - False if no payload has any points.
func (s *Set) ComputeBounds(useRadius bool) (math32.Box3, bool) {
	total := math32.B3Empty()
	found := false
	merge := func(b math32.Box3, ok bool) {
		if ok {
			total.ExpandByBox(b)
			found = true
		}
	}
	if pc := s.PointCloud(); pc != nil {
		merge(pc.Bounds(useRadius))
	}
	if m := s.Mesh(); m != nil {
		merge(m.Bounds())
	}
	if v := s.Volume(); v != nil {
		merge(v.Bounds())
	}
	if c := s.Curves(); c != nil {
		merge(c.Bounds(useRadius))
	}
	return total, found
}

// pointBounds returns the box around positions, grown per point by radius
// when radius is non-nil.
func pointBounds(positions []math32.Vector3, radius []float32) math32.Box3 {
	b := math32.B3Empty()
	for i, p := range positions {
		if radius == nil {
			b.ExpandByPoint(p)
			continue
		}
		pb := math32.Box3{Min: p, Max: p}
		pb.ExpandByScalar(radius[i])
		b.ExpandByBox(pb)
	}
	return b
}

// translateBounds shifts a cached box instead of recomputing it. A dirty
// cache stays dirty.
func translateBounds(c *cache.Shared[math32.Box3], offset math32.Vector3) {
	if !c.IsCached() {
		c.TagDirty()
		return
	}
	c.Update(func(b *math32.Box3) {
		if !b.IsEmpty() {
			*b = b.Translate(offset)
		}
	})
}

// checkOffsets validates an offsets array: empty, or starting at zero,
// non-decreasing and ending at total.
func checkOffsets(offsets []int32, total int) error {
	if len(offsets) == 0 {
		if total != 0 {
			return fmt.Errorf("%w: %d elements without offsets", ErrInvalidTopology, total)
		}
		return nil
	}
	if offsets[0] != 0 {
		return fmt.Errorf("%w: first offset is %d", ErrInvalidTopology, offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return fmt.Errorf("%w: offset %d decreases", ErrInvalidTopology, i)
		}
	}
	if last := offsets[len(offsets)-1]; int(last) != total {
		return fmt.Errorf("%w: last offset %d, want %d", ErrInvalidTopology, last, total)
	}
	return nil
}
