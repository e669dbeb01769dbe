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
	"slices"

	"cogentcore.org/core/math32"

	"github.com/AleutianAI/geoset/services/geometry/cache"
)

// Curves is a set of poly curves. Curve i uses the points from
// offsets[i] to offsets[i+1].
type Curves struct {
	positions  []math32.Vector3
	offsets    []int32
	cyclic     []bool
	radius     []float32
	attributes Attributes

	bounds       *cache.Shared[math32.Box3]
	radiusBounds *cache.Shared[math32.Box3]
	lengths      *cache.Shared[[]float32]
	hooks        *BatchCacheHooks
}

var curveDomains = []Domain{DomainPoint, DomainCurve}

// NewCurves returns curves over positions split by offsets.
func NewCurves(positions []math32.Vector3, offsets []int32) (*Curves, error) {
	if err := checkOffsets(offsets, len(positions)); err != nil {
		return nil, fmt.Errorf("curves: %w", err)
	}
	return &Curves{
		positions:    positions,
		offsets:      offsets,
		bounds:       cache.NewShared[math32.Box3]("curves.bounds"),
		radiusBounds: cache.NewShared[math32.Box3]("curves.radius_bounds"),
		lengths:      cache.NewSharedWithClone("curves.lengths", slices.Clone[[]float32]),
	}, nil
}

// SetBatchCacheHooks sets the hooks notified on changes.
func (c *Curves) SetBatchCacheHooks(h *BatchCacheHooks) {
	c.hooks = h
}

func (c *Curves) NumPoints() int { return len(c.positions) }

func (c *Curves) NumCurves() int {
	if len(c.offsets) == 0 {
		return 0
	}
	return len(c.offsets) - 1
}

// Positions returns the point positions. Callers must not modify them.
func (c *Curves) Positions() []math32.Vector3 { return c.positions }

// CurvePoints returns the positions of curve i.
func (c *Curves) CurvePoints(i int) []math32.Vector3 {
	return c.positions[c.offsets[i]:c.offsets[i+1]]
}

// Cyclic reports whether curve i is closed.
func (c *Curves) Cyclic(i int) bool {
	return c.cyclic != nil && c.cyclic[i]
}

// SetCyclic opens or closes curve i.
func (c *Curves) SetCyclic(i int, cyclic bool) {
	if c.cyclic == nil {
		if !cyclic {
			return
		}
		c.cyclic = make([]bool, c.NumCurves())
	}
	c.cyclic[i] = cyclic
	c.lengths.TagDirty()
	c.hooks.curvesDirty(c, BatchDirtyTopology)
}

// Radius returns per-point radii, or nil if none are set.
func (c *Curves) Radius() []float32 { return c.radius }

// SetRadius sets per-point radii.
func (c *Curves) SetRadius(radius []float32) error {
	if len(radius) != c.NumPoints() {
		return fmt.Errorf("%w: radius has %d values for %d points", ErrLengthMismatch, len(radius), c.NumPoints())
	}
	c.radius = radius
	c.radiusBounds.TagDirty()
	c.hooks.curvesDirty(c, BatchDirtyAll)
	return nil
}

// PositionsForWrite returns the positions for in-place edits. Call
// TagPositionsChanged when done.
func (c *Curves) PositionsForWrite() []math32.Vector3 { return c.positions }

// TagPositionsChanged invalidates data derived from positions.
func (c *Curves) TagPositionsChanged() {
	c.bounds.TagDirty()
	c.radiusBounds.TagDirty()
	c.lengths.TagDirty()
	c.hooks.curvesDirty(c, BatchDirtyPositions)
}

// Translate moves every point by offset. Lengths are unaffected and
// cached bounds are shifted.
func (c *Curves) Translate(offset math32.Vector3) {
	for i := range c.positions {
		c.positions[i] = c.positions[i].Add(offset)
	}
	translateBounds(c.bounds, offset)
	translateBounds(c.radiusBounds, offset)
	c.hooks.curvesDirty(c, BatchDirtyPositions)
}

// Bounds returns the bounding box of the points, grown by the radius when
// useRadius is set and radii exist.
func (c *Curves) Bounds(useRadius bool) (math32.Box3, bool) {
	var box math32.Box3
	if useRadius && c.radius != nil {
		c.radiusBounds.Ensure(func(b *math32.Box3) {
			*b = pointBounds(c.positions, c.radius)
		})
		box = c.radiusBounds.Data()
	} else {
		c.bounds.Ensure(func(b *math32.Box3) {
			*b = pointBounds(c.positions, nil)
		})
		box = c.bounds.Data()
	}
	return box, !box.IsEmpty()
}

// Lengths returns the length of every curve, including the closing
// segment of cyclic curves.
func (c *Curves) Lengths() []float32 {
	c.lengths.Ensure(func(l *[]float32) {
		out := make([]float32, c.NumCurves())
		for i := range out {
			out[i] = polylineLength(c.CurvePoints(i), c.Cyclic(i))
		}
		*l = out
	})
	return c.lengths.Data()
}

func polylineLength(points []math32.Vector3, cyclic bool) float32 {
	var total float32
	for i := 1; i < len(points); i++ {
		total += distance(points[i-1], points[i])
	}
	if cyclic && len(points) > 2 {
		total += distance(points[len(points)-1], points[0])
	}
	return total
}

func distance(a, b math32.Vector3) float32 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Attribute returns the named attribute.
func (c *Curves) Attribute(name string) (Attribute, bool) {
	return c.attributes.Lookup(name)
}

// SetAttribute adds or replaces an attribute on the point or curve domain.
func (c *Curves) SetAttribute(name string, domain Domain, data any) error {
	if !slices.Contains(curveDomains, domain) {
		return fmt.Errorf("%w: curves have no %s domain", ErrInvalidDomain, domain)
	}
	return c.attributes.set(name, domain, c.ElementCount(domain), data)
}

func (c *Curves) ElementCount(domain Domain) int {
	switch domain {
	case DomainPoint:
		return c.NumPoints()
	case DomainCurve:
		return c.NumCurves()
	}
	return 0
}

func (c *Curves) ForEachField(fn FieldFunc) bool {
	if !fn("position", FieldMeta{Domain: DomainPoint, Type: DataTypeFloat3, Builtin: true}) {
		return false
	}
	if c.radius != nil && !fn("radius", FieldMeta{Domain: DomainPoint, Type: DataTypeFloat, Builtin: true}) {
		return false
	}
	if c.cyclic != nil && !fn("cyclic", FieldMeta{Domain: DomainCurve, Type: DataTypeBool, Builtin: true}) {
		return false
	}
	return c.attributes.forEachField(fn)
}

func (c *Curves) IsEmpty() bool {
	return c.NumPoints() == 0 && c.NumCurves() == 0
}

// Clone returns a deep copy that shares derived-data caches.
func (c *Curves) Clone() *Curves {
	return &Curves{
		positions:    slices.Clone(c.positions),
		offsets:      slices.Clone(c.offsets),
		cyclic:       slices.Clone(c.cyclic),
		radius:       slices.Clone(c.radius),
		attributes:   c.attributes.clone(),
		bounds:       c.bounds.Copy(),
		radiusBounds: c.radiusBounds.Copy(),
		lengths:      c.lengths.Copy(),
		hooks:        c.hooks,
	}
}

func (c *Curves) release() {
	c.bounds.Release()
	c.radiusBounds.Release()
	c.lengths.Release()
}

// CurveComponent holds Curves in a Set.
type CurveComponent struct {
	componentBase
	holder[Curves]
}

// NewCurveComponent wraps c. c may be nil.
func NewCurveComponent(c *Curves, ownership Ownership) *CurveComponent {
	out := &CurveComponent{holder: holder[Curves]{data: c, ownership: ownership}}
	out.init(KindCurve, out)
	return out
}

// Curves returns the payload for reading.
func (c *CurveComponent) Curves() *Curves { return c.data }

// CurvesForWrite returns the payload for writing, copying borrowed curves.
func (c *CurveComponent) CurvesForWrite() *Curves {
	c.requireWritable()
	return c.forWrite((*Curves).Clone)
}

// Replace swaps the payload.
func (c *CurveComponent) Replace(curves *Curves, ownership Ownership) {
	c.requireWritable()
	if curves != c.data {
		c.dropOwned()
	}
	c.replace(curves, ownership)
}

func (c *CurveComponent) Clone() Component {
	out := NewCurveComponent(nil, Owned)
	if c.data != nil {
		out.data = c.data.Clone()
	}
	return out
}

func (c *CurveComponent) IsEmpty() bool {
	return c.data == nil || c.data.IsEmpty()
}

func (c *CurveComponent) ElementCount(domain Domain) int {
	if c.data == nil {
		return 0
	}
	return c.data.ElementCount(domain)
}

func (c *CurveComponent) ForEachField(fn FieldFunc) bool {
	if c.data == nil {
		return true
	}
	return c.data.ForEachField(fn)
}

func (c *CurveComponent) OwnsDirectData() bool { return c.ownsDirectData() }

func (c *CurveComponent) EnsureOwnsDirectData() {
	c.requireWritable()
	c.forWrite((*Curves).Clone)
}

func (c *CurveComponent) dropPayload() {
	c.dropOwned()
	c.data = nil
}

func (c *CurveComponent) dropOwned() {
	if c.data != nil && c.ownership == Owned {
		c.data.release()
	}
}
