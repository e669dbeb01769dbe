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
	"math"
	"slices"

	"cogentcore.org/core/math32"
	"github.com/google/btree"

	"github.com/AleutianAI/geoset/services/geometry/cache"
)

// IDAttribute is the name of the stable point identifier attribute.
const IDAttribute = "id"

// idIndexDegree is the B-tree degree of the point ID index.
const idIndexDegree = 16

// idEntry maps a point ID to the index of a point carrying it. IDs are not
// required to be unique; entries are ordered by ID, then index.
type idEntry struct {
	id    int32
	index int32
}

func lessIDEntry(a, b idEntry) bool {
	if a.id != b.id {
		return a.id < b.id
	}
	return a.index < b.index
}

type idIndex = *btree.BTreeG[idEntry]

// cloneIDIndex copies an index lazily; both trees stay usable.
func cloneIDIndex(t idIndex) idIndex {
	if t == nil {
		return nil
	}
	return t.Clone()
}

// PointCloud is a set of points with optional radii and attributes.
type PointCloud struct {
	positions  []math32.Vector3
	radius     []float32
	attributes Attributes

	bounds       *cache.Shared[math32.Box3]
	radiusBounds *cache.Shared[math32.Box3]
	ids          *cache.Shared[idIndex]
	hooks        *BatchCacheHooks
}

// NewPointCloud returns a point cloud with the given points.
func NewPointCloud(positions []math32.Vector3) *PointCloud {
	return &PointCloud{
		positions:    positions,
		bounds:       cache.NewShared[math32.Box3]("pointcloud.bounds"),
		radiusBounds: cache.NewShared[math32.Box3]("pointcloud.radius_bounds"),
		ids:          cache.NewSharedWithClone("pointcloud.id_index", cloneIDIndex),
	}
}

// SetBatchCacheHooks sets the hooks notified on changes.
func (p *PointCloud) SetBatchCacheHooks(h *BatchCacheHooks) {
	p.hooks = h
}

func (p *PointCloud) NumPoints() int { return len(p.positions) }

// Positions returns the point positions. Callers must not modify them.
func (p *PointCloud) Positions() []math32.Vector3 { return p.positions }

// PositionsForWrite returns the positions for in-place edits. Call
// TagPositionsChanged when done.
func (p *PointCloud) PositionsForWrite() []math32.Vector3 { return p.positions }

// TagPositionsChanged invalidates data derived from positions.
func (p *PointCloud) TagPositionsChanged() {
	p.bounds.TagDirty()
	p.radiusBounds.TagDirty()
	p.hooks.pointCloudDirty(p, BatchDirtyPositions)
}

// Translate moves every point by offset.
func (p *PointCloud) Translate(offset math32.Vector3) {
	for i := range p.positions {
		p.positions[i] = p.positions[i].Add(offset)
	}
	translateBounds(p.bounds, offset)
	translateBounds(p.radiusBounds, offset)
	p.hooks.pointCloudDirty(p, BatchDirtyPositions)
}

// Radius returns per-point radii, or nil if none are set.
func (p *PointCloud) Radius() []float32 { return p.radius }

// SetRadius sets per-point radii.
func (p *PointCloud) SetRadius(radius []float32) error {
	if len(radius) != p.NumPoints() {
		return fmt.Errorf("%w: radius has %d values for %d points", ErrLengthMismatch, len(radius), p.NumPoints())
	}
	p.radius = radius
	p.radiusBounds.TagDirty()
	p.hooks.pointCloudDirty(p, BatchDirtyAll)
	return nil
}

// Bounds returns the bounding box, grown by the radius when useRadius is
// set and radii exist.
func (p *PointCloud) Bounds(useRadius bool) (math32.Box3, bool) {
	var box math32.Box3
	if useRadius && p.radius != nil {
		p.radiusBounds.Ensure(func(b *math32.Box3) {
			*b = pointBounds(p.positions, p.radius)
		})
		box = p.radiusBounds.Data()
	} else {
		p.bounds.Ensure(func(b *math32.Box3) {
			*b = pointBounds(p.positions, nil)
		})
		box = p.bounds.Data()
	}
	return box, !box.IsEmpty()
}

// IDs returns the ID attribute values, or nil if there are none.
func (p *PointCloud) IDs() []int32 {
	a, ok := p.attributes.Lookup(IDAttribute)
	if !ok {
		return nil
	}
	ids, _ := AttributeData[int32](a)
	return ids
}

// SetIDs replaces the ID attribute.
func (p *PointCloud) SetIDs(ids []int32) error {
	if err := p.attributes.set(IDAttribute, DomainPoint, p.NumPoints(), ids); err != nil {
		return err
	}
	p.ids.TagDirty()
	return nil
}

// SetID changes the ID of one point.
//
// Description:
//
//	A valid ID index is revised in place instead of being rebuilt: the old
//	entry is removed and the new one inserted. If the index is shared with
//	a clone, the revision happens on a lazy copy and the clone keeps its
//	index.
func (p *PointCloud) SetID(index int, id int32) error {
	data, ok := p.attributes.forWrite(IDAttribute)
	if !ok {
		return fmt.Errorf("%w: point cloud has no %q attribute", ErrInvalidDomain, IDAttribute)
	}
	ids := data.([]int32)
	if index < 0 || index >= len(ids) {
		return fmt.Errorf("%w: point %d outside [0,%d)", ErrInvalidTopology, index, len(ids))
	}
	old := ids[index]
	ids[index] = id
	if !p.ids.IsCached() {
		p.ids.TagDirty()
		return nil
	}
	p.ids.Update(func(t *idIndex) {
		if *t == nil {
			*t = p.buildIDIndex()
			return
		}
		(*t).Delete(idEntry{id: old, index: int32(index)})
		(*t).ReplaceOrInsert(idEntry{id: id, index: int32(index)})
	})
	return nil
}

// LookupID returns the lowest point index carrying id.
func (p *PointCloud) LookupID(id int32) (int, bool) {
	p.ids.Ensure(func(t *idIndex) {
		*t = p.buildIDIndex()
	})
	t := p.ids.Data()
	if t == nil {
		return 0, false
	}
	found := -1
	t.AscendGreaterOrEqual(idEntry{id: id, index: math.MinInt32}, func(e idEntry) bool {
		if e.id == id {
			found = int(e.index)
		}
		return false
	})
	return found, found >= 0
}

func (p *PointCloud) buildIDIndex() idIndex {
	ids := p.IDs()
	if ids == nil {
		return nil
	}
	t := btree.NewG(idIndexDegree, lessIDEntry)
	for i, id := range ids {
		t.ReplaceOrInsert(idEntry{id: id, index: int32(i)})
	}
	return t
}

// Attribute returns the named attribute.
func (p *PointCloud) Attribute(name string) (Attribute, bool) {
	return p.attributes.Lookup(name)
}

// SetAttribute adds or replaces a point attribute.
func (p *PointCloud) SetAttribute(name string, domain Domain, data any) error {
	if domain != DomainPoint {
		return fmt.Errorf("%w: point clouds have no %s domain", ErrInvalidDomain, domain)
	}
	if err := p.attributes.set(name, domain, p.NumPoints(), data); err != nil {
		return err
	}
	if name == IDAttribute {
		p.ids.TagDirty()
	}
	return nil
}

func (p *PointCloud) ElementCount(domain Domain) int {
	if domain == DomainPoint {
		return p.NumPoints()
	}
	return 0
}

func (p *PointCloud) ForEachField(fn FieldFunc) bool {
	if !fn("position", FieldMeta{Domain: DomainPoint, Type: DataTypeFloat3, Builtin: true}) {
		return false
	}
	if p.radius != nil && !fn("radius", FieldMeta{Domain: DomainPoint, Type: DataTypeFloat, Builtin: true}) {
		return false
	}
	return p.attributes.forEachField(fn)
}

func (p *PointCloud) IsEmpty() bool { return p.NumPoints() == 0 }

// Clone returns a deep copy that shares derived-data caches.
func (p *PointCloud) Clone() *PointCloud {
	return &PointCloud{
		positions:    slices.Clone(p.positions),
		radius:       slices.Clone(p.radius),
		attributes:   p.attributes.clone(),
		bounds:       p.bounds.Copy(),
		radiusBounds: p.radiusBounds.Copy(),
		ids:          p.ids.Copy(),
		hooks:        p.hooks,
	}
}

func (p *PointCloud) release() {
	p.bounds.Release()
	p.radiusBounds.Release()
	p.ids.Release()
}

// PointCloudComponent holds a PointCloud in a Set.
type PointCloudComponent struct {
	componentBase
	holder[PointCloud]
}

// NewPointCloudComponent wraps p. p may be nil.
func NewPointCloudComponent(p *PointCloud, ownership Ownership) *PointCloudComponent {
	c := &PointCloudComponent{holder: holder[PointCloud]{data: p, ownership: ownership}}
	c.init(KindPointCloud, c)
	return c
}

// PointCloud returns the payload for reading.
func (c *PointCloudComponent) PointCloud() *PointCloud { return c.data }

// PointCloudForWrite returns the payload for writing.
func (c *PointCloudComponent) PointCloudForWrite() *PointCloud {
	c.requireWritable()
	return c.forWrite((*PointCloud).Clone)
}

// Replace swaps the payload.
func (c *PointCloudComponent) Replace(p *PointCloud, ownership Ownership) {
	c.requireWritable()
	if p != c.data {
		c.dropOwned()
	}
	c.replace(p, ownership)
}

func (c *PointCloudComponent) Clone() Component {
	out := NewPointCloudComponent(nil, Owned)
	if c.data != nil {
		out.data = c.data.Clone()
	}
	return out
}

func (c *PointCloudComponent) IsEmpty() bool {
	return c.data == nil || c.data.IsEmpty()
}

func (c *PointCloudComponent) ElementCount(domain Domain) int {
	if c.data == nil {
		return 0
	}
	return c.data.ElementCount(domain)
}

func (c *PointCloudComponent) ForEachField(fn FieldFunc) bool {
	if c.data == nil {
		return true
	}
	return c.data.ForEachField(fn)
}

func (c *PointCloudComponent) OwnsDirectData() bool { return c.ownsDirectData() }

func (c *PointCloudComponent) EnsureOwnsDirectData() {
	c.requireWritable()
	c.forWrite((*PointCloud).Clone)
}

func (c *PointCloudComponent) dropPayload() {
	c.dropOwned()
	c.data = nil
}

func (c *PointCloudComponent) dropOwned() {
	if c.data != nil && c.ownership == Owned {
		c.data.release()
	}
}
