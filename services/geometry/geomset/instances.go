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

// InstanceReference points at the geometry an instance places.
type InstanceReference struct {
	geometry *Set
}

// Geometry returns the referenced set.
func (r InstanceReference) Geometry() *Set { return r.geometry }

// Instances places referenced geometry sets with per-instance transforms.
//
// Description:
//
//	References are deduplicated: adding the same set twice returns the
//	first handle. Each instance stores a handle into the reference list
//	and a transform. The instances own their referenced sets; a clone
//	holds shallow copies of them, so nested components stay shared until
//	written.
type Instances struct {
	references []InstanceReference
	handles    []int32
	transforms []math32.Matrix4
	attributes Attributes

	userCounts *cache.Shared[[]int]
}

// NewInstances returns an empty instance collection.
func NewInstances() *Instances {
	return &Instances{
		userCounts: cache.NewSharedWithClone("instances.reference_user_counts", slices.Clone[[]int]),
	}
}

// AddReference adds geometry to the reference list and returns its
// handle. The instances take ownership of geometry.
func (in *Instances) AddReference(geometry *Set) int {
	for i, r := range in.references {
		if r.geometry == geometry {
			return i
		}
	}
	in.references = append(in.references, InstanceReference{geometry: geometry})
	in.userCounts.TagDirty()
	return len(in.references) - 1
}

// AddInstance places the reference with the given handle. Instance
// attributes grow by one zero value.
func (in *Instances) AddInstance(handle int, transform math32.Matrix4) error {
	if handle < 0 || handle >= len(in.references) {
		return fmt.Errorf("%w: handle %d outside [0,%d)", ErrInvalidTopology, handle, len(in.references))
	}
	in.handles = append(in.handles, int32(handle))
	in.transforms = append(in.transforms, transform)
	for i := range in.attributes.items {
		in.attributes.items[i].data = appendZero(in.attributes.items[i].data)
	}
	in.userCounts.TagDirty()
	return nil
}

func (in *Instances) NumInstances() int { return len(in.handles) }

func (in *Instances) NumReferences() int { return len(in.references) }

// References returns the reference list. Callers must not modify it.
func (in *Instances) References() []InstanceReference { return in.references }

// Handles returns the reference handle of each instance.
func (in *Instances) Handles() []int32 { return in.handles }

// Transforms returns the instance transforms. Callers must not modify them.
func (in *Instances) Transforms() []math32.Matrix4 { return in.transforms }

// TransformsForWrite returns the transforms for in-place edits.
func (in *Instances) TransformsForWrite() []math32.Matrix4 { return in.transforms }

// ForEachReferencedGeometry calls fn for every referenced set.
func (in *Instances) ForEachReferencedGeometry(fn func(*Set)) {
	for _, r := range in.references {
		if r.geometry != nil {
			fn(r.geometry)
		}
	}
}

// ReferenceUserCounts returns how many instances use each reference.
func (in *Instances) ReferenceUserCounts() []int {
	in.userCounts.Ensure(func(counts *[]int) {
		out := make([]int, len(in.references))
		for _, h := range in.handles {
			out[h]++
		}
		*counts = out
	})
	return in.userCounts.Data()
}

// RemoveUnusedReferences drops references no instance uses and remaps
// the handles. Dropped sets are cleared.
func (in *Instances) RemoveUnusedReferences() int {
	counts := in.ReferenceUserCounts()
	remap := make([]int32, len(in.references))
	kept := in.references[:0]
	removed := 0
	for i, r := range in.references {
		if counts[i] == 0 {
			if r.geometry != nil {
				r.geometry.Clear()
			}
			removed++
			continue
		}
		remap[i] = int32(len(kept))
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0
	}
	clear(in.references[len(kept):])
	in.references = kept
	for i, h := range in.handles {
		in.handles[i] = remap[h]
	}
	in.userCounts.TagDirty()
	return removed
}

// Attribute returns the named instance attribute.
func (in *Instances) Attribute(name string) (Attribute, bool) {
	return in.attributes.Lookup(name)
}

// SetAttribute adds or replaces an instance-domain attribute.
func (in *Instances) SetAttribute(name string, domain Domain, data any) error {
	if domain != DomainInstance {
		return fmt.Errorf("%w: instances have no %s domain", ErrInvalidDomain, domain)
	}
	return in.attributes.set(name, domain, in.NumInstances(), data)
}

func (in *Instances) ElementCount(domain Domain) int {
	if domain == DomainInstance {
		return in.NumInstances()
	}
	return 0
}

func (in *Instances) ForEachField(fn FieldFunc) bool {
	if !fn("instance_transform", FieldMeta{Domain: DomainInstance, Type: DataTypeFloat4x4, Builtin: true}) {
		return false
	}
	if !fn(".reference_index", FieldMeta{Domain: DomainInstance, Type: DataTypeInt32, Builtin: true}) {
		return false
	}
	return in.attributes.forEachField(fn)
}

func (in *Instances) IsEmpty() bool { return in.NumInstances() == 0 }

// Clone returns a copy holding shallow copies of the referenced sets.
func (in *Instances) Clone() *Instances {
	out := &Instances{
		references: make([]InstanceReference, len(in.references)),
		handles:    slices.Clone(in.handles),
		transforms: slices.Clone(in.transforms),
		attributes: in.attributes.clone(),
		userCounts: in.userCounts.Copy(),
	}
	for i, r := range in.references {
		if r.geometry != nil {
			out.references[i] = InstanceReference{geometry: r.geometry.Copy()}
		}
	}
	return out
}

// release clears the referenced sets and drops cache handles.
func (in *Instances) release() {
	for _, r := range in.references {
		if r.geometry != nil {
			r.geometry.Clear()
		}
	}
	in.references = nil
	in.userCounts.Release()
}

func appendZero(data any) any {
	switch d := data.(type) {
	case []bool:
		return append(d, false)
	case []int8:
		return append(d, 0)
	case [][2]int32:
		return append(d, [2]int32{})
	case []int32:
		return append(d, 0)
	case []float32:
		return append(d, 0)
	case []math32.Vector2:
		return append(d, math32.Vector2{})
	case []math32.Vector3:
		return append(d, math32.Vector3{})
	case [][4]uint8:
		return append(d, [4]uint8{})
	case []math32.Quat:
		return append(d, math32.Quat{})
	case []math32.Vector4:
		return append(d, math32.Vector4{})
	case []math32.Matrix4:
		return append(d, math32.Matrix4{})
	case []string:
		return append(d, "")
	}
	panic(fmt.Errorf("%w: %T", ErrUnsupportedData, data))
}

// InstancesComponent holds Instances in a Set.
type InstancesComponent struct {
	componentBase
	holder[Instances]
}

// NewInstancesComponent wraps in. in may be nil.
func NewInstancesComponent(in *Instances, ownership Ownership) *InstancesComponent {
	c := &InstancesComponent{holder: holder[Instances]{data: in, ownership: ownership}}
	c.init(KindInstance, c)
	return c
}

// Instances returns the payload for reading.
func (c *InstancesComponent) Instances() *Instances { return c.data }

// InstancesForWrite returns the payload for writing.
func (c *InstancesComponent) InstancesForWrite() *Instances {
	c.requireWritable()
	return c.forWrite((*Instances).Clone)
}

// Replace swaps the payload.
func (c *InstancesComponent) Replace(in *Instances, ownership Ownership) {
	c.requireWritable()
	if in != c.data {
		c.dropOwned()
	}
	c.replace(in, ownership)
}

func (c *InstancesComponent) Clone() Component {
	out := NewInstancesComponent(nil, Owned)
	if c.data != nil {
		out.data = c.data.Clone()
	}
	return out
}

func (c *InstancesComponent) IsEmpty() bool {
	return c.data == nil || c.data.IsEmpty()
}

func (c *InstancesComponent) ElementCount(domain Domain) int {
	if c.data == nil {
		return 0
	}
	return c.data.ElementCount(domain)
}

func (c *InstancesComponent) ForEachField(fn FieldFunc) bool {
	if c.data == nil {
		return true
	}
	return c.data.ForEachField(fn)
}

// OwnsDirectData reports only on the instances themselves. Referenced
// sets are checked by Set.OwnsAllData.
func (c *InstancesComponent) OwnsDirectData() bool { return c.ownsDirectData() }

func (c *InstancesComponent) EnsureOwnsDirectData() {
	c.requireWritable()
	c.forWrite((*Instances).Clone)
}

func (c *InstancesComponent) dropPayload() {
	c.dropOwned()
	c.data = nil
}

func (c *InstancesComponent) dropOwned() {
	if c.data != nil && c.ownership == Owned {
		c.data.release()
	}
}
