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

import "context"

// Typed access to the payload of each slot. Read getters return nil for
// an empty slot and never copy. ForWrite getters return nil for an empty
// slot; otherwise they make the component unique first.

func slotAs[C Component](s *Set, kind Kind) (C, bool) {
	c := s.components[kind]
	if c == nil {
		var zero C
		return zero, false
	}
	return componentAs[C](c, kind), true
}

func slotForWrite[C Component](s *Set, kind Kind) (C, bool) {
	if s.components[kind] == nil {
		var zero C
		return zero, false
	}
	return componentAs[C](s.GetComponentForWrite(kind), kind), true
}

func (s *Set) Mesh() *Mesh {
	if c, ok := slotAs[*MeshComponent](s, KindMesh); ok {
		return c.Mesh()
	}
	return nil
}

func (s *Set) MeshForWrite() *Mesh {
	if c, ok := slotForWrite[*MeshComponent](s, KindMesh); ok {
		return c.MeshForWrite()
	}
	return nil
}

func (s *Set) Curves() *Curves {
	if c, ok := slotAs[*CurveComponent](s, KindCurve); ok {
		return c.Curves()
	}
	return nil
}

func (s *Set) CurvesForWrite() *Curves {
	if c, ok := slotForWrite[*CurveComponent](s, KindCurve); ok {
		return c.CurvesForWrite()
	}
	return nil
}

func (s *Set) PointCloud() *PointCloud {
	if c, ok := slotAs[*PointCloudComponent](s, KindPointCloud); ok {
		return c.PointCloud()
	}
	return nil
}

func (s *Set) PointCloudForWrite() *PointCloud {
	if c, ok := slotForWrite[*PointCloudComponent](s, KindPointCloud); ok {
		return c.PointCloudForWrite()
	}
	return nil
}

func (s *Set) Volume() *Volume {
	if c, ok := slotAs[*VolumeComponent](s, KindVolume); ok {
		return c.Volume()
	}
	return nil
}

func (s *Set) VolumeForWrite() *Volume {
	if c, ok := slotForWrite[*VolumeComponent](s, KindVolume); ok {
		return c.VolumeForWrite()
	}
	return nil
}

// LoadVolume reads pending volume grids into this set's own volume. A
// volume shared with other sets is copied first; they stay unloaded.
func (s *Set) LoadVolume(ctx context.Context) error {
	v := s.VolumeForWrite()
	if v == nil {
		return nil
	}
	return v.load(ctx)
}

func (s *Set) Instances() *Instances {
	if c, ok := slotAs[*InstancesComponent](s, KindInstance); ok {
		return c.Instances()
	}
	return nil
}

func (s *Set) InstancesForWrite() *Instances {
	if c, ok := slotForWrite[*InstancesComponent](s, KindInstance); ok {
		return c.InstancesForWrite()
	}
	return nil
}

func (s *Set) EditData() *EditData {
	if c, ok := slotAs[*EditDataComponent](s, KindEdit); ok {
		return c.EditData()
	}
	return nil
}

func (s *Set) EditDataForWrite() *EditData {
	if c, ok := slotForWrite[*EditDataComponent](s, KindEdit); ok {
		return c.EditDataForWrite()
	}
	return nil
}

func (s *Set) HasMesh() bool       { return s.Has(KindMesh) }
func (s *Set) HasCurves() bool     { return s.Has(KindCurve) }
func (s *Set) HasPointCloud() bool { return s.Has(KindPointCloud) }
func (s *Set) HasVolume() bool     { return s.Has(KindVolume) }
func (s *Set) HasEditData() bool   { return s.Has(KindEdit) }

// ReplaceMesh puts m in the mesh slot. A nil m clears the slot. The old
// component is released rather than written, so sets sharing it keep
// their mesh.
func (s *Set) ReplaceMesh(m *Mesh, ownership Ownership) {
	if m == nil {
		s.Remove(KindMesh)
		return
	}
	if m == s.Mesh() {
		return
	}
	s.Remove(KindMesh)
	s.components[KindMesh] = NewMeshComponent(m, ownership)
}

// ReplaceCurves puts c in the curve slot. A nil c clears the slot.
func (s *Set) ReplaceCurves(c *Curves, ownership Ownership) {
	if c == nil {
		s.Remove(KindCurve)
		return
	}
	if c == s.Curves() {
		return
	}
	s.Remove(KindCurve)
	s.components[KindCurve] = NewCurveComponent(c, ownership)
}

// ReplacePointCloud puts p in the point cloud slot. A nil p clears the slot.
func (s *Set) ReplacePointCloud(p *PointCloud, ownership Ownership) {
	if p == nil {
		s.Remove(KindPointCloud)
		return
	}
	if p == s.PointCloud() {
		return
	}
	s.Remove(KindPointCloud)
	s.components[KindPointCloud] = NewPointCloudComponent(p, ownership)
}

// ReplaceVolume puts v in the volume slot. A nil v clears the slot.
func (s *Set) ReplaceVolume(v *Volume, ownership Ownership) {
	if v == nil {
		s.Remove(KindVolume)
		return
	}
	if v == s.Volume() {
		return
	}
	s.Remove(KindVolume)
	s.components[KindVolume] = NewVolumeComponent(v, ownership)
}

// ReplaceInstances puts in in the instance slot. A nil in clears the slot.
func (s *Set) ReplaceInstances(in *Instances, ownership Ownership) {
	if in == nil {
		s.Remove(KindInstance)
		return
	}
	if in == s.Instances() {
		return
	}
	s.Remove(KindInstance)
	s.components[KindInstance] = NewInstancesComponent(in, ownership)
}

// ReplaceEditData puts e in the edit slot. A nil e clears the slot.
func (s *Set) ReplaceEditData(e *EditData, ownership Ownership) {
	if e == nil {
		s.Remove(KindEdit)
		return
	}
	if e == s.EditData() {
		return
	}
	s.Remove(KindEdit)
	s.components[KindEdit] = NewEditDataComponent(e, ownership)
}

// FromMesh returns a set holding only m.
func FromMesh(m *Mesh, ownership Ownership) *Set {
	s := &Set{}
	s.ReplaceMesh(m, ownership)
	return s
}

// FromCurves returns a set holding only c.
func FromCurves(c *Curves, ownership Ownership) *Set {
	s := &Set{}
	s.ReplaceCurves(c, ownership)
	return s
}

// FromPointCloud returns a set holding only p.
func FromPointCloud(p *PointCloud, ownership Ownership) *Set {
	s := &Set{}
	s.ReplacePointCloud(p, ownership)
	return s
}

// FromVolume returns a set holding only v.
func FromVolume(v *Volume, ownership Ownership) *Set {
	s := &Set{}
	s.ReplaceVolume(v, ownership)
	return s
}

// FromInstances returns a set holding only in.
func FromInstances(in *Instances, ownership Ownership) *Set {
	s := &Set{}
	s.ReplaceInstances(in, ownership)
	return s
}

// FromEditData returns a set holding only e.
func FromEditData(e *EditData, ownership Ownership) *Set {
	s := &Set{}
	s.ReplaceEditData(e, ownership)
	return s
}
