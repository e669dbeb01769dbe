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

// Triangulation is the fan triangulation of a mesh's faces.
//
// Faces with fewer than three corners produce no triangles; the first
// such face is reported in Err and the rest are counted.
type Triangulation struct {
	Tris            [][3]int32
	DegenerateFaces int
	Err             error
}

// Mesh is a polygon mesh: points, edges and faces made of corners.
//
// Faces are stored as offsets into the corner array: face i uses corners
// FaceOffsets[i] to FaceOffsets[i+1]. Create meshes with NewMesh; the zero
// value has no caches.
type Mesh struct {
	positions   []math32.Vector3
	edges       [][2]int32
	faceOffsets []int32
	cornerVerts []int32
	attributes  Attributes

	bounds        *cache.Shared[math32.Box3]
	triangulation *cache.Shared[Triangulation]
	hooks         *BatchCacheHooks
}

var meshDomains = []Domain{DomainPoint, DomainEdge, DomainFace, DomainCorner}

// NewMesh returns a mesh with the given points and no topology.
func NewMesh(positions []math32.Vector3) *Mesh {
	return &Mesh{
		positions:     positions,
		bounds:        cache.NewShared[math32.Box3]("mesh.bounds"),
		triangulation: cache.NewShared[Triangulation]("mesh.triangulation"),
	}
}

// SetTopology replaces edges and faces.
func (m *Mesh) SetTopology(edges [][2]int32, faceOffsets, cornerVerts []int32) error {
	n := int32(len(m.positions))
	for i, e := range edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n {
			return fmt.Errorf("%w: edge %d references point outside [0,%d)", ErrInvalidTopology, i, n)
		}
	}
	if err := checkOffsets(faceOffsets, len(cornerVerts)); err != nil {
		return fmt.Errorf("faces: %w", err)
	}
	for i, v := range cornerVerts {
		if v < 0 || v >= n {
			return fmt.Errorf("%w: corner %d references point outside [0,%d)", ErrInvalidTopology, i, n)
		}
	}
	m.edges = edges
	m.faceOffsets = faceOffsets
	m.cornerVerts = cornerVerts
	m.TagTopologyChanged()
	return nil
}

// SetBatchCacheHooks sets the hooks notified on changes.
func (m *Mesh) SetBatchCacheHooks(h *BatchCacheHooks) {
	m.hooks = h
}

func (m *Mesh) NumPoints() int  { return len(m.positions) }
func (m *Mesh) NumEdges() int   { return len(m.edges) }
func (m *Mesh) NumCorners() int { return len(m.cornerVerts) }

func (m *Mesh) NumFaces() int {
	if len(m.faceOffsets) == 0 {
		return 0
	}
	return len(m.faceOffsets) - 1
}

// Positions returns the point positions. Callers must not modify them.
func (m *Mesh) Positions() []math32.Vector3 { return m.positions }

// Edges returns the edge vertex pairs. Callers must not modify them.
func (m *Mesh) Edges() [][2]int32 { return m.edges }

// FaceCorners returns the point indices of face i.
func (m *Mesh) FaceCorners(i int) []int32 {
	return m.cornerVerts[m.faceOffsets[i]:m.faceOffsets[i+1]]
}

// PositionsForWrite returns the positions for in-place edits. Call
// TagPositionsChanged when done.
func (m *Mesh) PositionsForWrite() []math32.Vector3 { return m.positions }

// TagPositionsChanged invalidates data derived from positions.
func (m *Mesh) TagPositionsChanged() {
	m.bounds.TagDirty()
	m.hooks.meshDirty(m, BatchDirtyPositions)
}

// TagTopologyChanged invalidates data derived from edges and faces.
func (m *Mesh) TagTopologyChanged() {
	m.triangulation.TagDirty()
	m.hooks.meshDirty(m, BatchDirtyTopology)
}

// Translate moves every point by offset.
//
// Cached bounds are shifted rather than recomputed.
func (m *Mesh) Translate(offset math32.Vector3) {
	for i := range m.positions {
		m.positions[i] = m.positions[i].Add(offset)
	}
	translateBounds(m.bounds, offset)
	m.hooks.meshDirty(m, BatchDirtyPositions)
}

// Bounds returns the bounding box of the points. ok is false for a mesh
// without points.
func (m *Mesh) Bounds() (box math32.Box3, ok bool) {
	m.bounds.Ensure(func(b *math32.Box3) {
		*b = pointBounds(m.positions, nil)
	})
	box = m.bounds.Data()
	return box, !box.IsEmpty()
}

// Triangulation returns the cached fan triangulation of the faces.
func (m *Mesh) Triangulation() Triangulation {
	m.triangulation.Ensure(func(t *Triangulation) {
		*t = m.triangulate()
	})
	return m.triangulation.Data()
}

func (m *Mesh) triangulate() Triangulation {
	var t Triangulation
	for f := 0; f < m.NumFaces(); f++ {
		corners := m.FaceCorners(f)
		if len(corners) < 3 {
			if t.Err == nil {
				t.Err = fmt.Errorf("%w: face %d has %d corners", ErrDegenerateFace, f, len(corners))
			}
			t.DegenerateFaces++
			continue
		}
		for i := 1; i < len(corners)-1; i++ {
			t.Tris = append(t.Tris, [3]int32{corners[0], corners[i], corners[i+1]})
		}
	}
	return t
}

// Attribute returns the named attribute.
func (m *Mesh) Attribute(name string) (Attribute, bool) {
	return m.attributes.Lookup(name)
}

// SetAttribute adds or replaces an attribute on one of the mesh domains.
func (m *Mesh) SetAttribute(name string, domain Domain, data any) error {
	if !slices.Contains(meshDomains, domain) {
		return fmt.Errorf("%w: mesh has no %s domain", ErrInvalidDomain, domain)
	}
	return m.attributes.set(name, domain, m.ElementCount(domain), data)
}

// RemoveAttribute deletes the named attribute.
func (m *Mesh) RemoveAttribute(name string) bool {
	return m.attributes.Remove(name)
}

func (m *Mesh) ElementCount(domain Domain) int {
	switch domain {
	case DomainPoint:
		return m.NumPoints()
	case DomainEdge:
		return m.NumEdges()
	case DomainFace:
		return m.NumFaces()
	case DomainCorner:
		return m.NumCorners()
	}
	return 0
}

func (m *Mesh) ForEachField(fn FieldFunc) bool {
	if !fn("position", FieldMeta{Domain: DomainPoint, Type: DataTypeFloat3, Builtin: true}) {
		return false
	}
	if !fn(".corner_vert", FieldMeta{Domain: DomainCorner, Type: DataTypeInt32, Builtin: true}) {
		return false
	}
	return m.attributes.forEachField(fn)
}

// IsEmpty reports whether the mesh has no elements at all.
func (m *Mesh) IsEmpty() bool {
	return m.NumPoints() == 0 && m.NumEdges() == 0 && m.NumFaces() == 0
}

// Clone returns a deep copy that shares derived-data caches.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		positions:     slices.Clone(m.positions),
		edges:         slices.Clone(m.edges),
		faceOffsets:   slices.Clone(m.faceOffsets),
		cornerVerts:   slices.Clone(m.cornerVerts),
		attributes:    m.attributes.clone(),
		bounds:        m.bounds.Copy(),
		triangulation: m.triangulation.Copy(),
		hooks:         m.hooks,
	}
}

// release drops this mesh's cache handles.
func (m *Mesh) release() {
	m.bounds.Release()
	m.triangulation.Release()
}

// MeshComponent holds a Mesh in a Set.
type MeshComponent struct {
	componentBase
	holder[Mesh]
}

// NewMeshComponent wraps m. m may be nil.
func NewMeshComponent(m *Mesh, ownership Ownership) *MeshComponent {
	c := &MeshComponent{holder: holder[Mesh]{data: m, ownership: ownership}}
	c.init(KindMesh, c)
	return c
}

// Mesh returns the payload for reading.
func (c *MeshComponent) Mesh() *Mesh { return c.data }

// MeshForWrite returns the payload for writing, copying a borrowed mesh.
func (c *MeshComponent) MeshForWrite() *Mesh {
	c.requireWritable()
	return c.forWrite((*Mesh).Clone)
}

// Replace swaps the payload.
func (c *MeshComponent) Replace(m *Mesh, ownership Ownership) {
	c.requireWritable()
	if m != c.data {
		c.dropOwned()
	}
	c.replace(m, ownership)
}

// ReleaseMesh hands the payload to the caller and leaves the component empty.
func (c *MeshComponent) ReleaseMesh() *Mesh {
	c.requireWritable()
	return c.take((*Mesh).Clone)
}

func (c *MeshComponent) Clone() Component {
	out := NewMeshComponent(nil, Owned)
	if c.data != nil {
		out.data = c.data.Clone()
	}
	return out
}

func (c *MeshComponent) IsEmpty() bool {
	return c.data == nil || c.data.IsEmpty()
}

func (c *MeshComponent) ElementCount(domain Domain) int {
	if c.data == nil {
		return 0
	}
	return c.data.ElementCount(domain)
}

func (c *MeshComponent) ForEachField(fn FieldFunc) bool {
	if c.data == nil {
		return true
	}
	return c.data.ForEachField(fn)
}

func (c *MeshComponent) OwnsDirectData() bool { return c.ownsDirectData() }

func (c *MeshComponent) EnsureOwnsDirectData() {
	c.requireWritable()
	c.forWrite((*Mesh).Clone)
}

func (c *MeshComponent) dropPayload() {
	c.dropOwned()
	c.data = nil
}

func (c *MeshComponent) dropOwned() {
	if c.data != nil && c.ownership == Owned {
		c.data.release()
	}
}
