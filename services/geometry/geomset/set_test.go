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
	"errors"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_ZeroValueIsEmpty(t *testing.T) {
	var s Set

	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Components())
	assert.Empty(t, s.GatherComponentKinds(true, false))
	for _, k := range AllKinds() {
		assert.False(t, s.Has(k), k.String())
		assert.Nil(t, s.GetComponent(k), k.String())
	}
	assert.False(t, s.Remove(KindMesh))
	assert.Nil(t, s.MeshForWrite())
	s.Clear()
	assert.True(t, s.OwnsDirectData())

	b, ok := s.ComputeBounds(false)
	assert.False(t, ok)
	assert.True(t, b.IsEmpty())
}

func TestSet_GetComponentForWriteCreatesDefault(t *testing.T) {
	for _, k := range AllKinds() {
		t.Run(k.String(), func(t *testing.T) {
			s := NewSet("s")

			c := s.GetComponentForWrite(k)

			require.NotNil(t, c)
			assert.Equal(t, k, c.Kind())
			assert.Equal(t, 1, c.Users())
			assert.True(t, c.IsEmpty())
			assert.Same(t, c, s.GetComponent(k))
		})
	}
}

// TestSet_EmptinessVsOccupancy verifies that an occupied slot holding an
// empty component is absent for Has but present for GetComponent.
func TestSet_EmptinessVsOccupancy(t *testing.T) {
	s := NewSet("s")
	assert.False(t, s.HasMesh())
	assert.Nil(t, s.GetComponent(KindMesh))

	s.ReplaceMesh(NewMesh(nil), Owned)

	assert.False(t, s.HasMesh(), "empty mesh is logically absent")
	assert.NotNil(t, s.GetComponent(KindMesh), "slot is still occupied")
	assert.True(t, s.IsEmpty())
	assert.Equal(t, []Kind{KindMesh}, s.GatherComponentKinds(false, false))
	assert.Empty(t, s.GatherComponentKinds(false, true))

	s.ReplaceMesh(quadMesh(t), Owned)
	assert.True(t, s.HasMesh())
	assert.False(t, s.IsEmpty())
}

func TestSet_SingleOwnerFastPath(t *testing.T) {
	m := quadMesh(t)
	s := FromMesh(m, Owned)
	before := s.GetComponent(KindMesh)

	after := s.GetComponentForWrite(KindMesh)

	assert.Same(t, before, after)
	assert.Same(t, m, s.MeshForWrite())
}

func TestSet_CopyOnWrite(t *testing.T) {
	a := FromMesh(quadMesh(t), Owned)
	b := a.Copy()
	shared := a.GetComponent(KindMesh)
	require.Same(t, shared, b.GetComponent(KindMesh))
	require.Equal(t, 2, shared.Users())

	b.MeshForWrite().Translate(math32.Vec3(10, 0, 0))

	assert.Same(t, shared, a.GetComponent(KindMesh))
	assert.NotSame(t, shared, b.GetComponent(KindMesh))
	assert.Equal(t, 1, shared.Users())
	assert.Equal(t, math32.Vec3(0, 0, 0), a.Mesh().Positions()[0])
	assert.Equal(t, math32.Vec3(10, 0, 0), b.Mesh().Positions()[0])
}

// TestSet_ThreeCopies walks a component from one user to three and back
// to a private clone.
func TestSet_ThreeCopies(t *testing.T) {
	s := NewSet("s")
	mesh := s.GetComponentForWrite(KindMesh)
	require.Equal(t, 1, mesh.Users())

	c1 := s.Copy()
	c2 := s.Copy()
	require.Equal(t, 3, mesh.Users())

	written := c1.GetComponentForWrite(KindMesh)

	assert.NotSame(t, mesh, written)
	assert.Equal(t, 1, written.Users())
	assert.Equal(t, 2, mesh.Users())
	assert.Same(t, s.GetComponent(KindMesh), c2.GetComponent(KindMesh))
	assert.NotSame(t, s.GetComponent(KindMesh), c1.GetComponent(KindMesh))
}

func TestSet_AddCountsUser(t *testing.T) {
	c := NewMeshComponent(quadMesh(t), Owned)
	a, b := NewSet("a"), NewSet("b")

	a.Add(c)
	b.Add(c)
	c.Release()

	assert.Equal(t, 2, c.Users())
	assert.False(t, c.IsMutable())
	assert.True(t, a.HasMesh())
}

func TestSet_AddOccupiedPanics(t *testing.T) {
	s := FromMesh(quadMesh(t), Owned)

	err := panicError(func() { s.Add(NewMeshComponent(nil, Owned)) })

	assert.True(t, errors.Is(err, ErrSlotOccupied))
}

func TestSet_InvalidKindPanics(t *testing.T) {
	var s Set

	for name, fn := range map[string]func(){
		"has":      func() { s.Has(numKinds) },
		"get":      func() { s.GetComponent(Kind(42)) },
		"write":    func() { s.GetComponentForWrite(Kind(42)) },
		"remove":   func() { s.Remove(Kind(42)) },
		"keepOnly": func() { s.KeepOnly(Kind(42)) },
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(panicError(fn), ErrInvalidKind))
		})
	}
}

func TestSet_DestroyedComponent(t *testing.T) {
	c := NewMeshComponent(quadMesh(t), Owned)
	c.Release()

	assert.Nil(t, c.Mesh(), "payload dropped with the last user")
	err := panicError(func() { NewSet("s").Add(c) })
	assert.True(t, errors.Is(err, ErrDestroyedComponent))

	err = panicError(func() { c.Release() })
	assert.True(t, errors.Is(err, ErrDestroyedComponent))
}

func TestSet_WriteThroughSharedComponentPanics(t *testing.T) {
	c := NewMeshComponent(quadMesh(t), Owned)
	s := NewSet("s")
	s.Add(c)

	err := panicError(func() { c.MeshForWrite() })
	assert.True(t, errors.Is(err, ErrSharedWrite))

	c.Release()
	err = panicError(func() { c.MeshForWrite() })
	assert.True(t, errors.Is(err, ErrSharedWrite), "unique but not confirmed through the set")

	assert.NotNil(t, s.MeshForWrite())
}

func TestSet_RemoveAndClearReleaseUsers(t *testing.T) {
	a := FromMesh(quadMesh(t), Owned)
	a.ReplacePointCloud(NewPointCloud(linePoints(3)), Owned)
	b := a.Copy()
	mesh := a.GetComponent(KindMesh)
	pc := a.GetComponent(KindPointCloud)

	assert.True(t, b.Remove(KindMesh))
	assert.Equal(t, 1, mesh.Users())

	b.Clear()
	assert.Equal(t, 1, pc.Users())
	assert.True(t, b.IsEmpty())
	assert.True(t, a.HasMesh())
	assert.True(t, a.HasPointCloud())
}

func TestSet_KeepOnly(t *testing.T) {
	build := func() *Set {
		s := FromMesh(quadMesh(t), Owned)
		s.ReplacePointCloud(NewPointCloud(linePoints(2)), Owned)
		s.ReplaceInstances(NewInstances(), Owned)
		s.ReplaceEditData(&EditData{Gizmos: map[string]math32.Matrix4{"g": translation(1, 0, 0)}}, Owned)
		return s
	}

	t.Run("plain", func(t *testing.T) {
		s := build()
		s.KeepOnly(KindMesh)
		assert.Equal(t, []Kind{KindMesh}, s.GatherComponentKinds(false, false))
	})

	t.Run("during modify", func(t *testing.T) {
		s := build()
		kinds := make([]Kind, 1, 4)
		kinds[0] = KindPointCloud
		s.KeepOnlyDuringModify(kinds...)
		assert.Equal(t, []Kind{KindPointCloud, KindInstance, KindEdit}, s.GatherComponentKinds(false, false))
		assert.Len(t, kinds, 1)
	})

	t.Run("remove geometry", func(t *testing.T) {
		s := build()
		s.RemoveGeometryDuringModify()
		assert.False(t, s.HasRealizedData())
		assert.NotNil(t, s.GetComponent(KindInstance))
		assert.True(t, s.HasEditData())
	})
}

func TestSet_ReadOnlyOwnership(t *testing.T) {
	borrowed := quadMesh(t)
	s := FromMesh(borrowed, ReadOnly)
	assert.False(t, s.OwnsDirectData())

	m := s.MeshForWrite()
	m.Translate(math32.Vec3(0, 0, 5))

	assert.NotSame(t, borrowed, m)
	assert.Equal(t, float32(0), borrowed.Positions()[0].Z)
	assert.True(t, s.OwnsDirectData())
}

func TestSet_EnsureOwnsDirectDataClonesShared(t *testing.T) {
	borrowed := quadMesh(t)
	a := FromMesh(borrowed, ReadOnly)
	b := a.Copy()

	b.EnsureOwnsDirectData()

	assert.True(t, b.OwnsDirectData())
	assert.False(t, a.OwnsDirectData())
	assert.Same(t, borrowed, a.Mesh())
	assert.NotSame(t, borrowed, b.Mesh())
}

func TestSet_ReplaceDoesNotWriteSharedComponent(t *testing.T) {
	first, second := quadMesh(t), quadMesh(t)
	a := FromMesh(first, Owned)
	b := a.Copy()

	b.ReplaceMesh(second, Owned)

	assert.Same(t, first, a.Mesh())
	assert.Same(t, second, b.Mesh())

	b.ReplaceMesh(nil, Owned)
	assert.Nil(t, b.GetComponent(KindMesh))
}

func TestSet_ReleaseMeshHandsOverPayload(t *testing.T) {
	m := quadMesh(t)
	s := FromMesh(m, Owned)
	c := s.GetComponentForWrite(KindMesh).(*MeshComponent)

	got := c.ReleaseMesh()

	assert.Same(t, m, got)
	assert.False(t, s.HasMesh())
	assert.NotNil(t, s.GetComponent(KindMesh))
}

func TestSet_String(t *testing.T) {
	assert.Equal(t, `Set "e": empty`, NewSet("e").String())

	s := FromMesh(quadMesh(t), Owned)
	s.SetName("quad")
	c := s.Copy()

	assert.Equal(t, `Set "quad": mesh(points=4 edges=4 faces=1 users=2)`, c.String())
}
