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

func idCloud(t *testing.T, ids ...int32) *PointCloud {
	t.Helper()
	p := NewPointCloud(linePoints(len(ids)))
	require.NoError(t, p.SetIDs(ids))
	return p
}

func TestPointCloud_LookupID(t *testing.T) {
	p := idCloud(t, 40, 10, 30, 10)

	for id, want := range map[int32]int{40: 0, 10: 1, 30: 2} {
		got, ok := p.LookupID(id)
		assert.True(t, ok, "id %d", id)
		assert.Equal(t, want, got, "id %d", id)
	}
	_, ok := p.LookupID(20)
	assert.False(t, ok)
	assert.True(t, p.ids.IsCached())
}

func TestPointCloud_LookupWithoutIDs(t *testing.T) {
	p := NewPointCloud(linePoints(2))

	_, ok := p.LookupID(0)

	assert.False(t, ok)
	assert.Nil(t, p.IDs())
	assert.True(t, errors.Is(p.SetID(0, 1), ErrInvalidDomain))
}

func TestPointCloud_SetIDRevisesIndexInPlace(t *testing.T) {
	p := idCloud(t, 1, 2, 3)
	_, _ = p.LookupID(1)
	before := p.ids.Data()

	require.NoError(t, p.SetID(1, 20))

	assert.True(t, p.ids.IsCached(), "index revised, not invalidated")
	assert.Same(t, before, p.ids.Data())
	_, ok := p.LookupID(2)
	assert.False(t, ok)
	got, ok := p.LookupID(20)
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Equal(t, []int32{1, 20, 3}, p.IDs())
}

func TestPointCloud_SetIDOnCloneLeavesOriginalIndex(t *testing.T) {
	p := idCloud(t, 1, 2, 3)
	_, _ = p.LookupID(1)
	clone := p.Clone()
	require.True(t, clone.ids.SharesWith(p.ids))

	require.NoError(t, clone.SetID(0, 100))

	assert.False(t, clone.ids.SharesWith(p.ids))
	got, ok := p.LookupID(1)
	assert.True(t, ok)
	assert.Equal(t, 0, got)
	_, ok = p.LookupID(100)
	assert.False(t, ok)

	got, ok = clone.LookupID(100)
	assert.True(t, ok)
	assert.Equal(t, 0, got)
	_, ok = clone.LookupID(1)
	assert.False(t, ok)
}

func TestPointCloud_SetIDErrors(t *testing.T) {
	p := idCloud(t, 1, 2)

	assert.True(t, errors.Is(p.SetID(2, 9), ErrInvalidTopology))
	assert.True(t, errors.Is(p.SetIDs([]int32{1}), ErrLengthMismatch))
}

func TestPointCloud_SetAttributeIDInvalidatesIndex(t *testing.T) {
	p := idCloud(t, 1, 2)
	_, _ = p.LookupID(1)

	require.NoError(t, p.SetAttribute(IDAttribute, DomainPoint, []int32{7, 8}))

	assert.True(t, p.ids.IsDirty())
	got, ok := p.LookupID(8)
	assert.True(t, ok)
	assert.Equal(t, 1, got)
	assert.True(t, errors.Is(p.SetAttribute("x", DomainFace, []int32{1, 2}), ErrInvalidDomain))
}

func TestPointCloud_Bounds(t *testing.T) {
	p := NewPointCloud(linePoints(3))
	require.NoError(t, p.SetRadius([]float32{1, 1, 2}))

	plain, ok := p.Bounds(false)
	require.True(t, ok)
	grown, _ := p.Bounds(true)

	assert.Equal(t, math32.Vec3(0, 0, 0), plain.Min)
	assert.Equal(t, math32.Vec3(2, 0, 0), plain.Max)
	assert.Equal(t, math32.Vec3(-1, -2, -2), grown.Min)
	assert.Equal(t, math32.Vec3(4, 2, 2), grown.Max)

	_, ok = NewPointCloud(nil).Bounds(false)
	assert.False(t, ok)
}
