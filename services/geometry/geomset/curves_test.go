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

// squareCurves returns one open three-segment curve around the unit square
// and one straight two-point curve.
func squareCurves(t *testing.T) *Curves {
	t.Helper()
	c, err := NewCurves([]math32.Vector3{
		math32.Vec3(0, 0, 0),
		math32.Vec3(1, 0, 0),
		math32.Vec3(1, 1, 0),
		math32.Vec3(0, 1, 0),
		math32.Vec3(0, 0, 5),
		math32.Vec3(0, 0, 7),
	}, []int32{0, 4, 6})
	require.NoError(t, err)
	return c
}

func TestCurves_NewRejectsBadOffsets(t *testing.T) {
	_, err := NewCurves(linePoints(3), []int32{0, 2})
	assert.True(t, errors.Is(err, ErrInvalidTopology))

	c, err := NewCurves(nil, nil)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.NumCurves())
}

func TestCurves_Lengths(t *testing.T) {
	c := squareCurves(t)

	assert.InDeltaSlice(t, []float32{3, 2}, c.Lengths(), 1e-6)

	c.SetCyclic(0, true)
	assert.True(t, c.Cyclic(0))
	assert.False(t, c.Cyclic(1))
	assert.InDeltaSlice(t, []float32{4, 2}, c.Lengths(), 1e-6)

	// A closed two-point curve gets no closing segment.
	c.SetCyclic(1, true)
	assert.InDeltaSlice(t, []float32{4, 2}, c.Lengths(), 1e-6)
}

func TestCurves_TranslateKeepsLengths(t *testing.T) {
	c := squareCurves(t)
	_ = c.Lengths()
	_, _ = c.Bounds(false)

	c.Translate(math32.Vec3(1, 1, 1))

	assert.True(t, c.lengths.IsCached())
	assert.True(t, c.bounds.IsCached())
	box, ok := c.Bounds(false)
	require.True(t, ok)
	assert.Equal(t, math32.Vec3(1, 1, 1), box.Min)
	assert.Equal(t, math32.Vec3(2, 2, 8), box.Max)

	c.TagPositionsChanged()
	assert.True(t, c.lengths.IsDirty())
}

func TestCurves_RadiusBounds(t *testing.T) {
	c := squareCurves(t)
	assert.True(t, errors.Is(c.SetRadius([]float32{1}), ErrLengthMismatch))

	require.NoError(t, c.SetRadius([]float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}))

	plain, _ := c.Bounds(false)
	grown, _ := c.Bounds(true)
	assert.Equal(t, math32.Vec3(0, 0, 0), plain.Min)
	assert.Equal(t, math32.Vec3(-0.5, -0.5, -0.5), grown.Min)
	assert.Equal(t, math32.Vec3(1.5, 1.5, 7.5), grown.Max)
}

func TestCurves_CloneIsolatesLengths(t *testing.T) {
	c := squareCurves(t)
	_ = c.Lengths()
	clone := c.Clone()
	require.True(t, clone.lengths.SharesWith(c.lengths))

	clone.SetCyclic(0, true)

	assert.InDeltaSlice(t, []float32{3, 2}, c.Lengths(), 1e-6)
	assert.InDeltaSlice(t, []float32{4, 2}, clone.Lengths(), 1e-6)
}

func TestCurves_FieldsAndDomains(t *testing.T) {
	c := squareCurves(t)
	require.NoError(t, c.SetAttribute("tilt", DomainPoint, make([]float32, 6)))
	require.NoError(t, c.SetAttribute("resolution", DomainCurve, []int32{12, 4}))
	assert.True(t, errors.Is(c.SetAttribute("bad", DomainFace, []int32{1}), ErrInvalidDomain))

	fields := map[string]FieldMeta{}
	c.ForEachField(func(name string, meta FieldMeta) bool {
		fields[name] = meta
		return true
	})

	assert.True(t, fields["position"].Builtin)
	assert.Equal(t, DomainCurve, fields["resolution"].Domain)
	assert.False(t, fields["tilt"].Builtin)
	assert.Equal(t, 2, c.ElementCount(DomainCurve))
	assert.Equal(t, 6, c.ElementCount(DomainPoint))
}
