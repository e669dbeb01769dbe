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
	"strings"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighestPriorityDomain(t *testing.T) {
	tests := []struct {
		name    string
		domains []Domain
		want    Domain
	}{
		{name: "empty", want: DomainPoint},
		{name: "single", domains: []Domain{DomainInstance}, want: DomainInstance},
		{name: "point beats face", domains: []Domain{DomainFace, DomainPoint}, want: DomainPoint},
		{name: "corner beats all", domains: []Domain{DomainPoint, DomainCorner, DomainEdge}, want: DomainCorner},
		{name: "edge beats curve", domains: []Domain{DomainCurve, DomainEdge}, want: DomainEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HighestPriorityDomain(tt.domains...))
		})
	}
}

func TestHighestComplexityType(t *testing.T) {
	assert.Equal(t, DataTypeBool, HighestComplexityType())
	assert.Equal(t, DataTypeFloat3, HighestComplexityType(DataTypeInt32, DataTypeFloat3, DataTypeFloat))
	assert.Equal(t, DataTypeFloat4x4, HighestComplexityType(DataTypeColorFloat, DataTypeFloat4x4))
	assert.Equal(t, DataTypeInt8, HighestComplexityType(DataTypeString, DataTypeInt8))
}

func TestKind_Parse(t *testing.T) {
	for _, k := range AllKinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("nurbs")
	assert.True(t, errors.Is(err, ErrInvalidKind))
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestDomain_Parse(t *testing.T) {
	for _, d := range []Domain{DomainPoint, DomainEdge, DomainFace, DomainCorner, DomainCurve, DomainInstance} {
		got, err := ParseDomain(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDomain("voxel")
	assert.ErrorIs(t, err, ErrInvalidDomain)
}

// propagationScene has a mesh and point cloud at the top and an instanced
// point cloud below.
func propagationScene(t *testing.T) *Set {
	t.Helper()
	m := quadMesh(t)
	require.NoError(t, m.SetAttribute("temperature", DomainFace, []float32{20}))
	require.NoError(t, m.SetAttribute("label", DomainPoint, []string{"a", "b", "c", "d"}))

	pc := NewPointCloud(linePoints(2))
	require.NoError(t, pc.SetAttribute("temperature", DomainPoint, []math32.Vector3{{}, {}}))
	require.NoError(t, pc.SetRadius([]float32{1, 1}))

	nested := NewPointCloud(linePoints(1))
	require.NoError(t, nested.SetAttribute("mask", DomainPoint, []bool{true}))

	in := NewInstances()
	require.NoError(t, in.AddInstance(in.AddReference(FromPointCloud(nested, Owned)), translation(0, 0, 0)))
	require.NoError(t, in.SetAttribute("scale", DomainInstance, []float32{2}))

	s := FromMesh(m, Owned)
	s.ReplacePointCloud(pc, Owned)
	s.ReplaceInstances(in, Owned)
	return s
}

func TestGatherAttributesForPropagation(t *testing.T) {
	s := propagationScene(t)
	sources := []Kind{KindMesh, KindPointCloud, KindInstance}

	t.Run("into point cloud", func(t *testing.T) {
		got := s.GatherAttributesForPropagation(sources, KindPointCloud, true, nil)

		assert.Equal(t, map[string]AttributeKind{
			"position":    {Domain: DomainPoint, Type: DataTypeFloat3},
			"radius":      {Domain: DomainPoint, Type: DataTypeFloat},
			"temperature": {Domain: DomainPoint, Type: DataTypeFloat3},
			"scale":       {Domain: DomainPoint, Type: DataTypeFloat},
			"mask":        {Domain: DomainPoint, Type: DataTypeBool},
		}, got)
	})

	t.Run("into instances keeps instance domain", func(t *testing.T) {
		got := s.GatherAttributesForPropagation(sources, KindInstance, false, nil)

		assert.Equal(t, AttributeKind{Domain: DomainInstance, Type: DataTypeFloat}, got["scale"])
		assert.Equal(t, AttributeKind{Domain: DomainInstance, Type: DataTypeFloat4x4}, got["instance_transform"])
		assert.NotContains(t, got, "position")
		assert.NotContains(t, got, "mask", "nested sets are skipped")
	})

	t.Run("into mesh", func(t *testing.T) {
		got := s.GatherAttributesForPropagation([]Kind{KindMesh}, KindMesh, false, nil)

		assert.Contains(t, got, ".corner_vert")
		assert.Equal(t, DomainFace, got["temperature"].Domain)
		assert.NotContains(t, got, "label", "strings are never propagated")
	})

	t.Run("keep filter", func(t *testing.T) {
		got := s.GatherAttributesForPropagation(sources, KindPointCloud, true, func(name string) bool {
			return !strings.HasPrefix(name, "temp")
		})

		assert.NotContains(t, got, "temperature")
		assert.Contains(t, got, "mask")
	})
}

func TestAttributeForEach(t *testing.T) {
	s := propagationScene(t)

	seen := map[string]Kind{}
	s.AttributeForEach([]Kind{KindPointCloud}, true, func(name string, _ FieldMeta, c Component) {
		if !IsBuiltinField(c.Kind(), name) {
			seen[name] = c.Kind()
		}
	})

	assert.Equal(t, map[string]Kind{"temperature": KindPointCloud, "mask": KindPointCloud}, seen)
}
