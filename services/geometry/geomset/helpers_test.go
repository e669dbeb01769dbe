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
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/require"
)

// panicError runs fn and returns the error it panicked with.
func panicError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			}
		}
	}()
	fn()
	return nil
}

// quadMesh returns a unit square in the XY plane with one face.
func quadMesh(t *testing.T) *Mesh {
	t.Helper()
	m := NewMesh([]math32.Vector3{
		math32.Vec3(0, 0, 0),
		math32.Vec3(1, 0, 0),
		math32.Vec3(1, 1, 0),
		math32.Vec3(0, 1, 0),
	})
	require.NoError(t, m.SetTopology(
		[][2]int32{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		[]int32{0, 4},
		[]int32{0, 1, 2, 3},
	))
	return m
}

func linePoints(n int) []math32.Vector3 {
	out := make([]math32.Vector3, n)
	for i := range out {
		out[i] = math32.Vec3(float32(i), 0, 0)
	}
	return out
}

func translation(x, y, z float32) math32.Matrix4 {
	m := *math32.Identity4()
	m[12], m[13], m[14] = x, y, z
	return m
}
