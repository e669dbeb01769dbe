// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/AleutianAI/geoset/services/geometry/geomset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScene = `
root: city
sets:
  - name: house
    mesh:
      positions: [[0,0,0], [1,0,0], [1,1,0], [0,1,0]]
      faces: [[0,1,2,3]]
  - name: trees
    point_cloud:
      positions: [[0,0,0], [2,0,0]]
      attributes:
        - name: height
          domain: point
          floats: [3, 4]
  - name: city
    curves:
      curves:
        - points: [[0,0,0], [3,0,0]]
    instances:
      - set: house
      - set: house
        translate: [5, 0, 0]
      - set: trees
`

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "city.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testScene), 0600))
	return path
}

// run executes the CLI in machine mode without metric exporters.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("OTEL_TRACES_EXPORTER", "none")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--output", "machine", "--metrics-exporter", "none"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestInspect(t *testing.T) {
	out, _, err := run(t, "inspect", writeScene(t), "--propagate-to", "pointcloud")
	require.NoError(t, err)

	assert.Contains(t, out, "0\tSet \"city\": curve(points=2 curves=1), instance(instances=3 references=2)\n")
	assert.Contains(t, out, "1\tSet \"house\": mesh(points=4 edges=0 faces=1)\n")
	assert.Contains(t, out, "bounds.min\t(0, 0, 0)\n")
	assert.Contains(t, out, "bounds.max\t(3, 0, 0)\n")
	assert.Contains(t, out, "kinds.present\tcurve, instance, mesh, pointcloud\n")
	assert.Contains(t, out, "propagate to pointcloud.height\tpoint float\n")
}

func TestInspect_Errors(t *testing.T) {
	_, _, err := run(t, "inspect", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = run(t, "inspect", writeScene(t), "--propagate-to", "nurbs")
	assert.ErrorIs(t, err, geomset.ErrInvalidKind)

	_, _, err = run(t, "inspect")
	assert.Error(t, err)
}

func TestModify(t *testing.T) {
	out, _, err := run(t, "modify", writeScene(t), "--translate", "1,0,0")
	require.NoError(t, err)

	assert.Contains(t, out, "bounds.original\t(0, 0, 0) (3, 0, 0)\n")
	assert.Contains(t, out, "bounds.modified\t(1, 0, 0) (4, 0, 0)\n")
	assert.Contains(t, out, "SUMMARY: sets_visited=3 cloned=4 in_place=0 original_unchanged=1\n")
	assert.Contains(t, out, "OK: original scene unchanged\n")
}

func TestModify_Sequential(t *testing.T) {
	out, _, err := run(t, "modify", writeScene(t), "--translate", "0,2,0", "--sequential")
	require.NoError(t, err)

	assert.Contains(t, out, "sets_visited=3")
}

func TestModify_BadTranslate(t *testing.T) {
	_, _, err := run(t, "modify", writeScene(t), "--translate", "1,2")
	assert.ErrorContains(t, err, "want x,y,z")
}

func TestTranslateCopy_LeavesOriginal(t *testing.T) {
	pc := geomset.NewPointCloud([]math32.Vector3{math32.Vec3(1, 1, 1)})
	original := geomset.FromPointCloud(pc, geomset.Owned)

	res, err := translateCopy(context.Background(), original, math32.Vec3(0, 0, 1), geomset.DefaultModifyOptions())
	require.NoError(t, err)

	assert.True(t, res.originalIntact)
	assert.Equal(t, 1, res.cloned)
	assert.Equal(t, math32.Vec3(1, 1, 1), original.PointCloud().Positions()[0])
	assert.Equal(t, float32(2), res.moved.Max.Z)
}

func TestSnapshotTree_SeesNestedChange(t *testing.T) {
	pc := geomset.NewPointCloud([]math32.Vector3{math32.Vec3(1, 1, 1)})
	child := geomset.FromPointCloud(pc, geomset.Owned)
	child.SetName("child")
	in := geomset.NewInstances()
	require.NoError(t, in.AddInstance(in.AddReference(child), *math32.Identity4()))
	root := geomset.FromInstances(in, geomset.Owned)

	before := snapshotTree(root)
	require.Len(t, before, 2)
	_, rootHasBounds := root.ComputeBounds(false)
	assert.False(t, rootHasBounds, "root bounds exclude instances")

	child.PointCloudForWrite().Translate(math32.Vec3(0, 0, 1))

	after := snapshotTree(root)
	assert.False(t, slices.EqualFunc(before, after, setState.equal))
	assert.True(t, before[0].equal(after[0]))
}

func TestBenchCache(t *testing.T) {
	out, _, err := run(t, "bench-cache", "--goroutines", "4", "--iterations", "100", "--dirty-every", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "PROGRESS: running cache bench\n")
	assert.Contains(t, out, "bench.computes\t37\n")
	assert.Contains(t, out, "bench.detaches\t4\n")
	assert.Contains(t, out, "OK: source handle computed once\n")
}

func TestRunBench(t *testing.T) {
	t.Run("never dirty computes once", func(t *testing.T) {
		res, err := runBench(context.Background(), benchConfig{goroutines: 16, iterations: 500})
		require.NoError(t, err)

		assert.Equal(t, int64(1), res.computes)
		assert.Equal(t, int64(0), res.detaches)
		assert.Equal(t, int64(1), res.sourceValue)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := runBench(context.Background(), benchConfig{goroutines: 0, iterations: 1})
		assert.ErrorIs(t, err, errBenchArgs)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := runBench(ctx, benchConfig{goroutines: 2, iterations: 10})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseVec3(t *testing.T) {
	v, err := parseVec3(" 1.5, -2 ,0")
	require.NoError(t, err)
	assert.Equal(t, math32.Vec3(1.5, -2, 0), v)

	_, err = parseVec3("a,b,c")
	assert.Error(t, err)
}
