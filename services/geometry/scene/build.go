// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scene

import (
	"fmt"
	"slices"

	"cogentcore.org/core/math32"
	"github.com/AleutianAI/geoset/services/geometry/geomset"
)

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	loader *geomset.GridLoader
	hooks  *geomset.BatchCacheHooks
}

// WithGridLoader sets the loader for volume sources. By default sources
// are read as YAML grid files next to the scene.
func WithGridLoader(l *geomset.GridLoader) BuildOption {
	return func(o *buildOptions) { o.loader = l }
}

// WithBatchCacheHooks attaches hooks to every mesh, curves and point
// cloud built.
func WithBatchCacheHooks(h *geomset.BatchCacheHooks) BuildOption {
	return func(o *buildOptions) { o.hooks = h }
}

type builder struct {
	scene *Scene
	opts  buildOptions
	built map[string]*geomset.Set
	path  []string
}

// Build returns the root set. A set instanced from several places is
// built once; every parent owns its own shallow copy, so components stay
// shared until written and dropping one parent leaves the others intact.
// Instance references that lead back to an ancestor are reported as a
// *geomset.CycleError.
func (s *Scene) Build(opts ...BuildOption) (*geomset.Set, error) {
	b := &builder{
		scene: s,
		built: make(map[string]*geomset.Set, len(s.Sets)),
	}
	for _, opt := range opts {
		opt(&b.opts)
	}
	if b.opts.loader == nil {
		b.opts.loader = FileGridLoader(s.dir)
	}
	root, err := b.build(s.Root)
	b.releaseBuilt(root)
	return root, err
}

// releaseBuilt drops the builder's own handles on every set except root.
// The parents' copies keep the shared components alive.
func (b *builder) releaseBuilt(root *geomset.Set) {
	for _, set := range b.built {
		if set != root {
			set.Clear()
		}
	}
	clear(b.built)
}

func (b *builder) build(name string) (*geomset.Set, error) {
	if set, ok := b.built[name]; ok {
		return set, nil
	}
	if i := slices.Index(b.path, name); i >= 0 {
		return nil, &geomset.CycleError{Path: append(slices.Clone(b.path[i:]), name)}
	}
	spec, ok := b.scene.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSet, name)
	}

	b.path = append(b.path, name)
	defer func() { b.path = b.path[:len(b.path)-1] }()

	set := geomset.NewSet(name)
	if spec.Mesh != nil {
		m, err := b.mesh(spec.Mesh)
		if err != nil {
			return nil, fmt.Errorf("set %q mesh: %w", name, err)
		}
		set.ReplaceMesh(m, geomset.Owned)
	}
	if spec.PointCloud != nil {
		p, err := b.pointCloud(spec.PointCloud)
		if err != nil {
			return nil, fmt.Errorf("set %q point cloud: %w", name, err)
		}
		set.ReplacePointCloud(p, geomset.Owned)
	}
	if spec.Curves != nil {
		c, err := b.curves(spec.Curves)
		if err != nil {
			return nil, fmt.Errorf("set %q curves: %w", name, err)
		}
		set.ReplaceCurves(c, geomset.Owned)
	}
	if spec.Volume != nil {
		set.ReplaceVolume(b.volume(spec.Volume), geomset.Owned)
	}
	if len(spec.Instances) > 0 {
		in := geomset.NewInstances()
		handles := make(map[string]int, len(spec.Instances))
		for _, inst := range spec.Instances {
			handle, ok := handles[inst.Set]
			if !ok {
				child, err := b.build(inst.Set)
				if err != nil {
					return nil, err
				}
				handle = in.AddReference(child.Copy())
				handles[inst.Set] = handle
			}
			if err := in.AddInstance(handle, translation(inst.Translate)); err != nil {
				return nil, fmt.Errorf("set %q instance of %q: %w", name, inst.Set, err)
			}
		}
		set.ReplaceInstances(in, geomset.Owned)
	}

	b.built[name] = set
	return set, nil
}

func (b *builder) mesh(spec *MeshSpec) (*geomset.Mesh, error) {
	m := geomset.NewMesh(vectors(spec.Positions))
	m.SetBatchCacheHooks(b.opts.hooks)
	if len(spec.Edges) > 0 || len(spec.Faces) > 0 {
		offsets, corners := flatten(spec.Faces)
		if err := m.SetTopology(spec.Edges, offsets, corners); err != nil {
			return nil, err
		}
	}
	return m, setAttributes(m, spec.Attributes)
}

func (b *builder) pointCloud(spec *PointCloudSpec) (*geomset.PointCloud, error) {
	p := geomset.NewPointCloud(vectors(spec.Positions))
	p.SetBatchCacheHooks(b.opts.hooks)
	if len(spec.Radius) > 0 {
		if err := p.SetRadius(spec.Radius); err != nil {
			return nil, err
		}
	}
	if len(spec.IDs) > 0 {
		if err := p.SetIDs(spec.IDs); err != nil {
			return nil, err
		}
	}
	return p, setAttributes(p, spec.Attributes)
}

func (b *builder) curves(spec *CurvesSpec) (*geomset.Curves, error) {
	points := make([][]Vec3, len(spec.Curves))
	for i, c := range spec.Curves {
		points[i] = c.Points
	}
	offsets, flat := flatten(points)
	c, err := geomset.NewCurves(vectors(flat), offsets)
	if err != nil {
		return nil, err
	}
	c.SetBatchCacheHooks(b.opts.hooks)
	for i, cs := range spec.Curves {
		if cs.Cyclic {
			c.SetCyclic(i, true)
		}
	}
	if len(spec.Radius) > 0 {
		if err := c.SetRadius(spec.Radius); err != nil {
			return nil, err
		}
	}
	return c, setAttributes(c, spec.Attributes)
}

func (b *builder) volume(spec *VolumeSpec) *geomset.Volume {
	v := geomset.NewVolume()
	if spec.Source != "" {
		v = geomset.NewVolumeFromSource(spec.Source, b.opts.loader)
	}
	for _, g := range spec.Grids {
		v.AddGrid(g.grid())
	}
	return v
}

func (g GridSpec) grid() *geomset.VolumeGrid {
	grid := geomset.NewVolumeGrid(g.Name, g.Dims)
	grid.Transform = translation(g.Translate)
	if g.Fill != 0 {
		for i := range grid.Voxels {
			grid.Voxels[i] = g.Fill
		}
	}
	return grid
}

type attributeSetter interface {
	SetAttribute(name string, domain geomset.Domain, data any) error
}

func setAttributes(target attributeSetter, specs []AttributeSpec) error {
	for _, a := range specs {
		domain, err := geomset.ParseDomain(a.Domain)
		if err != nil {
			return err
		}
		data, err := a.values()
		if err != nil {
			return err
		}
		if err := target.SetAttribute(a.Name, domain, data); err != nil {
			return fmt.Errorf("attribute %q: %w", a.Name, err)
		}
	}
	return nil
}

func (a AttributeSpec) values() (any, error) {
	var data []any
	if a.Floats != nil {
		data = append(data, a.Floats)
	}
	if a.Ints != nil {
		data = append(data, a.Ints)
	}
	if a.Bools != nil {
		data = append(data, a.Bools)
	}
	if a.Vectors != nil {
		data = append(data, vectors(a.Vectors))
	}
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: %q has %d", ErrAttributeValues, a.Name, len(data))
	}
	return data[0], nil
}

func vectors(in []Vec3) []math32.Vector3 {
	out := make([]math32.Vector3, len(in))
	for i, v := range in {
		out[i] = math32.Vec3(v[0], v[1], v[2])
	}
	return out
}

// flatten concatenates groups and returns their offsets.
func flatten[E any](groups [][]E) ([]int32, []E) {
	if len(groups) == 0 {
		return nil, nil
	}
	offsets := make([]int32, 1, len(groups)+1)
	var flat []E
	for _, g := range groups {
		flat = append(flat, g...)
		offsets = append(offsets, int32(len(flat)))
	}
	return offsets, flat
}

func translation(t Vec3) math32.Matrix4 {
	m := *math32.Identity4()
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}
