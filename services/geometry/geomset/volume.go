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
	"context"
	"fmt"
	"log/slog"
	"slices"

	"cogentcore.org/core/math32"
	"golang.org/x/sync/singleflight"
)

// VolumeGrid is a dense voxel grid placed in space by Transform.
type VolumeGrid struct {
	Name      string
	Dims      [3]int
	Transform math32.Matrix4
	Voxels    []float32
}

// NewVolumeGrid returns a zeroed grid with an identity transform.
func NewVolumeGrid(name string, dims [3]int) *VolumeGrid {
	return &VolumeGrid{
		Name:      name,
		Dims:      dims,
		Transform: *math32.Identity4(),
		Voxels:    make([]float32, dims[0]*dims[1]*dims[2]),
	}
}

// Clone returns a deep copy of the grid.
func (g *VolumeGrid) Clone() *VolumeGrid {
	out := *g
	out.Voxels = slices.Clone(g.Voxels)
	return &out
}

// Bounds returns the grid's index-space box mapped through Transform.
func (g *VolumeGrid) Bounds() math32.Box3 {
	b := math32.B3(0, 0, 0, float32(g.Dims[0]), float32(g.Dims[1]), float32(g.Dims[2]))
	return b.MulMatrix4(&g.Transform)
}

// GridLoadFunc reads the grids stored at source.
type GridLoadFunc func(ctx context.Context, source string) ([]*VolumeGrid, error)

// GridLoader loads volume grids from external sources.
//
// Description:
//
//	Concurrent loads of the same source share one call of the load
//	function. Every caller gets its own copy of the grids, so volumes
//	never alias each other's voxels.
//
// Thread Safety:
//
//	Safe for concurrent use.
type GridLoader struct {
	load  GridLoadFunc
	group singleflight.Group
}

// NewGridLoader wraps fn.
func NewGridLoader(fn GridLoadFunc) *GridLoader {
	return &GridLoader{load: fn}
}

// Load returns a private copy of the grids at source. The shared load
// keeps the first caller's context values but not its cancellation, so
// one caller giving up does not fail the others waiting on source.
func (l *GridLoader) Load(ctx context.Context, source string) ([]*VolumeGrid, error) {
	v, err, shared := l.group.Do(source, func() (any, error) {
		return l.load(context.WithoutCancel(ctx), source)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("volume grid load shared",
			slog.String("source", source),
		)
	}
	grids := v.([]*VolumeGrid)
	out := make([]*VolumeGrid, len(grids))
	for i, g := range grids {
		out[i] = g.Clone()
	}
	return out, nil
}

// Volume is a collection of voxel grids, either held directly or loaded
// on demand from a source.
type Volume struct {
	grids   []*VolumeGrid
	source  string
	loader  *GridLoader
	loaded  bool
	loadErr error
}

// NewVolume returns a volume holding grids.
func NewVolume(grids ...*VolumeGrid) *Volume {
	return &Volume{grids: grids, loaded: true}
}

// NewVolumeFromSource returns a volume whose grids are read from source by
// loader the first time they are needed.
func NewVolumeFromSource(source string, loader *GridLoader) *Volume {
	return &Volume{source: source, loader: loader}
}

// Source returns the external source, if any.
func (v *Volume) Source() string { return v.source }

// IsLoaded reports whether the grids are held in memory.
func (v *Volume) IsLoaded() bool { return v.loaded }

// LoadErr returns the error of a failed load.
func (v *Volume) LoadErr() error { return v.loadErr }

// Grids returns the loaded grids. Callers must not modify them.
func (v *Volume) Grids() []*VolumeGrid { return v.grids }

// NumGrids returns the number of loaded grids.
func (v *Volume) NumGrids() int { return len(v.grids) }

// AddGrid appends a grid.
func (v *Volume) AddGrid(g *VolumeGrid) {
	v.grids = append(v.grids, g)
}

// load reads the grids from the source once. A failure is kept on the
// volume and returned again by later calls. It writes the volume, so it is
// reached only through a writable component.
func (v *Volume) load(ctx context.Context) error {
	if v.loaded {
		return v.loadErr
	}
	v.loaded = true
	if v.loader == nil {
		v.loadErr = fmt.Errorf("%w: %s: no loader", ErrGridLoad, v.source)
		return v.loadErr
	}
	grids, err := v.loader.Load(ctx, v.source)
	if err != nil {
		v.loadErr = fmt.Errorf("%w: %s: %v", ErrGridLoad, v.source, err)
		return v.loadErr
	}
	v.grids = append(v.grids, grids...)
	return nil
}

// Bounds returns the union of the loaded grid bounds.
func (v *Volume) Bounds() (math32.Box3, bool) {
	b := math32.B3Empty()
	for _, g := range v.grids {
		b.ExpandByBox(g.Bounds())
	}
	return b, !b.IsEmpty()
}

// IsEmpty reports whether there are no grids and nothing to load.
func (v *Volume) IsEmpty() bool {
	return len(v.grids) == 0 && (v.loaded || v.source == "")
}

// Clone returns a deep copy of the loaded grids. An unloaded source is
// carried over and loaded separately by the copy.
func (v *Volume) Clone() *Volume {
	out := *v
	out.grids = make([]*VolumeGrid, len(v.grids))
	for i, g := range v.grids {
		out.grids[i] = g.Clone()
	}
	return &out
}

// VolumeComponent holds a Volume in a Set.
type VolumeComponent struct {
	componentBase
	holder[Volume]
}

// NewVolumeComponent wraps v. v may be nil.
func NewVolumeComponent(v *Volume, ownership Ownership) *VolumeComponent {
	c := &VolumeComponent{holder: holder[Volume]{data: v, ownership: ownership}}
	c.init(KindVolume, c)
	return c
}

// Volume returns the payload for reading.
func (c *VolumeComponent) Volume() *Volume { return c.data }

// VolumeForWrite returns the payload for writing.
func (c *VolumeComponent) VolumeForWrite() *Volume {
	c.requireWritable()
	return c.forWrite((*Volume).Clone)
}

// Replace swaps the payload.
func (c *VolumeComponent) Replace(v *Volume, ownership Ownership) {
	c.requireWritable()
	c.replace(v, ownership)
}

func (c *VolumeComponent) Clone() Component {
	out := NewVolumeComponent(nil, Owned)
	if c.data != nil {
		out.data = c.data.Clone()
	}
	return out
}

func (c *VolumeComponent) IsEmpty() bool {
	return c.data == nil || c.data.IsEmpty()
}

// ElementCount is zero: grids are not addressed per element.
func (c *VolumeComponent) ElementCount(Domain) int { return 0 }

func (c *VolumeComponent) ForEachField(FieldFunc) bool { return true }

// OwnsDirectData is false for borrowed volumes and for grids that still
// live in their source.
func (c *VolumeComponent) OwnsDirectData() bool {
	return c.ownsDirectData() && (c.data == nil || c.data.loaded)
}

// EnsureOwnsDirectData copies a borrowed volume and loads pending grids.
// Load failures are recorded on the volume.
func (c *VolumeComponent) EnsureOwnsDirectData() {
	c.requireWritable()
	if v := c.forWrite((*Volume).Clone); v != nil {
		_ = v.load(context.Background())
	}
}

func (c *VolumeComponent) dropPayload() {
	c.data = nil
}
