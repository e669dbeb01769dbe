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
	"maps"
	"slices"

	"cogentcore.org/core/math32"
)

// CurvesEditHints remember curve positions from before deformation so
// that edits made on the deformed result can be mapped back.
type CurvesEditHints struct {
	OriginalPositions []math32.Vector3
	DeformMats        []math32.Matrix4
}

// EditData carries non-destructive editing state through an evaluation.
// It has no geometry of its own.
type EditData struct {
	CurvesHints *CurvesEditHints

	// Gizmos maps a gizmo name to the transform applied through it.
	Gizmos map[string]math32.Matrix4
}

// IsEmpty reports whether no hints are present.
func (e *EditData) IsEmpty() bool {
	return e.CurvesHints == nil && len(e.Gizmos) == 0
}

func (e *EditData) Clone() *EditData {
	out := &EditData{Gizmos: maps.Clone(e.Gizmos)}
	if e.CurvesHints != nil {
		out.CurvesHints = &CurvesEditHints{
			OriginalPositions: slices.Clone(e.CurvesHints.OriginalPositions),
			DeformMats:        slices.Clone(e.CurvesHints.DeformMats),
		}
	}
	return out
}

// EditDataComponent holds EditData in a Set.
type EditDataComponent struct {
	componentBase
	holder[EditData]
}

// NewEditDataComponent wraps e. e may be nil.
func NewEditDataComponent(e *EditData, ownership Ownership) *EditDataComponent {
	c := &EditDataComponent{holder: holder[EditData]{data: e, ownership: ownership}}
	c.init(KindEdit, c)
	return c
}

func (c *EditDataComponent) EditData() *EditData { return c.data }

func (c *EditDataComponent) EditDataForWrite() *EditData {
	c.requireWritable()
	return c.forWrite((*EditData).Clone)
}

func (c *EditDataComponent) Replace(e *EditData, ownership Ownership) {
	c.requireWritable()
	c.replace(e, ownership)
}

func (c *EditDataComponent) Clone() Component {
	out := NewEditDataComponent(nil, Owned)
	if c.data != nil {
		out.data = c.data.Clone()
	}
	return out
}

func (c *EditDataComponent) IsEmpty() bool {
	return c.data == nil || c.data.IsEmpty()
}

func (c *EditDataComponent) ElementCount(Domain) int { return 0 }

func (c *EditDataComponent) ForEachField(FieldFunc) bool { return true }

func (c *EditDataComponent) OwnsDirectData() bool { return c.ownsDirectData() }

func (c *EditDataComponent) EnsureOwnsDirectData() {
	c.requireWritable()
	c.forWrite((*EditData).Clone)
}

func (c *EditDataComponent) dropPayload() {
	c.data = nil
}
