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

// BatchDirtyMode says which part of a payload a display cache must rebuild.
type BatchDirtyMode uint8

const (
	BatchDirtyAll BatchDirtyMode = iota
	BatchDirtyPositions
	BatchDirtyTopology
)

func (m BatchDirtyMode) String() string {
	switch m {
	case BatchDirtyPositions:
		return "positions"
	case BatchDirtyTopology:
		return "topology"
	default:
		return "all"
	}
}

// BatchCacheHooks are notified when payload data that a display cache
// depends on changes.
//
// Description:
//
//	Hooks are configured once at startup and handed to payloads through
//	SetBatchCacheHooks. Clones keep the hooks of their source. There is
//	no package-level registry; a payload without hooks notifies nobody.
//
// Thread Safety:
//
//	Hook functions may be called from any goroutine that writes a
//	payload, including ModifyGeometrySets workers.
type BatchCacheHooks struct {
	MeshDirty       func(m *Mesh, mode BatchDirtyMode)
	CurvesDirty     func(c *Curves, mode BatchDirtyMode)
	PointCloudDirty func(p *PointCloud, mode BatchDirtyMode)
}

func (h *BatchCacheHooks) meshDirty(m *Mesh, mode BatchDirtyMode) {
	if h != nil && h.MeshDirty != nil {
		h.MeshDirty(m, mode)
	}
}

func (h *BatchCacheHooks) curvesDirty(c *Curves, mode BatchDirtyMode) {
	if h != nil && h.CurvesDirty != nil {
		h.CurvesDirty(c, mode)
	}
}

func (h *BatchCacheHooks) pointCloudDirty(p *PointCloud, mode BatchDirtyMode) {
	if h != nil && h.PointCloudDirty != nil {
		h.PointCloudDirty(p, mode)
	}
}
