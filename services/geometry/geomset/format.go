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
	"fmt"
	"strings"
)

// String summarizes the occupied slots, e.g.
//
//	Set "root": mesh(points=8 edges=12 faces=6), instance(instances=3 references=1)
func (s *Set) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Set %q: ", s.name)
	parts := make([]string, 0, numKinds)
	for _, c := range s.components {
		if c != nil {
			parts = append(parts, describeComponent(c))
		}
	}
	if len(parts) == 0 {
		b.WriteString("empty")
		return b.String()
	}
	b.WriteString(strings.Join(parts, ", "))
	return b.String()
}

func describeComponent(c Component) string {
	var counts []string
	add := func(label string, n int) {
		counts = append(counts, fmt.Sprintf("%s=%d", label, n))
	}
	switch c := c.(type) {
	case *MeshComponent:
		add("points", c.ElementCount(DomainPoint))
		add("edges", c.ElementCount(DomainEdge))
		add("faces", c.ElementCount(DomainFace))
	case *CurveComponent:
		add("points", c.ElementCount(DomainPoint))
		add("curves", c.ElementCount(DomainCurve))
	case *PointCloudComponent:
		add("points", c.ElementCount(DomainPoint))
	case *VolumeComponent:
		if v := c.Volume(); v != nil {
			add("grids", v.NumGrids())
			if !v.IsLoaded() {
				counts = append(counts, "unloaded")
			}
		}
	case *InstancesComponent:
		add("instances", c.ElementCount(DomainInstance))
		if in := c.Instances(); in != nil {
			add("references", in.NumReferences())
		}
	case *EditDataComponent:
		if e := c.EditData(); e != nil {
			add("gizmos", len(e.Gizmos))
			if e.CurvesHints != nil {
				counts = append(counts, "curve_hints")
			}
		}
	}
	if c.Users() > 1 {
		add("users", c.Users())
	}
	return fmt.Sprintf("%s(%s)", c.Kind(), strings.Join(counts, " "))
}
