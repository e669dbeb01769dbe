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

import "slices"

// builtinFields lists the fields that are part of each payload's layout.
var builtinFields = map[Kind][]string{
	KindMesh:       {"position", ".corner_vert"},
	KindCurve:      {"position", "radius", "cyclic"},
	KindPointCloud: {"position", "radius"},
	KindInstance:   {"instance_transform", ".reference_index"},
}

// IsBuiltinField reports whether name is part of the layout of kind.
func IsBuiltinField(kind Kind, name string) bool {
	return slices.Contains(builtinFields[kind], name)
}

// AttributeFunc is called once per field found by AttributeForEach.
type AttributeFunc func(name string, meta FieldMeta, c Component)

// AttributeForEach calls fn for every field of the listed component kinds.
// With includeInstances it also visits every referenced set once.
func (s *Set) AttributeForEach(kinds []Kind, includeInstances bool, fn AttributeFunc) {
	s.walk(includeInstances, func(set *Set) {
		for _, k := range kinds {
			if !set.Has(k) {
				continue
			}
			c := set.components[k]
			c.ForEachField(func(name string, meta FieldMeta) bool {
				fn(name, meta, c)
				return true
			})
		}
	})
}

// AttributeKind is the merged domain and type of a propagated attribute.
type AttributeKind struct {
	Domain Domain
	Type   DataType
}

// GatherAttributesForPropagation collects the attributes that an
// operation reading kinds and writing dst should carry over.
//
// Description:
//
//	Built-in fields are only propagated if they are also built in on the
//	destination. Strings are never propagated. Instance-domain fields
//	become point-domain fields unless dst is instances. When the same
//	name occurs several times, the domain with the highest priority and
//	the type with the highest complexity win.
//
// Inputs:
//
//	kinds - Source component kinds.
//	dst - Kind of the component the operation produces.
//	includeInstances - Also collect from referenced sets.
//	keep - Optional filter; names it rejects are skipped.
//
// Outputs:
//
//	map[string]AttributeKind - Attribute name to merged kind.
func (s *Set) GatherAttributesForPropagation(kinds []Kind, dst Kind, includeInstances bool, keep func(name string) bool) map[string]AttributeKind {
	dst.mustValid()
	out := make(map[string]AttributeKind)
	s.AttributeForEach(kinds, includeInstances, func(name string, meta FieldMeta, c Component) {
		if meta.Builtin && !IsBuiltinField(dst, name) {
			return
		}
		if meta.Type == DataTypeString {
			return
		}
		if keep != nil && !keep(name) {
			return
		}
		domain := meta.Domain
		if dst != KindInstance && domain == DomainInstance {
			domain = DomainPoint
		}
		prev, ok := out[name]
		if !ok {
			out[name] = AttributeKind{Domain: domain, Type: meta.Type}
			return
		}
		out[name] = AttributeKind{
			Domain: HighestPriorityDomain(prev.Domain, domain),
			Type:   HighestComplexityType(prev.Type, meta.Type),
		}
	})
	return out
}
