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
	"slices"

	"cogentcore.org/core/math32"
)

// FieldMeta describes one named per-element data series.
type FieldMeta struct {
	Domain Domain
	Type   DataType

	// Builtin marks fields that are part of the payload layout (such as
	// positions) rather than user attributes.
	Builtin bool
}

// FieldFunc is called once per field. Returning false stops enumeration.
type FieldFunc func(name string, meta FieldMeta) bool

// Attribute is a named data series on one domain.
type Attribute struct {
	Name   string
	Domain Domain
	Type   DataType

	data any
}

// Data returns the backing slice. Callers must not modify it.
func (a Attribute) Data() any {
	return a.data
}

// Len returns the number of elements.
func (a Attribute) Len() int {
	_, n, _ := dataTypeOf(a.data)
	return n
}

// AttributeData returns the attribute's values as []E.
func AttributeData[E any](a Attribute) ([]E, bool) {
	d, ok := a.data.([]E)
	return d, ok
}

// Attributes is an ordered set of attributes owned by one payload.
type Attributes struct {
	items []Attribute
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return len(a.items)
}

// Lookup returns the attribute with the given name.
func (a *Attributes) Lookup(name string) (Attribute, bool) {
	if i := a.index(name); i >= 0 {
		return a.items[i], true
	}
	return Attribute{}, false
}

// ForEach calls fn for every attribute in insertion order.
func (a *Attributes) ForEach(fn func(Attribute) bool) bool {
	for _, item := range a.items {
		if !fn(item) {
			return false
		}
	}
	return true
}

// Remove deletes the attribute with the given name.
func (a *Attributes) Remove(name string) bool {
	i := a.index(name)
	if i < 0 {
		return false
	}
	a.items = slices.Delete(a.items, i, i+1)
	return true
}

// set adds or replaces an attribute after checking its length.
func (a *Attributes) set(name string, domain Domain, size int, data any) error {
	t, n, ok := dataTypeOf(data)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedData, data)
	}
	if n != size {
		return fmt.Errorf("%w: %q has %d values, %s domain has %d",
			ErrLengthMismatch, name, n, domain, size)
	}
	attr := Attribute{Name: name, Domain: domain, Type: t, data: data}
	if i := a.index(name); i >= 0 {
		a.items[i] = attr
		return nil
	}
	a.items = append(a.items, attr)
	return nil
}

// forWrite returns the backing slice of an attribute for in-place edits.
func (a *Attributes) forWrite(name string) (any, bool) {
	if i := a.index(name); i >= 0 {
		return a.items[i].data, true
	}
	return nil, false
}

func (a *Attributes) index(name string) int {
	return slices.IndexFunc(a.items, func(item Attribute) bool { return item.Name == name })
}

func (a *Attributes) clone() Attributes {
	out := Attributes{items: make([]Attribute, len(a.items))}
	for i, item := range a.items {
		item.data = cloneData(item.data)
		out.items[i] = item
	}
	return out
}

func (a *Attributes) forEachField(fn FieldFunc) bool {
	for _, item := range a.items {
		if !fn(item.Name, FieldMeta{Domain: item.Domain, Type: item.Type}) {
			return false
		}
	}
	return true
}

func dataTypeOf(data any) (DataType, int, bool) {
	switch d := data.(type) {
	case []bool:
		return DataTypeBool, len(d), true
	case []int8:
		return DataTypeInt8, len(d), true
	case [][2]int32:
		return DataTypeInt2, len(d), true
	case []int32:
		return DataTypeInt32, len(d), true
	case []float32:
		return DataTypeFloat, len(d), true
	case []math32.Vector2:
		return DataTypeFloat2, len(d), true
	case []math32.Vector3:
		return DataTypeFloat3, len(d), true
	case [][4]uint8:
		return DataTypeColorByte, len(d), true
	case []math32.Quat:
		return DataTypeQuaternion, len(d), true
	case []math32.Vector4:
		return DataTypeColorFloat, len(d), true
	case []math32.Matrix4:
		return DataTypeFloat4x4, len(d), true
	case []string:
		return DataTypeString, len(d), true
	}
	return 0, 0, false
}

func cloneData(data any) any {
	switch d := data.(type) {
	case []bool:
		return slices.Clone(d)
	case []int8:
		return slices.Clone(d)
	case [][2]int32:
		return slices.Clone(d)
	case []int32:
		return slices.Clone(d)
	case []float32:
		return slices.Clone(d)
	case []math32.Vector2:
		return slices.Clone(d)
	case []math32.Vector3:
		return slices.Clone(d)
	case [][4]uint8:
		return slices.Clone(d)
	case []math32.Quat:
		return slices.Clone(d)
	case []math32.Vector4:
		return slices.Clone(d)
	case []math32.Matrix4:
		return slices.Clone(d)
	case []string:
		return slices.Clone(d)
	}
	panic(fmt.Errorf("%w: %T", ErrUnsupportedData, data))
}
