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
	"log/slog"
	"slices"
)

// Set is the geometry container exchanged between pipeline stages.
//
// Description:
//
//	A Set has one slot per Kind. Copy is shallow: the copy shares every
//	component and each component gains a user. GetComponentForWrite is
//	the only way to get a writable component; it clones shared components
//	first, so writes through one Set never show through another.
//
//	Instances components reference nested Sets, so a Set is the root of a
//	tree. Recursive operations walk into those references.
//
//	The zero value is an empty, usable Set.
//
// Lifecycle:
//
//	Clear drops this Set's users. A Set that is simply dropped keeps its
//	users counted, which makes later writes through other Sets clone
//	where they could have written in place; it never causes sharing bugs.
//
// Thread Safety:
//
//	Read methods are safe for concurrent use. Methods that change slots
//	require exclusive access to the Set. Distinct Sets that share
//	components may be written concurrently.
type Set struct {
	components [numKinds]Component
	name       string
}

// NewSet returns an empty set with a debug name.
func NewSet(name string) *Set {
	return &Set{name: name}
}

// Name returns the debug name.
func (s *Set) Name() string { return s.name }

// SetName sets the debug name.
func (s *Set) SetName(name string) { s.name = name }

// Copy returns a shallow copy sharing every component.
func (s *Set) Copy() *Set {
	out := &Set{name: s.name}
	for i, c := range s.components {
		if c != nil {
			c.base().addUser()
			out.components[i] = c
		}
	}
	return out
}

// Clear removes every component.
func (s *Set) Clear() {
	for i, c := range s.components {
		if c != nil {
			s.components[i] = nil
			c.Release()
		}
	}
}

// IsEmpty reports whether no slot holds a non-empty component.
func (s *Set) IsEmpty() bool {
	for _, c := range s.components {
		if c != nil && !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Has reports whether the slot holds a non-empty component.
func (s *Set) Has(kind Kind) bool {
	kind.mustValid()
	c := s.components[kind]
	return c != nil && !c.IsEmpty()
}

// GetComponent returns the slot's component for reading, or nil. It never
// copies; the component may be shared.
func (s *Set) GetComponent(kind Kind) Component {
	kind.mustValid()
	return s.components[kind]
}

// GetComponentForWrite returns a component of the given kind that only
// this Set references.
//
// Description:
//
//	Empty slot: a new empty component is created. Unique component: it
//	is returned as is. Shared component: the slot is replaced with a
//	clone and the original loses this Set's user.
//
// Outputs:
//
//	Component - Never nil. Its payload may still be nil for a new
//	            component.
//
// Thread Safety:
//
//	Requires exclusive access to this Set.
func (s *Set) GetComponentForWrite(kind Kind) Component {
	kind.mustValid()
	c := s.components[kind]
	if c == nil {
		c = NewComponent(kind)
		s.components[kind] = c
		return c
	}
	if c.IsMutable() {
		c.TagEnsuredMutable()
		componentInPlaceWrites.WithLabelValues(kind.String()).Inc()
		return c
	}
	clone := c.Clone()
	s.components[kind] = clone
	c.Release()
	componentClones.WithLabelValues(kind.String()).Inc()
	slog.Debug("cloned shared component for write",
		slog.String("set", s.name),
		slog.String("kind", kind.String()),
		slog.Int("remaining_users", c.Users()),
	)
	return clone
}

// Add puts c into its empty slot and counts this Set as a user of c.
// The caller keeps its own handle and releases it when done.
func (s *Set) Add(c Component) {
	kind := c.Kind()
	kind.mustValid()
	if s.components[kind] != nil {
		panic(fmt.Errorf("%w: %s", ErrSlotOccupied, kind))
	}
	c.base().addUser()
	s.components[kind] = c
}

// Remove clears one slot. It reports whether the slot was occupied.
func (s *Set) Remove(kind Kind) bool {
	kind.mustValid()
	c := s.components[kind]
	if c == nil {
		return false
	}
	s.components[kind] = nil
	c.Release()
	return true
}

// KeepOnly removes every component whose kind is not listed.
func (s *Set) KeepOnly(kinds ...Kind) {
	var keep [numKinds]bool
	for _, k := range kinds {
		k.mustValid()
		keep[k] = true
	}
	for i := range s.components {
		if !keep[i] {
			s.Remove(Kind(i))
		}
	}
}

// KeepOnlyDuringModify is KeepOnly that also keeps instances and edit
// data, which operations must carry through untouched.
func (s *Set) KeepOnlyDuringModify(kinds ...Kind) {
	s.KeepOnly(append(slices.Clone(kinds), KindInstance, KindEdit)...)
}

// RemoveGeometryDuringModify removes all realized geometry.
func (s *Set) RemoveGeometryDuringModify() {
	s.KeepOnlyDuringModify()
}

// Components returns the occupied slots in kind order.
func (s *Set) Components() []Component {
	var out []Component
	for _, c := range s.components {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// HasRealizedData reports whether any geometry kind holds data.
func (s *Set) HasRealizedData() bool {
	for _, k := range RealizedKinds() {
		if s.Has(k) {
			return true
		}
	}
	return false
}

// HasInstances reports whether the set places any instances.
func (s *Set) HasInstances() bool {
	return s.Has(KindInstance)
}

// OwnsDirectData reports whether every component owns its storage. Nested
// sets are not checked; see OwnsAllData.
func (s *Set) OwnsDirectData() bool {
	for _, c := range s.components {
		if c != nil && !c.OwnsDirectData() {
			return false
		}
	}
	return true
}

// EnsureOwnsDirectData makes every component own its storage, cloning
// shared components that need a copy.
func (s *Set) EnsureOwnsDirectData() {
	for i, c := range s.components {
		if c == nil || c.OwnsDirectData() {
			continue
		}
		s.GetComponentForWrite(Kind(i)).EnsureOwnsDirectData()
	}
}
