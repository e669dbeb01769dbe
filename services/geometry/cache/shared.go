// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// sharedData is the allocation shared between Shared handles.
type sharedData[T any] struct {
	guard Guard
	value T

	// users counts the Shared handles pointing at this allocation.
	users atomic.Int32
}

func newSharedData[T any](value T) *sharedData[T] {
	d := &sharedData[T]{value: value}
	d.users.Store(1)
	return d
}

// Shared is a lazily computed value that can be shared between copies.
//
// Description:
//
//	Shared wraps a Guard and its value behind a reference counted handle.
//	Copying a handle is O(1) and the copy sees everything the original
//	computed. The first handle that invalidates a shared allocation
//	detaches: it gets a private allocation and leaves its siblings
//	pointing at the old one, still valid.
//
//	The allocation exists from construction on, so payloads can share a
//	cache before anything has been computed into it.
//
// Usage:
//
//	bounds := cache.NewShared[Bounds]("mesh.bounds")
//	bounds.Ensure(func(b *Bounds) { *b = computeBounds(positions) })
//	b := bounds.Data()
//
//	clone := bounds.Copy()      // shares the computed bounds
//	clone.TagDirty()            // clone detaches, bounds stays valid
//
// Thread Safety:
//
//	Ensure, Data, IsCached and IsDirty may be called concurrently on the
//	same handle. TagDirty, Update and Release rebind the handle and
//	require that no other goroutine uses this handle at the same time.
type Shared[T any] struct {
	_ noCopy

	data  *sharedData[T]
	clone func(T) T
	name  string
}

// NewShared creates a dirty cache holding the zero value of T.
//
// Inputs:
//
//	name - Label used for metrics and debug logging (e.g. "mesh.bounds").
//
// Outputs:
//
//	*Shared[T] - Handle with one user. Never nil.
func NewShared[T any](name string) *Shared[T] {
	return NewSharedWithClone[T](name, nil)
}

// NewSharedWithClone creates a dirty cache with a custom clone function.
//
// Description:
//
//	Update on a shared allocation copies the current value before
//	recomputing. The default copy is a plain value copy, which aliases
//	anything T points to. Values holding pointers, maps or mutable
//	containers must supply clone so the detached copy can be revised
//	without corrupting siblings.
//
// Inputs:
//
//	name - Label used for metrics and debug logging.
//	clone - Returns an independent copy of a value. Nil means value copy.
func NewSharedWithClone[T any](name string, clone func(T) T) *Shared[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	var zero T
	return &Shared[T]{
		data:  newSharedData(zero),
		clone: clone,
		name:  name,
	}
}

// Name returns the label the cache was created with.
func (s *Shared[T]) Name() string {
	return s.name
}

// Copy returns a new handle sharing this handle's allocation.
func (s *Shared[T]) Copy() *Shared[T] {
	d := s.live()
	d.users.Add(1)
	return &Shared[T]{
		data:  d,
		clone: s.clone,
		name:  s.name,
	}
}

// Release drops this handle's reference to the allocation.
//
// The handle must not be used afterwards. Releasing twice is a no-op.
func (s *Shared[T]) Release() {
	if s.data == nil {
		return
	}
	s.data.users.Add(-1)
	s.data = nil
}

// IsShared reports whether another handle points at the same allocation.
func (s *Shared[T]) IsShared() bool {
	return s.live().users.Load() > 1
}

// SharesWith reports whether both handles point at the same allocation.
func (s *Shared[T]) SharesWith(other *Shared[T]) bool {
	return other != nil && s.data != nil && s.data == other.data
}

// Ensure computes the value if it is dirty.
//
// Description:
//
//	Delegates to the allocation's Guard. compute writes into the shared
//	value in place; every handle sharing the allocation observes the
//	result. See Guard.Ensure for the concurrency contract.
//
// Thread Safety:
//
//	Safe for concurrent use, including from handles sharing the allocation.
func (s *Shared[T]) Ensure(compute func(*T)) {
	d := s.live()
	if d.guard.IsCached() {
		return
	}
	s.ensureData(d, compute)
}

// TagDirty invalidates this handle's view of the value.
//
// Description:
//
//	If this handle is the only user, the guard is marked dirty in place.
//	Otherwise the handle detaches to a fresh, dirty allocation holding the
//	zero value, and siblings keep their cached value.
//
// Thread Safety:
//
//	Requires exclusive access to this handle.
func (s *Shared[T]) TagDirty() {
	d := s.live()
	if d.users.Load() == 1 {
		d.guard.TagDirty()
		return
	}
	var zero T
	s.rebind(d, newSharedData(zero), "tag_dirty")
}

// Update re-derives the value starting from the current one.
//
// Description:
//
//	For changes known to be local, recomputing from scratch is wasteful.
//	Update hands compute the previous value so it can revise it.
//
//	Sole user: the guard is tagged dirty and compute runs on the existing
//	allocation.
//
//	Shared: the current value is cloned while holding the old
//	allocation's compute mutex, so the copy never observes a sibling's
//	half-finished compute. The handle then detaches to the copy and
//	compute runs on it. Siblings are unaffected.
//
// Inputs:
//
//	compute - Revises the value in place. The starting value is whatever
//	          the allocation held, which is the zero value if it was never
//	          computed.
//
// Thread Safety:
//
//	Requires exclusive access to this handle. Concurrent Update calls on
//	different handles of one allocation each detach independently; the
//	clones are serialized by the old allocation's mutex.
func (s *Shared[T]) Update(compute func(*T)) {
	d := s.live()
	if d.users.Load() == 1 {
		d.guard.TagDirty()
		s.ensureData(d, compute)
		return
	}
	var snapshot T
	d.guard.lockForUpdate(func() {
		snapshot = s.clone(d.value)
	})
	fresh := newSharedData(snapshot)
	s.rebind(d, fresh, "update")
	s.ensureData(fresh, compute)
}

// Data returns the cached value.
//
// Description:
//
//	The caller must have called Ensure or Update before. Reading a dirty
//	value is a contract violation; builds with the geoset_debug tag panic
//	with ErrReadDirtyCache, other builds return whatever is stored.
//	The returned value must be treated as read-only.
//
// Thread Safety:
//
//	Lock-free and allocation-free. Safe for concurrent use.
func (s *Shared[T]) Data() T {
	d := s.live()
	if debugAssertions && d.guard.IsDirty() {
		panic(fmt.Errorf("%w: %s", ErrReadDirtyCache, s.name))
	}
	return d.value
}

// IsCached reports whether the value is valid. Advisory only.
func (s *Shared[T]) IsCached() bool {
	return s.live().guard.IsCached()
}

// IsDirty reports whether the value needs computing. Advisory only.
func (s *Shared[T]) IsDirty() bool {
	return s.live().guard.IsDirty()
}

// ensureData runs compute through d's guard and records the compute.
func (s *Shared[T]) ensureData(d *sharedData[T], compute func(*T)) {
	d.guard.Ensure(func() {
		start := time.Now()
		compute(&d.value)
		recordCompute(s.name, time.Since(start))
	})
}

// rebind moves the handle from old to fresh.
func (s *Shared[T]) rebind(old, fresh *sharedData[T], reason string) {
	old.users.Add(-1)
	s.data = fresh
	recordDetach(s.name, reason)
	slog.Debug("shared cache detached",
		slog.String("cache", s.name),
		slog.String("reason", reason),
	)
}

func (s *Shared[T]) live() *sharedData[T] {
	if s.data == nil {
		panic(fmt.Errorf("%w: %s", ErrReleasedHandle, s.name))
	}
	return s.data
}

// noCopy lets go vet's copylocks check flag handles copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
