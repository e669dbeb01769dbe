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
	"sync/atomic"
)

// Ownership says whether a component owns its payload.
type Ownership uint8

const (
	// Owned payloads belong to the component and may be edited in place
	// once the component is unique.
	Owned Ownership = iota

	// ReadOnly payloads are borrowed. The caller keeps them alive and the
	// component copies them before the first write.
	ReadOnly
)

func (o Ownership) String() string {
	if o == ReadOnly {
		return "read-only"
	}
	return "owned"
}

// Component is one kind of payload plus its sharing state.
//
// Description:
//
//	The set of implementations is closed: MeshComponent, CurveComponent,
//	PointCloudComponent, VolumeComponent, InstancesComponent and
//	EditDataComponent. Code that needs the payload switches on Kind and
//	asserts the concrete type.
//
//	A component counts its users: every Set slot holding it and the
//	handle returned by its constructor. With one user it is uniquely
//	owned and may be written in place. With more it must be cloned first,
//	which Set.GetComponentForWrite does. When the count reaches zero the
//	payload is dropped and the component must not be used again.
//
// Thread Safety:
//
//	Read methods are safe for concurrent use. Write access requires unique
//	ownership, which replaces locking.
type Component interface {
	// Kind returns the slot this component belongs in.
	Kind() Kind

	// Users returns the current user count.
	Users() int

	// IsMutable reports whether this is the only user.
	IsMutable() bool

	// TagEnsuredMutable records that unique ownership has been confirmed
	// and payload writes may start.
	TagEnsuredMutable()

	// Clone returns an independent copy with one user. Derived-data
	// caches stay shared with the original until either side invalidates
	// them.
	Clone() Component

	// IsEmpty reports whether the payload has no elements on any domain.
	IsEmpty() bool

	// ElementCount returns the number of elements on a domain, or zero if
	// the payload does not have that domain.
	ElementCount(domain Domain) int

	// ForEachField enumerates named per-element fields. It returns false
	// if fn stopped the enumeration.
	ForEachField(fn FieldFunc) bool

	// OwnsDirectData reports whether the payload owns its storage.
	OwnsDirectData() bool

	// EnsureOwnsDirectData copies or loads borrowed storage. The
	// component must be mutable.
	EnsureOwnsDirectData()

	// Release drops one user.
	Release()

	base() *componentBase
}

// dropper frees a component's payload once its last user is gone.
type dropper interface {
	dropPayload()
}

// componentBase carries the user count shared by every component kind.
type componentBase struct {
	kind      Kind
	users     atomic.Int32
	ensured   atomic.Bool
	destroyed atomic.Bool
	owner     dropper
}

func (b *componentBase) init(kind Kind, owner dropper) {
	b.kind = kind
	b.owner = owner
	b.users.Store(1)
	b.ensured.Store(true)
}

func (b *componentBase) base() *componentBase { return b }

func (b *componentBase) Kind() Kind { return b.kind }

func (b *componentBase) Users() int { return int(b.users.Load()) }

func (b *componentBase) IsMutable() bool { return b.users.Load() == 1 }

func (b *componentBase) TagEnsuredMutable() {
	b.checkAlive()
	b.ensured.Store(true)
}

// Release drops one user and destroys the payload with the last one.
func (b *componentBase) Release() {
	switch n := b.users.Add(-1); {
	case n == 0:
		b.destroyed.Store(true)
		b.owner.dropPayload()
	case n < 0:
		panic(fmt.Errorf("%w: %s released too often", ErrDestroyedComponent, b.kind))
	}
}

func (b *componentBase) addUser() {
	b.checkAlive()
	b.users.Add(1)
	b.ensured.Store(false)
}

func (b *componentBase) checkAlive() {
	if b.destroyed.Load() {
		panic(fmt.Errorf("%w: %s", ErrDestroyedComponent, b.kind))
	}
}

// requireWritable panics unless the component is unique and that has
// been confirmed through TagEnsuredMutable.
func (b *componentBase) requireWritable() {
	b.checkAlive()
	if b.users.Load() != 1 || !b.ensured.Load() {
		panic(fmt.Errorf("%w: %s has %d users", ErrSharedWrite, b.kind, b.users.Load()))
	}
}

// holder stores a payload pointer with its ownership mode.
type holder[P any] struct {
	data      *P
	ownership Ownership
}

func (h *holder[P]) forWrite(clone func(*P) *P) *P {
	if h.data == nil {
		return nil
	}
	if h.ownership == ReadOnly {
		h.data = clone(h.data)
		h.ownership = Owned
	}
	return h.data
}

func (h *holder[P]) replace(p *P, ownership Ownership) {
	h.data = p
	h.ownership = ownership
}

// take hands the payload to the caller, copying it if it was borrowed.
func (h *holder[P]) take(clone func(*P) *P) *P {
	p := h.forWrite(clone)
	h.data = nil
	h.ownership = Owned
	return p
}

func (h *holder[P]) ownsDirectData() bool {
	return h.data == nil || h.ownership == Owned
}

// NewComponent returns an empty component of the given kind with one user.
func NewComponent(kind Kind) Component {
	kind.mustValid()
	switch kind {
	case KindMesh:
		return NewMeshComponent(nil, Owned)
	case KindCurve:
		return NewCurveComponent(nil, Owned)
	case KindPointCloud:
		return NewPointCloudComponent(nil, Owned)
	case KindVolume:
		return NewVolumeComponent(nil, Owned)
	case KindInstance:
		return NewInstancesComponent(nil, Owned)
	default:
		return NewEditDataComponent(nil, Owned)
	}
}

// componentAs asserts that c has the concrete type C.
func componentAs[C Component](c Component, kind Kind) C {
	out, ok := c.(C)
	if !ok {
		panic(fmt.Errorf("%w: slot %s holds %T", ErrKindMismatch, kind, c))
	}
	return out
}
