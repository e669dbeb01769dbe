// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package geomset provides the copy-on-write geometry set.
//
// A Set holds at most one Component per Kind. Copying a Set is shallow:
// both copies share the same components and every component counts its
// users. Asking for write access to a shared component replaces the slot
// with a clone first, so a write through one Set is never observed
// through another.
//
// Payloads memoize derived data (bounds, triangulations, indices) in
// cache.Shared handles. A component clone keeps sharing those caches with
// the original until one side invalidates them.
package geomset

import (
	"errors"
	"fmt"
	"strings"
)

// Programming errors. These are raised with panic, wrapped with context,
// and must never be recovered from: they mean the ownership invariants
// have already been broken.
var (
	// ErrInvalidKind indicates a Kind outside the closed kind set.
	ErrInvalidKind = errors.New("invalid component kind")

	// ErrSlotOccupied indicates Add was called on an occupied slot.
	ErrSlotOccupied = errors.New("component slot already occupied")

	// ErrDestroyedComponent indicates use of a component whose last user
	// released it.
	ErrDestroyedComponent = errors.New("component already destroyed")

	// ErrKindMismatch indicates a component stored under the wrong kind.
	ErrKindMismatch = errors.New("component kind mismatch")

	// ErrSharedWrite indicates payload write access through a component
	// that was not made unique with GetComponentForWrite.
	ErrSharedWrite = errors.New("write through a shared component")
)

// Validation errors returned by payload setters.
var (
	// ErrLengthMismatch indicates attribute data whose length does not
	// match the element count of its domain.
	ErrLengthMismatch = errors.New("attribute length does not match domain size")

	// ErrUnsupportedData indicates attribute data of an unsupported Go type.
	ErrUnsupportedData = errors.New("unsupported attribute data type")

	// ErrInvalidDomain indicates a domain the payload does not have.
	ErrInvalidDomain = errors.New("domain not supported by payload")

	// ErrInvalidTopology indicates offsets or indices out of range.
	ErrInvalidTopology = errors.New("invalid topology")
)

// Errors returned by traversals or recorded in computed values.
var (
	// ErrNilContext indicates a nil context passed to a traversal.
	ErrNilContext = errors.New("context must not be nil")

	// ErrInstanceCycle indicates an instance reference that leads back to
	// one of its ancestors.
	ErrInstanceCycle = errors.New("instance reference cycle")

	// ErrDegenerateFace is recorded in a Triangulation for faces with
	// fewer than three corners.
	ErrDegenerateFace = errors.New("degenerate face")

	// ErrGridLoad is recorded on a Volume whose grids could not be loaded.
	ErrGridLoad = errors.New("volume grid load failed")
)

// CycleError reports the chain of set names that forms an instance cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInstanceCycle.Error(), strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrInstanceCycle
}
