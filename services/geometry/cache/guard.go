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
	"sync"
	"sync/atomic"
)

// Guard protects a single lazily computed value stored outside of it.
//
// Description:
//
//	Guard is the compute-once-until-invalidated primitive. The guarded
//	value lives next to the guard (usually in the same struct); the guard
//	only tracks whether that value is valid and serializes its
//	computation. The zero value is dirty and ready to use.
//
// Memory Ordering:
//
//	The validity flag is an atomic.Bool. Storing true after compute and
//	loading it on the fast path gives every caller that observes a valid
//	guard a happens-before edge to the writes made by compute.
//
// Limitations:
//
//	Calling Ensure on the same guard from inside its own compute
//	function deadlocks. Compute functions that fan out to goroutines must
//	not route those goroutines back into the same guard.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Guard must not be copied
//	after first use.
type Guard struct {
	valid atomic.Bool
	mu    sync.Mutex
}

// Ensure runs compute if the guarded value is dirty.
//
// Description:
//
//	Fast path: one atomic load, no lock. Slow path: takes the mutex,
//	re-checks validity (a concurrent caller may have finished computing
//	while this one waited), runs compute at most once and publishes the
//	value as valid. When Ensure returns, the value is fully computed
//	regardless of which caller computed it.
//
// Inputs:
//
//	compute - Writes the guarded value. Must not fail; failures belong in
//	          the value itself (an empty or error variant).
//
// Behavior:
//
//	If compute panics, the mutex is released, the guard stays dirty and
//	the panic propagates. The next Ensure recomputes.
//
// Thread Safety:
//
//	Safe for concurrent use. At most one compute runs at a time.
func (g *Guard) Ensure(compute func()) {
	if g.valid.Load() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.valid.Load() {
		return
	}
	compute()
	g.valid.Store(true)
}

// TagDirty marks the guarded value invalid.
//
// An Ensure that is already computing is not cancelled; it finishes and
// marks the value valid. Later Ensure calls recompute only if TagDirty is
// observed after that point.
func (g *Guard) TagDirty() {
	g.valid.Store(false)
}

// IsDirty reports whether the value needs computing. Advisory only.
func (g *Guard) IsDirty() bool {
	return !g.valid.Load()
}

// IsCached reports whether the value is valid. Advisory only.
func (g *Guard) IsCached() bool {
	return g.valid.Load()
}

// lockForUpdate holds the compute mutex for the duration of fn.
//
// Used by Shared.Update so that copying a value out of a shared
// allocation cannot interleave with a sibling's in-flight compute.
func (g *Guard) lockForUpdate(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}
