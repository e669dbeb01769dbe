// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the lazy caching primitives used by geometry payloads.
//
// The package implements two layers:
//   - Guard: a compute-once-until-invalidated lock protecting one value
//     that is stored outside of the guard.
//   - Shared: a Guard plus its value behind a reference counted handle,
//     so copies of a payload can share derived data until one of them
//     invalidates it.
//
// # Design Principles
//
// Derived data (bounds, triangulations, sorted indices) is always
// rebuildable from the canonical payload data. Caches are a performance
// optimization, never a source of truth.
//
// # Thread Safety
//
// Guard is safe for concurrent use. A Shared handle may be read
// (Ensure, Data) from many goroutines at once, but invalidation
// (TagDirty, Update, Release) requires exclusive access to that handle.
// Other handles sharing the same allocation are never affected by it.
package cache

import (
	"errors"
)

// Sentinel errors for cache operations.
//
// These are used as panic values: they describe violations of the cache
// contract, not recoverable runtime conditions.
var (
	// ErrReadDirtyCache is raised when Data is called on a cache that has
	// not been ensured. Only checked in builds with the geoset_debug tag.
	ErrReadDirtyCache = errors.New("cache read before ensure")

	// ErrReleasedHandle is raised when a released handle is used again.
	ErrReleasedHandle = errors.New("cache handle already released")
)
