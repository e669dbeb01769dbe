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
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recoverError runs fn and returns the error it panicked with, if any.
func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			}
		}
	}()
	fn()
	return nil
}

func TestShared_NewIsDirty(t *testing.T) {
	c := NewShared[int]("test")

	assert.True(t, c.IsDirty())
	assert.False(t, c.IsShared())
	assert.Equal(t, "test", c.Name())
}

func TestShared_CopySeesComputedValue(t *testing.T) {
	c1 := NewShared[int]("test")
	c2 := c1.Copy()
	calls := 0

	c2.Ensure(func(v *int) {
		calls++
		*v = 5
	})

	assert.True(t, c1.IsCached(), "copies share the allocation")
	assert.Equal(t, 5, c1.Data())

	c1.Ensure(func(v *int) { calls++ })
	assert.Equal(t, 1, calls)
	assert.True(t, c1.SharesWith(c2))
}

// TestShared_DetachOnInvalidate verifies that invalidating one copy never
// invalidates another.
func TestShared_DetachOnInvalidate(t *testing.T) {
	c1 := NewShared[int]("test")
	c1.Ensure(func(v *int) { *v = 1 })
	c2 := c1.Copy()

	c2.TagDirty()
	assert.False(t, c1.SharesWith(c2))
	assert.True(t, c2.IsDirty())
	assert.True(t, c1.IsCached())

	c2.Ensure(func(v *int) {
		assert.Equal(t, 0, *v, "detached allocation starts from the zero value")
		*v = 2
	})

	assert.Equal(t, 1, c1.Data())
	assert.Equal(t, 2, c2.Data())
	assert.False(t, c1.IsShared())
	assert.False(t, c2.IsShared())
}

func TestShared_TagDirtySoleOwnerStaysInPlace(t *testing.T) {
	c := NewShared[int]("test")
	c.Ensure(func(v *int) { *v = 3 })
	before := c.data

	c.TagDirty()

	assert.Same(t, before, c.data)
	assert.True(t, c.IsDirty())
}

func TestShared_UpdateSoleOwner(t *testing.T) {
	c := NewShared[int]("test")
	c.Ensure(func(v *int) { *v = 10 })
	before := c.data

	c.Update(func(v *int) { *v += 1 })

	assert.Same(t, before, c.data)
	assert.Equal(t, 11, c.Data())
	assert.True(t, c.IsCached())
}

func TestShared_UpdateSharedCopiesValue(t *testing.T) {
	c1 := NewSharedWithClone[[]int]("test", slices.Clone[[]int])
	c1.Ensure(func(v *[]int) { *v = []int{1, 2, 3} })
	c2 := c1.Copy()

	c2.Update(func(v *[]int) {
		require.Equal(t, []int{1, 2, 3}, *v, "update starts from the previous value")
		(*v)[0] = 9
	})

	assert.Equal(t, []int{1, 2, 3}, c1.Data())
	assert.Equal(t, []int{9, 2, 3}, c2.Data())
	assert.False(t, c1.SharesWith(c2))
	assert.True(t, c1.IsCached())
}

func TestShared_ConcurrentEnsureAcrossCopies(t *testing.T) {
	c1 := NewShared[int]("test")
	handles := []*Shared[int]{c1, c1.Copy(), c1.Copy()}
	var calls atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		h := handles[i%len(handles)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			h.Ensure(func(v *int) {
				calls.Add(1)
				*v = 99
			})
			assert.Equal(t, 99, h.Data())
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestShared_ConcurrentUpdateOnSharedAllocation(t *testing.T) {
	base := NewShared[int]("test")
	base.Ensure(func(v *int) { *v = 100 })

	copies := make([]*Shared[int], 8)
	for i := range copies {
		copies[i] = base.Copy()
	}

	var wg sync.WaitGroup
	for i, h := range copies {
		wg.Add(1)
		go func(i int, h *Shared[int]) {
			defer wg.Done()
			h.Update(func(v *int) { *v += i })
		}(i, h)
	}
	wg.Wait()

	assert.Equal(t, 100, base.Data())
	for i, h := range copies {
		assert.Equal(t, 100+i, h.Data())
		assert.False(t, h.SharesWith(base))
	}
}

func TestShared_Release(t *testing.T) {
	c1 := NewShared[int]("released")
	c2 := c1.Copy()
	require.True(t, c1.IsShared())

	c2.Release()
	c2.Release()

	assert.False(t, c1.IsShared())

	err := recoverError(func() { c2.Ensure(func(*int) {}) })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReleasedHandle))
}
