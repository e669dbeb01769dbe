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
	"context"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// defaultMaxWorkers caps parallel instance modification regardless of
// CPU count.
const defaultMaxWorkers = 8

var tracer = otel.Tracer("geoset.geomset")

// ModifyFunc is called once per set visited by ModifyGeometrySets.
type ModifyFunc func(ctx context.Context, s *Set) error

// ModifyOptions controls how ModifyGeometrySets fans out.
type ModifyOptions struct {
	// MaxWorkers bounds concurrent sub-set tasks per instance level.
	MaxWorkers int

	// Sequential disables parallel dispatch.
	Sequential bool
}

// ModifyOption configures ModifyGeometrySets.
type ModifyOption func(*ModifyOptions)

// DefaultModifyOptions returns options using up to min(NumCPU, 8) workers.
func DefaultModifyOptions() ModifyOptions {
	return ModifyOptions{MaxWorkers: min(runtime.NumCPU(), defaultMaxWorkers)}
}

// WithMaxWorkers sets the worker bound. Values below one are ignored.
func WithMaxWorkers(n int) ModifyOption {
	return func(o *ModifyOptions) {
		if n >= 1 {
			o.MaxWorkers = n
		}
	}
}

// WithSequential disables parallel dispatch.
func WithSequential() ModifyOption {
	return func(o *ModifyOptions) { o.Sequential = true }
}

// WithModifyOptions replaces all options, e.g. with values from config.
func WithModifyOptions(opts ModifyOptions) ModifyOption {
	return func(o *ModifyOptions) {
		*o = opts
		if o.MaxWorkers < 1 {
			o.MaxWorkers = 1
		}
	}
}

func applyModifyOptions(opts []ModifyOption) ModifyOptions {
	options := DefaultModifyOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// pathNode is one ancestor on the current traversal path.
type pathNode struct {
	set *Set

	// instances holds the instance component before and after it was
	// made writable; a reference reaching either is a cycle.
	instances [2]Component
	parent    *pathNode
}

// contains reports whether s is an ancestor. It reads only pointers, so
// it is safe while another worker writes s.
func (p *pathNode) contains(s *Set) bool {
	for n := p; n != nil; n = n.parent {
		if n.set == s {
			return true
		}
	}
	return false
}

// sharesInstances reports whether an ancestor holds inst.
func (p *pathNode) sharesInstances(inst Component) bool {
	if inst == nil {
		return false
	}
	for n := p; n != nil; n = n.parent {
		if n.instances[0] == inst || n.instances[1] == inst {
			return true
		}
	}
	return false
}

func (p *pathNode) names(last string) []string {
	var out []string
	for n := p; n != nil; n = n.parent {
		out = append(out, n.set.name)
	}
	slices.Reverse(out)
	return append(out, last)
}

// ModifyGeometrySets calls fn on this set and on every set nested in its
// instances.
//
// Description:
//
//	fn runs on a set before the traversal descends into it, so fn may
//	add or remove instances. Before descending, the set's instances are
//	made writable, which gives every referenced set a private slot in
//	this tree. When a set references more than one distinct sub-set, the
//	sub-sets are modified concurrently on a bounded errgroup; a single
//	sub-set is modified inline. A sub-set reachable along several paths
//	is modified once.
//
// Inputs:
//
//	ctx - Checked before each set. Must not be nil.
//	fn - Called once per set. May write any component of the set it gets.
//	opts - Worker bound and sequential mode.
//
// Outputs:
//
//	error - The first error from fn, ctx.Err(), or a *CycleError when a
//	        reference leads back to an ancestor.
//
// Thread Safety:
//
//	Requires exclusive access to the tree. fn runs concurrently on
//	distinct sets.
func (s *Set) ModifyGeometrySets(ctx context.Context, fn ModifyFunc, opts ...ModifyOption) error {
	if ctx == nil {
		return ErrNilContext
	}
	start := time.Now()
	ctx, span := tracer.Start(ctx, "geomset.ModifyGeometrySets",
		trace.WithAttributes(
			attribute.String("set", s.name),
		),
	)
	defer span.End()

	options := applyModifyOptions(opts)
	span.SetAttributes(
		attribute.Int("max_workers", options.MaxWorkers),
		attribute.Bool("sequential", options.Sequential),
	)

	m := &modifier{fn: fn, opts: options, done: make(map[*Set]struct{})}
	err := m.visit(ctx, s, nil)
	modifyDuration.Observe(time.Since(start).Seconds())

	span.SetAttributes(attribute.Int("sets_visited", m.visited()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

type modifier struct {
	fn   ModifyFunc
	opts ModifyOptions

	mu   sync.Mutex
	done map[*Set]struct{}
}

// claim reports whether s has not been visited yet and marks it.
func (m *modifier) claim(s *Set) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.done[s]; ok {
		return false
	}
	m.done[s] = struct{}{}
	return true
}

func (m *modifier) visited() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.done)
}

func (m *modifier) visit(ctx context.Context, s *Set, parent *pathNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if parent.contains(s) {
		return &CycleError{Path: parent.names(s.name)}
	}
	// Only the claiming worker may read the slots of s.
	if !m.claim(s) {
		return nil
	}
	if parent.sharesInstances(s.components[KindInstance]) {
		return &CycleError{Path: parent.names(s.name)}
	}
	if err := m.fn(ctx, s); err != nil {
		return err
	}
	if !s.HasInstances() {
		return nil
	}

	node := &pathNode{set: s, parent: parent}
	node.instances[0] = s.components[KindInstance]
	instances := s.InstancesForWrite()
	node.instances[1] = s.components[KindInstance]

	var children []*Set
	instances.ForEachReferencedGeometry(func(child *Set) {
		if !slices.Contains(children, child) {
			children = append(children, child)
		}
	})

	if len(children) <= 1 || m.opts.Sequential {
		modifyDispatch.WithLabelValues("inline").Inc()
		for _, child := range children {
			if err := m.visit(ctx, child, node); err != nil {
				return err
			}
		}
		return nil
	}

	modifyDispatch.WithLabelValues("parallel").Inc()
	slog.Debug("modifying instance references in parallel",
		slog.String("set", s.name),
		slog.Int("references", len(children)),
		slog.Int("max_workers", m.opts.MaxWorkers),
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.MaxWorkers)
	for _, child := range children {
		g.Go(func() error {
			return m.visit(gctx, child, node)
		})
	}
	return g.Wait()
}

// GatherComponentKinds returns the kinds present in this set, in first
// seen order.
//
// Inputs:
//
//	includeInstances - Also walk into referenced sets.
//	ignoreEmpty - Skip occupied slots whose component is empty.
func (s *Set) GatherComponentKinds(includeInstances, ignoreEmpty bool) []Kind {
	var kinds []Kind
	s.walk(includeInstances, func(set *Set) {
		for _, c := range set.components {
			if c == nil || (ignoreEmpty && c.IsEmpty()) {
				continue
			}
			if !slices.Contains(kinds, c.Kind()) {
				kinds = append(kinds, c.Kind())
			}
		}
	})
	return kinds
}

// walk calls fn on s and, if recursive, on every referenced set once.
func (s *Set) walk(recursive bool, fn func(*Set)) {
	visited := make(map[*Set]struct{})
	var visit func(*Set)
	visit = func(set *Set) {
		if _, ok := visited[set]; ok {
			return
		}
		visited[set] = struct{}{}
		fn(set)
		if !recursive {
			return
		}
		if in := set.Instances(); in != nil {
			in.ForEachReferencedGeometry(visit)
		}
	}
	visit(s)
}

// CheckAcyclic returns a *CycleError if an instance reference leads back
// to one of its ancestors.
func (s *Set) CheckAcyclic() error {
	onPath := make(map[*Set]bool)
	finished := make(map[*Set]bool)
	var path []string
	var visit func(*Set) error
	visit = func(set *Set) error {
		if onPath[set] {
			return &CycleError{Path: append(slices.Clone(path), set.name)}
		}
		if finished[set] {
			return nil
		}
		onPath[set] = true
		path = append(path, set.name)
		if in := set.Instances(); in != nil {
			for _, r := range in.References() {
				if r.geometry == nil {
					continue
				}
				if err := visit(r.geometry); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		onPath[set] = false
		finished[set] = true
		return nil
	}
	return visit(s)
}

// OwnsAllData reports whether this set and every referenced set own their
// storage.
func (s *Set) OwnsAllData() bool {
	owns := true
	s.walk(true, func(set *Set) {
		owns = owns && set.OwnsDirectData()
	})
	return owns
}

// EnsureOwnsAllData makes this set and every referenced set own their
// storage. Shared components are cloned where a copy is needed.
func (s *Set) EnsureOwnsAllData(ctx context.Context, opts ...ModifyOption) error {
	return s.ModifyGeometrySets(ctx, func(_ context.Context, set *Set) error {
		set.EnsureOwnsDirectData()
		return nil
	}, opts...)
}
