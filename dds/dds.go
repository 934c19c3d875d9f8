// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dds implements the Distributed Data Structure: any number of
// pool.Backend partial pools, routed through a pluggable Balancer, with a
// two-phase linearizable emptiness check on Get.
//
// Grounded on original_source's distributed_data_structure.h and the
// balancer_*.h family.
package dds

import (
	"sync"

	"code.hybscloud.com/scal/pool"
)

type options struct {
	nonLinearizableEmpty bool
}

// Option configures a DDS or DynamicDDS at construction.
type Option func(*options)

// NonLinearizableEmpty makes Get return ErrWouldBlock as soon as a single
// round over every backend finds nothing, skipping the second-round
// put-state re-check. This trades the linearizability of Get's emptiness
// observation for fewer backend probes, matching the original's
// NON_LINEARIZABLE_EMPTY build flag.
func NonLinearizableEmpty() Option {
	return func(o *options) { o.nonLinearizableEmpty = true }
}

// DDS shards a pool across a fixed set of backends, chosen per-call by a
// Balancer.
type DDS[T any, S comparable] struct {
	backends []pool.Backend[T, S]
	balancer Balancer
	opts     options
}

// New constructs a DDS over the given backends.
func New[T any, S comparable](backends []pool.Backend[T, S], balancer Balancer, opts ...Option) *DDS[T, S] {
	if len(backends) == 0 {
		panic("dds: at least one backend is required")
	}
	d := &DDS[T, S]{backends: backends, balancer: balancer}
	for _, o := range opts {
		o(&d.opts)
	}
	return d
}

// Put routes item to the backend chosen by the balancer's PutID.
func (d *DDS[T, S]) Put(item T) error {
	idx := d.balancer.PutID(len(d.backends))
	return d.backends[idx].Put(item)
}

// Get performs the two-phase linearizable emptiness check: a first round
// calls GetReturnPutState on every backend starting from the balancer's
// GetID in cyclic order. If every backend in that round was empty, Get
// re-checks each backend's PutState against the token recorded during the
// first round; if any backend's state moved, the scan restarts from that
// backend. Get returns ErrWouldBlock only once a full second pass confirms
// no backend's state changed since it was observed empty.
func (d *DDS[T, S]) Get() (T, error) {
	n := len(d.backends)
	start := d.balancer.GetID(n)
	tails := make([]S, n)
outer:
	for {
		for i := 0; i < n; i++ {
			idx := (start + i) % n
			item, state, ok := d.backends[idx].GetReturnPutState()
			if ok {
				return item, nil
			}
			tails[idx] = state
		}
		if d.opts.nonLinearizableEmpty {
			var zero T
			return zero, pool.ErrWouldBlock
		}
		for i := 0; i < n; i++ {
			idx := (start + i) % n
			if d.backends[idx].PutState() != tails[idx] {
				start = idx
				continue outer
			}
			if (idx+1)%n == start {
				var zero T
				return zero, pool.ErrWouldBlock
			}
		}
	}
}

// BackendFactory constructs a fresh, empty backend for DynamicDDS to add
// to its pool.
type BackendFactory[T any, S comparable] func() pool.Backend[T, S]

// DynamicDDS is a DDS whose backend set can grow at runtime. Growth takes
// a write lock briefly; every other operation only takes a read lock to
// snapshot the current backend slice, so Put/Get throughput is unaffected
// once registration is quiescent.
//
// A generation counter detects a Get whose scan straddles a concurrent
// Grow: rather than reason about a backend list that changed mid-scan, an
// affected Get simply restarts against a fresh snapshot.
type DynamicDDS[T any, S comparable] struct {
	mu         sync.RWMutex
	backends   []pool.Backend[T, S]
	generation uint64
	balancer   Balancer
	factory    BackendFactory[T, S]
	opts       options
}

// NewDynamic constructs a DynamicDDS with an initial set of numBackends
// backends produced by factory.
func NewDynamic[T any, S comparable](numBackends int, factory BackendFactory[T, S], balancer Balancer, opts ...Option) *DynamicDDS[T, S] {
	if numBackends <= 0 {
		panic("dds: numBackends must be positive")
	}
	backends := make([]pool.Backend[T, S], numBackends)
	for i := range backends {
		backends[i] = factory()
	}
	d := &DynamicDDS[T, S]{backends: backends, balancer: balancer, factory: factory}
	for _, o := range opts {
		o(&d.opts)
	}
	return d
}

// Grow adds n freshly constructed backends to the pool.
func (d *DynamicDDS[T, S]) Grow(n int) {
	if n <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	grown := make([]pool.Backend[T, S], len(d.backends), len(d.backends)+n)
	copy(grown, d.backends)
	for i := 0; i < n; i++ {
		grown = append(grown, d.factory())
	}
	d.backends = grown
	d.generation++
}

// NumBackends returns the current backend count.
func (d *DynamicDDS[T, S]) NumBackends() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.backends)
}

func (d *DynamicDDS[T, S]) snapshot() ([]pool.Backend[T, S], uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.backends, d.generation
}

func (d *DynamicDDS[T, S]) currentGeneration() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generation
}

// Put routes item to the backend chosen by the balancer's PutID, against
// the current backend snapshot.
func (d *DynamicDDS[T, S]) Put(item T) error {
	backends, _ := d.snapshot()
	idx := d.balancer.PutID(len(backends))
	return backends[idx].Put(item)
}

// Get performs the same two-phase emptiness check as DDS.Get, restarting
// with a fresh backend snapshot if a Grow is observed to have occurred
// mid-scan.
func (d *DynamicDDS[T, S]) Get() (T, error) {
	for {
		backends, gen := d.snapshot()
		n := len(backends)
		start := d.balancer.GetID(n)
		tails := make([]S, n)
		item, err, stale := d.scanOnce(backends, gen, start, tails)
		if stale {
			continue
		}
		return item, err
	}
}

func (d *DynamicDDS[T, S]) scanOnce(backends []pool.Backend[T, S], gen uint64, start int, tails []S) (item T, err error, stale bool) {
	n := len(backends)
outer:
	for {
		for i := 0; i < n; i++ {
			idx := (start + i) % n
			v, state, ok := backends[idx].GetReturnPutState()
			if ok {
				return v, nil, false
			}
			tails[idx] = state
		}
		if d.opts.nonLinearizableEmpty {
			var zero T
			return zero, pool.ErrWouldBlock, false
		}
		if d.currentGeneration() != gen {
			var zero T
			return zero, nil, true
		}
		for i := 0; i < n; i++ {
			idx := (start + i) % n
			if backends[idx].PutState() != tails[idx] {
				start = idx
				continue outer
			}
			if (idx+1)%n == start {
				var zero T
				return zero, pool.ErrWouldBlock, false
			}
		}
	}
}
