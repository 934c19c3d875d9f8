// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pool defines the contract shared by the concurrent containers in
// this module: k-FIFO queues and the distributed data structure satisfy
// Pool[T]. The timestamped buffer family does not: its Put takes a producer
// index and its Get a per-goroutine consumer handle.
//
// Put and Get are both non-blocking. Put returns ErrWouldBlock when a
// bounded container is full; Get returns ErrWouldBlock when the container's
// emptiness predicate is satisfied under its consistency tier. Neither
// condition is a failure — callers retry, typically with a spin.Wait
// backoff.
package pool

import "code.hybscloud.com/iox"

// ErrWouldBlock indicates Put or Get cannot proceed immediately: the
// container is full (Put) or empty under its consistency tier (Get).
//
// This is an alias for [iox.ErrWouldBlock], matching the convention used by
// every container family in this module.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control-flow signal rather than a
// failure.
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// Producer enqueues elements into a container (non-blocking).
type Producer[T any] interface {
	// Put adds item to the container. Returns ErrWouldBlock if the
	// container is bounded and full.
	Put(item T) error
}

// Consumer dequeues elements from a container (non-blocking).
type Consumer[T any] interface {
	// Get removes and returns an element. Returns (zero-value,
	// ErrWouldBlock) if the container's emptiness predicate holds.
	Get() (T, error)
}

// Pool is the combined interface exported to benchmark drivers.
type Pool[T any] interface {
	Producer[T]
	Consumer[T]
}

// EmptyChecker is implemented by containers that can report emptiness
// without attempting a Get. The check may be racy: a container that returns
// true can receive a concurrent Put before the caller observes the result.
type EmptyChecker interface {
	Empty() bool
}

// Terminator is implemented by containers that hold background resources
// (arenas, registered producer slots) that should be released when a
// benchmark run ends.
type Terminator interface {
	Terminate()
}

// StateProducer is implemented by a DDS partial-pool backend: PutState
// changes exactly when a successful Put occurs on that backend. The state
// token is the basis of the DDS's linearizable emptiness check (see
// package dds).
type StateProducer[S comparable] interface {
	// PutState returns a token that changes on every successful Put.
	PutState() S
}

// StateConsumer is implemented by a DDS partial-pool backend in addition to
// StateProducer: GetReturnPutState atomically (from the caller's
// perspective) observes either a value or the backend's put-state at the
// moment it was found empty.
type StateConsumer[T any, S comparable] interface {
	// GetReturnPutState removes and returns an element and true, or
	// (zero-value, the backend's put-state at the moment of the failed
	// attempt, false).
	GetReturnPutState() (T, S, bool)
}

// Backend is the contract a DDS partial pool must satisfy: Put plus the
// state-carrying Get used for the two-phase emptiness check.
type Backend[T any, S comparable] interface {
	Producer[T]
	StateProducer[S]
	StateConsumer[T, S]
}
