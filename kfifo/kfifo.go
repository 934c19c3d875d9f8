// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package kfifo implements the k-FIFO family of relaxed concurrent queues
// (Kirsch, Lippautz, Payer 2012): a sequence of fixed-size k-slot segments,
// each slot claimed by a random scan rather than a strict index, trading
// strict FIFO order for a bound of at most k-1 elements of reordering
// against a sequential execution.
//
// Bounded lays the segments out as one flat ring of k*numSegments slots and
// never grows; Unbounded links uksegment nodes and allocates a fresh one
// when the tail runs off the end of the list. Both share the same
// find-index / commit-check structure, ported slot-for-slot from the
// original algorithm; they differ only in how a segment boundary is
// represented and advanced.
package kfifo

import "math/rand"

// pseudorand mirrors the original algorithm's per-call random slot choice:
// every Enqueue/Dequeue attempt starts its k-slot scan at a random offset so
// that concurrent producers and consumers spread their CAS attempts across
// the segment instead of converging on slot 0.
func pseudorand(k uint64) uint64 {
	if k == 0 {
		return 0
	}
	return uint64(rand.Int63()) % k
}
