// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tsbuffer

import "math/rand"

// Deque combines a Queue-like left end and a Stack-like right end: each
// producer owns one buffer per end (a tail-append spBuffer on the left, a
// head-insert spStackBuffer on the right), Put randomly dispatches the new
// item to either end's buffer for that producer, and PopLeft/PopRight scan
// only their own end's buffers for the oldest/newest item there
// respectively. Each end carries its own Clock, since the two ends are
// logically independent timestamp domains.
//
// Grounded on ts_deque.h, which pairs a TSQueueBuffer-style left end with a
// TSStackBuffer-style right end behind one producer/consumer interface.
type Deque[T any] struct {
	leftClock, rightClock Clock
	leftBuffers           []*spBuffer[T]
	rightBuffers          []*spStackBuffer[T]
}

// NewDeque constructs a Deque for numProducers producers, with independent
// clocks for its left and right ends.
func NewDeque[T any](numProducers int, leftClock, rightClock Clock) *Deque[T] {
	if numProducers <= 0 {
		panic("tsbuffer: numProducers must be positive")
	}
	d := &Deque[T]{
		leftClock:    leftClock,
		rightClock:   rightClock,
		leftBuffers:  make([]*spBuffer[T], numProducers),
		rightBuffers: make([]*spStackBuffer[T], numProducers),
	}
	for i := 0; i < numProducers; i++ {
		d.leftBuffers[i] = newSPBuffer[T]()
		d.rightBuffers[i] = newSPStackBuffer[T]()
	}
	return d
}

// DequeConsumer holds the left and right ends' emptiness-check state for
// one goroutine. Each goroutine that calls PopLeft/PopRight must own one
// and must not share it.
type DequeConsumer struct {
	left, right *Consumer
}

// NewConsumer returns a DequeConsumer bound to d's producer count.
func (d *Deque[T]) NewConsumer() *DequeConsumer {
	return &DequeConsumer{
		left:  newConsumer(len(d.leftBuffers)),
		right: newConsumer(len(d.rightBuffers)),
	}
}

// Put inserts item into producerID's buffer at a uniformly randomly chosen
// end.
func (d *Deque[T]) Put(producerID int, item T) {
	if rand.Intn(2) == 0 {
		d.PutLeft(producerID, item)
	} else {
		d.PutRight(producerID, item)
	}
}

// PutLeft inserts item at the left end of producerID's buffer.
func (d *Deque[T]) PutLeft(producerID int, item T) {
	ts := d.leftClock.Timestamp(producerID)
	d.leftBuffers[producerID].append(item, ts)
}

// PutRight inserts item at the right end of producerID's buffer.
func (d *Deque[T]) PutRight(producerID int, item T) {
	ts := d.rightClock.Timestamp(producerID)
	d.rightBuffers[producerID].push(item, ts)
}

// PopLeft removes and returns the oldest item inserted at the left end,
// across every producer, or pool.ErrWouldBlock if the left end is stably
// empty from c's point of view.
func (d *Deque[T]) PopLeft(c *DequeConsumer) (T, error) {
	return tryRemove[T](d.leftBuffers, c.left, d.leftClock)
}

// PopRight removes and returns the newest item inserted at the right end,
// across every producer, or pool.ErrWouldBlock if the right end is stably
// empty from c's point of view.
func (d *Deque[T]) PopRight(c *DequeConsumer) (T, error) {
	return tryRemoveStack[T](d.rightBuffers, c.right, d.rightClock)
}
