// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tsbuffer

// Queue is a FIFO built from one singly-linked buffer per producer: Put
// stamps the new item with Clock.Timestamp and appends it to the calling
// producer's own buffer; Get scans every producer's buffer and removes the
// single oldest (minimum-timestamp) item across all of them.
//
// Grounded on ts_queue_buffer.h's TSQueueBuffer used in FIFO mode
// (try_remove_right, the minimum-timestamp direction).
type Queue[T any] struct {
	clock   Clock
	buffers []*spBuffer[T]
}

// NewQueue constructs a Queue for numProducers producers, each identified
// by a stable index in [0, numProducers) passed to Put.
func NewQueue[T any](numProducers int, clock Clock) *Queue[T] {
	if numProducers <= 0 {
		panic("tsbuffer: numProducers must be positive")
	}
	q := &Queue[T]{clock: clock, buffers: make([]*spBuffer[T], numProducers)}
	for i := range q.buffers {
		q.buffers[i] = newSPBuffer[T]()
	}
	return q
}

// NewConsumer returns a Consumer bound to q's producer count. Each
// goroutine that calls Get must own one and must not share it: the
// emptiness-check array it wraps is only meaningful read and written by a
// single caller.
func (q *Queue[T]) NewConsumer() *Consumer {
	return newConsumer(len(q.buffers))
}

// Put appends item to producerID's own buffer, stamped with a fresh
// timestamp. Put never blocks: a producer's list has no capacity limit.
func (q *Queue[T]) Put(producerID int, item T) {
	ts := q.clock.Timestamp(producerID)
	q.buffers[producerID].append(item, ts)
}

// Get removes and returns the oldest item across every producer's buffer,
// or pool.ErrWouldBlock if every buffer is stably empty from c's point of
// view.
func (q *Queue[T]) Get(c *Consumer) (T, error) {
	return tryRemove[T](q.buffers, c, q.clock)
}
