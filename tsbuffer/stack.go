// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tsbuffer

// Stack is a LIFO built from one singly-linked buffer per producer, each
// linked at the head instead of the tail: Put stamps the new item and
// pushes it onto the calling producer's own buffer; Get scans every
// producer's buffer for its youngest still-untaken item and removes the
// single youngest one across all of them, eliminating an eligible
// candidate inline as soon as it is found rather than waiting for the
// whole scan to finish.
//
// Grounded on ts_stack_buffer.h's TSStackBuffer (insert_right,
// try_remove_right). This is a materially different buffer layout and
// removal algorithm from Queue, not Queue's buffer scanned in the opposite
// direction: the per-item taken flag and head insertion are what make
// removal reach the newest item in a producer's own list.
type Stack[T any] struct {
	clock   Clock
	buffers []*spStackBuffer[T]
}

// NewStack constructs a Stack for numProducers producers.
func NewStack[T any](numProducers int, clock Clock) *Stack[T] {
	if numProducers <= 0 {
		panic("tsbuffer: numProducers must be positive")
	}
	s := &Stack[T]{clock: clock, buffers: make([]*spStackBuffer[T], numProducers)}
	for i := range s.buffers {
		s.buffers[i] = newSPStackBuffer[T]()
	}
	return s
}

// NewConsumer returns a Consumer bound to s's producer count. Each
// goroutine that calls Get must own one and must not share it.
func (s *Stack[T]) NewConsumer() *Consumer {
	return newConsumer(len(s.buffers))
}

// Put pushes item onto producerID's own buffer, stamped with a fresh
// timestamp.
func (s *Stack[T]) Put(producerID int, item T) {
	ts := s.clock.Timestamp(producerID)
	s.buffers[producerID].push(item, ts)
}

// Get removes and returns the most recently inserted item across every
// producer's buffer, or pool.ErrWouldBlock if every buffer is stably empty
// from c's point of view.
func (s *Stack[T]) Get(c *Consumer) (T, error) {
	return tryRemoveStack[T](s.buffers, c, s.clock)
}
