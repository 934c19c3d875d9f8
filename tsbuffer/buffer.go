// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tsbuffer

import (
	"math/rand"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/scal/internal/tagged"
	"code.hybscloud.com/scal/pool"
	"code.hybscloud.com/spin"
)

// tsItem is one producer-owned node: next is written exactly once, at
// append time, so it needs only a plain atomic load/store, never a CAS.
type tsItem[T any] struct {
	next      atomix.Uint64
	data      T
	timestamp uint64
}

func itemToWord[T any](it *tsItem[T]) uint64 { return uint64(uintptr(unsafe.Pointer(it))) }
func wordToItem[T any](w uint64) *tsItem[T] {
	if w == 0 {
		return nil
	}
	return (*tsItem[T])(unsafe.Pointer(uintptr(w)))
}

// spBuffer is one producer's singly-linked list: insert is written only by
// the owning producer, remove is CAS'd forward by whichever consumer wins
// the extremal-timestamp scan. Both carry an ABA tag since remove is
// contended.
//
// Grounded on ts_queue_buffer.h's per-thread insert_/remove_ pointer pair
// and its sentinel-node initialization. Used for Queue and Deque's left
// (FIFO) end only: the right/LIFO end needs a per-item taken flag instead,
// see spStackBuffer in stack_buffer.go.
type spBuffer[T any] struct {
	insert tagged.Value128
	remove tagged.Value128
}

func newSPBuffer[T any]() *spBuffer[T] {
	sentinel := &tsItem[T]{}
	b := &spBuffer[T]{}
	w := itemToWord(sentinel)
	b.insert.Store(w, 0)
	b.remove.Store(w, 0)
	return b
}

// append links a freshly stamped item onto the tail of the producer's own
// list. Only the owning producer ever calls this, so no CAS is needed on
// insert itself, but the new item must be published with a release store
// before insert is advanced so concurrent removers see a fully-initialized
// node.
func (b *spBuffer[T]) append(data T, timestamp uint64) {
	it := &tsItem[T]{data: data, timestamp: timestamp}
	insertValue, insertTag := b.insert.Load()
	wordToItem[T](insertValue).next.StoreRelease(itemToWord(it))
	b.insert.Store(itemToWord(it), insertTag+1)
}

// Consumer holds one emptiness-check array, owned by exactly one goroutine
// for the lifetime of its Get/Pop loop. Sharing a Consumer across
// goroutines reintroduces the unsynchronized-slice-write race it exists to
// avoid: the two-pass stability check (observe) is only meaningful when
// every call on it comes from the same logical consumer.
//
// Grounded on ts_queue_buffer.h's and ts_stack_buffer.h's
// emptiness_check_pointers_, which both index by the calling thread's id
// rather than living on the shared buffer structure.
type Consumer struct {
	checks *emptinessCheck
}

func newConsumer(numProducers int) *Consumer {
	return &Consumer{checks: newEmptinessCheck(numProducers)}
}

// emptinessCheck remembers, for one consumer, the last remove/top pointer
// observed on each producer buffer. A buffer reported empty on two
// consecutive scans with an unchanged pointer is genuinely empty; one whose
// pointer moved since the last look was recently active and must not be
// trusted as empty yet.
type emptinessCheck struct {
	lastSeen []uint64
	valid    []bool
}

func newEmptinessCheck(n int) *emptinessCheck {
	return &emptinessCheck{lastSeen: make([]uint64, n), valid: make([]bool, n)}
}

// observe reports whether buffer i's current pointer matches what was
// recorded on this consumer's previous call, updating the record either
// way.
func (e *emptinessCheck) observe(i int, seen uint64) (stableEmpty bool) {
	stableEmpty = e.valid[i] && e.lastSeen[i] == seen
	e.lastSeen[i] = seen
	e.valid[i] = true
	return stableEmpty
}

// tryRemove scans every buffer starting at a random index, tracking the
// minimum-timestamp (oldest) candidate, and attempts to CAS the winning
// buffer's remove pointer forward by one item, retrying the whole scan on a
// lost race. A fresh invocation time is read from clock at the start of
// every attempt; a candidate stamped after that time is left alone this
// round, since it was not yet visible when the scan began. It returns
// pool.ErrWouldBlock once a full scan observes every buffer stably empty.
//
// Grounded on ts_queue_buffer.h's try_remove_right: the start_time read via
// Clock.ReadTime and the end-of-scan is_later gate against the single
// winning candidate. The original's caller (TSQueue::dequeue) retries in an
// outer while loop around a false/empty-handed result; this retries
// internally with spin.Wait, a Go-idiomatic fold of that same loop into one
// call.
func tryRemove[T any](buffers []*spBuffer[T], c *Consumer, clock Clock) (T, error) {
	var zero T
	n := len(buffers)
	sw := spin.Wait{}
	for {
		startTime := clock.ReadTime()
		start := rand.Intn(n)

		var (
			haveBest     bool
			bestTS       uint64
			bestIdx      int
			bestRemove   uint64
			bestItem     *tsItem[T]
			allStableNil = true
		)

		for i := 0; i < n; i++ {
			idx := (start + i) % n
			removeValue, _ := buffers[idx].remove.Load()
			insertValue, _ := buffers[idx].insert.Load()
			if removeValue == insertValue {
				if !c.checks.observe(idx, removeValue) {
					allStableNil = false
				}
				continue
			}
			allStableNil = false
			candidate := wordToItem[T](wordToItem[T](removeValue).next.LoadAcquire())
			if candidate == nil {
				continue
			}
			if !haveBest || candidate.timestamp < bestTS {
				haveBest = true
				bestTS = candidate.timestamp
				bestIdx = idx
				bestRemove = removeValue
				bestItem = candidate
			}
		}

		if !haveBest {
			if allStableNil {
				return zero, pool.ErrWouldBlock
			}
			sw.Once()
			continue
		}

		if bestTS > startTime {
			// The oldest candidate we found was inserted after this scan
			// began; it must not be removed by this call.
			sw.Once()
			continue
		}

		_, removeTag := buffers[bestIdx].remove.Load()
		if buffers[bestIdx].remove.CompareAndSwap(bestRemove, removeTag, itemToWord(bestItem), removeTag+1) {
			return bestItem.data, nil
		}
		sw.Once()
	}
}
