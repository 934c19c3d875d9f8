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

// stackItem is one producer-owned node in a stack buffer. Unlike tsItem,
// it carries a taken flag: a stack consumer may need to remove an item
// that is not at the literal head of the list (an older, not-yet-cleaned
// entry above it was already logically removed), so removal marks the item
// taken in place rather than only ever unlinking the head.
type stackItem[T any] struct {
	next      atomix.Uint64
	taken     atomix.Uint64
	data      T
	timestamp uint64
}

func stackItemToWord[T any](it *stackItem[T]) uint64 { return uint64(uintptr(unsafe.Pointer(it))) }
func wordToStackItem[T any](w uint64) *stackItem[T] {
	if w == 0 {
		return nil
	}
	return (*stackItem[T])(unsafe.Pointer(uintptr(w)))
}

// spStackBuffer is one producer's singly-linked LIFO list: push links new
// items at the head, so the list runs from the most recently inserted item
// at top down to a self-linked, permanently-taken sentinel at the tail.
//
// Grounded on ts_stack_buffer.h's SPBuffer/insert_right/get_youngest_item.
// The original's registry-ring linkage (register_thread/unlink_SPBuffer),
// which lets threads join and leave at runtime, is not ported: this module
// fixes its producer count at construction, so there is nothing to
// register or unlink.
type spStackBuffer[T any] struct {
	top tagged.Value128
}

func newSPStackBuffer[T any]() *spStackBuffer[T] {
	sentinel := &stackItem[T]{}
	sentinel.taken.StoreRelease(1)
	w := stackItemToWord(sentinel)
	sentinel.next.StoreRelease(w)
	b := &spStackBuffer[T]{}
	b.top.Store(w, 0)
	return b
}

// push links a freshly stamped item at the head of the producer's own
// list. Only the owning producer ever calls this, so the new top is a
// plain store, never a CAS.
func (b *spStackBuffer[T]) push(data T, timestamp uint64) {
	it := &stackItem[T]{data: data, timestamp: timestamp}
	topValue, topTag := b.top.Load()
	it.next.StoreRelease(topValue)
	b.top.Store(stackItemToWord(it), topTag+1)
}

// youngest walks from the buffer's current top toward the tail, skipping
// already-taken items, and returns the first untaken node together with
// the top snapshot the walk started from (for a later best-effort
// top-advance CAS). It returns a nil item once the walk reaches the
// self-linked sentinel.
//
// Grounded on ts_stack_buffer.h's get_youngest_item.
func (b *spStackBuffer[T]) youngest() (item *stackItem[T], topValue, topTag uint64) {
	topValue, topTag = b.top.Load()
	cur := wordToStackItem[T](topValue)
	for {
		if cur.taken.LoadAcquire() == 0 {
			return cur, topValue, topTag
		}
		next := cur.next.LoadAcquire()
		if next == stackItemToWord(cur) {
			return nil, topValue, topTag
		}
		cur = wordToStackItem[T](next)
	}
}

// tryRemoveStack scans every buffer starting at a random index, hunting
// for the maximum-timestamp (youngest) untaken item. An invocation time is
// read once, before the first scan attempt, and every candidate already
// timestamped at or before it is eliminated inline as soon as it is seen
// rather than waiting for the rest of the buffers to be scanned; a
// candidate stamped after it only updates the running best, same as
// Queue's tryRemove. It returns pool.ErrWouldBlock once a full scan
// observes every buffer stably empty.
//
// Grounded on ts_stack_buffer.h's try_remove_right, including its
// inline-elimination fast path. TSStack::pop reads the invocation time once
// and retries try_remove_right in an outer while loop around a
// false/empty-handed result; this folds that loop into spin.Wait, the same
// Go-idiomatic generalization tryRemove makes for the queue side.
func tryRemoveStack[T any](buffers []*spStackBuffer[T], c *Consumer, clock Clock) (T, error) {
	var zero T
	n := len(buffers)
	sw := spin.Wait{}
	invocationTime := clock.ReadTime()
	for {
		start := rand.Intn(n)

		var (
			haveBest     bool
			bestTS       uint64
			bestItem     *stackItem[T]
			bestBuffer   *spStackBuffer[T]
			bestTop      uint64
			bestTopTag   uint64
			allStableNil = true
		)

		for i := 0; i < n; i++ {
			idx := (start + i) % n
			buf := buffers[idx]
			item, topValue, topTag := buf.youngest()
			if item == nil {
				if !c.checks.observe(idx, topValue) {
					allStableNil = false
				}
				continue
			}
			allStableNil = false

			if item.timestamp <= invocationTime {
				// The item already existed when this call began: try to
				// eliminate it immediately instead of finishing the scan.
				if item.taken.CompareAndSwapAcqRel(0, 1) {
					buf.top.CompareAndSwap(topValue, topTag, stackItemToWord(item), topTag+1)
					return item.data, nil
				}
				// Lost the race; re-read this buffer before falling
				// through to the running-best comparison below.
				item, topValue, topTag = buf.youngest()
				if item == nil {
					continue
				}
			}

			if !haveBest || item.timestamp > bestTS {
				haveBest = true
				bestTS = item.timestamp
				bestItem = item
				bestBuffer = buf
				bestTop = topValue
				bestTopTag = topTag
			}
		}

		if !haveBest {
			if allStableNil {
				return zero, pool.ErrWouldBlock
			}
			sw.Once()
			continue
		}

		if bestItem.taken.CompareAndSwapAcqRel(0, 1) {
			bestBuffer.top.CompareAndSwap(bestTop, bestTopTag, stackItemToWord(bestItem), bestTopTag+1)
			return bestItem.data, nil
		}
		sw.Once()
	}
}
