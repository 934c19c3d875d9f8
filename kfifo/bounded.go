// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kfifo

import (
	"unsafe"

	"code.hybscloud.com/scal/internal/tagged"
	"code.hybscloud.com/scal/pool"
	"code.hybscloud.com/spin"
)

// Bounded is a fixed-capacity k-FIFO: k*numSegments slots laid out as one
// flat ring, ported from boundedsize_kfifo.h. Elements are stored as
// pointers so an empty slot can be distinguished from a zero value of T by
// a nil check rather than a sentinel comparison.
type Bounded[T any] struct {
	k         uint64
	queueSize uint64
	head      tagged.Value128 // value: segment start index, tag: generation
	tail      tagged.Value128
	queue     []tagged.Value128 // value: *T as uintptr (0 = empty), tag: slot generation
}

// NewBounded constructs a Bounded k-FIFO of numSegments segments, each with
// k slots, for a total capacity of k*numSegments elements.
func NewBounded[T any](k, numSegments uint64) *Bounded[T] {
	if k == 0 || numSegments == 0 {
		panic("kfifo: k and numSegments must be positive")
	}
	return &Bounded[T]{
		k:         k,
		queueSize: k * numSegments,
		queue:     make([]tagged.Value128, k*numSegments),
	}
}

func ptrToWord[T any](p *T) uint64 {
	return uint64(uintptr(unsafe.Pointer(p)))
}

func wordToPtr[T any](w uint64) *T {
	return (*T)(unsafe.Pointer(uintptr(w)))
}

// findIndex scans k slots starting at startIndex, at a random offset within
// the segment as in the original, for a slot matching the requested
// emptiness. It returns the slot index and the value/tag observed there.
func (b *Bounded[T]) findIndex(startIndex uint64, empty bool) (index, oldValue, oldTag uint64, found bool) {
	random := pseudorand(b.k)
	for i := uint64(0); i < b.k; i++ {
		idx := (startIndex + ((random + i) % b.k)) % b.queueSize
		v, t := b.queue[idx].Load()
		if (empty && v == 0) || (!empty && v != 0) {
			return idx, v, t, true
		}
	}
	return 0, 0, 0, false
}

func (b *Bounded[T]) advanceHead(headOldValue, headOldTag uint64) bool {
	return b.head.CompareAndSwap(headOldValue, headOldTag, (headOldValue+b.k)%b.queueSize, headOldTag+1)
}

func (b *Bounded[T]) advanceTail(tailOldValue, tailOldTag uint64) bool {
	return b.tail.CompareAndSwap(tailOldValue, tailOldTag, (tailOldValue+b.k)%b.queueSize, tailOldTag+1)
}

func (b *Bounded[T]) queueFull(headOldValue, tailOldValue uint64) bool {
	if (tailOldValue+b.k)%b.queueSize != headOldValue {
		return false
	}
	headCurValue, _ := b.head.Load()
	return headCurValue == headOldValue
}

func (b *Bounded[T]) segmentNotEmpty(headOldValue uint64) bool {
	for i := uint64(0); i < b.k; i++ {
		if v, _ := b.queue[(headOldValue+i)%b.queueSize].Load(); v != 0 {
			return true
		}
	}
	return false
}

func inValidRegion(tailOldPtr, tailCurPtr, headCurPtr uint64) bool {
	wrapAround := tailCurPtr < headCurPtr
	if !wrapAround {
		return headCurPtr < tailOldPtr && tailOldPtr <= tailCurPtr
	}
	return headCurPtr < tailOldPtr || tailOldPtr <= tailCurPtr
}

func notInValidRegion(tailOldPtr, tailCurPtr, headCurPtr uint64) bool {
	wrapAround := tailCurPtr < headCurPtr
	if !wrapAround {
		return tailOldPtr < tailCurPtr || headCurPtr < tailOldPtr
	}
	return tailOldPtr < tailCurPtr && headCurPtr < tailOldPtr
}

// committed decides whether a just-written item at itemIndex has entered
// the queue's valid region between tailOld and the current head/tail, and
// rolls it back (restoring the empty sentinel) if a concurrent dequeue
// round has already passed it by.
func (b *Bounded[T]) committed(tailOldValue, newValue, newTag, itemIndex uint64) bool {
	if v, t := b.queue[itemIndex].Load(); v != newValue || t != newTag {
		return true
	}
	tailCurValue, _ := b.tail.Load()
	headCurValue, headCurTag := b.head.Load()
	if inValidRegion(tailOldValue, tailCurValue, headCurValue) {
		return true
	}
	if notInValidRegion(tailOldValue, tailCurValue, headCurValue) {
		if !b.queue[itemIndex].CompareAndSwap(newValue, newTag, 0, newTag+1) {
			return true
		}
		return false
	}
	if b.head.CompareAndSwap(headCurValue, headCurTag, headCurValue, headCurTag+1) {
		return true
	}
	if !b.queue[itemIndex].CompareAndSwap(newValue, newTag, 0, newTag+1) {
		return true
	}
	return false
}

// Put enqueues item, returning ErrWouldBlock if the segment at the current
// head is observed full and non-empty across a stable head/tail snapshot.
func (b *Bounded[T]) Put(item *T) error {
	if item == nil {
		panic("kfifo: unable to enqueue a nil pointer")
	}
	newWord := ptrToWord(item)
	sw := spin.Wait{}
	for {
		tailOldValue, tailOldTag := b.tail.Load()
		headOldValue, headOldTag := b.head.Load()
		idx, _, oldTag, found := b.findIndex(tailOldValue, true)
		if v, t := b.tail.Load(); v != tailOldValue || t != tailOldTag {
			continue
		}
		if found {
			newTag := oldTag + 1
			if b.queue[idx].CompareAndSwap(0, oldTag, newWord, newTag) {
				if b.committed(tailOldValue, newWord, newTag, idx) {
					return nil
				}
			}
			continue
		}
		if b.queueFull(headOldValue, tailOldValue) {
			if b.segmentNotEmpty(headOldValue) {
				if v, _ := b.head.Load(); v == headOldValue {
					return pool.ErrWouldBlock
				}
			}
			b.advanceHead(headOldValue, headOldTag)
		}
		b.advanceTail(tailOldValue, tailOldTag)
		sw.Once()
	}
}

// Get dequeues an element, returning ErrWouldBlock if head and tail
// coincide and the tail has not moved since it was first observed (the
// queue was empty throughout the attempt).
func (b *Bounded[T]) Get() (*T, error) {
	sw := spin.Wait{}
	for {
		headOldValue, headOldTag := b.head.Load()
		tailOldValue, _ := b.tail.Load()
		idx, oldValue, oldTag, found := b.findIndex(headOldValue, false)
		if v, t := b.head.Load(); v != headOldValue || t != headOldTag {
			continue
		}
		if found {
			if headOldValue == tailOldValue {
				if v, t := b.tail.Load(); v == tailOldValue {
					b.advanceTail(v, t)
				}
			}
			if b.queue[idx].CompareAndSwap(oldValue, oldTag, 0, oldTag+1) {
				return wordToPtr[T](oldValue), nil
			}
			continue
		}
		if tailCurValue, _ := b.tail.Load(); headOldValue == tailOldValue && tailOldValue == tailCurValue {
			return nil, pool.ErrWouldBlock
		}
		b.advanceHead(headOldValue, headOldTag)
		sw.Once()
	}
}
