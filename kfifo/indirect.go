// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kfifo

import (
	"code.hybscloud.com/scal/internal/tagged"
	"code.hybscloud.com/scal/pool"
	"code.hybscloud.com/spin"
)

// Indirect is the uintptr-native counterpart to Bounded, mirroring
// code.hybscloud.com/lfq's MPMCIndirect convention: callers box their own
// values and pass the resulting address (or any other nonzero 64-bit
// token) directly, instead of the *T pointers Bounded stores.
// Zero is reserved as the empty-slot sentinel, exactly as in Bounded.
type Indirect struct {
	k         uint64
	queueSize uint64
	head      tagged.Value128
	tail      tagged.Value128
	queue     []tagged.Value128
}

// NewIndirect constructs an Indirect k-FIFO of numSegments segments, each
// with k slots.
func NewIndirect(k, numSegments uint64) *Indirect {
	if k == 0 || numSegments == 0 {
		panic("kfifo: k and numSegments must be positive")
	}
	return &Indirect{
		k:         k,
		queueSize: k * numSegments,
		queue:     make([]tagged.Value128, k*numSegments),
	}
}

func (b *Indirect) findIndex(startIndex uint64, empty bool) (index, oldValue, oldTag uint64, found bool) {
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

func (b *Indirect) advanceHead(headOldValue, headOldTag uint64) bool {
	return b.head.CompareAndSwap(headOldValue, headOldTag, (headOldValue+b.k)%b.queueSize, headOldTag+1)
}

func (b *Indirect) advanceTail(tailOldValue, tailOldTag uint64) bool {
	return b.tail.CompareAndSwap(tailOldValue, tailOldTag, (tailOldValue+b.k)%b.queueSize, tailOldTag+1)
}

func (b *Indirect) queueFull(headOldValue, tailOldValue uint64) bool {
	if (tailOldValue+b.k)%b.queueSize != headOldValue {
		return false
	}
	headCurValue, _ := b.head.Load()
	return headCurValue == headOldValue
}

func (b *Indirect) segmentNotEmpty(headOldValue uint64) bool {
	for i := uint64(0); i < b.k; i++ {
		if v, _ := b.queue[(headOldValue+i)%b.queueSize].Load(); v != 0 {
			return true
		}
	}
	return false
}

func (b *Indirect) committed(tailOldValue, newValue, newTag, itemIndex uint64) bool {
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

// Put enqueues elem, a caller-owned 64-bit token. elem must be nonzero.
func (b *Indirect) Put(elem uintptr) error {
	if elem == 0 {
		panic("kfifo: unable to enqueue a zero value")
	}
	newWord := uint64(elem)
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

// Get dequeues a token, returning ErrWouldBlock if the queue is observed
// empty throughout the attempt.
func (b *Indirect) Get() (uintptr, error) {
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
				return uintptr(oldValue), nil
			}
			continue
		}
		if tailCurValue, _ := b.tail.Load(); headOldValue == tailOldValue && tailOldValue == tailCurValue {
			return 0, pool.ErrWouldBlock
		}
		b.advanceHead(headOldValue, headOldTag)
		sw.Once()
	}
}
