// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kfifo

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/scal/internal/tagged"
	"code.hybscloud.com/scal/pool"
	"code.hybscloud.com/spin"
)

// uksegment is one k-slot segment of an Unbounded k-FIFO, linked into a
// list via next. deleted marks a segment the head has moved past; a Put
// racing against that transition uses it to decide whether its item ever
// entered the queue (see (*Unbounded[T]).committed).
type uksegment[T any] struct {
	next    tagged.Value128 // value: *uksegment[T] word, tag: aba
	k       uint64
	deleted atomix.Bool
	items   []tagged.Value128
}

func newUKSegment[T any](k uint64) *uksegment[T] {
	return &uksegment[T]{k: k, items: make([]tagged.Value128, k)}
}

func segToWord[T any](s *uksegment[T]) uint64 {
	return uint64(uintptr(unsafe.Pointer(s)))
}

func wordToSeg[T any](w uint64) *uksegment[T] {
	return (*uksegment[T])(unsafe.Pointer(uintptr(w)))
}

// Unbounded is an unbounded k-FIFO: a singly-linked list of k-slot
// segments, growing a new segment at the tail when the current one fills,
// ported from unboundedsize_kfifo.h.
type Unbounded[T any] struct {
	head tagged.Value128 // value: *uksegment[T] word, tag: aba
	tail tagged.Value128
	k    uint64
}

// NewUnbounded constructs an Unbounded k-FIFO with k slots per segment.
func NewUnbounded[T any](k uint64) *Unbounded[T] {
	if k == 0 {
		panic("kfifo: k must be positive")
	}
	seg := segToWord(newUKSegment[T](k))
	u := &Unbounded[T]{k: k}
	u.head.Store(seg, 0)
	u.tail.Store(seg, 0)
	return u
}

func (u *Unbounded[T]) findIndex(seg *uksegment[T], empty bool) (index, oldValue, oldTag uint64, found bool) {
	random := pseudorand(seg.k)
	for i := uint64(0); i < seg.k; i++ {
		idx := (random + i) % seg.k
		v, t := seg.items[idx].Load()
		if (empty && v == 0) || (!empty && v != 0) {
			return idx, v, t, true
		}
	}
	return 0, 0, 0, false
}

func (u *Unbounded[T]) advanceHead(headOldValue, headOldTag uint64) {
	if v, t := u.head.Load(); v != headOldValue || t != headOldTag {
		return
	}
	headOldSeg := wordToSeg[T](headOldValue)
	tailCurValue, tailCurTag := u.tail.Load()
	tailCurSeg := wordToSeg[T](tailCurValue)
	tailNextValue, _ := tailCurSeg.next.Load()
	headNextValue, _ := headOldSeg.next.Load()
	if v, t := u.head.Load(); v != headOldValue || t != headOldTag {
		return
	}
	if headOldValue == tailCurValue {
		if tailNextValue == 0 {
			return
		}
		if v, t := u.tail.Load(); v == tailCurValue && t == tailCurTag {
			u.tail.CompareAndSwap(tailCurValue, tailCurTag, tailNextValue, tailCurTag+1)
		}
	}
	headOldSeg.deleted.Store(true)
	u.head.CompareAndSwap(headOldValue, headOldTag, headNextValue, headOldTag+1)
}

func (u *Unbounded[T]) advanceTail(tailOldValue, tailOldTag uint64) {
	if v, t := u.tail.Load(); v != tailOldValue || t != tailOldTag {
		return
	}
	tailOldSeg := wordToSeg[T](tailOldValue)
	nextValue, nextTag := tailOldSeg.next.Load()
	if v, t := u.tail.Load(); v != tailOldValue || t != tailOldTag {
		return
	}
	if nextValue != 0 {
		u.tail.CompareAndSwap(tailOldValue, tailOldTag, nextValue, nextTag+1)
		return
	}
	newSeg := segToWord(newUKSegment[T](u.k))
	if tailOldSeg.next.CompareAndSwap(nextValue, nextTag, newSeg, nextTag+1) {
		u.tail.CompareAndSwap(tailOldValue, tailOldTag, newSeg, tailOldTag+1)
	}
}

// committed decides whether a just-written item on the (possibly retired)
// tail segment has entered the queue, rolling it back if the head has
// already passed the segment by.
func (u *Unbounded[T]) committed(tailOldValue, newValue, newTag, itemIndex uint64) bool {
	tailOldSeg := wordToSeg[T](tailOldValue)
	if v, t := tailOldSeg.items[itemIndex].Load(); v != newValue || t != newTag {
		return true
	}
	if tailOldSeg.deleted.Load() {
		if !tailOldSeg.items[itemIndex].CompareAndSwap(newValue, newTag, 0, newTag+1) {
			return true
		}
		return false
	}
	headCurValue, headCurTag := u.head.Load()
	if tailOldValue == headCurValue {
		if u.head.CompareAndSwap(headCurValue, headCurTag, headCurValue, headCurTag+1) {
			return true
		}
		if !tailOldSeg.items[itemIndex].CompareAndSwap(newValue, newTag, 0, newTag+1) {
			return true
		}
		return false
	}
	return true
}

// Put enqueues item. Unbounded never refuses a Put: when the tail segment
// has no empty slot it grows a new one, so Put always returns nil. A nil
// item panics.
func (u *Unbounded[T]) Put(item *T) error {
	if item == nil {
		panic("kfifo: unable to enqueue a nil pointer")
	}
	newWord := ptrToWord(item)
	sw := spin.Wait{}
	for {
		tailOldValue, tailOldTag := u.tail.Load()
		tailOldSeg := wordToSeg[T](tailOldValue)
		idx, _, oldTag, found := u.findIndex(tailOldSeg, true)
		if v, t := u.tail.Load(); v != tailOldValue || t != tailOldTag {
			continue
		}
		if found {
			newTag := oldTag + 1
			if tailOldSeg.items[idx].CompareAndSwap(0, oldTag, newWord, newTag) {
				if u.committed(tailOldValue, newWord, newTag, idx) {
					return nil
				}
			}
			continue
		}
		u.advanceTail(tailOldValue, tailOldTag)
		sw.Once()
	}
}

// Get dequeues an element, returning ErrWouldBlock once head and tail
// coincide and no slot in that segment holds an element.
func (u *Unbounded[T]) Get() (*T, error) {
	sw := spin.Wait{}
	for {
		headOldValue, headOldTag := u.head.Load()
		headOldSeg := wordToSeg[T](headOldValue)
		idx, oldValue, oldTag, found := u.findIndex(headOldSeg, false)
		tailOldValue, tailOldTag := u.tail.Load()
		if v, t := u.head.Load(); v != headOldValue || t != headOldTag {
			continue
		}
		if found {
			if headOldValue == tailOldValue {
				u.advanceTail(tailOldValue, tailOldTag)
			}
			if headOldSeg.items[idx].CompareAndSwap(oldValue, oldTag, 0, oldTag+1) {
				return wordToPtr[T](oldValue), nil
			}
			continue
		}
		if headOldValue == tailOldValue {
			return nil, pool.ErrWouldBlock
		}
		u.advanceHead(headOldValue, headOldTag)
		sw.Once()
	}
}
