// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dds

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/scal/internal/tagged"
	"code.hybscloud.com/scal/pool"
	"code.hybscloud.com/spin"
)

func nodeWord[N any](n *N) uint64 {
	return uint64(uintptr(unsafe.Pointer(n)))
}

func wordToNode[N any](w uint64) *N {
	return (*N)(unsafe.Pointer(uintptr(w)))
}

type msNode[T any] struct {
	next  tagged.Value128
	value *T
}

// MSQueueBackend is the Michael-Scott unbounded queue, adapted as a
// pool.Backend[*T, uint64]: PutState is a monotonic counter bumped on every
// successful Put, which DDS's two-phase emptiness check uses to detect a
// concurrent insert it might otherwise miss.
//
// Grounded on original_source's ms_queue.h.
type MSQueueBackend[T any] struct {
	head     tagged.Value128
	tail     tagged.Value128
	putState atomix.Uint64
}

// NewMSQueueBackend constructs an empty MSQueueBackend.
func NewMSQueueBackend[T any]() *MSQueueBackend[T] {
	sentinel := &msNode[T]{}
	w := nodeWord(sentinel)
	b := &MSQueueBackend[T]{}
	b.head.Store(w, 0)
	b.tail.Store(w, 0)
	return b
}

// Put enqueues item. MSQueueBackend is unbounded and never returns an
// error.
func (b *MSQueueBackend[T]) Put(item *T) error {
	node := &msNode[T]{value: item}
	nodeW := nodeWord(node)
	sw := spin.Wait{}
	for {
		tailOldValue, tailOldTag := b.tail.Load()
		tailOldNode := wordToNode[msNode[T]](tailOldValue)
		nextValue, nextTag := tailOldNode.next.Load()
		if v, t := b.tail.Load(); v != tailOldValue || t != tailOldTag {
			continue
		}
		if nextValue == 0 {
			if tailOldNode.next.CompareAndSwap(nextValue, nextTag, nodeW, nextTag+1) {
				b.tail.CompareAndSwap(tailOldValue, tailOldTag, nodeW, tailOldTag+1)
				b.putState.Add(1)
				return nil
			}
		} else {
			b.tail.CompareAndSwap(tailOldValue, tailOldTag, nextValue, tailOldTag+1)
		}
		sw.Once()
	}
}

// Get dequeues an element, returning ErrWouldBlock if the queue is empty.
func (b *MSQueueBackend[T]) Get() (*T, error) {
	item, _, ok := b.GetReturnPutState()
	if !ok {
		return nil, pool.ErrWouldBlock
	}
	return item, nil
}

// PutState returns the current Put generation counter.
func (b *MSQueueBackend[T]) PutState() uint64 {
	return b.putState.Load()
}

// GetReturnPutState dequeues an element, or, if the queue is empty,
// returns the Put generation counter observed at the moment of failure.
func (b *MSQueueBackend[T]) GetReturnPutState() (*T, uint64, bool) {
	sw := spin.Wait{}
	for {
		headOldValue, headOldTag := b.head.Load()
		tailOldValue, tailOldTag := b.tail.Load()
		headOldNode := wordToNode[msNode[T]](headOldValue)
		nextValue, _ := headOldNode.next.Load()
		if v, t := b.head.Load(); v != headOldValue || t != headOldTag {
			continue
		}
		if headOldValue == tailOldValue {
			if nextValue == 0 {
				return nil, b.putState.Load(), false
			}
			b.tail.CompareAndSwap(tailOldValue, tailOldTag, nextValue, tailOldTag+1)
			sw.Once()
			continue
		}
		nextNode := wordToNode[msNode[T]](nextValue)
		item := nextNode.value
		if b.head.CompareAndSwap(headOldValue, headOldTag, nextValue, headOldTag+1) {
			return item, 0, true
		}
		sw.Once()
	}
}

type tsNode[T any] struct {
	next  tagged.Value128
	value *T
}

// TreiberBackend is the classic Treiber lock-free stack, adapted as a
// pool.Backend[*T, uint64] with the same PutState counter convention as
// MSQueueBackend.
//
// Grounded on original_source's treiber_stack.h.
type TreiberBackend[T any] struct {
	top      tagged.Value128
	putState atomix.Uint64
}

// NewTreiberBackend constructs an empty TreiberBackend.
func NewTreiberBackend[T any]() *TreiberBackend[T] {
	return &TreiberBackend[T]{}
}

// Put pushes item. TreiberBackend is unbounded and never returns an error.
func (b *TreiberBackend[T]) Put(item *T) error {
	node := &tsNode[T]{value: item}
	sw := spin.Wait{}
	for {
		topOldValue, topOldTag := b.top.Load()
		node.next.Store(topOldValue, 0)
		nodeW := nodeWord(node)
		if b.top.CompareAndSwap(topOldValue, topOldTag, nodeW, topOldTag+1) {
			b.putState.Add(1)
			return nil
		}
		sw.Once()
	}
}

// Get pops an element, returning ErrWouldBlock if the stack is empty.
func (b *TreiberBackend[T]) Get() (*T, error) {
	item, _, ok := b.GetReturnPutState()
	if !ok {
		return nil, pool.ErrWouldBlock
	}
	return item, nil
}

// PutState returns the current Put generation counter.
func (b *TreiberBackend[T]) PutState() uint64 {
	return b.putState.Load()
}

// GetReturnPutState pops an element, or, if the stack is empty, returns
// the Put generation counter observed at the moment of failure.
func (b *TreiberBackend[T]) GetReturnPutState() (*T, uint64, bool) {
	sw := spin.Wait{}
	for {
		topOldValue, topOldTag := b.top.Load()
		if topOldValue == 0 {
			return nil, b.putState.Load(), false
		}
		topNode := wordToNode[tsNode[T]](topOldValue)
		nextValue, _ := topNode.next.Load()
		if b.top.CompareAndSwap(topOldValue, topOldTag, nextValue, topOldTag+1) {
			return topNode.value, 0, true
		}
		sw.Once()
	}
}
