// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tagged provides the tagged-atomic (value, tag) primitive that
// every concurrent container in this module is layered on.
//
// A tagged value packs a payload and a monotonically-increasing generation
// counter into a single machine word, updated by one compare-and-swap. The
// tag defeats ABA: a thread that reads (v, t), gets preempted, and later
// attempts a CAS against (v, t) fails if any other thread has since written
// and rewritten the same value, because the tag will have moved on.
//
// Two encodings are provided behind the same Load/CompareAndSwap contract:
//
//   - Value128 uses a 128-bit compare-and-swap (tag in the low 64 bits,
//     value in the high 64 bits) and gives the tag its own 64 bits.
//   - Value64 packs both into a single 64-bit word, either keeping the
//     value in place and putting the tag in its low bits (Offset, 3 tag
//     bits, for values that are already 8-byte-aligned pointers) or
//     shifting the value left by the tag width (NoOffset, 4 tag bits, no
//     alignment assumption but a reduced value range).
//
// Callers always supply tag+1 on a successful swap; Load and
// CompareAndSwap never increment the tag themselves.
package tagged

import "code.hybscloud.com/atomix"

// Value128 is a 128-bit tagged value: tag occupies the low word, value the
// high word, matching code.hybscloud.com/lfq's mpmc128Slot.entry layout.
type Value128 struct {
	word atomix.Uint128
}

// Store initializes the word to (value, tag) without synchronization with
// other threads. Use only before the structure is published.
func (v *Value128) Store(value, tag uint64) {
	v.word.StoreRelaxed(tag, value)
}

// Load returns a consistent (value, tag) snapshot.
func (v *Value128) Load() (value, tag uint64) {
	tag, value = v.word.LoadAcquire()
	return value, tag
}

// CompareAndSwap succeeds iff the word currently equals (oldValue, oldTag),
// in which case it is atomically replaced with (newValue, newTag).
func (v *Value128) CompareAndSwap(oldValue, oldTag, newValue, newTag uint64) bool {
	return v.word.CompareAndSwapAcqRel(oldTag, oldValue, newTag, newValue)
}

// Value64 is a 64-bit tagged value with a configurable tag width, used where
// a full 128-bit CAS is unavailable or undesired (see Value64Offset and
// Value64NoOffset).
type Value64 struct {
	word   atomix.Uint64
	offset bool // Offset packing: value occupies the high bits, tag the low bits.
	bits   uint8
}

const (
	offsetTagBits   = 3
	noOffsetTagBits = 4
)

// NewValue64Offset returns a Value64 using the Offset encoding: the tag
// occupies the low 3 bits, the value the remaining 61 bits. Suitable when
// the value is known to already be a multiple of 8 (an aligned pointer), so
// the low bits it would otherwise occupy are free.
func NewValue64Offset() *Value64 {
	return &Value64{offset: true, bits: offsetTagBits}
}

// NewValue64NoOffset returns a Value64 using the NoOffset encoding: the
// value is shifted left by 4 bits to make room for the tag, at the cost of
// the value's top 4 bits.
func NewValue64NoOffset() *Value64 {
	return &Value64{offset: false, bits: noOffsetTagBits}
}

func (v *Value64) tagMask() uint64 {
	return (uint64(1) << v.bits) - 1
}

// Store initializes the word without synchronization with other threads.
func (v *Value64) Store(value, tag uint64) {
	v.word.StoreRelaxed(v.pack(value, tag))
}

// Load returns a consistent (value, tag) snapshot.
func (v *Value64) Load() (value, tag uint64) {
	return v.unpack(v.word.LoadAcquire())
}

// CompareAndSwap succeeds iff the word currently equals (oldValue, oldTag).
func (v *Value64) CompareAndSwap(oldValue, oldTag, newValue, newTag uint64) bool {
	return v.word.CompareAndSwapAcqRel(v.pack(oldValue, oldTag), v.pack(newValue, newTag))
}

func (v *Value64) pack(value, tag uint64) uint64 {
	tag &= v.tagMask()
	if v.offset {
		return (value &^ v.tagMask()) | tag
	}
	return (value << v.bits) | tag
}

func (v *Value64) unpack(word uint64) (value, tag uint64) {
	tag = word & v.tagMask()
	if v.offset {
		return word &^ v.tagMask(), tag
	}
	return word >> v.bits, tag
}
