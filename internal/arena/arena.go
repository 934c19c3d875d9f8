// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package arena provides the thread-local, reset-not-freed bump allocator
// called for by the module's memory-reuse model: nodes and segments
// produced by a container's Put are never individually freed during a
// run, only logically retired; reclamation is a separate, out-of-scope
// concern left to the arena's reset between runs.
//
// The allocator is grounded on code.hybscloud.com/iobuf's bounded-pool
// design: a fixed-capacity backing slice pre-sized at construction,
// handed out by bump pointer, with no per-item free list. Unlike iobuf's
// pool (which recycles freed slots across threads), an Arena is owned by
// a single goroutine and never shared — it models the original
// per-thread arena, sized once via --prealloc_size and never contended.
package arena

import "fmt"

// Arena hands out T values from a pre-allocated backing slice by bump
// pointer. It is not safe for concurrent use: each goroutine that needs
// one constructs its own.
type Arena[T any] struct {
	backing []T
	next    int
}

// New constructs an Arena capable of handing out up to size values before
// Alloc starts returning false.
func New[T any](size int) *Arena[T] {
	if size <= 0 {
		panic("arena: size must be positive")
	}
	return &Arena[T]{backing: make([]T, size)}
}

// Alloc returns a pointer to the next unused slot and true, or (nil,
// false) if the arena is exhausted. Exhaustion at benchmark startup is
// reported by callers as a ConfigurationError, per the module's error
// taxonomy; mid-run exhaustion of a correctly-sized arena should not
// occur in the code paths that use it.
func (a *Arena[T]) Alloc() (*T, bool) {
	if a.next >= len(a.backing) {
		return nil, false
	}
	item := &a.backing[a.next]
	a.next++
	return item, true
}

// Reset rewinds the bump pointer, making the whole backing slice
// available for reuse. Reset does not zero existing values; callers that
// need a clean slate must overwrite fields themselves. This mirrors the
// original design's arena-per-run model: allocation is conceptually
// free, and reclamation happens once, between runs, not per-item.
func (a *Arena[T]) Reset() {
	a.next = 0
}

// Len returns the number of values handed out since construction or the
// last Reset.
func (a *Arena[T]) Len() int {
	return a.next
}

// Cap returns the arena's total capacity.
func (a *Arena[T]) Cap() int {
	return len(a.backing)
}

// ParseSize parses a --prealloc_size-style string with an optional k/m/g
// suffix (case-insensitive, power-of-two multipliers) into an item count.
func ParseSize(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("arena: empty size")
	}
	mult := 1
	suffix := s[len(s)-1]
	switch suffix {
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("arena: invalid size %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("arena: size must be positive, got %q", s)
	}
	return n * mult, nil
}
