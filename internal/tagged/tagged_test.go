// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagged

import (
	"sync"
	"testing"
)

func TestValue128LoadStore(t *testing.T) {
	var v Value128
	v.Store(42, 7)
	value, tag := v.Load()
	if value != 42 || tag != 7 {
		t.Fatalf("Load() = (%d, %d), want (42, 7)", value, tag)
	}
}

func TestValue128CompareAndSwap(t *testing.T) {
	var v Value128
	v.Store(1, 0)

	if !v.CompareAndSwap(1, 0, 2, 1) {
		t.Fatal("CompareAndSwap should succeed against the current word")
	}
	value, tag := v.Load()
	if value != 2 || tag != 1 {
		t.Fatalf("Load() after swap = (%d, %d), want (2, 1)", value, tag)
	}

	if v.CompareAndSwap(1, 0, 3, 2) {
		t.Fatal("CompareAndSwap should fail against a stale word")
	}
}

func TestValue128TagMonotonic(t *testing.T) {
	var v Value128
	v.Store(0, 0)

	const goroutines = 8
	const swapsEach = 200
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for {
				value, tag := v.Load()
				if value >= goroutines*swapsEach {
					return
				}
				v.CompareAndSwap(value, tag, value+1, tag+1)
			}
		}()
	}
	wg.Wait()

	value, tag := v.Load()
	if value != goroutines*swapsEach || tag != goroutines*swapsEach {
		t.Fatalf("Load() = (%d, %d), want (%d, %d)", value, tag, goroutines*swapsEach, goroutines*swapsEach)
	}
}

func TestValue64Offset(t *testing.T) {
	v := NewValue64Offset()
	v.Store(8*1000, 3)
	value, tag := v.Load()
	if value != 8*1000 || tag != 3 {
		t.Fatalf("Load() = (%d, %d), want (8000, 3)", value, tag)
	}
	if !v.CompareAndSwap(8*1000, 3, 8*2000, 4) {
		t.Fatal("CompareAndSwap should succeed")
	}
}

func TestValue64NoOffsetTagWraps(t *testing.T) {
	v := NewValue64NoOffset()
	v.Store(5, 0xF)
	value, tag := v.Load()
	if value != 5 || tag != 0xF {
		t.Fatalf("Load() = (%d, %d), want (5, 15)", value, tag)
	}
	// A tag value outside the 4-bit range is masked, not rejected.
	v.Store(5, 0x1F)
	_, tag = v.Load()
	if tag != 0xF {
		t.Fatalf("tag = %d, want masked to 15", tag)
	}
}
