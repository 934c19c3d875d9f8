// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kfifo_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/scal/internal/racetag"
	"code.hybscloud.com/scal/kfifo"
	"code.hybscloud.com/scal/pool"
)

func TestBoundedSingleThreadedFIFOOrderWithinSegment(t *testing.T) {
	q := kfifo.NewBounded[int](1, 4)
	vals := []int{1, 2, 3}
	for _, v := range vals {
		if err := q.Put(&v); err != nil {
			t.Fatalf("Put(%d): %v", v, err)
		}
	}
	for _, want := range vals {
		got, err := q.Get()
		if err != nil {
			t.Fatalf("Get(): %v", err)
		}
		if *got != want {
			t.Fatalf("Get() = %d, want %d", *got, want)
		}
	}
}

func TestBoundedPutFailsWhenFull(t *testing.T) {
	q := kfifo.NewBounded[int](2, 1)
	a, b := 1, 2
	if err := q.Put(&a); err != nil {
		t.Fatalf("Put(a): %v", err)
	}
	if err := q.Put(&b); err != nil {
		t.Fatalf("Put(b): %v", err)
	}
	c := 3
	if err := q.Put(&c); !pool.IsWouldBlock(err) {
		t.Fatalf("Put(c) on full queue = %v, want ErrWouldBlock", err)
	}
}

func TestBoundedGetFailsWhenEmpty(t *testing.T) {
	q := kfifo.NewBounded[int](2, 2)
	if _, err := q.Get(); !pool.IsWouldBlock(err) {
		t.Fatalf("Get() on empty queue = %v, want ErrWouldBlock", err)
	}
}

// TestBoundedConcurrentNoLoss drives p producers and c consumers against a
// bounded k-FIFO and checks every produced value is consumed exactly once.
// It does not check order: a k-FIFO is only k-relaxed, not strictly FIFO.
func TestBoundedConcurrentNoLoss(t *testing.T) {
	if racetag.Enabled {
		t.Skip("race detector cannot observe tagged-CAS happens-before edges; false positives expected")
	}
	const (
		k            = 4
		segments     = 8
		numProducers = 4
		numConsumers = 4
		perProducer  = 2000
	)
	q := kfifo.NewBounded[int](k, segments)
	total := numProducers * perProducer
	seen := make([]atomix.Int32, total)

	var wg sync.WaitGroup
	for p := 0; p < numProducers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := id*perProducer + i
				item := v
				for q.Put(&item) != nil {
					time.Sleep(time.Microsecond)
				}
			}
		}(p)
	}

	var consumed atomix.Int64
	for c := 0; c < numConsumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(10 * time.Second)
			for consumed.Load() < int64(total) {
				v, err := q.Get()
				if err != nil {
					if time.Now().After(deadline) {
						return
					}
					continue
				}
				if seen[*v].Add(1) != 1 {
					t.Errorf("value %d consumed more than once", *v)
				}
				consumed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := consumed.Load(); got != int64(total) {
		t.Fatalf("consumed %d items, want %d", got, total)
	}
	for i := range seen {
		if seen[i].Load() != 1 {
			t.Fatalf("value %d seen %d times, want 1", i, seen[i].Load())
		}
	}
}
