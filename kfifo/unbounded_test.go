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

func TestUnboundedNeverBlocksOnPut(t *testing.T) {
	q := kfifo.NewUnbounded[int](2)
	for i := 0; i < 100; i++ {
		v := i
		if err := q.Put(&v); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}
}

func TestUnboundedGetFailsWhenEmpty(t *testing.T) {
	q := kfifo.NewUnbounded[int](2)
	if _, err := q.Get(); !pool.IsWouldBlock(err) {
		t.Fatalf("Get() on empty queue = %v, want ErrWouldBlock", err)
	}
}

func TestUnboundedGrowsAcrossSegments(t *testing.T) {
	q := kfifo.NewUnbounded[int](2)
	const n = 50 // several segments at k=2
	for i := 0; i < n; i++ {
		v := i
		if err := q.Put(&v); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}
	seen := make([]bool, n)
	for i := 0; i < n; i++ {
		got, err := q.Get()
		if err != nil {
			t.Fatalf("Get() #%d: %v", i, err)
		}
		if seen[*got] {
			t.Fatalf("value %d returned twice", *got)
		}
		seen[*got] = true
	}
	if _, err := q.Get(); !pool.IsWouldBlock(err) {
		t.Fatalf("Get() after draining = %v, want ErrWouldBlock", err)
	}
}

func TestUnboundedConcurrentNoLoss(t *testing.T) {
	if racetag.Enabled {
		t.Skip("race detector cannot observe tagged-CAS happens-before edges; false positives expected")
	}
	const (
		k            = 3
		numProducers = 4
		numConsumers = 4
		perProducer  = 2000
	)
	q := kfifo.NewUnbounded[int](k)
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
				if err := q.Put(&item); err != nil {
					t.Errorf("Put: %v", err)
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
}
