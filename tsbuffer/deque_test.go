// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tsbuffer_test

import (
	"testing"

	"code.hybscloud.com/scal/pool"
	"code.hybscloud.com/scal/tsbuffer"
)

func TestDequeLeftIsFIFORightIsLIFO(t *testing.T) {
	d := tsbuffer.NewDeque[int](1, tsbuffer.NewAtomicClock(), tsbuffer.NewAtomicClock())
	consumer := d.NewConsumer()
	for i := 0; i < 5; i++ {
		d.PutLeft(0, i)
	}
	for i := 0; i < 5; i++ {
		v, err := d.PopLeft(consumer)
		if err != nil {
			t.Fatalf("PopLeft() #%d: %v", i, err)
		}
		if v != i {
			t.Fatalf("PopLeft() #%d = %d, want %d", i, v, i)
		}
	}

	for i := 0; i < 5; i++ {
		d.PutRight(0, i)
	}
	for i := 4; i >= 0; i-- {
		v, err := d.PopRight(consumer)
		if err != nil {
			t.Fatalf("PopRight() at want=%d: %v", i, err)
		}
		if v != i {
			t.Fatalf("PopRight() = %d, want %d", v, i)
		}
	}
}

func TestDequeEndsAreIndependentlyEmpty(t *testing.T) {
	d := tsbuffer.NewDeque[int](1, tsbuffer.NewAtomicClock(), tsbuffer.NewAtomicClock())
	consumer := d.NewConsumer()
	d.PutLeft(0, 1)
	if _, err := d.PopRight(consumer); !pool.IsWouldBlock(err) {
		t.Fatalf("PopRight() with only a left insert = %v, want ErrWouldBlock", err)
	}
	v, err := d.PopLeft(consumer)
	if err != nil || v != 1 {
		t.Fatalf("PopLeft() = (%d, %v), want (1, nil)", v, err)
	}
}
