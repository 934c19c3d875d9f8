// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena

import "testing"

func TestArenaAllocExhaustion(t *testing.T) {
	a := New[int](2)
	if _, ok := a.Alloc(); !ok {
		t.Fatal("first Alloc should succeed")
	}
	if _, ok := a.Alloc(); !ok {
		t.Fatal("second Alloc should succeed")
	}
	if _, ok := a.Alloc(); ok {
		t.Fatal("third Alloc should fail, arena has capacity 2")
	}
}

func TestArenaReset(t *testing.T) {
	a := New[int](1)
	p, ok := a.Alloc()
	if !ok {
		t.Fatal("Alloc should succeed")
	}
	*p = 7
	a.Reset()
	if a.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", a.Len())
	}
	p2, ok := a.Alloc()
	if !ok {
		t.Fatal("Alloc after Reset should succeed")
	}
	if *p2 != 7 {
		t.Fatalf("Reset should not zero backing storage, got %d", *p2)
	}
}

func TestParseSize(t *testing.T) {
	cases := map[string]int{
		"1":   1,
		"4k":  4 * 1 << 10,
		"2M":  2 * 1 << 20,
		"1g":  1 << 30,
		"16K": 16 * 1 << 10,
	}
	for in, want := range cases {
		got, err := ParseSize(in)
		if err != nil {
			t.Fatalf("ParseSize(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseSizeInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0"} {
		if _, err := ParseSize(in); err == nil {
			t.Fatalf("ParseSize(%q) should error", in)
		}
	}
}
