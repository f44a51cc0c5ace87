// Copyright 2026 The Segheap Authors.

package segheap

import "testing"

func TestPackTagRoundTrip(t *testing.T) {
	cases := []struct {
		size            uintptr
		alloc, prevAlloc bool
	}{
		{32, false, false},
		{32, true, false},
		{48, false, true},
		{4096, true, true},
		{0, true, true}, // sentinel shape
	}
	for _, c := range cases {
		tg := packTag(c.size, c.alloc, c.prevAlloc)
		if g, e := tg.size(), c.size; g != e {
			t.Errorf("packTag(%d,%v,%v).size() = %d, want %d", c.size, c.alloc, c.prevAlloc, g, e)
		}
		if g, e := tg.allocated(), c.alloc; g != e {
			t.Errorf("packTag(%d,%v,%v).allocated() = %v, want %v", c.size, c.alloc, c.prevAlloc, g, e)
		}
		if g, e := tg.prevAllocated(), c.prevAlloc; g != e {
			t.Errorf("packTag(%d,%v,%v).prevAllocated() = %v, want %v", c.size, c.alloc, c.prevAlloc, g, e)
		}
	}
}

func TestTagWithPrevAlloc(t *testing.T) {
	tg := packTag(64, true, false)
	if tg.withPrevAlloc(true).prevAllocated() != true {
		t.Fatal("withPrevAlloc(true) did not set the bit")
	}
	if tg.withPrevAlloc(true).size() != 64 || tg.withPrevAlloc(true).allocated() != true {
		t.Fatal("withPrevAlloc mutated size or alloc bit")
	}
	tg2 := packTag(64, true, true)
	if tg2.withPrevAlloc(false).prevAllocated() != false {
		t.Fatal("withPrevAlloc(false) did not clear the bit")
	}
}
