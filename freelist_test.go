// Copyright 2026 The Segheap Authors.

package segheap

import (
	"testing"
	"unsafe"
)

func TestClassOfBoundaries(t *testing.T) {
	cases := []struct {
		size  uintptr
		class int
	}{
		{32, 0}, {63, 0},
		{64, 1}, {127, 1},
		{128, 2}, {255, 2},
		{256, 3}, {511, 3},
		{512, 4}, {1023, 4},
		{1024, 5}, {2047, 5},
		{2048, 6}, {4095, 6},
		{4096, 7}, {1 << 20, 7},
	}
	for _, c := range cases {
		if g := classOf(c.size); g != c.class {
			t.Errorf("classOf(%d) = %d, want %d", c.size, g, c.class)
		}
	}
}

func TestClassOfPanicsBelowMinimum(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("classOf(16) did not panic")
		}
	}()
	classOf(16)
}

// pinnedArenas keeps the backing arrays handed out by heapArena reachable
// for the lifetime of the test process: the blocks under test are
// addressed by uintptr, which the garbage collector does not trace, so the
// slice itself must stay referenced from somewhere else.
var pinnedArenas [][]byte

// heapArena provides raw, 16-byte-aligned storage for free-list tests that
// don't need a full Allocator/Provider, only valid block addresses to link
// together.
func heapArena(t *testing.T, n int) uintptr {
	t.Helper()
	buf := make([]byte, n+16)
	pinnedArenas = append(pinnedArenas, buf)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	return (addr + 15) &^ 15
}

func TestFreeListInsertRemoveLIFO(t *testing.T) {
	base := heapArena(t, 256)
	var f freeLists

	b1 := block(base)
	writeFree(b1, 64, true)
	b2 := block(base + 64)
	writeFree(b2, 64, true)
	b3 := block(base + 128)
	writeFree(b3, 64, true)

	f.insert(b1)
	f.insert(b2)
	f.insert(b3)

	class := classOf(64)
	if f.roots[class] != b3 {
		t.Fatalf("head after 3 inserts = %#x, want b3 %#x", f.roots[class], b3)
	}
	if b3.prev() != 0 {
		t.Fatal("head's back-link must be null")
	}
	if b3.next() != b2 || b2.prev() != b3 {
		t.Fatal("b3<->b2 link broken")
	}
	if b2.next() != b1 || b1.prev() != b2 {
		t.Fatal("b2<->b1 link broken")
	}
	if b1.next() != 0 {
		t.Fatal("tail's forward link must be null")
	}

	// remove interior (b2)
	f.remove(b2)
	if b3.next() != b1 || b1.prev() != b3 {
		t.Fatal("splice of interior node left a broken link")
	}

	// remove head (b3)
	f.remove(b3)
	if f.roots[class] != b1 {
		t.Fatalf("head after removing old head = %#x, want b1 %#x", f.roots[class], b1)
	}
	if b1.prev() != 0 {
		t.Fatal("new head's back-link must be null")
	}

	// remove last remaining node
	f.remove(b1)
	if f.roots[class] != 0 {
		t.Fatal("list should be empty after removing its only node")
	}
}
