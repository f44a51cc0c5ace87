// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Modifications (c) 2026 The Segheap Authors.

package segheap

import "github.com/cznic/mathutil"

// numClasses is the number of segregated size-class free-list roots (§3,
// free-list roots table).
const numClasses = 8

// classBounds[i] is the inclusive lower bound, in bytes, of size class i.
// Class numClasses-1 has no upper bound. These mirror the table in spec §3;
// class 7's lower bound is pinned at 4096, not 2048 as some revisions of
// the source corpus had it (§9, source irregularities).
var classBounds = [numClasses]uintptr{
	32, 64, 128, 256, 512, 1024, 2048, 4096,
}

// classOf returns the size class a block of the given size belongs to, or
// would be inserted into. size must be >= minBlockSize.
//
// Every class range [2^k, 2^(k+1)) is exactly the set of integers with bit
// length k+1, so mathutil.BitLen(size) - bitlen(minBlockSize) gives the
// class index directly, clamped into the last class once size reaches the
// unbounded top range. This is the same bit-length trick the teacher's own
// slab allocator uses to pick a power-of-two bucket (memory.go: log :=
// mathutil.BitLen(roundup(size, mallocAllign)-1)), adapted here to classify
// by range membership rather than by rounding up to the next power of two.
func classOf(size uintptr) int {
	if size < minBlockSize {
		panic("segheap: classOf: size below minimum block size")
	}
	baseBits := mathutil.BitLen(minBlockSize)
	class := mathutil.BitLen(int(size)) - baseBits
	if class < 0 {
		class = 0
	}
	if class >= numClasses {
		class = numClasses - 1
	}
	return class
}

// freeLists is the array of segregated free-list roots described in §3.
// Each root holds the head of a LIFO doubly-linked list of free blocks, or
// the zero block (no block address is ever 0 for a real heap) to mean
// empty.
type freeLists struct {
	roots [numClasses]block
}

// insert places b at the head of the list for its size class. Pre: b is
// free and not currently linked into any list.
func (f *freeLists) insert(b block) {
	class := classOf(b.size())
	head := f.roots[class]
	b.setPrev(0)
	b.setNext(head)
	if head != 0 {
		head.setPrev(b)
	}
	f.roots[class] = b
}

// remove splices b out of the free list for its size class. Pre: b is
// currently linked into that list.
func (f *freeLists) remove(b block) {
	class := classOf(b.size())
	prev := b.prev()
	next := b.next()
	switch {
	case prev == 0 && next == 0:
		f.roots[class] = 0
	case prev == 0:
		f.roots[class] = next
		next.setPrev(0)
	case next == 0:
		prev.setNext(0)
	default:
		prev.setNext(next)
		next.setPrev(prev)
	}
}
