// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Modifications (c) 2026 The Segheap Authors.

package segheap

import "unsafe"

// minBlockSize is the smallest legal block: an 8-byte header, two 8-byte
// free-list links and, for a free block, an 8-byte footer. An allocated
// block of this size has no links or footer and holds up to 24 bytes of
// payload.
const minBlockSize = 32

// wordSize is the size in bytes of a boundary-tag word and of a free-list
// link field.
const wordSize = 8

// A block is the address of a block's header word on the heap. It is a
// view: reading and writing through it mutates the heap in place, but a
// block value itself carries no state of its own.
type block uintptr

func loadWord(addr uintptr) uint64  { return *(*uint64)(unsafe.Pointer(addr)) }
func storeWord(addr uintptr, v uint64) { *(*uint64)(unsafe.Pointer(addr)) = v }

// header reads the block's header word.
func (b block) header() tag { return tag(loadWord(uintptr(b))) }

// setHeader overwrites the block's header word.
func (b block) setHeader(t tag) { storeWord(uintptr(b), uint64(t)) }

// size is the full size of the block (header + payload/links + footer, if
// any), in bytes.
func (b block) size() uintptr { return b.header().size() }

// allocated reports whether the block is currently handed out to a caller.
func (b block) allocated() bool { return b.header().allocated() }

// prevAllocated reports whether the on-heap predecessor of b is allocated.
func (b block) prevAllocated() bool { return b.header().prevAllocated() }

// payload is the address of the first payload byte (or, for a free block,
// the first free-list link field).
func (b block) payload() uintptr { return uintptr(b) + wordSize }

// footer is the address of the footer word. Only valid for free blocks;
// allocated blocks have no footer.
func (b block) footer() uintptr { return uintptr(b) + b.size() - wordSize }

// setFooter writes a footer word equal to the header, as required for
// every free block (invariant 3 of §3).
func (b block) setFooter() { storeWord(b.footer(), uint64(b.header())) }

// nextOnHeap returns the block immediately following b on the heap. The
// caller must ensure b is not the epilogue.
func (b block) nextOnHeap() block { return block(uintptr(b) + b.size()) }

// prevOnHeap returns the block immediately preceding b on the heap. Only
// valid when b.prevAllocated() == false: an allocated predecessor has no
// footer to read the size from (§4.2).
func (b block) prevOnHeap() block {
	prevFooter := tag(loadWord(uintptr(b) - wordSize))
	return block(uintptr(b) - prevFooter.size())
}

// next is the free-list successor link, valid only while b.allocated() ==
// false.
func (b block) next() block { return block(loadWord(b.payload())) }

func (b block) setNext(n block) { storeWord(b.payload(), uint64(n)) }

// prev is the free-list predecessor link, valid only while
// b.allocated() == false.
func (b block) prev() block { return block(loadWord(b.payload() + wordSize)) }

func (b block) setPrev(p block) { storeWord(b.payload()+wordSize, uint64(p)) }

// setPrevAllocBit rewrites only the prev-allocated bit of b's header,
// leaving size and the alloc bit untouched.
func (b block) setPrevAllocBit(prevAlloc bool) {
	b.setHeader(b.header().withPrevAlloc(prevAlloc))
}

// writeFree stamps b as a free block of the given size with the given
// prev-alloc bit, header and footer in agreement (invariant 3).
func writeFree(b block, size uintptr, prevAlloc bool) {
	t := packTag(size, false, prevAlloc)
	b.setHeader(t)
	b.setFooter()
}

// writeAllocated stamps b as an allocated block of the given size. No
// footer is written: allocated blocks carry no footer (§9, payload
// overhead note).
func writeAllocated(b block, size uintptr, prevAlloc bool) {
	b.setHeader(packTag(size, true, prevAlloc))
}

// blockOf recovers the block header address from a payload pointer
// previously handed to a caller.
func blockOf(payload uintptr) block { return block(payload - wordSize) }
