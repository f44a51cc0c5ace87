// Copyright 2026 The Segheap Authors.

package segheap

// split carves an allocated block of size adjusted out of free block b
// (whose size is at least adjusted), per §4.5. If the remainder is at
// least minBlockSize it becomes a new free block inserted into its class
// list; otherwise the whole of b is handed out. b must already be removed
// from its free list by the caller (Malloc does this after the fit search
// returns b). Returns the block to hand back to the caller, now marked
// allocated.
func (a *Allocator) split(b block, adjusted uintptr) block {
	total := b.size()
	prevAlloc := b.prevAllocated()
	remainder := total - adjusted

	if remainder < minBlockSize {
		writeAllocated(b, total, prevAlloc)
		b.nextOnHeap().setPrevAllocBit(true)
		return b
	}

	writeAllocated(b, adjusted, prevAlloc)
	tail := b.nextOnHeap()
	writeFree(tail, remainder, true)
	a.lists.insert(tail)
	tail.nextOnHeap().setPrevAllocBit(false)
	return b
}
