// Copyright 2026 The Segheap Authors.

package segheap

// coalesce merges a just-freed block b with any free on-heap neighbours and
// re-links the surviving block into its free list, per §4.4. b must already
// have alloc=false written to its header and footer and prevAllocated set
// to reflect its actual predecessor; it must not yet be linked into any
// free list.
//
// It returns the surviving block (b itself, or whichever neighbour
// absorbed it) and ensures that the block immediately following the
// survivor on the heap has its prev-allocated bit cleared.
func (a *Allocator) coalesce(b block) block {
	prevFree := !b.prevAllocated()
	next := b.nextOnHeap()
	nextFree := !next.allocated() // epilogue has alloc=true, so this is false at the end of heap

	switch {
	case !prevFree && !nextFree:
		a.lists.insert(b)
		next.setPrevAllocBit(false)
		return b

	case !prevFree && nextFree:
		a.lists.remove(next)
		size := b.size() + next.size()
		writeFree(b, size, true)
		a.lists.insert(b)
		b.nextOnHeap().setPrevAllocBit(false)
		return b

	case prevFree && !nextFree:
		prev := b.prevOnHeap()
		a.lists.remove(prev)
		size := prev.size() + b.size()
		writeFree(prev, size, prev.prevAllocated())
		a.lists.insert(prev)
		next.setPrevAllocBit(false)
		return prev

	default: // prevFree && nextFree
		prev := b.prevOnHeap()
		a.lists.remove(prev)
		a.lists.remove(next)
		size := prev.size() + b.size() + next.size()
		writeFree(prev, size, prev.prevAllocated())
		a.lists.insert(prev)
		prev.nextOnHeap().setPrevAllocBit(false)
		return prev
	}
}
