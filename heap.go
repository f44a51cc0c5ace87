// Copyright 2026 The Segheap Authors.

package segheap

import (
	"github.com/pkg/errors"
)

// chunkSize is the default heap-extension granularity (§3, lifecycle).
const chunkSize = 4096

// Allocator is a segregated-fit dynamic storage allocator over a single
// contiguous region obtained from a Provider. Its zero value is not ready
// for use until a Provider has been installed; use New to construct one.
//
// Allocator assumes serialised access: like the teacher's own
// memory.Allocator, it carries no lock and none is permitted by the design
// (§5, concurrency).
type Allocator struct {
	provider Provider

	lists     freeLists
	heapStart block // address of the first real block's header
	epilogue  block // address of the current epilogue word
	bootOK    bool

	bytes  int // bytes obtained from the provider so far
	allocs int // count of live allocations

	checkEvery int // if > 0, run Verify after every nth public call
	callCount  int
}

// New returns an Allocator that draws its backing region from p. The heap
// is not bootstrapped until the first Malloc call (Calloc and Realloc
// allocate through Malloc), matching the
// teacher's own Allocator whose zero value defers all setup to first use.
func New(p Provider) *Allocator {
	return &Allocator{provider: p}
}

// Low returns the inclusive lower bound of the managed region, or 0 if the
// allocator has not yet been bootstrapped.
func (a *Allocator) Low() uintptr {
	if !a.bootOK {
		return 0
	}
	return a.provider.Low()
}

// High returns the inclusive upper bound of the managed region, or 0 if the
// allocator has not yet been bootstrapped.
func (a *Allocator) High() uintptr {
	if !a.bootOK {
		return 0
	}
	return a.provider.High()
}

// Bytes returns the total number of bytes obtained from the Provider so
// far, named after the teacher's own bookkeeping field (memory.go: a.bytes).
func (a *Allocator) Bytes() int { return a.bytes }

// Allocs returns the number of currently-live allocations.
func (a *Allocator) Allocs() int { return a.allocs }

// bootstrap establishes the prologue, epilogue and an initial chunkSize
// free block, per §4.7.
func (a *Allocator) bootstrap() error {
	base, err := a.provider.Extend(2 * wordSize)
	if err != nil {
		return errors.Wrap(err, "segheap: bootstrap: reserving prologue/epilogue")
	}
	sentinel := packTag(0, true, true)
	storeWord(base, uint64(sentinel))
	storeWord(base+wordSize, uint64(sentinel))

	a.bytes += 2 * wordSize
	a.heapStart = block(base + wordSize)
	a.epilogue = a.heapStart
	a.bootOK = true

	if err := a.extend(chunkSize); err != nil {
		a.bootOK = false
		return errors.Wrap(err, "segheap: bootstrap: initial extension")
	}
	return nil
}

// roundUp16 rounds n up to the nearest multiple of 16.
func roundUp16(n uintptr) uintptr { return (n + 15) &^ 15 }

// extend grows the heap by at least n bytes, installing a new free block
// in place of the old epilogue and coalescing it with whatever free block
// preceded it, per §4.7.
func (a *Allocator) extend(n uintptr) error {
	n = roundUp16(n)
	oldEpilogue := a.epilogue

	base, err := a.provider.Extend(int(n))
	if err != nil {
		return errors.Wrapf(err, "segheap: extend: requesting %d bytes", n)
	}
	if base != uintptr(oldEpilogue) {
		return errors.Errorf("segheap: extend: provider returned non-contiguous address %#x, want %#x", base, oldEpilogue)
	}

	a.bytes += int(n)
	prevAlloc := oldEpilogue.prevAllocated()
	newBlock := oldEpilogue
	writeFree(newBlock, n, prevAlloc)
	newEpilogue := newBlock.nextOnHeap()
	newEpilogue.setHeader(packTag(0, true, false))
	a.epilogue = newEpilogue

	a.coalesce(newBlock)
	return nil
}
