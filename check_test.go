// Copyright 2026 The Segheap Authors.

package segheap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyPassesOnFreshHeap(t *testing.T) {
	a := newTestAllocator(t)
	_, err := a.Malloc(128)
	require.NoError(t, err)
	require.NoError(t, a.Verify(nil))
}

// isolatedFreeBlock256 allocates and frees a 256-byte block with an
// allocated spacer on each side, so the freed block can't coalesce away and
// remains a standalone class-3 free-list node.
func isolatedFreeBlock256(t *testing.T, a *Allocator) block {
	t.Helper()
	_, err := a.Malloc(48)
	require.NoError(t, err)
	p, err := a.Malloc(256 - headerOverhead)
	require.NoError(t, err)
	_, err = a.Malloc(48)
	require.NoError(t, err)

	a.Free(p)
	b := blockOf(uintptr(p))
	require.EqualValues(t, 256, b.size())
	return b
}

// Corrupting a free block's footer so it disagrees with its header must be
// caught as a tag-agreement violation.
func TestVerifyDetectsTagAgreementMismatch(t *testing.T) {
	a := newTestAllocator(t)
	free := isolatedFreeBlock256(t, a)
	storeWord(free.footer(), uint64(free.header())+1)

	err := a.Verify(nil)
	require.Error(t, err)
	ierr, ok := err.(*InvariantError)
	require.True(t, ok)
	require.Equal(t, KindTagAgreement, ierr.Kind)
}

// Flipping a block's prev-allocated bit so it disagrees with its actual
// on-heap predecessor must be caught.
func TestVerifyDetectsPrevAllocMismatch(t *testing.T) {
	a := newTestAllocator(t)
	p, err := a.Malloc(256)
	require.NoError(t, err)

	b := blockOf(uintptr(p))
	b.setPrevAllocBit(!b.prevAllocated())

	err = a.Verify(nil)
	require.Error(t, err)
	ierr, ok := err.(*InvariantError)
	require.True(t, ok)
	require.Equal(t, KindPrevAllocMismatch, ierr.Kind)
}

// Swapping a free-list node's back-link to point at the wrong predecessor
// must be caught as a list-link mismatch.
func TestVerifyDetectsListLinkMismatch(t *testing.T) {
	a := newTestAllocator(t)

	spacer := func() { _, err := a.Malloc(48); require.NoError(t, err) }
	p1, err := a.Malloc(256 - headerOverhead)
	require.NoError(t, err)
	spacer()
	p2, err := a.Malloc(256 - headerOverhead)
	require.NoError(t, err)
	spacer()

	a.Free(p1)
	a.Free(p2)
	require.NoError(t, a.Verify(nil))

	head := a.lists.roots[classOf(256)]
	require.NotZero(t, head.next(), "need at least two nodes on the list to corrupt a back-link")
	tail := head.next()
	tail.setPrev(0)

	err = a.Verify(nil)
	require.Error(t, err)
	ierr, ok := err.(*InvariantError)
	require.True(t, ok)
	require.Equal(t, KindListLinkMismatch, ierr.Kind)
}

// A block linked into a free list but marked allocated must be caught as a
// class-containment violation.
func TestVerifyDetectsAllocatedNodeOnFreeList(t *testing.T) {
	a := newTestAllocator(t)
	free := isolatedFreeBlock256(t, a)
	succ := free.nextOnHeap()
	writeAllocated(free, free.size(), free.prevAllocated())
	succ.setPrevAllocBit(true) // keep the heap walk itself consistent; only the list should look wrong

	err := a.Verify(nil)
	require.Error(t, err)
	ierr, ok := err.(*InvariantError)
	require.True(t, ok)
	require.Equal(t, KindClassContainment, ierr.Kind)
}

// A log callback that always returns true lets Verify walk past every
// violation it finds and still report nil, since the walk never stops early.
func TestVerifyLogCallbackCollectsWithoutStopping(t *testing.T) {
	a := newTestAllocator(t)
	free := isolatedFreeBlock256(t, a)
	storeWord(free.footer(), uint64(free.header())+1)

	var seen []error
	collect := func(e error) bool {
		seen = append(seen, e)
		return true
	}
	require.NoError(t, a.Verify(collect))
	require.Len(t, seen, 1)
	ierr, ok := seen[0].(*InvariantError)
	require.True(t, ok)
	require.Equal(t, KindTagAgreement, ierr.Kind)
}

func TestStatsUnaffectedByVerify(t *testing.T) {
	a := newTestAllocator(t)
	_, err := a.Malloc(100)
	require.NoError(t, err)
	before := a.Stats()
	require.NoError(t, a.Verify(nil))
	after := a.Stats()
	require.Equal(t, before, after)
}
