// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Modifications (c) 2026 The Segheap Authors.

package segheap

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/pkg/errors"
)

// headerOverhead is the per-allocation bookkeeping cost of an allocated
// block: a header word only, no footer (§9, payload overhead note).
const headerOverhead = wordSize

// adjustedSize computes the block size to carve for a requested payload of
// n bytes: at least minBlockSize, rounded up to a multiple of 16, with
// headerOverhead added before rounding.
func adjustedSize(n uintptr) uintptr {
	size := roundUp16(n + headerOverhead)
	if size < minBlockSize {
		size = minBlockSize
	}
	return size
}

// Malloc allocates size bytes and returns a 16-byte-aligned pointer to the
// payload, or nil if size is zero or the Provider cannot supply more
// memory. Malloc panics for size < 0, matching the teacher's own Malloc.
func (a *Allocator) Malloc(size int) (r unsafe.Pointer, err error) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Malloc(%#x) %p, %v\n", size, r, err)
		}()
	}
	if size < 0 {
		panic("segheap: invalid malloc size")
	}
	defer a.tick()
	if size == 0 {
		return nil, nil
	}

	if !a.bootOK {
		if err := a.bootstrap(); err != nil {
			return nil, err
		}
	}

	adjusted := adjustedSize(uintptr(size))
	b := a.findFit(adjusted)
	if b == 0 {
		grow := adjusted
		if grow < chunkSize {
			grow = chunkSize
		}
		if err := a.extend(grow); err != nil {
			return nil, err
		}
		b = a.findFit(adjusted)
		if b == 0 {
			return nil, errors.New("segheap: malloc: provider extended but no fit found")
		}
	}

	a.lists.remove(b)
	out := a.split(b, adjusted)
	a.allocs++
	return unsafe.Pointer(out.payload()), nil
}

// Free deallocates the memory at ptr. ptr must have been returned by
// Malloc, Calloc or Realloc on the same Allocator, or be nil (a no-op).
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Free(%p)\n", ptr)
		}()
	}
	defer a.tick()
	if ptr == nil {
		return
	}

	b := blockOf(uintptr(ptr))
	size := b.size()
	writeFree(b, size, b.prevAllocated())
	a.coalesce(b)
	a.allocs--
}

// Realloc changes the size of the allocation at ptr to size bytes,
// preserving the lesser of the old and new sizes' worth of content. A nil
// ptr behaves like Malloc(size); a zero size behaves like Free(ptr) and
// returns nil. See §4.8.
func (a *Allocator) Realloc(ptr unsafe.Pointer, size int) (r unsafe.Pointer, err error) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Realloc(%p, %#x) %p, %v\n", ptr, size, r, err)
		}()
	}
	if size < 0 {
		panic("segheap: invalid realloc size")
	}
	switch {
	case size == 0:
		a.Free(ptr)
		return nil, nil
	case ptr == nil:
		return a.Malloc(size)
	}

	oldBlock := blockOf(uintptr(ptr))
	oldPayloadSize := int(oldBlock.size() - headerOverhead)

	out, err := a.Malloc(size)
	if err != nil {
		return nil, err
	}

	n := oldPayloadSize
	if size < n {
		n = size
	}
	if n > 0 {
		srcSlice := unsafe.Slice((*byte)(ptr), n)
		dstSlice := unsafe.Slice((*byte)(out), n)
		copy(dstSlice, srcSlice)
	}
	a.Free(ptr)
	return out, nil
}

// Calloc is like Malloc except the allocated memory is zero-initialised,
// and count*elemSize is checked for multiplication overflow (§4.8). Either
// argument being zero returns (nil, nil).
func (a *Allocator) Calloc(count, elemSize int) (r unsafe.Pointer, err error) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Calloc(%#x, %#x) %p, %v\n", count, elemSize, r, err)
		}()
	}
	if count < 0 || elemSize < 0 {
		panic("segheap: invalid calloc arguments")
	}
	if count == 0 || elemSize == 0 {
		return nil, nil
	}

	total := count * elemSize
	if total/count != elemSize {
		return nil, errors.Errorf("segheap: calloc: %d * %d overflows", count, elemSize)
	}

	p, err := a.Malloc(total)
	if err != nil || p == nil {
		return p, err
	}

	b := unsafe.Slice((*byte)(p), total)
	for i := range b {
		b[i] = 0
	}
	return p, nil
}

// tick advances the call counter and, if SetCheckEvery has been called
// with a positive n, runs Verify every nth call. Malloc and Free call it on
// return (§5 of SPEC_FULL.md, supplemented checker-invocation behaviour).
func (a *Allocator) tick() {
	if a.checkEvery <= 0 {
		return
	}
	a.callCount++
	if a.callCount%a.checkEvery == 0 {
		if err := a.Verify(nil); err != nil {
			panic(err)
		}
	}
}

// SetCheckEvery configures the allocator to run its consistency checker
// after every nth Malloc or Free call, panicking on the first invariant
// violation found. Realloc and Calloc are counted through the Malloc and
// Free calls they make. n <= 0 disables the check. Intended
// for tests and debug builds, matching the DEBUG-gated checker calls in
// the source corpus's mm.c.
func (a *Allocator) SetCheckEvery(n int) { a.checkEvery = n }

// SetTrace turns the package-level call trace on or off. Off by default.
func SetTrace(on bool) { trace = on }
