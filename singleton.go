// Copyright 2026 The Segheap Authors.

package segheap

import "unsafe"

// defaultAllocator backs the package-level Malloc/Free/Realloc/Calloc
// free functions. It is lazily wired to an OSProvider on first use.
//
// The global roots and heap bounds are process-wide by nature (§9, design
// notes: "A process-singleton wrapper may be provided for compatibility
// with free-function call sites"); everything else about the allocator is
// encapsulated in the Allocator value itself, so callers who want an
// isolated heap should construct their own Allocator via New rather than
// use these free functions.
var defaultAllocator *Allocator

func defaultReserveBytes() int { return 1 << 30 } // 1 GiB of reserved address space

func ensureDefault() *Allocator {
	if defaultAllocator != nil {
		return defaultAllocator
	}
	p, err := NewOSProvider(defaultReserveBytes())
	if err != nil {
		panic(err)
	}
	defaultAllocator = New(p)
	return defaultAllocator
}

// Malloc is Allocator.Malloc on the process-wide default allocator.
func Malloc(size int) (unsafe.Pointer, error) { return ensureDefault().Malloc(size) }

// Free is Allocator.Free on the process-wide default allocator.
func Free(ptr unsafe.Pointer) { ensureDefault().Free(ptr) }

// Realloc is Allocator.Realloc on the process-wide default allocator.
func Realloc(ptr unsafe.Pointer, size int) (unsafe.Pointer, error) {
	return ensureDefault().Realloc(ptr, size)
}

// Calloc is Allocator.Calloc on the process-wide default allocator.
func Calloc(count, elemSize int) (unsafe.Pointer, error) {
	return ensureDefault().Calloc(count, elemSize)
}
