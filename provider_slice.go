// Copyright 2026 The Segheap Authors.

package segheap

import (
	"unsafe"

	"github.com/pkg/errors"
)

// SliceProvider is a Provider backed by a single pre-reserved Go byte
// slice. It never moves or reallocates: the full capacity is reserved at
// construction time and Extend only advances the used-length boundary, so
// every address handed out stays valid for the provider's lifetime.
//
// This is the in-process stand-in used by this repo's own tests and by
// the driver harness, grounded in the teacher's practice of exercising the
// allocator without a real OS region wherever possible, and in
// cznic/exp/lldb's MemFiler (_examples/cznic-exp/lldb/memfiler.go), an
// in-memory stand-in for a real Filer used throughout lldb's own tests.
type SliceProvider struct {
	buf  []byte
	used int
}

// NewSliceProvider reserves capacity bytes and returns a Provider over it.
// Extend fails once the reservation is exhausted — callers sizing a
// SliceProvider for a trace should reserve generously, the way a real OS
// region is reserved far larger than any single process will ever commit.
func NewSliceProvider(capacity int) *SliceProvider {
	return &SliceProvider{buf: make([]byte, 0, capacity)}
}

func (p *SliceProvider) base() uintptr {
	if cap(p.buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p.buf[:1][0]))
}

// Low implements Provider.
func (p *SliceProvider) Low() uintptr { return p.base() }

// High implements Provider.
func (p *SliceProvider) High() uintptr {
	if p.used == 0 {
		return p.base()
	}
	return p.base() + uintptr(p.used) - 1
}

// Extend implements Provider.
func (p *SliceProvider) Extend(n int) (uintptr, error) {
	if n < 0 {
		return 0, errors.Errorf("segheap: SliceProvider.Extend: negative size %d", n)
	}
	if p.used+n > cap(p.buf) {
		return 0, errors.Errorf("segheap: SliceProvider.Extend: reservation of %d bytes exhausted, requested %d more at offset %d", cap(p.buf), n, p.used)
	}

	start := p.used
	p.used += n
	p.buf = p.buf[:p.used]
	return p.base() + uintptr(start), nil
}
