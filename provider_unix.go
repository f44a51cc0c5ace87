// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.
// Modifications (c) 2026 The Segheap Authors.

//go:build darwin || dragonfly || freebsd || linux || openbsd || netbsd

package segheap

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// OSProvider is a Provider backed by the operating system's virtual memory.
// It reserves a large PROT_NONE anonymous mapping up front and commits
// pages into it as Extend is called, the standard sbrk-over-mmap
// emulation: a plain repeated mmap cannot promise the contiguity spec.md
// requires of a provider, since the kernel is free to place each mapping
// anywhere.
//
// This adapts the teacher's own mmap_unix.go (which calls a single
// syscall.Mmap per allocation class) to golang.org/x/sys/unix, the binding
// _examples/other_examples/.../alewtschuk-balloc (a sibling allocator in
// the retrieved pack) uses for the same mmap/mprotect reserve-then-commit
// pairing.
type OSProvider struct {
	region []byte
	used   int
}

// NewOSProvider reserves reserveBytes of address space for the managed
// region. reserveBytes is rounded up to a multiple of the OS page size.
func NewOSProvider(reserveBytes int) (*OSProvider, error) {
	pageSize := unix.Getpagesize()
	reserveBytes = (reserveBytes + pageSize - 1) &^ (pageSize - 1)

	b, err := unix.Mmap(-1, 0, reserveBytes, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrap(err, "segheap: OSProvider: reserving address space")
	}

	return &OSProvider{region: b}, nil
}

func (p *OSProvider) base() uintptr { return uintptr(unsafe.Pointer(&p.region[0])) }

// Low implements Provider.
func (p *OSProvider) Low() uintptr { return p.base() }

// High implements Provider.
func (p *OSProvider) High() uintptr {
	if p.used == 0 {
		return p.base()
	}
	return p.base() + uintptr(p.used) - 1
}

// Extend implements Provider. n need not be page-aligned; the underlying
// commit is rounded up to whole pages, but only n bytes are promised
// usable beyond the previous boundary.
func (p *OSProvider) Extend(n int) (uintptr, error) {
	if n < 0 {
		return 0, errors.Errorf("segheap: OSProvider.Extend: negative size %d", n)
	}
	if p.used+n > len(p.region) {
		return 0, errors.Errorf("segheap: OSProvider.Extend: reservation of %d bytes exhausted, requested %d more at offset %d", len(p.region), n, p.used)
	}

	pageSize := unix.Getpagesize()
	oldCommitted := (p.used + pageSize - 1) &^ (pageSize - 1)
	newCommitted := (p.used + n + pageSize - 1) &^ (pageSize - 1)
	if newCommitted > oldCommitted {
		toCommit := p.region[oldCommitted:newCommitted]
		if err := unix.Mprotect(toCommit, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, errors.Wrap(err, "segheap: OSProvider.Extend: committing pages")
		}
	}

	start := p.used
	p.used += n
	return p.base() + uintptr(start), nil
}

// Close releases the reserved address space back to the OS. It is not
// necessary to Close an OSProvider when exiting a process.
func (p *OSProvider) Close() error {
	if p.region == nil {
		return nil
	}
	err := unix.Munmap(p.region)
	p.region = nil
	return err
}
