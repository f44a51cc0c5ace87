// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.
// Modifications (c) 2026 The Segheap Authors.

//go:build windows

package segheap

import (
	"syscall"

	"github.com/pkg/errors"
)

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procVirtualAlloc = modkernel32.NewProc("VirtualAlloc")
	procVirtualFree  = modkernel32.NewProc("VirtualFree")
)

const (
	memReserve  = 0x00002000
	memCommit   = 0x00001000
	memRelease  = 0x00008000
	pageReadWrite = 0x04
	pageNoAccess  = 0x01
)

// OSProvider is a Provider backed by the operating system's virtual
// memory, reserving address space up front with VirtualAlloc(MEM_RESERVE)
// and committing pages into it as Extend is called — the same
// reserve/commit split the teacher's mmap_windows.go does with
// CreateFileMapping/MapViewOfFile, kept on plain syscall since
// golang.org/x/sys/windows does not appear anywhere in the retrieved
// example pack (see DESIGN.md).
type OSProvider struct {
	base    uintptr
	reserve uintptr
	used    int
}

// NewOSProvider reserves reserveBytes of address space for the managed
// region.
func NewOSProvider(reserveBytes int) (*OSProvider, error) {
	r, _, errno := procVirtualAlloc.Call(0, uintptr(reserveBytes), memReserve, pageNoAccess)
	if r == 0 {
		return nil, errors.Wrap(errno, "segheap: OSProvider: reserving address space")
	}
	return &OSProvider{base: r, reserve: uintptr(reserveBytes)}, nil
}

// Low implements Provider.
func (p *OSProvider) Low() uintptr { return p.base }

// High implements Provider.
func (p *OSProvider) High() uintptr {
	if p.used == 0 {
		return p.base
	}
	return p.base + uintptr(p.used) - 1
}

// Extend implements Provider.
func (p *OSProvider) Extend(n int) (uintptr, error) {
	if n < 0 {
		return 0, errors.Errorf("segheap: OSProvider.Extend: negative size %d", n)
	}
	if uintptr(p.used+n) > p.reserve {
		return 0, errors.Errorf("segheap: OSProvider.Extend: reservation of %d bytes exhausted, requested %d more at offset %d", p.reserve, n, p.used)
	}

	start := p.used
	r, _, errno := procVirtualAlloc.Call(p.base, uintptr(p.used+n), memCommit, pageReadWrite)
	if r == 0 {
		return 0, errors.Wrap(errno, "segheap: OSProvider.Extend: committing pages")
	}

	p.used += n
	return p.base + uintptr(start), nil
}

// Close releases the reserved address space back to the OS.
func (p *OSProvider) Close() error {
	if p.base == 0 {
		return nil
	}
	r, _, errno := procVirtualFree.Call(p.base, 0, memRelease)
	p.base = 0
	if r == 0 {
		return errors.Wrap(errno, "segheap: OSProvider.Close")
	}
	return nil
}
