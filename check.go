// Copyright 2026 The Segheap Authors.

package segheap

import "fmt"

// InvariantKind identifies which quantified property of §8 an
// InvariantError reports a violation of.
type InvariantKind int

const (
	// KindAlignment: a payload address is not 16-byte aligned.
	KindAlignment InvariantKind = iota
	// KindSizeDiscipline: a block's size is below minBlockSize or not a
	// multiple of 16.
	KindSizeDiscipline
	// KindTagAgreement: a free block's header and footer words differ.
	KindTagAgreement
	// KindPrevAllocMismatch: a block's prev-allocated bit disagrees with
	// its on-heap predecessor's actual allocated bit.
	KindPrevAllocMismatch
	// KindAdjacentFree: two adjacent on-heap blocks are both free.
	KindAdjacentFree
	// KindListMembership: the free blocks found walking the heap don't
	// match the free blocks found walking all class lists.
	KindListMembership
	// KindListLinkMismatch: a list node's next/prev links don't agree
	// with its neighbours' reciprocal links.
	KindListLinkMismatch
	// KindClassContainment: a list node's size falls outside its class's
	// range, or it is marked allocated while linked into a free list.
	KindClassContainment
)

func (k InvariantKind) String() string {
	switch k {
	case KindAlignment:
		return "alignment"
	case KindSizeDiscipline:
		return "size discipline"
	case KindTagAgreement:
		return "tag agreement"
	case KindPrevAllocMismatch:
		return "prev-alloc mismatch"
	case KindAdjacentFree:
		return "adjacent free blocks"
	case KindListMembership:
		return "list membership"
	case KindListLinkMismatch:
		return "list link mismatch"
	case KindClassContainment:
		return "class containment"
	default:
		return "unknown invariant"
	}
}

// InvariantError reports a single structural-invariant violation found by
// Verify, modeled on cznic/exp/lldb's ErrILSEQ
// (_examples/cznic-exp/lldb/falloc.go): a Kind enum plus the offending
// address and a human-readable detail, rather than a generic errors.New.
type InvariantError struct {
	Kind   InvariantKind
	Addr   uintptr
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("segheap: invariant violated: %s at %#x: %s", e.Kind, e.Addr, e.Detail)
}

var alwaysStop = func(error) bool { return false }

// Verify walks the whole heap and all eight free lists, checking every
// quantified property in §8. Each violation found is reported to log; if
// log returns false (nil log behaves as always-false, matching
// lldb.Verify's nolog), the walk stops and the violation is returned.
// Verify returns nil only if it completed without finding any problem.
func (a *Allocator) Verify(log func(error) bool) error {
	if log == nil {
		log = alwaysStop
	}
	if !a.bootOK {
		return nil
	}

	heapFree := map[uintptr]uintptr{}
	prevAllocated := true // the prologue sentinel is always allocated
	for cur := a.heapStart; ; {
		h := cur.header()
		size := h.size()
		if size == 0 {
			break // epilogue
		}

		if cur.payload()%16 != 0 {
			if err := a.reportOrStop(log, KindAlignment, uintptr(cur), fmt.Sprintf("payload %#x not 16-byte aligned", cur.payload())); err != nil {
				return err
			}
		}
		if size < minBlockSize || size%16 != 0 {
			if err := a.reportOrStop(log, KindSizeDiscipline, uintptr(cur), fmt.Sprintf("size %d", size)); err != nil {
				return err
			}
		}
		if !h.allocated() {
			footer := tag(loadWord(cur.footer()))
			if footer != h {
				if err := a.reportOrStop(log, KindTagAgreement, uintptr(cur), fmt.Sprintf("header %#x != footer %#x", uint64(h), uint64(footer))); err != nil {
					return err
				}
			}
		}
		if h.prevAllocated() != prevAllocated {
			if err := a.reportOrStop(log, KindPrevAllocMismatch, uintptr(cur), fmt.Sprintf("prevAlloc bit %v, predecessor allocated %v", h.prevAllocated(), prevAllocated)); err != nil {
				return err
			}
		}
		if !h.allocated() && !prevAllocated {
			if err := a.reportOrStop(log, KindAdjacentFree, uintptr(cur), "both this block and its predecessor are free"); err != nil {
				return err
			}
		}
		if !h.allocated() {
			heapFree[uintptr(cur)] = size
		}

		prevAllocated = h.allocated()
		cur = cur.nextOnHeap()
	}

	listFree := map[uintptr]uintptr{}
	for class := 0; class < numClasses; class++ {
		lo := classBounds[class]
		hi := uintptr(0)
		unbounded := class == numClasses-1
		if !unbounded {
			hi = classBounds[class+1]
		}

		var prev block
		for node := a.lists.roots[class]; node != 0; node = node.next() {
			if node.allocated() {
				if err := a.reportOrStop(log, KindClassContainment, uintptr(node), "node on free list is marked allocated"); err != nil {
					return err
				}
			}
			size := node.size()
			if size < lo || (!unbounded && size >= hi) {
				if err := a.reportOrStop(log, KindClassContainment, uintptr(node), fmt.Sprintf("size %d outside class %d range", size, class)); err != nil {
					return err
				}
			}
			if node.prev() != prev {
				if err := a.reportOrStop(log, KindListLinkMismatch, uintptr(node), "back-link does not match predecessor"); err != nil {
					return err
				}
			}
			listFree[uintptr(node)] = size
			prev = node
		}
	}

	if len(heapFree) != len(listFree) {
		if err := a.reportOrStop(log, KindListMembership, uintptr(a.heapStart), fmt.Sprintf("%d free blocks on heap, %d on lists", len(heapFree), len(listFree))); err != nil {
			return err
		}
	}
	for addr, size := range heapFree {
		if lsize, ok := listFree[addr]; !ok || lsize != size {
			if err := a.reportOrStop(log, KindListMembership, addr, "heap-walk free block missing or size-mismatched on its class list"); err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *Allocator) reportOrStop(log func(error) bool, kind InvariantKind, addr uintptr, detail string) error {
	err := &InvariantError{Kind: kind, Addr: addr, Detail: detail}
	if log(err) {
		return nil
	}
	return err
}

// Stats summarises the current heap layout, named after the teacher's own
// bookkeeping fields and cznic/exp/lldb's AllocStats
// (_examples/cznic-exp/lldb/falloc.go).
type Stats struct {
	AllocBlocks int
	FreeBlocks  int
	AllocBytes  int64
	FreeBytes   int64
}

// Stats walks the heap and reports block counts and byte totals. It does
// not check any invariant; use Verify for that.
func (a *Allocator) Stats() Stats {
	var st Stats
	if !a.bootOK {
		return st
	}
	for cur := a.heapStart; ; {
		h := cur.header()
		size := h.size()
		if size == 0 {
			break
		}
		if h.allocated() {
			st.AllocBlocks++
			st.AllocBytes += int64(size)
		} else {
			st.FreeBlocks++
			st.FreeBytes += int64(size)
		}
		cur = cur.nextOnHeap()
	}
	return st
}
