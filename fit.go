// Copyright 2026 The Segheap Authors.

package segheap

// fitScanCap bounds how many nodes of a single class list the fit search
// will examine while looking for a best fit, per §4.6. The source corpus's
// earlier revisions used ten; the canonical design fixes it at fifty.
const fitScanCap = 50

// findFit locates a free block of size at least adjusted using a bounded
// best-fit scan over the segregated lists, per §4.6. Returns the zero
// block if none is found.
func (a *Allocator) findFit(adjusted uintptr) block {
	start := classOf(adjusted)
	for class := start; class < numClasses; class++ {
		if b := a.scanClass(class, adjusted); b != 0 {
			return b
		}
	}
	return 0
}

// scanClass scans a single class's list for the best (smallest adequate)
// fit, capped at fitScanCap nodes. If a best candidate has been found by
// the cap, it is returned; otherwise the first fit seen beyond the cap is
// returned. Ties go to the first-encountered block in list order.
func (a *Allocator) scanClass(class int, adjusted uintptr) block {
	var best block
	var bestSize uintptr
	n := 0
	for cur := a.lists.roots[class]; cur != 0; cur = cur.next() {
		size := cur.size()
		if size >= adjusted {
			if best == 0 || size < bestSize {
				best = cur
				bestSize = size
			}
		}
		n++
		if n >= fitScanCap {
			if best != 0 {
				return best
			}
			// Keep scanning past the cap only until the first fit.
			for cur = cur.next(); cur != 0; cur = cur.next() {
				if cur.size() >= adjusted {
					return cur
				}
			}
			return 0
		}
	}
	return best
}
