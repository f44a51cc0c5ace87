// Copyright 2026 The Segheap Authors.

package segheap

// trace gates the one-line-per-call debug trace the teacher's own
// memory.Allocator prints via fmt.Fprintf when its own (unexported) trace
// switch is on. Off by default; toggle with SetTrace.
var trace = false
