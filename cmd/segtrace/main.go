// Copyright 2026 The Segheap Authors.

// Command segtrace replays a synthetic trace of allocate/free/reallocate
// operations against a segheap.Allocator and reports utilisation and
// throughput, the driver-harness role spec.md calls out of scope for the
// allocator core (§1) but a complete repository still ships.
//
// Grounded in cznic/exp/lldb's db_bench and dbm/crash programs
// (_examples/cznic-exp/lldb/db_bench/main_test.go,
// _examples/cznic-exp/dbm/crash/main.go): flag-driven, logs progress with
// the standard log package, and drives the allocator purely through its
// public API.
package main

import (
	"flag"
	"log"
	"math"
	"time"
	"unsafe"

	"github.com/cznic/mathutil"

	"github.com/cznic-style/segheap"
)

var (
	oOps      = flag.Int("ops", 100000, "number of allocate/free operations to replay")
	oMaxSize  = flag.Int("max", 512, "maximum single-request payload size in bytes")
	oSeed     = flag.Int("seed", 42, "PRNG seed for the synthetic trace")
	oReserve  = flag.Int("reserve", 256<<20, "bytes of address space to reserve")
	oVerify   = flag.Int("verify-every", 0, "run the consistency checker every n operations (0 disables)")
	oFreeProb = flag.Int("free-pct", 40, "percent chance of a free vs. an allocate at each step")
)

func main() {
	flag.Parse()

	provider := segheap.NewSliceProvider(*oReserve)
	a := segheap.New(provider)
	if *oVerify > 0 {
		a.SetCheckEvery(*oVerify)
	}

	rng, err := mathutil.NewFC32(1, math.MaxInt32, true)
	if err != nil {
		log.Fatal(err)
	}
	rng.Seed(*oSeed)

	var live []unsafe.Pointer
	start := time.Now()
	var allocs, frees int

	for i := 0; i < *oOps; i++ {
		if len(live) > 0 && rng.Next()%100 < *oFreeProb {
			idx := rng.Next() % len(live)
			ptr := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			a.Free(ptr)
			frees++
			continue
		}

		size := rng.Next()%(*oMaxSize) + 1
		p, err := a.Malloc(size)
		if err != nil {
			log.Printf("malloc(%d) failed: %v", size, err)
			continue
		}
		if p != nil {
			live = append(live, p)
			allocs++
		}
	}

	elapsed := time.Since(start)
	st := a.Stats()
	var util float64
	if total := st.AllocBytes + st.FreeBytes; total > 0 {
		util = float64(st.AllocBytes) / float64(total)
	}

	log.Printf("ops=%d allocs=%d frees=%d live=%d", *oOps, allocs, frees, len(live))
	log.Printf("alloc_blocks=%d free_blocks=%d alloc_bytes=%d free_bytes=%d utilisation=%.3f",
		st.AllocBlocks, st.FreeBlocks, st.AllocBytes, st.FreeBytes, util)
	log.Printf("elapsed=%s ns/op=%.1f", elapsed, float64(elapsed.Nanoseconds())/float64(*oOps))

	if err := a.Verify(nil); err != nil {
		log.Fatalf("final consistency check failed: %v", err)
	}
}
