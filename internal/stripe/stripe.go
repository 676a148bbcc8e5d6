// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stripe implements the §4.F stripe reservation allocator: the
// shared-memory-backed counter ranks on a node fetch-and-add into to
// carve out disjoint physical byte ranges for OPTIMIZED-mode writes.
package stripe

import (
	"context"
	"sync/atomic"
	"unsafe"

	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/metrics"
)

// ControlBlock is the shared_control.s_stripes array: one atomic 64-bit
// counter per stripe, backed by a rankgroup.Region so every rank on a
// node observes the same memory.
type ControlBlock struct {
	bytes []byte
}

// NewControlBlock wraps region bytes as a ControlBlock able to hold at
// least stripeCount counters (8 bytes each). dataset open sizes its
// rankgroup.Group.SharedMemoryRegion as 8+stripeCount*8 and passes the
// bytes after the leading s_master slot.
func NewControlBlock(regionBytes []byte) *ControlBlock {
	return &ControlBlock{bytes: regionBytes}
}

func (c *ControlBlock) slot(stripe int) *int64 {
	off := stripe * 8
	return (*int64)(unsafe.Pointer(&c.bytes[off]))
}

// fetchAdd atomically adds delta to stripe's counter and returns its
// value prior to the add (invariant 2: monotonically non-decreasing).
func (c *ControlBlock) fetchAdd(stripe int, delta int64) int64 {
	return atomic.AddInt64(c.slot(stripe), delta) - delta
}

// TraceFunc, when set on Allocator, is called once per refill with the
// stripe index and byte count reserved, mirroring the "reserve" trace
// event of the tracer component.
type TraceFunc func(stripe int, bytes int64)

// Allocator serves one dataset's OPTIMIZED writes on one rank. It caches
// the tail of the last reservation (reserved_offset/reserved_remaining)
// so small writes don't all round-trip through the shared counter.
type Allocator struct {
	Control     *ControlBlock
	BlockSize   int64
	StripeCount int64
	MyStripe    int64
	Metrics     metrics.Handle
	Trace       TraceFunc

	reservedOffset    int64
	reservedRemaining int64
}

// Reserve implements the §4.F algorithm. It returns a physical offset
// and the number of bytes actually served (<= requested); the caller
// loops, calling Reserve again, if served falls short.
func (a *Allocator) Reserve(requested int64) (offset int64, served int64, err error) {
	if requested <= 0 {
		return 0, 0, hioerr.BadState("stripe.reserve.requested")
	}
	if a.BlockSize <= 0 {
		return 0, 0, hioerr.BadState("stripe.reserve.block_size")
	}

	h := a.Metrics
	if h == nil {
		h = metrics.NewNoop()
	}

	if a.reservedRemaining > 0 {
		served = requested
		if served > a.reservedRemaining {
			served = a.reservedRemaining
		}
		offset = a.reservedOffset
		a.reservedOffset += served
		a.reservedRemaining -= served
		h.StripeAllocation(context.Background(), served, nil)
		return offset, served, nil
	}

	stripeCount := a.StripeCount
	if stripeCount <= 0 {
		stripeCount = 1
	}

	space := roundUp(requested, a.BlockSize)
	if stripeCount > 1 && space > a.BlockSize {
		// With more than one stripe per node a reservation may not run
		// past this stripe's block into the next stripe's: serve one block
		// and let the caller loop for the rest.
		requested = a.BlockSize
		space = a.BlockSize
	}
	nstripes := space / a.BlockSize

	sIndex := a.Control.fetchAdd(int(a.MyStripe), nstripes)
	h.ReservationRefill(context.Background(), nil)
	if a.Trace != nil {
		a.Trace(int(a.MyStripe), space)
	}

	newOffset := sIndex*stripeCount*a.BlockSize + a.MyStripe*a.BlockSize

	a.reservedOffset = newOffset + requested
	a.reservedRemaining = space - requested

	h.StripeAllocation(context.Background(), requested, nil)
	return newOffset, requested, nil
}

func roundUp(n, multiple int64) int64 {
	if n%multiple == 0 {
		return n
	}
	return n + (multiple - n%multiple)
}
