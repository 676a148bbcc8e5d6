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

// Package rankgroup implements the §6.3 rank-group collaborator: the
// process-wide identity (rank, size, node-local shared rank/size, node
// count) plus the collective operations the dataset lifecycle needs to
// agree on a manifest and a shared-memory stripe-allocator region across
// ranks.
package rankgroup

import "github.com/posixhio/hio/internal/hioerr"

// Region is a block of memory visible to every rank sharing a node,
// backed by an anonymous MAP_SHARED mapping. It carries the stripe
// allocator's control block (internal/stripe).
type Region interface {
	// Bytes returns the mapped region. Writes through it are visible to
	// every rank on the same node without further synchronization
	// (callers are responsible for atomicity of individual fields).
	Bytes() []byte
	Close() error
}

// Group is the collaborator a dataset is opened against. Rank 0 is the
// job-wide leader; the shared rank 0 on each node is that node's IO
// leader (§4.H's "node leader").
type Group interface {
	Rank() int
	Size() int
	SharedRank() int
	SharedSize() int
	NodeCount() int

	// Broadcast sends buf from root to every rank and returns what root
	// sent (on root, buf itself; on other ranks, root's buf).
	Broadcast(buf []byte, root int) ([]byte, error)

	// Scatter distributes send (indexed by destination rank) from root;
	// every rank, including root, gets back its own slice.
	Scatter(send [][]byte, root int) ([]byte, error)

	// AllreduceMin returns the minimum of v across all ranks.
	AllreduceMin(v int) (int, error)

	// Gather collects data from every rank to root: the returned slice's
	// i-th entry is rank i's contribution. Every caller receives the full
	// array (the same shape Scatter's source array takes), though only
	// root is expected to act on it; non-root contributions of a nil or
	// empty slice are the caller's way of saying "nothing this round",
	// used by dataset close's per-node-leader manifest gather (§4.H),
	// which calls Gather once per node leader and lets every other rank
	// contribute nothing on rounds that aren't its own node's.
	Gather(data []byte, root int) ([][]byte, error)

	// Barrier blocks until every rank has called Barrier.
	Barrier() error

	// SharedMemoryRegion returns a region of the given size shared by
	// every rank on Group's node. All ranks on a node must request the
	// same size; the first caller allocates, later callers on the same
	// node receive the same mapping.
	SharedMemoryRegion(size int) (Region, error)
}

// errWrongRoot is returned when Broadcast or Scatter is called with a
// root outside [0, Size()).
func errWrongRoot(op string) error {
	return hioerr.BadState(op)
}
