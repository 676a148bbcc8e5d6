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

package rankgroup

import "sync"

// round is a single rendezvous: every rank supplies its input, the last
// rank to arrive computes the shared result, and everyone observes it.
type round struct {
	size    int
	mu      sync.Mutex
	data    []any
	arrived int
	result  any
	readyCh chan struct{}
}

func newRound(size int) *round {
	return &round{size: size, data: make([]any, size), readyCh: make(chan struct{})}
}

// hub sequences successive collective calls: callers on every rank are
// expected to invoke the same sequence of operations, the same
// precondition any collective-communication library relies on.
type hub struct {
	mu   sync.Mutex
	size int
	cur  *round
}

func newHub(size int) *hub {
	return &hub{size: size}
}

func (h *hub) collective(rank int, input any, compute func([]any) any) any {
	h.mu.Lock()
	if h.cur == nil {
		h.cur = newRound(h.size)
	}
	r := h.cur
	h.mu.Unlock()

	r.mu.Lock()
	r.data[rank] = input
	r.arrived++
	last := r.arrived == r.size
	if last {
		r.result = compute(r.data)
		h.mu.Lock()
		h.cur = nil
		h.mu.Unlock()
	}
	ch := r.readyCh
	r.mu.Unlock()

	if last {
		close(ch)
	} else {
		<-ch
	}
	return r.result
}

// regionEntry lazily creates the one shared-memory region for a node;
// every rank on that node receives the same mapping.
type regionEntry struct {
	once   sync.Once
	region *mmapRegion
	err    error
}

type inProcessGroup struct {
	rank        int
	size        int
	sharedRank  int
	sharedSize  int
	node        int
	nodeCount   int
	jobHub      *hub
	nodeEntries []*regionEntry // indexed by node
	nodeMu      *sync.Mutex
}

var _ Group = (*inProcessGroup)(nil)

// NewInProcess builds size Group handles simulating a job of size ranks
// spread across nodeCount nodes (rank i is assigned to node i%nodeCount),
// suitable for driving the dataset lifecycle concurrently in tests.
func NewInProcess(size, nodeCount int) []Group {
	if nodeCount < 1 {
		nodeCount = 1
	}
	if nodeCount > size {
		nodeCount = size
	}

	jobHub := newHub(size)
	entries := make([]*regionEntry, nodeCount)
	for i := range entries {
		entries[i] = &regionEntry{}
	}
	var nodeMu sync.Mutex

	sharedRankByNode := make([]int, nodeCount)
	sharedSizeByNode := make([]int, nodeCount)
	for rank := 0; rank < size; rank++ {
		sharedSizeByNode[rank%nodeCount]++
	}

	groups := make([]Group, size)
	for rank := 0; rank < size; rank++ {
		node := rank % nodeCount
		sharedRank := sharedRankByNode[node]
		sharedRankByNode[node]++
		groups[rank] = &inProcessGroup{
			rank:        rank,
			size:        size,
			sharedRank:  sharedRank,
			sharedSize:  sharedSizeByNode[node],
			node:        node,
			nodeCount:   nodeCount,
			jobHub:      jobHub,
			nodeEntries: entries,
			nodeMu:      &nodeMu,
		}
	}
	return groups
}

func (g *inProcessGroup) Rank() int       { return g.rank }
func (g *inProcessGroup) Size() int       { return g.size }
func (g *inProcessGroup) SharedRank() int { return g.sharedRank }
func (g *inProcessGroup) SharedSize() int { return g.sharedSize }
func (g *inProcessGroup) NodeCount() int  { return g.nodeCount }

func (g *inProcessGroup) Broadcast(buf []byte, root int) ([]byte, error) {
	if root < 0 || root >= g.size {
		return nil, errWrongRoot("rankgroup.inprocess.broadcast")
	}
	res := g.jobHub.collective(g.rank, buf, func(data []any) any {
		return data[root]
	})
	if res == nil {
		return nil, nil
	}
	return res.([]byte), nil
}

func (g *inProcessGroup) Scatter(send [][]byte, root int) ([]byte, error) {
	if root < 0 || root >= g.size {
		return nil, errWrongRoot("rankgroup.inprocess.scatter")
	}
	res := g.jobHub.collective(g.rank, send, func(data []any) any {
		return data[root]
	})
	full, _ := res.([][]byte)
	if full == nil || g.rank >= len(full) {
		return nil, nil
	}
	return full[g.rank], nil
}

func (g *inProcessGroup) Gather(data []byte, root int) ([][]byte, error) {
	if root < 0 || root >= g.size {
		return nil, errWrongRoot("rankgroup.inprocess.gather")
	}
	res := g.jobHub.collective(g.rank, data, func(all []any) any {
		out := make([][]byte, len(all))
		for i, a := range all {
			b, _ := a.([]byte)
			out[i] = b
		}
		return out
	})
	return res.([][]byte), nil
}

func (g *inProcessGroup) AllreduceMin(v int) (int, error) {
	res := g.jobHub.collective(g.rank, v, func(data []any) any {
		min := data[0].(int)
		for _, d := range data[1:] {
			if n := d.(int); n < min {
				min = n
			}
		}
		return min
	})
	return res.(int), nil
}

func (g *inProcessGroup) Barrier() error {
	g.jobHub.collective(g.rank, nil, func([]any) any { return nil })
	return nil
}

func (g *inProcessGroup) SharedMemoryRegion(size int) (Region, error) {
	entry := g.nodeEntries[g.node]
	entry.once.Do(func() {
		entry.region, entry.err = newMmapRegion(size)
	})
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.region, nil
}
