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

// Local is the degenerate single-rank, single-node Group used when no
// external context is supplied (e.g. a standalone CLI invocation).
// Optimized mode is infeasible under Local per §4.H (context size < 2),
// so dataset open silently downgrades to BASIC.
type Local struct {
	region *mmapRegion
}

var _ Group = (*Local)(nil)

func (l *Local) Rank() int       { return 0 }
func (l *Local) Size() int       { return 1 }
func (l *Local) SharedRank() int { return 0 }
func (l *Local) SharedSize() int { return 1 }
func (l *Local) NodeCount() int  { return 1 }

func (l *Local) Broadcast(buf []byte, root int) ([]byte, error) {
	if root != 0 {
		return nil, errWrongRoot("rankgroup.local.broadcast")
	}
	return buf, nil
}

func (l *Local) Scatter(send [][]byte, root int) ([]byte, error) {
	if root != 0 {
		return nil, errWrongRoot("rankgroup.local.scatter")
	}
	if len(send) == 0 {
		return nil, nil
	}
	return send[0], nil
}

func (l *Local) AllreduceMin(v int) (int, error) {
	return v, nil
}

func (l *Local) Gather(data []byte, root int) ([][]byte, error) {
	if root != 0 {
		return nil, errWrongRoot("rankgroup.local.gather")
	}
	return [][]byte{data}, nil
}

func (l *Local) Barrier() error {
	return nil
}

func (l *Local) SharedMemoryRegion(size int) (Region, error) {
	if l.region != nil {
		return l.region, nil
	}
	r, err := newMmapRegion(size)
	if err != nil {
		return nil, err
	}
	l.region = r
	return r, nil
}
