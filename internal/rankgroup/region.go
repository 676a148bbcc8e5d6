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

import (
	"sync"

	"github.com/posixhio/hio/internal/hioerr"
	"golang.org/x/sys/unix"
)

// mmapRegion is a Region backed by an anonymous MAP_SHARED|MAP_ANON
// mapping, so every goroutine (in-process) or, on platforms where the
// mapping is inherited across a fork, every rank on a node observes the
// same bytes without going through the filesystem.
type mmapRegion struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

func newMmapRegion(size int) (*mmapRegion, error) {
	if size <= 0 {
		return nil, hioerr.BadState("rankgroup.region.size")
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, hioerr.OutOfResource("rankgroup.region.mmap", err)
	}
	return &mmapRegion{data: data}, nil
}

func (r *mmapRegion) Bytes() []byte {
	return r.data
}

func (r *mmapRegion) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if err := unix.Munmap(r.data); err != nil {
		return hioerr.IO("rankgroup.region.munmap", err)
	}
	return nil
}
