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

// Package filecache implements the §4.D open-file cache: a fixed-size,
// direct-mapped array of open file slots per dataset per rank. There is
// no LRU ranking — a collision closes the prior occupant unconditionally,
// since collisions are expected to be rare for well-behaved workloads.
package filecache

import (
	"context"
	"os"

	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/metrics"
	"github.com/spf13/afero"
)

// Slots is the fixed slot count N of §4.D's budget: at most Slots open
// descriptors per dataset per rank.
const Slots = 32

// slot holds one cache entry. fileID is -1 when the slot is empty.
type slot struct {
	fileID int64
	handle afero.File
	offset int64
}

// Cache is the fixed-size direct-mapped open-file cache for one dataset
// on one rank. Not safe for concurrent use without external locking (the
// dataset-level mutex of §4.G already serializes access).
type Cache struct {
	fs      afero.Fs
	write   bool
	mode    os.FileMode
	slots   [Slots]slot
	metrics metrics.Handle
}

// New returns an empty Cache. write selects the open contract
// (O_CREAT|O_WRONLY vs O_RDONLY); mode is 0777 & ~umask captured at
// module creation.
func New(fs afero.Fs, write bool, mode os.FileMode, h metrics.Handle) *Cache {
	if h == nil {
		h = metrics.NewNoop()
	}
	c := &Cache{fs: fs, write: write, mode: mode, metrics: h}
	for i := range c.slots {
		c.slots[i].fileID = -1
	}
	return c
}

// index maps a numeric id to its direct-mapped slot.
func index(id int64) int {
	m := id % Slots
	if m < 0 {
		m += Slots
	}
	return int(m)
}

// Get returns the open handle for id, opening path and evicting any
// colliding occupant if necessary. The returned handle's underlying
// offset is whatever the last seek left it at; callers seek explicitly
// before I/O.
func (c *Cache) Get(ctx context.Context, id int64, path string) (afero.File, error) {
	i := index(id)
	s := &c.slots[i]

	if s.fileID == id && s.handle != nil {
		c.metrics.SlotHit(ctx, nil)
		return s.handle, nil
	}

	if s.handle != nil {
		c.metrics.SlotEviction(ctx, nil)
		s.handle.Close()
		s.handle = nil
		s.fileID = -1
	}

	flags := os.O_RDONLY
	if c.write {
		flags = os.O_CREAT | os.O_WRONLY
	}
	f, err := c.fs.OpenFile(path, flags, c.mode)
	if err != nil {
		return nil, hioerr.IO("filecache.open", err)
	}

	c.metrics.SlotMiss(ctx, nil)
	s.fileID = id
	s.handle = f
	s.offset = 0
	return f, nil
}

// Invalidate closes and empties the slot mapped to id, if occupied by
// id. Used when a file is being replaced out from under the cache (rare,
// but keeps invariant 1 from going stale after an external unlink).
func (c *Cache) Invalidate(id int64) error {
	i := index(id)
	s := &c.slots[i]
	if s.fileID != id || s.handle == nil {
		return nil
	}
	err := s.handle.Close()
	s.handle = nil
	s.fileID = -1
	if err != nil {
		return hioerr.IO("filecache.invalidate", err)
	}
	return nil
}

// CloseAll closes every occupied slot, accumulating the first error
// encountered but continuing to close the rest.
func (c *Cache) CloseAll() error {
	var firstErr error
	for i := range c.slots {
		s := &c.slots[i]
		if s.handle == nil {
			continue
		}
		if err := s.handle.Close(); err != nil && firstErr == nil {
			firstErr = hioerr.IO("filecache.close_all", err)
		}
		s.handle = nil
		s.fileID = -1
	}
	return firstErr
}
