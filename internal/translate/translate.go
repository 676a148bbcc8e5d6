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

// Package translate implements the §4.E address translator: mapping an
// element's logical offset range to a physical (file, offset, length)
// triple, dispatching on the dataset's file_mode.
package translate

import (
	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/layout"
	"github.com/posixhio/hio/internal/manifest"
)

// Element is the subset of element state translate needs: its in-memory
// segment list (OPTIMIZED mode only) and identity for filename building.
type Element struct {
	Name     string
	Rank     int // used only in UNIQUE mode for filename disambiguation
	Size     int64 // monotonic high-water mark of offset+length over any write
	Segments []manifest.Segment
}

// Allocator is the §4.F stripe reservation allocator, consulted on
// OPTIMIZED writes when no existing segment covers the offset.
type Allocator interface {
	Reserve(requested int64) (offset int64, served int64, err error)
}

// SegmentLookup is the §4.H dataset map: the merged view of peer
// manifests consulted on OPTIMIZED reads when an element's own segment
// list doesn't cover the offset.
type SegmentLookup interface {
	Lookup(element string, logicalOffset int64) (manifest.Segment, bool)
}

// Target is what the caller needs to perform the I/O: either the
// element's own handle (BASIC) or a (FileID, Path) pair to resolve
// through the open-file cache, plus the physical offset to seek to and
// the length clipped per §4.E's rules.
type Target struct {
	UseElementHandle bool
	FileID           int64
	Path             string
	Offset           int64
	Length           int64
}

// Translator holds the dataset-level configuration needed to dispatch a
// translate call on file_mode. It is not safe for concurrent use without
// external locking — the same mutex §4.G already holds for the request
// batch.
type Translator struct {
	FileMode    cfg.FileMode
	DatasetMode string // "unique" or "shared"
	Base        string
	BlockSize   int64
	FileCount   int
	MasterRank  int
	Allocator   Allocator
	DatasetMap  SegmentLookup
	Exists      func(path string) bool
}

// Translate dispatches on t.FileMode. el.Segments is mutated in place on
// an OPTIMIZED write that allocates a new segment.
func (t *Translator) Translate(el *Element, logicalOffset, requestedLength int64, isRead bool) (Target, error) {
	switch t.FileMode {
	case cfg.Basic:
		return t.translateBasic(logicalOffset, requestedLength)
	case cfg.Strided:
		return t.translateStrided(el, logicalOffset, requestedLength)
	case cfg.FilePerNode:
		if isRead {
			return t.translateOptimizedRead(el, logicalOffset, requestedLength)
		}
		return t.translateOptimizedWrite(el, logicalOffset, requestedLength)
	default:
		return Target{}, hioerr.BadState("translate.unknown_file_mode")
	}
}

func (t *Translator) translateBasic(logicalOffset, requestedLength int64) (Target, error) {
	return Target{
		UseElementHandle: true,
		Offset:           logicalOffset,
		Length:           requestedLength,
	}, nil
}

func (t *Translator) translateStrided(el *Element, logicalOffset, requestedLength int64) (Target, error) {
	if t.BlockSize <= 0 || t.FileCount <= 0 {
		return Target{}, hioerr.BadState("translate.strided.config")
	}

	blockID := logicalOffset / t.BlockSize
	fileID := blockID % int64(t.FileCount)
	fileBlock := blockID / int64(t.FileCount)

	blockEnd := (blockID + 1) * t.BlockSize
	clipped := requestedLength
	if max := blockEnd - logicalOffset; clipped > max {
		clipped = max
	}

	physOffset := fileBlock*t.BlockSize + (logicalOffset % t.BlockSize)
	path := layout.StridedBlockPath(t.Base, el.Name, int(fileID))

	return Target{
		FileID: fileID,
		Path:   path,
		Offset: physOffset,
		Length: clipped,
	}, nil
}

func (t *Translator) translateOptimizedWrite(el *Element, logicalOffset, requestedLength int64) (Target, error) {
	path := layout.OptimizedDataPath(t.Base, t.MasterRank)

	if seg, ok := findSegment(el.Segments, logicalOffset); ok {
		clipped := requestedLength
		if max := (seg.LogicalOffset + seg.Length) - logicalOffset; clipped > max {
			clipped = max
		}
		physOffset := seg.FileOffset + (logicalOffset - seg.LogicalOffset)
		return Target{FileID: int64(t.MasterRank), Path: path, Offset: physOffset, Length: clipped}, nil
	}

	offset, served, err := t.Allocator.Reserve(requestedLength)
	if err != nil {
		return Target{}, err
	}

	el.Segments = append(el.Segments, manifest.Segment{
		FileID:        int64(t.MasterRank),
		FileOffset:    offset,
		LogicalOffset: logicalOffset,
		Length:        served,
	})

	return Target{FileID: int64(t.MasterRank), Path: path, Offset: offset, Length: served}, nil
}

func (t *Translator) translateOptimizedRead(el *Element, logicalOffset, requestedLength int64) (Target, error) {
	seg, ok := findSegment(el.Segments, logicalOffset)
	if !ok && t.DatasetMap != nil {
		seg, ok = t.DatasetMap.Lookup(el.Name, logicalOffset)
	}
	if !ok {
		return Target{}, hioerr.NotFound("translate.optimized.read", nil)
	}

	clipped := requestedLength
	if max := (seg.LogicalOffset + seg.Length) - logicalOffset; clipped > max {
		clipped = max
	}
	physOffset := seg.FileOffset + (logicalOffset - seg.LogicalOffset)

	path := layout.OptimizedDataPath(t.Base, int(seg.FileID))
	if t.Exists != nil && !t.Exists(path) {
		path = layout.OptimizedDataLegacyPath(t.Base, int(seg.FileID))
	}

	return Target{FileID: seg.FileID, Path: path, Offset: physOffset, Length: clipped}, nil
}

func findSegment(segments []manifest.Segment, logicalOffset int64) (manifest.Segment, bool) {
	for _, s := range segments {
		if logicalOffset >= s.LogicalOffset && logicalOffset < s.LogicalOffset+s.Length {
			return s, true
		}
	}
	return manifest.Segment{}, false
}
