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

// Package dataset implements the §4.H dataset lifecycle: open/close,
// the request-batch entry point, and dataset enumeration, wiring every
// other internal package (layout, fsattr, filecache, translate, stripe,
// reqproc, manifest, rankgroup, trace) into the single object a caller
// actually uses.
//
// A Context, in spec terms, is nothing more than a rankgroup.Group: the
// process-wide rank/size/shared-rank/shared-size/node-count identity
// plus the collective operations §6.3 requires. The core never needs
// anything else from it, so callers pass one directly rather than
// wrapping it in a dataset-specific type.
package dataset

import (
	"sync"

	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/clock"
	"github.com/posixhio/hio/internal/filecache"
	"github.com/posixhio/hio/internal/fsattr"
	"github.com/posixhio/hio/internal/manifest"
	"github.com/posixhio/hio/internal/metrics"
	"github.com/posixhio/hio/internal/rankgroup"
	"github.com/posixhio/hio/internal/reqproc"
	"github.com/posixhio/hio/internal/stripe"
	"github.com/posixhio/hio/internal/trace"
	"github.com/posixhio/hio/internal/translate"
	"github.com/spf13/afero"
)

// Flags mirrors §3's dataset flags: {CREATE, TRUNCATE, READ, WRITE}.
type Flags uint8

const (
	Create Flags = 1 << iota
	Truncate
	Read
	Write
)

// Has reports whether f carries bit.
func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Mode is §3's dataset mode: whether each element is rank-private
// (Unique) or collectively shared (Shared).
type Mode string

const (
	Unique Mode = "unique"
	Shared Mode = "shared"
)

// Options configures Open. Group, FS and FSAttr are the three
// collaborators §6 abstracts out of the core; Root/ContextID/Name/ID
// identify the dataset per §3's base_path grammar.
type Options struct {
	Group  rankgroup.Group
	FS     afero.Fs
	FSAttr fsattr.FS

	Root      string
	ContextID string
	Name      string
	ID        uint64

	Flags  Flags
	Mode   Mode
	Config cfg.DatasetConfig

	Metrics metrics.Handle
	Clock   clock.Clock

	// TraceEnabled enables §4.J/§6.6 per-rank tracing: one file per rank
	// at <base>/trace/trace.<rank>.
	TraceEnabled bool

	// Umask is captured once and used as 0777 & ~Umask for every
	// directory/file this dataset creates, per §4.B/§4.D.
	Umask uint32
}

// Stats is the dataset-level I/O counters of §4.G's closing paragraph.
type Stats = reqproc.Stats

// Dataset is the open handle returned by Open. All exported methods are
// safe to call from the single goroutine that owns this rank's request
// processing loop; the module itself is single-threaded per rank (§5).
type Dataset struct {
	opts Options

	group  rankgroup.Group
	fs     afero.Fs
	fsattr fsattr.FS
	clk    clock.Clock

	name string
	id   uint64

	flags     Flags
	mode      Mode
	fileMode  cfg.FileMode
	blockSize int64
	fileCount int
	useBzip   bool

	attrs fsattr.Attrs
	base  string
	mkdir uint32

	masterRank  int // shared_control.s_master: job rank owning this node's data file
	region      rankgroup.Region
	control     *stripe.ControlBlock
	allocator   *stripe.Allocator
	nodeLeaders []int // sorted job ranks with SharedRank()==0, FilePerNode only

	cache        *filecache.Cache
	basicHandles map[string]afero.File
	translator   *translate.Translator
	processor    *reqproc.Processor

	elMu     sync.Mutex
	elements map[string]*translate.Element

	datasetMap *peerSegmentMap // FilePerNode, read path only

	header      manifest.Header
	ownManifest *manifest.Manifest // this rank's view of the top-level manifest, loaded at open

	traceSink *trace.Sink

	metrics metrics.Handle

	closed bool
}

// Name is the dataset's name within its context.
func (d *Dataset) Name() string { return d.name }

// ID is the dataset's generation id.
func (d *Dataset) ID() uint64 { return d.id }

// FileMode is the file-layout mode actually in effect, after the
// UNIQUE-forces-BASIC rule and the tiny-job optimized downgrade of §4.H.
func (d *Dataset) FileMode() cfg.FileMode { return d.fileMode }

// BasePath is the dataset's base_path, <root>/<context_id>.hio/<name>/<id>.
func (d *Dataset) BasePath() string { return d.base }

// Stats returns the accumulated I/O time and byte counts of §4.G.
func (d *Dataset) Stats() Stats { return d.processor.Stats }

func (d *Dataset) clock() clock.Clock {
	if d.clk == nil {
		return clock.RealClock{}
	}
	return d.clk
}
