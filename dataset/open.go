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

package dataset

import (
	"context"
	"os"
	"sync/atomic"
	"unsafe"

	"encoding/binary"

	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/internal/enum"
	"github.com/posixhio/hio/internal/filecache"
	"github.com/posixhio/hio/internal/fsattr"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/layout"
	"github.com/posixhio/hio/internal/logger"
	"github.com/posixhio/hio/internal/manifest"
	"github.com/posixhio/hio/internal/rankgroup"
	"github.com/posixhio/hio/internal/reqproc"
	"github.com/posixhio/hio/internal/stripe"
	"github.com/posixhio/hio/internal/trace"
	"github.com/posixhio/hio/internal/translate"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Open implements §4.H's open algorithm: resolve the effective file
// mode, probe and finalize striping, truncate or create base_path on
// rank 0, load (or broadcast) the manifest, and — in FILE_PER_NODE mode
// — derive each rank's node leader and perform the manifest-shard
// scatter that builds the cross-rank dataset map.
func Open(opts Options) (*Dataset, error) {
	if opts.Group == nil || opts.FS == nil || opts.FSAttr == nil {
		return nil, hioerr.BadState("dataset.open.missing_collaborator")
	}
	if !opts.Flags.Has(Read) && !opts.Flags.Has(Write) {
		return nil, hioerr.BadState("dataset.open.no_access_mode")
	}

	group := opts.Group

	d := &Dataset{
		opts:     opts,
		group:    group,
		fs:       opts.FS,
		fsattr:   opts.FSAttr,
		clk:      opts.Clock,
		name:     opts.Name,
		id:       opts.ID,
		flags:    opts.Flags,
		mode:     opts.Mode,
		fileMode: resolveFileMode(opts.Mode, opts.Config.FileMode),
		base:     layout.DatasetPath(opts.Root, opts.ContextID, opts.Name, opts.ID),
		mkdir:    0o777 &^ opts.Umask,
		elements: make(map[string]*translate.Element),
		basicHandles: make(map[string]afero.File),
		metrics:  opts.Metrics,
	}

	if d.fileMode == cfg.FilePerNode && group.Size() < 2 {
		logger.Warnf("dataset: open(%s/%d) downgrading file_per_node to basic, job too small for node-local striping", d.name, d.id)
		d.fileMode = cfg.Basic
	}
	d.useBzip = opts.Config.UseBzip && d.fileMode == cfg.FilePerNode

	if err := d.finalizeStriping(opts); err != nil {
		return nil, err
	}

	if d.flags.Has(Truncate) {
		if group.Rank() == 0 {
			if err := d.fs.RemoveAll(d.base); err != nil {
				return nil, hioerr.IO("dataset.open.truncate", err)
			}
		}
		if err := group.Barrier(); err != nil {
			return nil, err
		}
	}

	if err := d.loadOrCreateManifest(); err != nil {
		return nil, err
	}

	d.cache = filecache.New(d.fs, d.flags.Has(Write), os.FileMode(d.mkdir), d.metrics)

	if d.fileMode == cfg.FilePerNode {
		if err := d.setupFilePerNode(); err != nil {
			return nil, err
		}
	}

	var allocator translate.Allocator
	if d.allocator != nil {
		allocator = d.allocator
	}
	var dsMap translate.SegmentLookup
	if d.datasetMap != nil {
		dsMap = d.datasetMap
	}

	d.translator = &translate.Translator{
		FileMode:    d.fileMode,
		DatasetMode: string(d.mode),
		Base:        d.base,
		BlockSize:   d.blockSize,
		FileCount:   d.fileCount,
		MasterRank:  d.masterRank,
		Allocator:   allocator,
		DatasetMap:  dsMap,
		Exists:      func(path string) bool { ok, _ := afero.Exists(d.fs, path); return ok },
	}

	d.processor = &reqproc.Processor{
		Translator:   d.translator,
		Cache:        d.cache,
		BasicHandles: d.basicHandles,
		Metrics:      d.metrics,
		Trace:        d.traceSink,
		Clock:        d.clock(),
	}

	return d, nil
}

// resolveFileMode applies §3's "BASIC is forced when mode=UNIQUE would
// otherwise pick STRIDED" rule on top of the configured file mode.
func resolveFileMode(mode Mode, configured cfg.FileMode) cfg.FileMode {
	fm := configured
	if fm == "" {
		fm = cfg.Basic
	}
	if mode == Unique && fm == cfg.Strided {
		logger.Warnf("dataset: strided is incompatible with unique mode, downgrading to basic")
		return cfg.Basic
	}
	return fm
}

func (d *Dataset) finalizeStriping(opts Options) error {
	attrs, err := d.fsattr.Query(opts.Root)
	if err != nil {
		return err
	}

	blockSize := uint64(opts.Config.BlockSize)
	if blockSize == 0 {
		blockSize = uint64(cfg.DefaultBlockSize)
	}

	stripeSize, stripeCount, fileCount, defaultedBlockSize := fsattr.Defaults(d.fileMode, string(d.mode), d.group.SharedSize(), d.group.Size(), attrs, blockSize)
	// The mode's block-size raise applies only where the filesystem
	// stripes; otherwise the striping fields are inert and the
	// configured block size is kept.
	if attrs.SupportsStriping {
		blockSize = defaultedBlockSize
	}
	attrs.StripeSize = stripeSize
	attrs.StripeCount = stripeCount

	if opts.Config.StripeCount > 0 {
		attrs.StripeCount = uint64(opts.Config.StripeCount)
	}
	if opts.Config.StripeSize > 0 {
		attrs.StripeSize = uint64(opts.Config.StripeSize)
	}
	if opts.Config.RaidLevel > 0 {
		attrs.RaidLevel = uint64(opts.Config.RaidLevel)
	}

	fsattr.Clamp(&attrs, func(msg string) { logger.Warnf("%s", msg) })
	d.attrs = attrs
	d.blockSize = int64(blockSize)

	d.fileCount = fileCount
	if opts.Config.FileCount > 0 {
		d.fileCount = opts.Config.FileCount
	}
	return nil
}

// loadOrCreateManifest implements the CREATE and non-CREATE branches of
// §4.H: bootstrap a fresh header, or read and broadcast the existing
// top-level manifest.
func (d *Dataset) loadOrCreateManifest() error {
	group := d.group

	if d.flags.Has(Create) {
		if group.Rank() == 0 {
			if err := layout.Bootstrap(d.fsattr, d.base, d.mkdir, d.opts.TraceEnabled, d.attrs); err != nil {
				return err
			}
		}
		if err := group.Barrier(); err != nil {
			return err
		}

		now := d.clock().Now()
		d.header = manifest.Header{
			Name: d.name, ID: d.id, Mode: string(d.mode), FileMode: d.fileMode,
			CreatedAt: now, ModifiedAt: now,
		}
		d.ownManifest = &manifest.Manifest{Header: d.header}
		return d.openTrace()
	}

	var raw []byte
	var readErr error
	if group.Rank() == 0 {
		raw, readErr = readTopLevelManifest(d.fs, d.base)
	}
	raw, err := group.Broadcast(raw, 0)
	if err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}
	if raw == nil {
		return hioerr.NotFound("dataset.open.manifest", nil)
	}

	m, err := manifest.Parse(raw)
	if err != nil {
		return err
	}
	d.ownManifest = m
	d.header = m.Header
	d.fileMode = m.Header.FileMode

	return d.openTrace()
}

func (d *Dataset) openTrace() error {
	if !d.opts.TraceEnabled {
		return nil
	}
	if err := d.fsattr.Mkpath(layout.TraceDir(d.base), d.mkdir); err != nil {
		return err
	}
	sink, err := trace.Open(d.fs, layout.TraceFilePath(d.base, d.group.Rank()))
	if err != nil {
		return err
	}
	d.traceSink = sink
	return nil
}

// readTopLevelManifest tries the compressed path first, then the plain
// one, mirroring the shard-read fallback order of §4.H.
func readTopLevelManifest(fs afero.Fs, base string) ([]byte, error) {
	raw, err := manifest.Read(fs, layout.ManifestPath(base, true))
	if err == nil {
		return raw, nil
	}
	return manifest.Read(fs, layout.ManifestPath(base, false))
}

// setupFilePerNode derives this rank's node leader and, for non-CREATE
// opens, runs the manifest-shard scatter that builds the dataset map.
func (d *Dataset) setupFilePerNode() error {
	group := d.group

	regionSize := 8 + int(maxU64(d.attrs.StripeCount, 1))*8
	region, err := group.SharedMemoryRegion(regionSize)
	if err != nil {
		logger.Warnf("dataset: shared_memory_region unavailable, downgrading file_per_node to basic: %v", err)
		d.fileMode = cfg.Basic
		return nil
	}
	d.region = region

	masterSlot := (*int64)(unsafe.Pointer(&region.Bytes()[0]))
	if group.SharedRank() == 0 {
		atomic.StoreInt64(masterSlot, int64(group.Rank()))
	}
	if err := group.Barrier(); err != nil {
		return err
	}
	d.masterRank = int(atomic.LoadInt64(masterSlot))
	d.control = stripe.NewControlBlock(region.Bytes()[8:])

	if d.flags.Has(Write) {
		stripeCount := int64(maxU64(d.attrs.StripeCount, 1))
		d.allocator = &stripe.Allocator{
			Control:     d.control,
			BlockSize:   d.blockSize,
			StripeCount: stripeCount,
			// SharedRank ranks a node's peers 0..SharedSize-1; wrap into
			// [0, stripeCount) so distinct ranks get distinct counters
			// whenever the region was sized to hold stripeCount of them,
			// and safely share a counter (serialized by the atomic
			// fetch-add) on the rare job where stripe_count was clamped
			// below shared_size.
			MyStripe: int64(group.SharedRank()) % stripeCount,
			Metrics:  d.metrics,
			Trace: func(stripe int, bytes int64) {
				if d.traceSink != nil {
					now := d.clock().Now().UnixMicro()
					d.traceSink.Emit(d.name, "reserve", int64(stripe), bytes, now, now)
				}
			},
		}
	}

	leaders, err := jobNodeLeaders(group)
	if err != nil {
		return err
	}
	d.nodeLeaders = leaders

	if d.flags.Has(Create) {
		return nil
	}
	return d.scatterManifestShards()
}

// jobNodeLeaders gathers every rank's "am I a node leader" flag to rank
// 0, which sorts the resulting job ranks and broadcasts the list back.
func jobNodeLeaders(group rankgroup.Group) ([]int, error) {
	flag := []byte{0}
	if group.SharedRank() == 0 {
		flag = []byte{1}
	}

	gathered, err := group.Gather(flag, 0)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if group.Rank() == 0 {
		var leaders []int
		for rank, b := range gathered {
			if len(b) > 0 && b[0] == 1 {
				leaders = append(leaders, rank)
			}
		}
		raw = encodeIntSlice(leaders)
	}

	raw, err = group.Broadcast(raw, 0)
	if err != nil {
		return nil, err
	}
	return decodeIntSlice(raw), nil
}

// scatterManifestShards implements §4.H's manifest-shard scatter: rank 0
// enumerates the per-master shard ids and assigns them to node leaders
// via a single job-wide Scatter; each node leader reads and merges its
// shards, then broadcasts the merged shard to the whole job so every
// rank's dataset map covers every node's writes.
func (d *Dataset) scatterManifestShards() error {
	group := d.group

	assignment, err := d.assignManifestShards()
	if err != nil {
		return err
	}

	mine, err := group.Scatter(assignment, 0)
	if err != nil {
		return err
	}

	merged := &manifest.Manifest{}
	isLeader := false
	for _, leader := range d.nodeLeaders {
		if leader == group.Rank() {
			isLeader = true
			break
		}
	}
	if isLeader {
		merged, err = d.readAssignedShards(decodeIntSlice(mine))
		if err != nil {
			return err
		}
	}

	all := &manifest.Manifest{}
	for _, leader := range d.nodeLeaders {
		var localRaw []byte
		if leader == group.Rank() {
			localRaw, err = manifest.Serialize(merged, true, false)
			if err != nil {
				return err
			}
		}
		raw, err := group.Broadcast(localRaw, leader)
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			continue
		}
		part, err := manifest.Parse(raw)
		if err != nil {
			return err
		}
		all.Elements = append(all.Elements, part.Elements...)
	}

	d.datasetMap = newPeerSegmentMap(all)
	return nil
}

// assignManifestShards is rank 0's half of the shard scatter: build a
// Scatter-ready, job-sized slice with each node leader's assigned ids
// serialized at its rank index and every other index nil.
func (d *Dataset) assignManifestShards() ([][]byte, error) {
	group := d.group
	send := make([][]byte, group.Size())
	if group.Rank() != 0 {
		return send, nil
	}

	ids, err := enum.ManifestShardIDs(d.fs, d.base)
	if err != nil {
		return nil, err
	}

	nodeCount := len(d.nodeLeaders)
	if nodeCount == 0 {
		return send, nil
	}
	for len(ids)%nodeCount != 0 {
		ids = append(ids, -1)
	}

	per := len(ids) / nodeCount
	for i, leader := range d.nodeLeaders {
		chunk := ids[i*per : (i+1)*per]
		send[leader] = encodeIntSlice(chunk)
	}
	return send, nil
}

// readAssignedShards reads this node leader's assigned shard files
// concurrently (one goroutine per id, via errgroup, since each shard
// read is an independent file open+read with no shared state) and then
// merges the results in id order so the merged manifest is independent
// of goroutine scheduling.
func (d *Dataset) readAssignedShards(ids []int) (*manifest.Manifest, error) {
	raws := make([][]byte, len(ids))

	g, _ := errgroup.WithContext(context.Background())
	for i, id := range ids {
		if id < 0 {
			continue
		}
		i, id := i, id
		g.Go(func() error {
			raw, err := manifest.Read(d.fs, layout.ShardManifestPath(d.base, id, true))
			if err != nil {
				raw, err = manifest.Read(d.fs, layout.ShardManifestPath(d.base, id, false))
				if err != nil {
					logger.Warnf("dataset: skipping unreadable manifest shard %x: %v", id, err)
					return nil
				}
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var mergedRaw []byte
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		if mergedRaw == nil {
			mergedRaw = raw
			continue
		}
		var err error
		mergedRaw, err = manifest.Merge(mergedRaw, raw)
		if err != nil {
			return nil, err
		}
	}
	if mergedRaw == nil {
		return &manifest.Manifest{}, nil
	}
	return manifest.Parse(mergedRaw)
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// encodeIntSlice/decodeIntSlice pack a []int as fixed-width big-endian
// int64s for the shard-id and node-leader payloads carried over
// Scatter/Broadcast, which only move raw bytes.
func encodeIntSlice(ids []int) []byte {
	buf := make([]byte, len(ids)*8)
	for i, id := range ids {
		binary.BigEndian.PutUint64(buf[i*8:], uint64(int64(id)))
	}
	return buf
}

func decodeIntSlice(buf []byte) []int {
	if len(buf) == 0 {
		return nil
	}
	ids := make([]int, len(buf)/8)
	for i := range ids {
		ids[i] = int(int64(binary.BigEndian.Uint64(buf[i*8:])))
	}
	return ids
}
