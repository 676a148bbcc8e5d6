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
	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/layout"
	"github.com/posixhio/hio/internal/manifest"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Close implements §4.H's close algorithm: flush and release every
// cached handle and the shared-memory region, gather and save manifests
// on a WRITE dataset, all-reduce the minimum status across the rank
// group, and close the trace sink. Safe to call more than once.
func (d *Dataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs error
	if err := d.cache.CloseAll(); err != nil {
		errs = multierr.Append(errs, err)
	}
	for name, f := range d.basicHandles {
		if err := f.Close(); err != nil {
			errs = multierr.Append(errs, hioerr.IO("dataset.close.basic_handle."+name, err))
		}
	}
	d.basicHandles = nil

	if d.region != nil {
		if err := d.region.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
		d.region = nil
	}
	d.datasetMap = nil

	localStatus := 0
	if errs != nil {
		localStatus = -1
	}
	status, err := d.group.AllreduceMin(localStatus)
	if err != nil {
		errs = multierr.Append(errs, err)
	}

	if d.flags.Has(Write) {
		if err := d.saveManifests(status); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	d.traceSink.Close()
	d.base = ""

	if status < 0 {
		errs = multierr.Append(errs, hioerr.BadState("dataset.close.peer_reported_failure"))
	}
	return errs
}

// localElements snapshots this rank's element segment lists for the
// manifest gather.
func (d *Dataset) localElements() []manifest.Element {
	d.elMu.Lock()
	defer d.elMu.Unlock()

	elems := make([]manifest.Element, 0, len(d.elements))
	for _, el := range d.elements {
		elems = append(elems, manifest.Element{Name: el.Name, Rank: el.Rank, Segments: el.Segments})
	}
	return elems
}

// saveManifests implements §4.H's write-side close: rank 0 gathers and
// saves the top-level manifest.json[.bz2]; in FILE_PER_NODE mode, every
// node's IO leader additionally gathers from its own node's peers and
// saves manifest.<master_rank_hex>.json[.bz2].
func (d *Dataset) saveManifests(status int) error {
	group := d.group
	local := &manifest.Manifest{Header: d.headerWithStatus(status)}
	if d.fileMode != cfg.FilePerNode {
		local.Elements = d.localElements()
	}

	raw, err := manifest.Serialize(local, d.fileMode != cfg.FilePerNode, false)
	if err != nil {
		return err
	}
	gathered, err := group.Gather(raw, 0)
	if err != nil {
		return err
	}
	if group.Rank() == 0 {
		if err := mergeAndSave(d.fs, gathered, layout.ManifestPath(d.base, false)); err != nil {
			return err
		}
	}

	if d.fileMode != cfg.FilePerNode {
		return nil
	}
	return d.saveNodeShard(status)
}

func (d *Dataset) headerWithStatus(status int) manifest.Header {
	h := d.header
	h.Status = status
	h.ModifiedAt = d.clock().Now()
	return h
}

// saveNodeShard runs once per node leader (one Gather call per entry in
// d.nodeLeaders, as every rank must call the same sequence of job-wide
// collectives): only ranks on that leader's node contribute a non-nil
// payload, everyone else contributes nil.
func (d *Dataset) saveNodeShard(status int) error {
	group := d.group
	shardElements := d.localElements()

	for _, leader := range d.nodeLeaders {
		var payload []byte
		if d.masterRank == leader {
			m := &manifest.Manifest{Header: d.headerWithStatus(status), Elements: shardElements}
			raw, err := manifest.Serialize(m, true, false)
			if err != nil {
				return err
			}
			payload = raw
		}

		gathered, err := group.Gather(payload, leader)
		if err != nil {
			return err
		}
		if group.Rank() != leader {
			continue
		}
		if err := mergeAndSave(d.fs, gathered, layout.ShardManifestPath(d.base, leader, d.useBzip)); err != nil {
			return err
		}
	}
	return nil
}

func mergeAndSave(fs afero.Fs, gathered [][]byte, path string) error {
	var merged []byte
	for _, raw := range gathered {
		if len(raw) == 0 {
			continue
		}
		if merged == nil {
			merged = raw
			continue
		}
		var err error
		merged, err = manifest.Merge(merged, raw)
		if err != nil {
			return err
		}
	}
	if merged == nil {
		return hioerr.BadState("dataset.close.empty_gather")
	}
	return manifest.Save(fs, merged, path)
}
