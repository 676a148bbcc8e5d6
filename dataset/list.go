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
	"encoding/json"
	"fmt"
	"sync"

	"github.com/posixhio/hio/internal/enum"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/layout"
	"github.com/posixhio/hio/internal/logger"
	"github.com/posixhio/hio/internal/manifest"
	"github.com/posixhio/hio/internal/rankgroup"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Info is one entry of a List result: a dataset's identity plus its
// saved header.
type Info struct {
	Name   string
	ID     uint64
	Header manifest.Header
}

// List implements §4.I's enumerator as seen from the dataset package:
// rank 0 walks the context's dataset parent directory and, for every
// (name, id) generation found, parses its header — trying the ".bz2"
// form first, then plain JSON, skipping (with a warning) any entry
// whose manifest can't be read. The result is broadcast to every rank
// so List gives the same answer everywhere without every rank touching
// the filesystem.
func List(fs afero.Fs, group rankgroup.Group, root, contextID string) ([]Info, error) {
	var infos []Info
	if group.Rank() == 0 {
		contextDir := fmt.Sprintf("%s/%s.hio", root, contextID)
		names, err := enum.DatasetNames(fs, contextDir)
		if err != nil {
			return nil, err
		}

		type candidate struct {
			name string
			id   uint64
		}
		var candidates []candidate
		for _, name := range names {
			ids, err := enum.IDs(fs, contextDir+"/"+name)
			if err != nil {
				logger.Warnf("dataset.list: enumerate ids under %s: %v", name, err)
				continue
			}
			for _, id := range ids {
				candidates = append(candidates, candidate{name, id})
			}
		}

		// Header reads are independent file opens; fan them out with
		// errgroup so a listing over many generations isn't serialized on
		// one filesystem round-trip per entry. Each slot is written by
		// exactly one goroutine, so no locking is needed for the slice
		// itself; a shared mutex only guards the warn-and-skip log line.
		results := make([]*Info, len(candidates))
		var logMu sync.Mutex
		g, _ := errgroup.WithContext(context.Background())
		for i, c := range candidates {
			i, c := i, c
			g.Go(func() error {
				base := layout.DatasetPath(root, contextID, c.name, c.id)
				header, err := readHeaderEither(fs, base)
				if err != nil {
					logMu.Lock()
					logger.Warnf("dataset.list: read header for %s/%d: %v", c.name, c.id, err)
					logMu.Unlock()
					return nil
				}
				results[i] = &Info{Name: c.name, ID: c.id, Header: header}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, r := range results {
			if r != nil {
				infos = append(infos, *r)
			}
		}
	}

	raw, err := json.Marshal(infos)
	if err != nil {
		return nil, hioerr.IO("dataset.list.encode", err)
	}
	packed, err := group.Broadcast(raw, 0)
	if err != nil {
		return nil, err
	}
	if group.Rank() == 0 {
		return infos, nil
	}

	// Rank 0 is authoritative; a non-zero rank only decodes what it
	// receives, never re-walks the filesystem itself.
	var received []Info
	if len(packed) > 0 {
		if err := json.Unmarshal(packed, &received); err != nil {
			return nil, hioerr.IO("dataset.list.decode", err)
		}
	}
	return received, nil
}

func readHeaderEither(fs afero.Fs, base string) (manifest.Header, error) {
	if h, err := manifest.ReadHeader(fs, layout.ManifestPath(base, true)); err == nil {
		return h, nil
	}
	return manifest.ReadHeader(fs, layout.ManifestPath(base, false))
}

// Exists cheaply probes whether a dataset generation's directory is
// present, without parsing its manifest.
func Exists(fs afero.Fs, root, contextID, name string, id uint64) bool {
	return enum.Exists(fs, layout.DatasetPath(root, contextID, name, id))
}
