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

// Package enum implements the §4.I dataset enumerator: listing dataset
// ids under a name and the per-writer manifest shard ids under a
// dataset directory.
package enum

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/posixhio/hio/internal/hioerr"
	"github.com/spf13/afero"
)

var manifestShardPattern = regexp.MustCompile(`^manifest\.([0-9a-fA-F]+)\.json$`)

// IDs lists the generation ids under <root>/<context_id>.hio/<name>/,
// skipping hidden (dot-prefixed) entries. ids need not be numbered
// sequentially; the directory name itself is the id.
func IDs(fs afero.Fs, namePath string) ([]uint64, error) {
	entries, err := afero.ReadDir(fs, namePath)
	if err != nil {
		return nil, hioerr.IO("enum.ids", err)
	}

	var ids []uint64
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		id, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ManifestShardIDs lists the per-IO-master shard ids under a dataset
// directory: entries matching manifest.<hex>.json (the .bz2 suffix, if
// present, is stripped before matching), sorted numerically ascending.
func ManifestShardIDs(fs afero.Fs, basePath string) ([]int, error) {
	entries, err := afero.ReadDir(fs, basePath)
	if err != nil {
		return nil, hioerr.IO("enum.manifest_shard_ids", err)
	}

	var ids []int
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".bz2")
		m := manifestShardPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 16, 64)
		if err != nil {
			continue
		}
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	return ids, nil
}

// DatasetNames lists the dataset names under <root>/<context_id>.hio/,
// skipping hidden entries.
func DatasetNames(fs afero.Fs, contextDir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, contextDir)
	if err != nil {
		return nil, hioerr.IO("enum.dataset_names", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists cheaply probes whether a dataset directory exists at path,
// without reading its manifest.
func Exists(fs afero.Fs, path string) bool {
	ok, err := afero.DirExists(fs, path)
	return err == nil && ok
}
