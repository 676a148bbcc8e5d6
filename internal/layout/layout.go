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

// Package layout implements the §4.A path builder and §4.B directory
// bootstrapper: deriving every on-disk path a dataset touches and
// creating the directories a CREATE open needs.
package layout

import "fmt"

// DatasetPath returns <root>/<context_id>.hio/<name>/<id>, the base
// directory a dataset's files live under.
func DatasetPath(root string, contextID, name string, id uint64) string {
	return fmt.Sprintf("%s/%s.hio/%s/%d", root, contextID, name, id)
}

// DataDir returns the base's data/ subdirectory.
func DataDir(base string) string {
	return base + "/data"
}

// TraceDir returns the base's trace/ subdirectory.
func TraceDir(base string) string {
	return base + "/trace"
}

// ManifestPath returns the top-level manifest path, optionally compressed.
func ManifestPath(base string, compressed bool) string {
	if compressed {
		return base + "/manifest.json.bz2"
	}
	return base + "/manifest.json"
}

// ShardManifestPath returns the per-IO-master manifest shard path for
// masterRank, optionally compressed.
func ShardManifestPath(base string, masterRank int, compressed bool) string {
	if compressed {
		return fmt.Sprintf("%s/manifest.%x.json.bz2", base, masterRank)
	}
	return fmt.Sprintf("%s/manifest.%x.json", base, masterRank)
}

// TraceFilePath returns the per-rank trace file path.
func TraceFilePath(base string, rank int) string {
	return fmt.Sprintf("%s/trace/trace.%d", base, rank)
}

// ElementDataPathShared returns the BASIC/SHARED element file path.
func ElementDataPathShared(base, element string) string {
	return fmt.Sprintf("%s/data/element_data.%s", base, element)
}

// ElementDataPathUnique returns the BASIC/UNIQUE element file path,
// disambiguated by the writing rank.
func ElementDataPathUnique(base, element string, rank int) string {
	return fmt.Sprintf("%s/data/element_data.%s.%08d", base, element, rank)
}

// ElementDataLegacyPathShared is the pre-data/-prefix fallback location
// for BASIC/SHARED files, used only when reading older datasets.
func ElementDataLegacyPathShared(base, element string) string {
	return fmt.Sprintf("%s/element_data.%s", base, element)
}

// ElementDataLegacyPathUnique is the legacy fallback for BASIC/UNIQUE.
func ElementDataLegacyPathUnique(base, element string, rank int) string {
	return fmt.Sprintf("%s/element_data.%s.%08d", base, element, rank)
}

// StridedBlockPath returns the STRIDED block-file path for fileID.
func StridedBlockPath(base, element string, fileID int) string {
	return fmt.Sprintf("%s/data/%s_block.%08d", base, element, fileID)
}

// OptimizedDataPath returns the OPTIMIZED data file path owned by
// masterRank.
func OptimizedDataPath(base string, masterRank int) string {
	return fmt.Sprintf("%s/data/data.%x", base, masterRank)
}

// OptimizedDataLegacyPath is the pre-data/-prefix fallback for OPTIMIZED
// files, used only when reading older datasets.
func OptimizedDataLegacyPath(base string, masterRank int) string {
	return fmt.Sprintf("%s/data.%x", base, masterRank)
}
