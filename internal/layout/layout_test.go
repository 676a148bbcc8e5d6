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

package layout_test

import (
	"testing"

	"github.com/posixhio/hio/internal/fsattr"
	"github.com/posixhio/hio/internal/layout"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetPath(t *testing.T) {
	got := layout.DatasetPath("/data", "ctx1", "weather", 42)
	assert.Equal(t, "/data/ctx1.hio/weather/42", got)
}

func TestElementAndBlockPaths(t *testing.T) {
	base := "/data/ctx1.hio/weather/42"
	assert.Equal(t, base+"/data/element_data.temp", layout.ElementDataPathShared(base, "temp"))
	assert.Equal(t, base+"/data/element_data.temp.00000003", layout.ElementDataPathUnique(base, "temp", 3))
	assert.Equal(t, base+"/data/temp_block.00000005", layout.StridedBlockPath(base, "temp", 5))
	assert.Equal(t, base+"/data/data.a", layout.OptimizedDataPath(base, 10))
	assert.Equal(t, base+"/data.a", layout.OptimizedDataLegacyPath(base, 10))
}

func TestManifestPaths(t *testing.T) {
	base := "/data/ctx1.hio/weather/42"
	assert.Equal(t, base+"/manifest.json", layout.ManifestPath(base, false))
	assert.Equal(t, base+"/manifest.json.bz2", layout.ManifestPath(base, true))
	assert.Equal(t, base+"/manifest.a.json.bz2", layout.ShardManifestPath(base, 10, true))
}

func TestBootstrapCreatesDataAndTraceDirs(t *testing.T) {
	mem := afero.NewMemMapFs()
	fs := fsattr.NewOsFS(mem)
	base := "/data/ctx1.hio/weather/42"

	require.NoError(t, layout.Bootstrap(fs, base, 0o755, true, fsattr.Attrs{}))

	exists, err := afero.DirExists(mem, layout.DataDir(base))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.DirExists(mem, layout.TraceDir(base))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBootstrapSkipsTraceDirWhenDisabled(t *testing.T) {
	mem := afero.NewMemMapFs()
	fs := fsattr.NewOsFS(mem)
	base := "/data/ctx1.hio/weather/42"

	require.NoError(t, layout.Bootstrap(fs, base, 0o755, false, fsattr.Attrs{}))

	exists, err := afero.DirExists(mem, layout.DataDir(base))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.DirExists(mem, layout.TraceDir(base))
	require.NoError(t, err)
	assert.False(t, exists)
}
