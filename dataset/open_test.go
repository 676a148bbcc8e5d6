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

package dataset_test

import (
	"context"
	"testing"

	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/dataset"
	"github.com/posixhio/hio/internal/layout"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestBasicSharedRoundTrip is scenario S1: write two disjoint regions,
// close, reopen read-only, and read them back; a read of the untouched
// gap between them returns only zero-filled bytes.
func TestBasicSharedRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := baseOptions(fs)
	opts.Config.FileMode = cfg.Basic

	d, err := dataset.Open(opts)
	require.NoError(t, err)

	el, err := d.Element("E")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.ProcessReqs(ctx, []dataset.Request{
		dataset.Write(el, 0, []byte("hello"), 1, 5, 0),
		dataset.Write(el, 100, []byte("world"), 1, 5, 0),
	}))
	require.NoError(t, d.Close())

	opts.Flags = dataset.Read
	d2, err := dataset.Open(opts)
	require.NoError(t, err)
	defer d2.Close()

	el2, err := d2.Element("E")
	require.NoError(t, err)

	buf := make([]byte, 5)
	require.NoError(t, d2.ProcessReqs(ctx, []dataset.Request{dataset.Read(el2, 0, buf, 1, 5, 0)}))
	require.Equal(t, "hello", string(buf))

	buf2 := make([]byte, 5)
	require.NoError(t, d2.ProcessReqs(ctx, []dataset.Request{dataset.Read(el2, 100, buf2, 1, 5, 0)}))
	require.Equal(t, "world", string(buf2))

	gap := make([]byte, 5)
	for i := range gap {
		gap[i] = 0xAA
	}
	_ = d2.ProcessReqs(ctx, []dataset.Request{dataset.Read(el2, 50, gap, 1, 5, 0)})
	require.Equal(t, []byte{0, 0, 0, 0, 0}, gap, "unwritten gap reads as zero-filled")
}

// TestOpenDowngradesFilePerNodeOnTinyJob is scenario S4.
func TestOpenDowngradesFilePerNodeOnTinyJob(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := baseOptions(fs)
	opts.Config.FileMode = cfg.FilePerNode

	d, err := dataset.Open(opts)
	require.NoError(t, err)
	defer d.Close()

	require.Equal(t, cfg.Basic, d.FileMode(), "a single-rank job can't stripe across nodes")
}

// TestOpenTruncateThenCreateIsIdempotent is scenario S5.
func TestOpenTruncateThenCreateIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := baseOptions(fs)
	opts.Config.FileMode = cfg.Basic

	d, err := dataset.Open(opts)
	require.NoError(t, err)
	el, err := d.Element("E")
	require.NoError(t, err)
	require.NoError(t, d.ProcessReqs(context.Background(), []dataset.Request{
		dataset.Write(el, 0, []byte("leftover"), 1, 8, 0),
	}))
	require.NoError(t, d.Close())

	opts.Flags = dataset.Create | dataset.Truncate | dataset.Write | dataset.Read
	d2, err := dataset.Open(opts)
	require.NoError(t, err)

	entries, err := afero.ReadDir(fs, layout.DataDir(d2.BasePath()))
	require.NoError(t, err)
	require.Empty(t, entries, "truncate must empty data/")
	require.NoError(t, d2.Close())

	opts.Flags = dataset.Create | dataset.Truncate | dataset.Write | dataset.Read
	d3, err := dataset.Open(opts)
	require.NoError(t, err)
	require.NoError(t, d3.Close())
}

// TestUniqueModeForcesBasicOverStrided is §3's "BASIC is forced when
// mode=UNIQUE would otherwise pick STRIDED" rule.
func TestUniqueModeForcesBasicOverStrided(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := baseOptions(fs)
	opts.Mode = dataset.Unique
	opts.Config.FileMode = cfg.Strided

	d, err := dataset.Open(opts)
	require.NoError(t, err)
	defer d.Close()

	require.Equal(t, cfg.Basic, d.FileMode())
}
