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

package manifest_test

import (
	"errors"
	"testing"
	"time"

	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/manifest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Header: manifest.Header{
			Name:       "run1",
			ID:         7,
			Mode:       "shared",
			FileMode:   cfg.FilePerNode,
			CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ModifiedAt: time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC),
			Status:     0,
		},
		Elements: []manifest.Element{
			{Name: "temperature", Segments: []manifest.Segment{
				{FileID: 2, FileOffset: 0, LogicalOffset: 0, Length: 1024},
			}},
		},
	}
}

func TestSaveReadRoundTripPlain(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw, err := manifest.Serialize(sampleManifest(), true, false)
	require.NoError(t, err)

	require.NoError(t, manifest.Save(fs, raw, "/ds/manifest.json"))

	got, err := manifest.Read(fs, "/ds/manifest.json")
	require.NoError(t, err)

	m, err := manifest.Parse(got)
	require.NoError(t, err)
	require.Equal(t, "run1", m.Header.Name)
	require.Len(t, m.Elements, 1)
	require.Equal(t, int64(1024), m.Elements[0].Segments[0].Length)
}

func TestSaveReadRoundTripCompressed(t *testing.T) {
	fs := afero.NewMemMapFs()
	// Save takes the uncompressed wire form and compresses it itself
	// based on the ".bz2" suffix of the destination path.
	raw, err := manifest.Serialize(sampleManifest(), true, false)
	require.NoError(t, err)

	require.NoError(t, manifest.Save(fs, raw, "/ds/manifest.json.bz2"))

	got, err := manifest.Read(fs, "/ds/manifest.json.bz2")
	require.NoError(t, err)

	m, err := manifest.Parse(got)
	require.NoError(t, err)
	require.Equal(t, uint64(7), m.Header.ID)
}

func TestSerializeCompressProducesGzip(t *testing.T) {
	raw, err := manifest.Serialize(sampleManifest(), true, true)
	require.NoError(t, err)

	// Serialize's own compress=true path is independent of Save: the
	// bytes it returns are already gzipped and must not be handed to
	// Save for a ".bz2" path (that would double-compress).
	_, err = manifest.Parse(raw)
	require.Error(t, err, "gzip bytes are not valid JSON on their own")
}

func TestSerializeHeaderOnlyDropsElements(t *testing.T) {
	raw, err := manifest.Serialize(sampleManifest(), false, false)
	require.NoError(t, err)

	m, err := manifest.Parse(raw)
	require.NoError(t, err)
	require.Empty(t, m.Elements)
	require.Equal(t, "run1", m.Header.Name)
}

func TestReadHeaderMissingFileIsNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := manifest.ReadHeader(fs, "/ds/manifest.json")
	require.Error(t, err)
	require.True(t, errors.Is(err, hioerr.ErrNotFound))
}

func TestMergeUnionsSegmentsHeaderFromA(t *testing.T) {
	a := sampleManifest()
	a.Header.Status = 0

	b := sampleManifest()
	b.Header.Status = 99
	b.Elements[0].Segments = []manifest.Segment{
		{FileID: 3, FileOffset: 1024, LogicalOffset: 1024, Length: 512},
	}

	rawA, err := manifest.Serialize(a, true, false)
	require.NoError(t, err)
	rawB, err := manifest.Serialize(b, true, false)
	require.NoError(t, err)

	merged, err := manifest.Merge(rawA, rawB)
	require.NoError(t, err)

	m, err := manifest.Parse(merged)
	require.NoError(t, err)
	require.Equal(t, 0, m.Header.Status, "header from a must win")
	require.Len(t, m.Elements, 1)
	require.Len(t, m.Elements[0].Segments, 2)
}
