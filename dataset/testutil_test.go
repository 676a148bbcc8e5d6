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
	"os"
	"sync"
	"testing"

	"github.com/posixhio/hio/dataset"
	"github.com/posixhio/hio/internal/fsattr"
	"github.com/posixhio/hio/internal/rankgroup"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// fakeFSAttr is the §6.4 filesystem collaborator backed by an in-memory
// afero.Fs: Query always returns the same fixed attrs, SetStripe is a
// no-op (MemMapFs has no xattrs to set), and Mkpath delegates to MkdirAll.
type fakeFSAttr struct {
	fs    afero.Fs
	attrs fsattr.Attrs
}

func (f *fakeFSAttr) Query(string) (fsattr.Attrs, error) { return f.attrs, nil }
func (f *fakeFSAttr) SetStripe(string, fsattr.Attrs) error { return nil }
func (f *fakeFSAttr) Mkpath(path string, mode uint32) error {
	return f.fs.MkdirAll(path, os.FileMode(mode))
}

// baseOptions returns Options for a single-rank Local group against a
// fresh in-memory filesystem, with file_mode basic. Callers override
// fields as needed.
func baseOptions(fs afero.Fs) dataset.Options {
	return dataset.Options{
		Group:  &rankgroup.Local{},
		FS:     fs,
		FSAttr: &fakeFSAttr{fs: fs},

		Root:      "/data",
		ContextID: "ctx",
		Name:      "run",
		ID:        1,

		Flags: dataset.Create | dataset.Read | dataset.Write,
		Mode:  dataset.Shared,
	}
}

// openAllAsync drives dataset.Open for every entry in optsList
// concurrently, one goroutine per rank, required because the collective
// operations an in-process multi-rank Group performs (Broadcast,
// Scatter, Gather, Barrier) rendezvous across all ranks.
func openAllAsync(t *testing.T, optsList []dataset.Options) []*dataset.Dataset {
	t.Helper()
	n := len(optsList)
	results := make([]*dataset.Dataset, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range optsList {
		i := i
		go func() {
			defer wg.Done()
			results[i], errs[i] = dataset.Open(optsList[i])
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "rank %d open", i)
	}
	return results
}

// closeAllAsync mirrors openAllAsync for Close, which also drives
// job-wide collectives (Gather, AllreduceMin) in WRITE mode.
func closeAllAsync(t *testing.T, datasets []*dataset.Dataset) {
	t.Helper()
	n := len(datasets)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range datasets {
		i := i
		go func() {
			defer wg.Done()
			errs[i] = datasets[i].Close()
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "rank %d close", i)
	}
}
