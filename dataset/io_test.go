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
	"errors"
	"testing"

	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/dataset"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestProcessReqsRejectsWriteOnReadOnlyDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := baseOptions(fs)
	opts.Config.FileMode = cfg.Basic
	d, err := dataset.Open(opts)
	require.NoError(t, err)
	_, err = d.Element("E")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	opts.Flags = dataset.Read
	d2, err := dataset.Open(opts)
	require.NoError(t, err)
	defer d2.Close()

	el, err := d2.Element("E")
	require.NoError(t, err)

	err = d2.ProcessReqs(context.Background(), []dataset.Request{
		dataset.Write(el, 0, []byte("x"), 1, 1, 0),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, hioerr.ErrPermission))
}

func TestProcessReqsRejectsReadOnWriteOnlyDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := baseOptions(fs)
	opts.Config.FileMode = cfg.Basic
	opts.Flags = dataset.Create | dataset.Write
	d, err := dataset.Open(opts)
	require.NoError(t, err)
	defer d.Close()

	el, err := d.Element("E")
	require.NoError(t, err)

	buf := make([]byte, 1)
	err = d.ProcessReqs(context.Background(), []dataset.Request{
		dataset.Read(el, 0, buf, 1, 1, 0),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, hioerr.ErrPermission))
}

func TestProcessReqsRejectsAfterClose(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := baseOptions(fs)
	opts.Config.FileMode = cfg.Basic
	d, err := dataset.Open(opts)
	require.NoError(t, err)
	el, err := d.Element("E")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	err = d.ProcessReqs(context.Background(), []dataset.Request{
		dataset.Write(el, 0, []byte("x"), 1, 1, 0),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, hioerr.ErrBadState))
}
