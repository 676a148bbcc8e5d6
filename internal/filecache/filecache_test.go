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

package filecache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/posixhio/hio/internal/filecache"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameHandleOnRepeatedHit(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := filecache.New(fs, true, 0o644, nil)
	ctx := context.Background()

	f1, err := c.Get(ctx, 5, "/a")
	require.NoError(t, err)
	f2, err := c.Get(ctx, 5, "/a")
	require.NoError(t, err)
	require.Same(t, f1, f2)
}

func TestGetEvictsOnCollisionWithoutLRU(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := filecache.New(fs, true, 0o644, nil)
	ctx := context.Background()

	// 5 and 5+Slots collide in the same direct-mapped slot.
	f1, err := c.Get(ctx, 5, "/a")
	require.NoError(t, err)

	f2, err := c.Get(ctx, 5+filecache.Slots, "/b")
	require.NoError(t, err)
	require.NotSame(t, f1, f2)

	// f1 must have been closed by the eviction: writing to it now fails.
	_, err = f1.WriteString("x")
	require.Error(t, err)
}

func TestCloseAllClosesEveryOccupiedSlot(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := filecache.New(fs, true, 0o644, nil)
	ctx := context.Background()

	handles := make([]afero.File, 0, 3)
	for i := 0; i < 3; i++ {
		f, err := c.Get(ctx, int64(i), fmt.Sprintf("/f%d", i))
		require.NoError(t, err)
		handles = append(handles, f)
	}

	require.NoError(t, c.CloseAll())
	for _, f := range handles {
		_, err := f.WriteString("x")
		require.Error(t, err)
	}
}
