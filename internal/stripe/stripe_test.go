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

package stripe_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/posixhio/hio/internal/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveFirstCallRoundsUpAndServesRequested(t *testing.T) {
	ctrl := stripe.NewControlBlock(make([]byte, 8))
	a := &stripe.Allocator{Control: ctrl, BlockSize: 1024, StripeCount: 1, MyStripe: 0}

	offset, served, err := a.Reserve(100)
	require.NoError(t, err)
	assert.EqualValues(t, 100, served)
	assert.EqualValues(t, 0, offset) // s_index starts at 0
}

func TestReserveSecondCallServesFromCachedRemainder(t *testing.T) {
	ctrl := stripe.NewControlBlock(make([]byte, 8))
	a := &stripe.Allocator{Control: ctrl, BlockSize: 1024, StripeCount: 1, MyStripe: 0}

	_, _, err := a.Reserve(100) // rounds up to 1024, reserves 924 bytes of remainder
	require.NoError(t, err)

	offset, served, err := a.Reserve(200)
	require.NoError(t, err)
	assert.EqualValues(t, 200, served)
	assert.EqualValues(t, 100, offset) // continues right after the first reservation
}

func TestReserveRefillsWhenRemainderExhausted(t *testing.T) {
	ctrl := stripe.NewControlBlock(make([]byte, 8))
	a := &stripe.Allocator{Control: ctrl, BlockSize: 100, StripeCount: 1, MyStripe: 0}

	_, _, err := a.Reserve(100) // exactly one block, no remainder left
	require.NoError(t, err)

	offset, served, err := a.Reserve(50)
	require.NoError(t, err)
	assert.EqualValues(t, 50, served)
	assert.EqualValues(t, 100, offset) // s_index advanced to 1 stripe * block_size
}

func TestReserveConcurrentRanksNeverOverlap(t *testing.T) {
	ctrl := stripe.NewControlBlock(make([]byte, 8))
	const blockSize = 64
	const perRank = 200

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ranges [][2]int64

	for rank := 0; rank < 8; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			a := &stripe.Allocator{Control: ctrl, BlockSize: blockSize, StripeCount: 1, MyStripe: 0}
			offset, served, err := a.Reserve(perRank)
			assert.NoError(t, err)
			mu.Lock()
			ranges = append(ranges, [2]int64{offset, offset + served})
			mu.Unlock()
		}(rank)
	}
	wg.Wait()

	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	for i := 1; i < len(ranges); i++ {
		assert.LessOrEqual(t, ranges[i-1][1], ranges[i][0], "reservations must never overlap")
	}
}
