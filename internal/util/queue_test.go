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

package util_test

import (
	"testing"

	"github.com/posixhio/hio/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestQueueFIFOOrder(t *testing.T) {
	var q util.Queue[int]
	assert.True(t, q.Empty())

	q.Push(1)
	q.Push(2)
	q.Push(3)
	assert.Equal(t, 3, q.Len())

	v, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Pop()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	assert.True(t, q.Empty())
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueueZeroValueUsable(t *testing.T) {
	var q util.Queue[string]
	q.Push("a")
	v, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
}
