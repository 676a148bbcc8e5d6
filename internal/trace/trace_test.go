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

package trace_test

import (
	"strings"
	"testing"

	"github.com/posixhio/hio/internal/trace"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitWritesExpectedLineFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink, err := trace.Open(fs, "/trace.0")
	require.NoError(t, err)

	sink.Emit("temperature", "write", 128, 0, 1000, 1500)
	sink.Close()

	raw, err := afero.ReadFile(fs, "/trace.0")
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))

	parts := strings.Split(line, ":")
	// <identifier>::<id>:<event>:<v1>:<v2>:<start_us>:<stop_us>:<duration_us>
	// identifier::id splits into ["<identifier>", "", "<id>", "write", "128", "0", "1000", "1500", "500"]
	assert.Contains(t, line, "::temperature:write:128:0:1000:1500:500")
	require.Len(t, parts, 9)
	assert.Equal(t, []string{"", "temperature", "write", "128", "0", "1000", "1500", "500"}, parts[1:])
}

func TestOpenAppendsRatherThanTruncating(t *testing.T) {
	fs := afero.NewMemMapFs()

	sink, err := trace.Open(fs, "/trace.0")
	require.NoError(t, err)
	sink.Emit("temperature", "write", 128, 0, 1000, 1500)
	sink.Close()

	// Re-opening the same rank's trace file within a run must not
	// discard the events already written.
	sink, err = trace.Open(fs, "/trace.0")
	require.NoError(t, err)
	sink.Emit("temperature", "write", 64, 0, 2000, 2200)
	sink.Close()

	raw, err := afero.ReadFile(fs, "/trace.0")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "::temperature:write:128:0:1000:1500:500")
	assert.Contains(t, lines[1], "::temperature:write:64:0:2000:2200:200")
}

func TestEmitOnNilSinkIsNoop(t *testing.T) {
	var sink *trace.Sink
	assert.NotPanics(t, func() {
		sink.Emit("x", "read", 1, 2, 3, 4)
		sink.Close()
	})
}
