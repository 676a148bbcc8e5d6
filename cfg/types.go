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

package cfg

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FileMode is the datatype for dataset_file_mode: the three file-layout
// modes of the storage core plus the UNIQUE/SHARED-driven forced value.
type FileMode string

const (
	Basic       FileMode = "basic"
	FilePerNode FileMode = "file_per_node"
	Strided     FileMode = "strided"
)

func (m *FileMode) UnmarshalText(text []byte) error {
	v := FileMode(strings.ToLower(string(text)))
	if !slices.Contains([]FileMode{Basic, FilePerNode, Strided}, v) {
		return fmt.Errorf("invalid dataset_file_mode: %s (want basic, file_per_node or strided)", text)
	}
	*m = v
	return nil
}

func (m FileMode) MarshalText() ([]byte, error) { return []byte(m), nil }

// ByteSize is the datatype for size-like params (block_size, stripe_size)
// that accept either a bare integer byte count or a "<n><unit>" string
// such as "8MiB" or "512KiB".
type ByteSize uint64

const (
	KiB ByteSize = 1 << 10
	MiB ByteSize = 1 << 20
	GiB ByteSize = 1 << 30
)

func (b *ByteSize) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*b = 0
		return nil
	}
	upper := strings.ToUpper(s)
	unit := ByteSize(1)
	switch {
	case strings.HasSuffix(upper, "GIB"):
		unit, s = GiB, s[:len(s)-3]
	case strings.HasSuffix(upper, "MIB"):
		unit, s = MiB, s[:len(s)-3]
	case strings.HasSuffix(upper, "KIB"):
		unit, s = KiB, s[:len(s)-3]
	case strings.HasSuffix(upper, "B"):
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", text, err)
	}
	*b = ByteSize(n) * unit
	return nil
}

func (b ByteSize) String() string {
	switch {
	case b != 0 && uint64(b)%uint64(GiB) == 0:
		return fmt.Sprintf("%dGiB", uint64(b)/uint64(GiB))
	case b != 0 && uint64(b)%uint64(MiB) == 0:
		return fmt.Sprintf("%dMiB", uint64(b)/uint64(MiB))
	case b != 0 && uint64(b)%uint64(KiB) == 0:
		return fmt.Sprintf("%dKiB", uint64(b)/uint64(KiB))
	default:
		return fmt.Sprintf("%dB", uint64(b))
	}
}

// LogSeverity mirrors logger.Severity at the configuration layer so the
// decode hook can validate it without cfg depending on internal/logger.
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var severityRanking = map[LogSeverity]int{
	TraceLogSeverity:   0,
	DebugLogSeverity:   1,
	InfoLogSeverity:    2,
	WarningLogSeverity: 3,
	ErrorLogSeverity:   4,
	OffLogSeverity:     5,
}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	v := LogSeverity(strings.ToUpper(string(text)))
	if _, ok := severityRanking[v]; !ok {
		return fmt.Errorf("invalid log severity: %s", text)
	}
	*l = v
	return nil
}

// Rank returns the integer representation of the severity rank, or -1
// for an unknown (unvalidated) severity.
func (l LogSeverity) Rank() int {
	if r, ok := severityRanking[l]; ok {
		return r
	}
	return -1
}
