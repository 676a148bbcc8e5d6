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

// Package fsattr implements the §6.4 filesystem collaborator: probing a
// data root's striping capability, applying stripe hints to new
// directories, and the §4.C mode-specific defaulting and clamping rules.
package fsattr

import "github.com/posixhio/hio/cfg"

// Attrs mirrors the dataset's fs_attrs field: stripe geometry, its
// platform limits, the configured RAID level, and whether the
// filesystem backing the data root understands striping at all.
type Attrs struct {
	StripeCount      uint64
	StripeSize       uint64
	StripeUnit       uint64
	MaxStripeCount   uint64
	MaxStripeSize    uint64
	RaidLevel        uint64
	SupportsStriping bool
}

// FS is the collaborator interface: query a path's striping attributes,
// apply a stripe hint to a path, and create a directory path with
// intermediate components (mkpath semantics: EEXIST is not an error).
type FS interface {
	Query(path string) (Attrs, error)
	SetStripe(path string, attrs Attrs) error
	Mkpath(path string, mode uint32) error
}

const (
	defaultBasicStripeSize = 1 << 20  // 1 MiB
	optimizedStripeSize    = 16 << 20 // 16 MiB
	stridedStripeCount     = 16
)

// Defaults computes the mode-specific stripe_size/stripe_count/file_count
// defaults of §4.C, before the user configuration merge and clamping
// pass. datasetMode is "unique" or "shared"; nodeLocalSize is the rank
// group's shared_size; contextSize is the rank group's size.
func Defaults(fileMode cfg.FileMode, datasetMode string, nodeLocalSize, contextSize int, attrs Attrs, blockSize uint64) (stripeSize, stripeCount uint64, fileCount int, outBlockSize uint64) {
	outBlockSize = blockSize

	switch fileMode {
	case cfg.Basic:
		stripeSize = defaultBasicStripeSize
		if datasetMode == "unique" {
			stripeCount = 1
		} else {
			stripeCount = maxU64(1, (attrs.MaxStripeCount*9)/10)
		}
	case cfg.FilePerNode:
		stripeSize = optimizedStripeSize
		stripeCount = minU64(uint64(nodeLocalSize), attrs.MaxStripeCount)
		if outBlockSize < stripeSize {
			outBlockSize = stripeSize
		}
	case cfg.Strided:
		stripeSize = outBlockSize
		stripeCount = stridedStripeCount
		maxFileCount := 32 * int(attrs.MaxStripeCount)
		fileCount = contextSize
		if maxFileCount > 0 && maxFileCount < fileCount {
			fileCount = maxFileCount
		}
	}
	return stripeSize, stripeCount, fileCount, outBlockSize
}

// Clamp applies the post-merge clamping rules: stripe_count is clamped
// to max_stripe_count; stripe_size is rounded up to a multiple of
// stripe_unit then clamped to max_stripe_size. warn is called once per
// clamp that actually changed a value; if the filesystem does not
// support striping, clamping is skipped and the fields are left inert.
func Clamp(a *Attrs, warn func(msg string)) {
	if !a.SupportsStriping {
		return
	}
	if a.MaxStripeCount > 0 && a.StripeCount > a.MaxStripeCount {
		warn("fsattr: stripe_count clamped to max_stripe_count")
		a.StripeCount = a.MaxStripeCount
	}
	if a.StripeUnit > 0 {
		if rem := a.StripeSize % a.StripeUnit; rem != 0 {
			warn("fsattr: stripe_size rounded up to a multiple of stripe_unit")
			a.StripeSize += a.StripeUnit - rem
		}
	}
	if a.MaxStripeSize > 0 && a.StripeSize > a.MaxStripeSize {
		warn("fsattr: stripe_size clamped to max_stripe_size")
		a.StripeSize = a.MaxStripeSize
	}
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
