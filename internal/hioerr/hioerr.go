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

// Package hioerr defines the closed error-kind taxonomy shared by every
// component of the storage core. Platform errors are wrapped into ErrIO
// with the originating error preserved via errors.Is/errors.As rather
// than leaking errno-shaped values across package boundaries.
package hioerr

import (
	"errors"
	"fmt"
)

// The six error kinds of the storage core. Callers should match on
// these sentinels with errors.Is, never on string content.
var (
	ErrNotFound      = errors.New("hio: not found")
	ErrPermission    = errors.New("hio: permission denied")
	ErrOutOfResource = errors.New("hio: out of resource")
	ErrIO            = errors.New("hio: io error")
	ErrNotAvailable  = errors.New("hio: not available")
	ErrBadState      = errors.New("hio: bad state")
)

// Wrap annotates cause with kind and op, preserving both for errors.Is.
func Wrap(kind error, op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// IO wraps a platform error (open/read/write/seek/unlink/mkdir failures)
// as ErrIO, preserving the underlying error for inspection.
func IO(op string, cause error) error {
	return Wrap(ErrIO, op, cause)
}

// NotFound wraps a missing-manifest or missing-segment condition.
func NotFound(op string, cause error) error {
	return Wrap(ErrNotFound, op, cause)
}

// Permission wraps a write-on-read-only or complete-on-non-read violation.
func Permission(op string) error {
	return Wrap(ErrPermission, op, nil)
}

// NotAvailable wraps a disabled feature, a mode downgrade, or a
// rank-0-only operation called from the wrong rank.
func NotAvailable(op string) error {
	return Wrap(ErrNotAvailable, op, nil)
}

// BadState wraps a violated invariant or an unterminated loop.
func BadState(op string) error {
	return Wrap(ErrBadState, op, nil)
}

// OutOfResource wraps an allocation failure.
func OutOfResource(op string, cause error) error {
	return Wrap(ErrOutOfResource, op, cause)
}
