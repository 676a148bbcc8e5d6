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

package util

import (
	"io"

	"github.com/posixhio/hio/internal/logger"
)

// CloseFile closes c, logging a warning on failure instead of propagating
// the error. It is meant for defer sites where the caller already has a
// more meaningful error to return and a close failure on a file that was
// only being read, or that is being abandoned during cleanup, should not
// shadow it.
func CloseFile(c io.Closer, path string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warnf("util: close %q: %v", path, err)
	}
}

// CloseAndCapture closes c and, if errp points at a nil error, stores the
// close error there. Used at sites where the close error is the only
// error the caller can report.
func CloseAndCapture(c io.Closer, errp *error) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil && *errp == nil {
		*errp = err
	}
}
