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

package dataset

import (
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/layout"
	"github.com/posixhio/hio/internal/rankgroup"
	"github.com/spf13/afero"
)

// Unlink implements §4.H's unlink: a rank-0-only, depth-first removal of
// the whole dataset directory rooted at <root>/<context_id>.hio/<name>/<id>.
// Every non-zero rank refuses immediately rather than racing rank 0's
// removal.
func Unlink(fs afero.Fs, group rankgroup.Group, root, contextID, name string, id uint64) error {
	if group.Rank() != 0 {
		return hioerr.NotAvailable("dataset.unlink.non_root_rank")
	}
	base := layout.DatasetPath(root, contextID, name, id)
	if err := fs.RemoveAll(base); err != nil {
		return hioerr.IO("dataset.unlink", err)
	}
	return nil
}
