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

package layout

import "github.com/posixhio/hio/internal/fsattr"

// Bootstrap creates the directories a CREATE open needs: data/ always,
// trace/ only if tracing is enabled. mode is 0777 & ~umask captured at
// module creation. If attrs.SupportsStriping, the dataset's stripe hint
// is applied to data/ so new files inherit it. Pre-existing directories
// are accepted silently (Mkpath has mkpath/EEXIST semantics).
func Bootstrap(fs fsattr.FS, base string, mode uint32, tracingEnabled bool, attrs fsattr.Attrs) error {
	dataDir := DataDir(base)
	if err := fs.Mkpath(dataDir, mode); err != nil {
		return err
	}
	if err := fs.SetStripe(dataDir, attrs); err != nil {
		return err
	}

	if tracingEnabled {
		if err := fs.Mkpath(TraceDir(base), mode); err != nil {
			return err
		}
	}
	return nil
}
