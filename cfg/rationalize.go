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

// Rationalize updates fields whose correct value depends on other
// fields, the same role the teacher's cfg.Rationalize plays for
// deprecated-flag resolution.
func Rationalize(c *Config) error {
	if c.Dataset.FileMode == "" {
		c.Dataset.FileMode = Basic
	}
	if c.Dataset.BlockSize == 0 {
		c.Dataset.BlockSize = DefaultBlockSize
	}
	// use-bzip only means anything for file_per_node manifests; clear it
	// silently elsewhere rather than forcing callers to guard on mode.
	if c.Dataset.UseBzip && c.Dataset.FileMode != FilePerNode {
		c.Dataset.UseBzip = false
	}
	if c.Logging.Severity == "" {
		c.Logging.Severity = InfoLogSeverity
	}
	return nil
}
