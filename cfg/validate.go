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

import "fmt"

const (
	FileCountInvalidValueError = "dataset-file-count must be a positive integer when set explicitly"
	BlockSizeInvalidValueError = "dataset-block-size must be a positive byte count"
)

// Validate checks the fields that must hold regardless of how the
// config was constructed. Mode-specific defaulting (§4.C) happens
// later, in internal/fsattr, once filesystem capabilities are known.
func Validate(c *Config) error {
	if c.Dataset.FileCount < 0 {
		return fmt.Errorf(FileCountInvalidValueError)
	}
	switch c.Dataset.FileMode {
	case "", Basic, FilePerNode, Strided:
	default:
		return fmt.Errorf("invalid dataset-file-mode: %s", c.Dataset.FileMode)
	}
	return nil
}
