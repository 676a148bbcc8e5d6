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
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultMaxParallelShardScatter is a fan-out bound for reading manifest
// shards or listing dataset headers concurrently (§4.H), the same shape
// as the teacher's DefaultMaxParallelDownloads. No caller in this module
// applies it: dataset.List and the shard reads in dataset.Open start one
// goroutine per entry.
func DefaultMaxParallelShardScatter() int {
	return max(8, 2*runtime.NumCPU())
}

// LoadYAML reads a Config directly from a YAML file at path, for
// callers that keep dataset options in a config file rather than
// flags. It decodes against Config's yaml tags without going through
// viper/BindFlags, so it bypasses the pflag-overlay story entirely —
// useful for tests and for processes with no flag set of their own.
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
