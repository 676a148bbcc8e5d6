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

// Package cfg is the recognized-option surface of §6.5: per-dataset
// file-layout knobs plus the ambient logging/tracing configuration,
// bindable from a pflag.FlagSet/viper pair the way the teacher binds
// its mount options.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full set of options a caller may pass to dataset.Open,
// either built directly or decoded from YAML/flags via BindFlags+DecodeHook.
// Fields carry yaml tags only, so a viper/mapstructure decode sets the
// decoder's TagName to "yaml".
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// DatasetConfig is §6.5's "Recognized options (per dataset)" table.
type DatasetConfig struct {
	FileMode    FileMode `yaml:"dataset-file-mode"`
	BlockSize   ByteSize `yaml:"dataset-block-size"`
	FileCount   int      `yaml:"dataset-file-count"`
	UseBzip     bool     `yaml:"dataset-use-bzip"`
	StripeCount uint     `yaml:"stripe-count"`
	StripeSize  ByteSize `yaml:"stripe-size"`
	RaidLevel   uint     `yaml:"raid-level"`
}

type LogRotateLoggingConfig struct {
	MaxFileSizeMb   int  `yaml:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count"`
	Compress        bool `yaml:"compress"`
}

type LoggingConfig struct {
	Severity  LogSeverity            `yaml:"severity"`
	FilePath  string                 `yaml:"file-path"`
	Format    string                 `yaml:"format"`
	LogRotate LogRotateLoggingConfig `yaml:"log-rotate"`
}

// TracingConfig enables §4.J/§6.6 per-rank event tracing.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// BindFlags registers the recognized options on flagSet and binds each
// to viper under the same key used by Config's yaml tags, mirroring the
// teacher's cfg.BindFlags.
func BindFlags(flagSet *pflag.FlagSet) error {
	bind := func(key, flag string) error { return viper.BindPFlag(key, flagSet.Lookup(flag)) }

	flagSet.String("dataset-file-mode", string(Basic), "File-layout mode: basic, file_per_node or strided.")
	if err := bind("dataset.dataset-file-mode", "dataset-file-mode"); err != nil {
		return err
	}

	flagSet.String("dataset-block-size", "8MiB", "Block size for file_per_node/strided modes.")
	if err := bind("dataset.dataset-block-size", "dataset-block-size"); err != nil {
		return err
	}

	flagSet.Int("dataset-file-count", 0, "Number of files in strided mode (0 = default formula).")
	if err := bind("dataset.dataset-file-count", "dataset-file-count"); err != nil {
		return err
	}

	flagSet.Bool("dataset-use-bzip", false, "Compress manifests written in file_per_node mode.")
	if err := bind("dataset.dataset-use-bzip", "dataset-use-bzip"); err != nil {
		return err
	}

	flagSet.Uint("stripe-count", 0, "Stripe count override (0 = filesystem/mode default).")
	if err := bind("dataset.stripe-count", "stripe-count"); err != nil {
		return err
	}

	flagSet.String("stripe-size", "0", "Stripe size override (0 = filesystem/mode default).")
	if err := bind("dataset.stripe-size", "stripe-size"); err != nil {
		return err
	}

	flagSet.Uint("raid-level", 0, "RAID level hint passed through to the filesystem collaborator.")
	if err := bind("dataset.raid-level", "raid-level"); err != nil {
		return err
	}

	flagSet.String("logging-severity", string(InfoLogSeverity), "TRACE, DEBUG, INFO, WARNING, ERROR or OFF.")
	if err := bind("logging.severity", "logging-severity"); err != nil {
		return err
	}

	flagSet.Bool("tracing-enabled", false, "Enable per-rank I/O event tracing.")
	return bind("tracing.enabled", "tracing-enabled")
}
