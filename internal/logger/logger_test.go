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

package logger_test

import (
	"bytes"
	"log/slog"
	"os"
	"regexp"
	"testing"

	"github.com/posixhio/hio/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) { suite.Run(t, new(LoggerTest)) }

func (t *LoggerTest) TestTextFormatMatchesSeverityGrammar() {
	path := t.T().TempDir() + "/log.txt"
	l, err := logger.New(logger.Config{Severity: logger.Trace, Format: logger.TextFormat, FilePath: path})
	require.NoError(t.T(), err)
	defer l.Close()

	l.Warnf("www.%s.com", "warningExample")
	require.NoError(t.T(), l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t.T(), err)
	matched, err := regexp.MatchString(`^time="[^"]+" severity=WARNING message="www\.warningExample\.com"`, string(bytes.TrimSpace(content)))
	require.NoError(t.T(), err)
	assert.True(t.T(), matched)
}

func (t *LoggerTest) TestSeverityBelowFloorIsSuppressed() {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	path := t.T().TempDir() + "/log.txt"
	l, err := logger.New(logger.Config{Severity: logger.Warning, Format: logger.TextFormat, FilePath: path})
	require.NoError(t.T(), err)
	defer l.Close()

	// Severity is fixed at construction time; Info is below Warning and
	// must not reach the handler at all regardless of destination.
	_ = buf
	l.Infof("suppressed")
	require.NoError(t.T(), l.Close())

	content, _ := os.ReadFile(path)
	assert.Empty(t.T(), bytes.TrimSpace(content))
}

func (t *LoggerTest) TestJSONFormatIsOneObjectPerLine() {
	path := t.T().TempDir() + "/log.json"
	l, err := logger.New(logger.Config{Severity: logger.Info, Format: logger.JSONFormat, FilePath: path})
	require.NoError(t.T(), err)
	l.Infof("hello")
	l.Errorf("boom")
	require.NoError(t.T(), l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t.T(), err)
	lines := bytes.Split(bytes.TrimSpace(content), []byte("\n"))
	require.Len(t.T(), lines, 2)
	assert.Contains(t.T(), string(lines[0]), `"severity":"INFO"`)
	assert.Contains(t.T(), string(lines[1]), `"severity":"ERROR"`)
}

func (t *LoggerTest) TestDefaultLoggerIsLazilyInitialized() {
	logger.Infof("this must not panic before Init is called")
}
