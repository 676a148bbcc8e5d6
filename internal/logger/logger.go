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

// Package logger provides the severity-leveled logger used throughout
// the storage core. It wraps log/slog with a handler that understands
// the module's five-plus-off severity scale (TRACE, DEBUG, INFO,
// WARNING, ERROR, OFF) and, when configured with a file path, rotates
// the backing file with lumberjack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity is the module's logging level, ordered TRACE < DEBUG < INFO
// < WARNING < ERROR < OFF.
type Severity string

const (
	Trace   Severity = "TRACE"
	Debug   Severity = "DEBUG"
	Info    Severity = "INFO"
	Warning Severity = "WARNING"
	Error   Severity = "ERROR"
	Off     Severity = "OFF"
)

var rank = map[Severity]slog.Level{
	Trace:   slog.Level(-8),
	Debug:   slog.LevelDebug,
	Info:    slog.LevelInfo,
	Warning: slog.LevelWarn,
	Error:   slog.LevelError,
	Off:     slog.Level(64),
}

// Format selects the on-disk encoding of log lines.
type Format string

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

// RotateConfig configures lumberjack-backed log file rotation.
type RotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

// Config selects the destination, format and severity floor for a logger.
type Config struct {
	Severity Severity
	Format   Format
	FilePath string // empty means stderr
	Prefix   string // prepended to every message, mainly for tests
	Rotate   RotateConfig
}

type severityHandler struct {
	mu      sync.Mutex
	w       io.Writer
	level   *slog.LevelVar
	format  Format
	prefix  string
	nowFunc func() time.Time
}

func newHandler(w io.Writer, level *slog.LevelVar, format Format, prefix string) *severityHandler {
	return &severityHandler{w: w, level: level, format: format, prefix: prefix, nowFunc: time.Now}
}

func toSeverity(l slog.Level) Severity {
	switch {
	case l < slog.LevelDebug:
		return Trace
	case l < slog.LevelInfo:
		return Debug
	case l < slog.LevelWarn:
		return Info
	case l < slog.LevelError:
		return Warning
	default:
		return Error
	}
}

func (h *severityHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *severityHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sev := toSeverity(r.Level)
	msg := h.prefix + r.Message
	var line string
	switch h.format {
	case JSONFormat:
		line = fmt.Sprintf(`{"timestamp":{"seconds":%d,"nanos":%d},"severity":%q,"message":%q}`,
			r.Time.Unix(), r.Time.Nanosecond(), sev, msg)
	default:
		line = fmt.Sprintf("time=%q severity=%s message=%q", r.Time.Format(time.RFC3339Nano), sev, msg)
	}
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *severityHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *severityHandler) WithGroup(_ string) slog.Handler      { return h }

// Logger is a leveled logger with printf-style helpers matching the
// convenience functions the rest of the module calls by severity name.
type Logger struct {
	slog   *slog.Logger
	closer io.Closer
}

// New builds a Logger from cfg. The returned Logger must be closed to
// flush and release its backing file, if any.
func New(cfg Config) (*Logger, error) {
	levelVar := new(slog.LevelVar)
	if lvl, ok := rank[cfg.Severity]; ok {
		levelVar.Set(lvl)
	} else {
		levelVar.Set(slog.LevelInfo)
	}

	var w io.Writer = os.Stderr
	var closer io.Closer
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.Rotate.MaxFileSizeMB,
			MaxBackups: cfg.Rotate.BackupFileCount,
			Compress:   cfg.Rotate.Compress,
		}
		w = lj
		closer = lj
	}

	format := cfg.Format
	if format == "" {
		format = TextFormat
	}

	h := newHandler(w, levelVar, format, cfg.Prefix)
	return &Logger{slog: slog.New(h), closer: closer}, nil
}

// Close flushes and releases the logger's backing file, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) Tracef(format string, args ...any)   { l.slog.Log(context.Background(), rank[Trace], fmt.Sprintf(format, args...)) }
func (l *Logger) Debugf(format string, args ...any)   { l.slog.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)    { l.slog.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)    { l.slog.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any)   { l.slog.Error(fmt.Sprintf(format, args...)) }

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Init installs cfg as the package-level default logger used by the
// Tracef/Debugf/.../Errorf package functions. Components that are not
// handed an explicit *Logger (dataset-owned, in the common case) log
// through this default.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	prev := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

func current() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}
	_ = Init(Config{Severity: Info})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Tracef(format string, args ...any) { current().Tracef(format, args...) }
func Debugf(format string, args ...any) { current().Debugf(format, args...) }
func Infof(format string, args ...any)  { current().Infof(format, args...) }
func Warnf(format string, args ...any)  { current().Warnf(format, args...) }
func Errorf(format string, args ...any) { current().Errorf(format, args...) }
