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

// Package trace implements the §4.J tracer: an append-only, best-effort
// per-rank event log. Writes never block on fsync and never fail a
// caller — the sink exists to help diagnose a run after the fact, not to
// participate in its correctness.
package trace

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/logger"
	"github.com/spf13/afero"
)

// Sink is one rank's trace file. Every write is a single line of the
// form <identifier>::<id>:<event>:<v1>:<v2>:<start_us>:<stop_us>:<duration_us>.
type Sink struct {
	identifier string
	mu         sync.Mutex
	w          io.WriteCloser
}

// Open creates path if it doesn't exist and returns a Sink that stamps
// every line with a freshly generated run identifier. Per §4.J the log
// is append-only: a re-open of the same (name, id) within a run appends
// after whatever is already there rather than truncating it. Tracer
// writes are best-effort past this point: Open is the only call that
// can fail.
func Open(fs afero.Fs, path string) (*Sink, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, hioerr.IO("trace.open", err)
	}
	return &Sink{identifier: uuid.NewString(), w: f}, nil
}

// Emit appends one event line. id identifies the entity the event
// concerns (an element, a request sequence number, ...); v1/v2 are
// event-specific payload values (byte counts, offsets); startUs/stopUs
// bound the operation's wall-clock window.
func (s *Sink) Emit(id, event string, v1, v2 int64, startUs, stopUs int64) {
	if s == nil {
		return
	}
	line := fmt.Sprintf("%s::%s:%s:%d:%d:%d:%d:%d\n",
		s.identifier, id, event, v1, v2, startUs, stopUs, stopUs-startUs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		logger.Warnf("trace: write failed, dropping event: %v", err)
	}
}

// Close closes the underlying file. Best-effort: failures are logged,
// never returned, matching the tracer's no-error-propagation contract
// past Open.
func (s *Sink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Close(); err != nil {
		logger.Warnf("trace: close failed: %v", err)
	}
}
