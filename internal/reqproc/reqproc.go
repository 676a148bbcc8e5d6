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

// Package reqproc implements the §4.G request processor: the batch
// contract that drives the address translator and open-file cache to
// satisfy a set of read/write requests under the dataset mutex.
package reqproc

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/posixhio/hio/clock"
	"github.com/posixhio/hio/internal/filecache"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/metrics"
	"github.com/posixhio/hio/internal/trace"
	"github.com/posixhio/hio/internal/translate"
	"github.com/spf13/afero"
)

// Kind distinguishes a read request from a write request.
type Kind int

const (
	Read Kind = iota
	Write
)

// Completion is fire-and-forget: populated once a request completes,
// never polled or waited on (reads in this module are synchronous).
type Completion struct {
	Transferred int64
	Complete    bool
	Status      int
}

// Request is one batch entry: count blocks of elementSize bytes each, at
// logical offset, offset+stride, offset+2*stride, ...
type Request struct {
	Kind        Kind
	Element     *translate.Element
	Offset      int64
	Buffer      []byte
	Count       int
	ElementSize int64
	Stride      int64
	Completion  *Completion

	// Status and Transferred are filled in by Process: positive Status
	// is bytes transferred, negative is an error code (see hioerr).
	Transferred int64
	Status      int
}

// Stats accumulates the I/O time and byte counts driving dataset.stats.
type Stats struct {
	ReadTime     time.Duration
	WriteTime    time.Duration
	BytesRead    int64
	BytesWritten int64
}

// Processor drives translate+filecache to satisfy a batch of requests
// under a single dataset-wide mutex.
type Processor struct {
	Translator   *translate.Translator
	Cache        *filecache.Cache
	BasicHandles map[string]afero.File // element name -> dedicated BASIC-mode handle
	Metrics      metrics.Handle
	Trace        *trace.Sink
	Clock        clock.Clock

	mu    sync.Mutex
	Stats Stats
}

func (p *Processor) clock() clock.Clock {
	if p.Clock == nil {
		return clock.RealClock{}
	}
	return p.Clock
}

func (p *Processor) metrics() metrics.Handle {
	if p.Metrics == nil {
		return metrics.NewNoop()
	}
	return p.Metrics
}

// Process implements the §4.G contract: acquire the dataset mutex, walk
// every request's blocks through translate -> I/O -> advance, record
// per-request status, and stop at the first negative status.
func (p *Processor) Process(ctx context.Context, reqs []Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.metrics()

	for i := range reqs {
		req := &reqs[i]
		startUs := p.clock().Now().UnixMicro()
		transferred, err := p.processOne(ctx, req)
		stopUs := p.clock().Now().UnixMicro()

		event := "read"
		if req.Kind == Write {
			event = "write"
		}
		p.Trace.Emit(req.Element.Name, event, req.Offset, transferred, startUs, stopUs)

		req.Transferred = transferred

		if err != nil {
			req.Status = statusCode(err)
			h.RequestErrorCount(ctx, 1, nil)
			if req.Completion != nil {
				req.Completion.Transferred = transferred
				req.Completion.Complete = true
				req.Completion.Status = req.Status
			}
			return err
		}

		req.Status = int(transferred)
		if req.Completion != nil {
			req.Completion.Transferred = transferred
			req.Completion.Complete = true
			req.Completion.Status = 0
		}
	}
	return nil
}

func (p *Processor) processOne(ctx context.Context, req *Request) (int64, error) {
	isRead := req.Kind == Read
	var total int64
	start := p.clock().Now()

	for block := 0; block < req.Count; block++ {
		blockOffset := req.Offset + int64(block)*req.Stride
		bufStart := int64(block) * req.ElementSize
		if bufStart+req.ElementSize > int64(len(req.Buffer)) {
			return total, hioerr.BadState("reqproc.buffer_too_small")
		}
		blockBuf := req.Buffer[bufStart : bufStart+req.ElementSize]

		n, err := p.processBlock(ctx, req.Element, blockOffset, blockBuf, isRead)
		total += n
		if isRead {
			if n > 0 {
				p.metrics().BytesRead(ctx, n, nil)
			}
		} else {
			if n > 0 {
				p.metrics().BytesWritten(ctx, n, nil)
			}
			if highWater := blockOffset + n; highWater > req.Element.Size {
				req.Element.Size = highWater
			}
		}
		if err != nil {
			return total, err
		}
		if n < int64(len(blockBuf)) {
			// short I/O: stop the inner loop, per §4.G step 2.
			break
		}
	}

	elapsed := p.clock().Now().Sub(start)
	if isRead {
		p.Stats.ReadTime += elapsed
		p.Stats.BytesRead += total
	} else {
		p.Stats.WriteTime += elapsed
		p.Stats.BytesWritten += total
	}
	return total, nil
}

func (p *Processor) processBlock(ctx context.Context, el *translate.Element, logicalOffset int64, buf []byte, isRead bool) (int64, error) {
	var transferred int64
	for transferred < int64(len(buf)) {
		remaining := int64(len(buf)) - transferred
		target, err := p.Translator.Translate(el, logicalOffset+transferred, remaining, isRead)
		if err != nil {
			return transferred, err
		}
		if target.Length <= 0 {
			return transferred, hioerr.BadState("reqproc.zero_length_target")
		}

		n, err := p.doIO(ctx, el, target, buf[transferred:transferred+target.Length], isRead)
		transferred += int64(n)
		if err != nil {
			return transferred, err
		}
		if int64(n) < target.Length {
			break
		}
	}
	return transferred, nil
}

func (p *Processor) doIO(ctx context.Context, el *translate.Element, target translate.Target, buf []byte, isRead bool) (int, error) {
	var f afero.File
	if target.UseElementHandle {
		f = p.BasicHandles[el.Name]
		if f == nil {
			return 0, hioerr.BadState("reqproc.missing_basic_handle")
		}
	} else {
		var err error
		f, err = p.Cache.Get(ctx, target.FileID, target.Path)
		if err != nil {
			return 0, err
		}
	}

	if _, err := f.Seek(target.Offset, 0); err != nil {
		return 0, hioerr.IO("reqproc.seek", err)
	}

	if isRead {
		n, err := f.Read(buf)
		if err != nil && !isEOF(err) {
			return n, hioerr.IO("reqproc.read", err)
		}
		return n, nil
	}

	n, err := f.Write(buf)
	if err != nil {
		return n, hioerr.IO("reqproc.write", err)
	}
	return n, nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

// statusCode maps an hioerr kind to the negative status code recorded on
// a failed request.
func statusCode(err error) int {
	switch {
	case errors.Is(err, hioerr.ErrNotFound):
		return -1
	case errors.Is(err, hioerr.ErrPermission):
		return -2
	case errors.Is(err, hioerr.ErrOutOfResource):
		return -3
	case errors.Is(err, hioerr.ErrIO):
		return -4
	case errors.Is(err, hioerr.ErrNotAvailable):
		return -5
	case errors.Is(err, hioerr.ErrBadState):
		return -6
	default:
		return -4
	}
}
