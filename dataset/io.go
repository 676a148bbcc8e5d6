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
	"context"

	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/reqproc"
	"github.com/posixhio/hio/internal/translate"
)

// Request is one §4.G batch entry. Element is obtained via Dataset.Element.
type Request = reqproc.Request

// Read builds a read Request for count blocks of elementSize bytes each,
// starting at offset and advancing by stride between blocks.
func Read(el *translate.Element, offset int64, buf []byte, count int, elementSize, stride int64) Request {
	return Request{Kind: reqproc.Read, Element: el, Offset: offset, Buffer: buf, Count: count, ElementSize: elementSize, Stride: stride}
}

// Write builds a write Request with the same shape as Read.
func Write(el *translate.Element, offset int64, buf []byte, count int, elementSize, stride int64) Request {
	return Request{Kind: reqproc.Write, Element: el, Offset: offset, Buffer: buf, Count: count, ElementSize: elementSize, Stride: stride}
}

// ProcessReqs implements §4.G's batch contract against this dataset: it
// is the only entry point that performs I/O once Open has returned.
func (d *Dataset) ProcessReqs(ctx context.Context, reqs []Request) error {
	if d.closed {
		return hioerr.BadState("dataset.process_reqs.closed")
	}
	for i := range reqs {
		if reqs[i].Kind == reqproc.Write && !d.flags.Has(Write) {
			return hioerr.Permission("dataset.process_reqs.write_on_read_only")
		}
		if reqs[i].Kind == reqproc.Read && !d.flags.Has(Read) {
			return hioerr.Permission("dataset.process_reqs.read_on_write_only")
		}
	}
	return d.processor.Process(ctx, reqs)
}
