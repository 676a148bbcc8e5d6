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

package metrics

import (
	"context"
	"time"
)

// NewNoop returns a Handle whose methods are all no-ops, for callers that
// do not want metrics collection (e.g. unit tests).
func NewNoop() Handle {
	var n noopHandle
	return &n
}

type noopHandle struct{}

func (*noopHandle) BytesRead(context.Context, int64, []MetricAttr)            {}
func (*noopHandle) BytesWritten(context.Context, int64, []MetricAttr)         {}
func (*noopHandle) ReadLatency(context.Context, time.Duration, []MetricAttr)  {}
func (*noopHandle) WriteLatency(context.Context, time.Duration, []MetricAttr) {}
func (*noopHandle) RequestErrorCount(context.Context, int64, []MetricAttr)    {}
func (*noopHandle) SlotEviction(context.Context, []MetricAttr)                {}
func (*noopHandle) SlotHit(context.Context, []MetricAttr)                     {}
func (*noopHandle) SlotMiss(context.Context, []MetricAttr)                    {}
func (*noopHandle) StripeAllocation(context.Context, int64, []MetricAttr)     {}
func (*noopHandle) ReservationRefill(context.Context, []MetricAttr)           {}
