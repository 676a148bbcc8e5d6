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

// Package metrics exposes the counters and histograms backing each
// dataset's runtime dataset.stats, plus process-wide open-slot and
// stripe-allocation instrumentation.
package metrics

import (
	"context"
	"time"
)

// MetricAttr is a single label attached to a metric observation.
type MetricAttr struct {
	Key, Value string
}

// DatasetMetricHandle records per-request I/O counters for a dataset.
type DatasetMetricHandle interface {
	BytesRead(ctx context.Context, n int64, attrs []MetricAttr)
	BytesWritten(ctx context.Context, n int64, attrs []MetricAttr)
	ReadLatency(ctx context.Context, d time.Duration, attrs []MetricAttr)
	WriteLatency(ctx context.Context, d time.Duration, attrs []MetricAttr)
	RequestErrorCount(ctx context.Context, inc int64, attrs []MetricAttr)
}

// CacheMetricHandle records open-file-cache slot churn.
type CacheMetricHandle interface {
	SlotEviction(ctx context.Context, attrs []MetricAttr)
	SlotHit(ctx context.Context, attrs []MetricAttr)
	SlotMiss(ctx context.Context, attrs []MetricAttr)
}

// StripeMetricHandle records stripe-allocator activity.
type StripeMetricHandle interface {
	StripeAllocation(ctx context.Context, bytes int64, attrs []MetricAttr)
	ReservationRefill(ctx context.Context, attrs []MetricAttr)
}

// Handle is the full instrumentation surface threaded through
// internal/reqproc, internal/filecache, and internal/stripe.
type Handle interface {
	DatasetMetricHandle
	CacheMetricHandle
	StripeMetricHandle
}

const (
	// AttrElement labels a metric with the element name it concerns.
	AttrElement = "element"
	// AttrOp labels a metric with the operation kind: read or write.
	AttrOp = "op"
)
