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

	"github.com/prometheus/client_golang/prometheus"
)

// promHandle is the production Handle, backed by a dedicated
// prometheus.Registry so a single process can run more than one dataset
// without metric-name collisions.
type promHandle struct {
	bytesRead      *prometheus.CounterVec
	bytesWritten   *prometheus.CounterVec
	readLatency    *prometheus.HistogramVec
	writeLatency   *prometheus.HistogramVec
	requestErrors  *prometheus.CounterVec
	slotEvictions  prometheus.Counter
	slotHits       prometheus.Counter
	slotMisses     prometheus.Counter
	stripeBytes    prometheus.Counter
	stripeRefills  prometheus.Counter
}

// NewPrometheus registers the hio collectors against reg and returns a
// Handle that records into them. reg is typically a fresh
// prometheus.NewRegistry() so tests don't collide on the default
// DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) Handle {
	h := &promHandle{
		bytesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "bytes_read_total",
			Help:      "Bytes read from dataset storage.",
		}, []string{AttrElement}),
		bytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "bytes_written_total",
			Help:      "Bytes written to dataset storage.",
		}, []string{AttrElement}),
		readLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hio",
			Name:      "read_latency_seconds",
			Help:      "Latency of individual read requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{AttrElement}),
		writeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hio",
			Name:      "write_latency_seconds",
			Help:      "Latency of individual write requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{AttrElement}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "request_errors_total",
			Help:      "Requests that completed with a negative status.",
		}, []string{AttrOp}),
		slotEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "filecache_slot_evictions_total",
			Help:      "Open-file cache slots closed to make room for another file.",
		}),
		slotHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "filecache_slot_hits_total",
			Help:      "Open-file cache lookups served by an already-open slot.",
		}),
		slotMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "filecache_slot_misses_total",
			Help:      "Open-file cache lookups that required opening a file.",
		}),
		stripeBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "stripe_allocated_bytes_total",
			Help:      "Bytes handed out by the stripe allocator.",
		}),
		stripeRefills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hio",
			Name:      "stripe_reservation_refills_total",
			Help:      "Times the stripe allocator had to take a new reservation via the shared control block.",
		}),
	}

	reg.MustRegister(
		h.bytesRead, h.bytesWritten, h.readLatency, h.writeLatency, h.requestErrors,
		h.slotEvictions, h.slotHits, h.slotMisses, h.stripeBytes, h.stripeRefills,
	)
	return h
}

func attr(attrs []MetricAttr, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func (h *promHandle) BytesRead(_ context.Context, n int64, attrs []MetricAttr) {
	h.bytesRead.WithLabelValues(attr(attrs, AttrElement)).Add(float64(n))
}

func (h *promHandle) BytesWritten(_ context.Context, n int64, attrs []MetricAttr) {
	h.bytesWritten.WithLabelValues(attr(attrs, AttrElement)).Add(float64(n))
}

func (h *promHandle) ReadLatency(_ context.Context, d time.Duration, attrs []MetricAttr) {
	h.readLatency.WithLabelValues(attr(attrs, AttrElement)).Observe(d.Seconds())
}

func (h *promHandle) WriteLatency(_ context.Context, d time.Duration, attrs []MetricAttr) {
	h.writeLatency.WithLabelValues(attr(attrs, AttrElement)).Observe(d.Seconds())
}

func (h *promHandle) RequestErrorCount(_ context.Context, inc int64, attrs []MetricAttr) {
	h.requestErrors.WithLabelValues(attr(attrs, AttrOp)).Add(float64(inc))
}

func (h *promHandle) SlotEviction(context.Context, []MetricAttr) { h.slotEvictions.Inc() }
func (h *promHandle) SlotHit(context.Context, []MetricAttr)      { h.slotHits.Inc() }
func (h *promHandle) SlotMiss(context.Context, []MetricAttr)     { h.slotMisses.Inc() }

func (h *promHandle) StripeAllocation(_ context.Context, bytes int64, _ []MetricAttr) {
	h.stripeBytes.Add(float64(bytes))
}

func (h *promHandle) ReservationRefill(context.Context, []MetricAttr) { h.stripeRefills.Inc() }
