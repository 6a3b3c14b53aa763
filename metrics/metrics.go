/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package metrics holds the Prometheus collectors of a router.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dirpx.dev/diamond/apis"
)

// Result labels of diamond_calls_total.
const (
	ResultOK           = "ok"
	ResultNoRoute      = "no_route"
	ResultUnauthorized = "unauthorized"
	ResultConflict     = "conflict"
	ResultReverted     = "reverted"
	ResultError        = "error"
)

// Metrics groups the router collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration prometheus.Histogram
	cuts     prometheus.Counter
	dirty    prometheus.Histogram
}

// New creates the collectors and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "diamond_calls_total",
			Help: "Router calls by result",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "diamond_call_duration_seconds",
			Help:    "Router call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~160ms
		}),
		cuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "diamond_cuts_total",
			Help: "Committed cut batches",
		}),
		dirty: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "diamond_committed_slots",
			Help:    "Storage words written per committed call",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration, m.cuts, m.dirty)
	}
	return m
}

// Classify maps a call error to a result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, apis.ErrNoRoute):
		return ResultNoRoute
	case errors.Is(err, apis.ErrNotOwner):
		return ResultUnauthorized
	case errors.Is(err, apis.ErrRouteConflict), errors.Is(err, apis.ErrEmptyBatch), errors.Is(err, apis.ErrNoCode):
		return ResultConflict
	case apis.IsRevert(err):
		return ResultReverted
	default:
		return ResultError
	}
}

// ObserveCall records a finished call.
func (m *Metrics) ObserveCall(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(Classify(err)).Inc()
	m.duration.Observe(d.Seconds())
}

// ObserveCommit records a committed call writing dirty words and applying cuts batches.
func (m *Metrics) ObserveCommit(dirty, cuts int) {
	if m == nil {
		return
	}
	m.dirty.Observe(float64(dirty))
	m.cuts.Add(float64(cuts))
}
