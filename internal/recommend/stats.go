// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time view of engine activity.
type Stats struct {
	Requests         map[string]int64 `json:"requests"`
	Fallbacks        map[string]int64 `json:"fallbacks"`
	CandidatesScored int64            `json:"candidates_scored"`
	AvgLatencyMS     float64          `json:"avg_latency_ms"`
	Workers          int              `json:"workers"`
}

// counters holds lock-free engine counters. The maps are filled once at
// construction and only read afterwards.
type counters struct {
	requests     map[Mode]*atomic.Int64
	fallbacks    map[string]*atomic.Int64
	scored       atomic.Int64
	served       atomic.Int64
	latencyNanos atomic.Int64
}

func newCounters() *counters {
	c := &counters{
		requests:  make(map[Mode]*atomic.Int64, len(Modes())),
		fallbacks: make(map[string]*atomic.Int64, len(FallbackCauses())),
	}
	for _, m := range Modes() {
		c.requests[m] = new(atomic.Int64)
	}
	for _, cause := range FallbackCauses() {
		c.fallbacks[cause] = new(atomic.Int64)
	}
	return c
}

func (c *counters) request(mode Mode, d time.Duration, scored int) {
	if n, ok := c.requests[mode]; ok {
		n.Add(1)
	}
	c.served.Add(1)
	c.latencyNanos.Add(int64(d))
	c.scored.Add(int64(scored))
}

func (c *counters) fallback(cause string) {
	if n, ok := c.fallbacks[cause]; ok {
		n.Add(1)
	}
}

// Stats returns the current engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Requests:         make(map[string]int64, len(e.stats.requests)),
		Fallbacks:        make(map[string]int64, len(e.stats.fallbacks)),
		CandidatesScored: e.stats.scored.Load(),
		Workers:          e.config.workers(),
	}
	for m, n := range e.stats.requests {
		s.Requests[m.String()] = n.Load()
	}
	for cause, n := range e.stats.fallbacks {
		s.Fallbacks[cause] = n.Load()
	}
	if served := e.stats.served.Load(); served > 0 {
		s.AvgLatencyMS = float64(e.stats.latencyNanos.Load()) / float64(served) / float64(time.Millisecond)
	}
	return s
}
