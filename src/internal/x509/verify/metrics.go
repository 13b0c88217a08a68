// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"github.com/rcrowley/go-metrics"
)

// EngineMetrics aggregates the engine's operational counters and timers.
// All members are safe for concurrent use.
type EngineMetrics struct {
	// CacheHits counts lookups served from the verification cache.
	CacheHits metrics.Counter
	// CacheMisses counts lookups that fell through to the scheduler.
	CacheMisses metrics.Counter
	// JobsStarted counts verification jobs dispatched to the worker pool.
	JobsStarted metrics.Counter
	// JobsCoalesced counts requests attached to an already in-flight job.
	JobsCoalesced metrics.Counter
	// DispatchFailures counts jobs refused by a saturated worker pool.
	DispatchFailures metrics.Counter
	// Invalidations counts full-cache invalidations from trust-store changes.
	Invalidations metrics.Counter
	// VerifyLatency measures wall time from job start to completion delivery.
	VerifyLatency metrics.Timer

	registry metrics.Registry
}

// newEngineMetrics builds the metric set on a private registry.
func newEngineMetrics() *EngineMetrics {
	r := metrics.NewRegistry()
	return &EngineMetrics{
		CacheHits:        metrics.NewRegisteredCounter("cache.hits", r),
		CacheMisses:      metrics.NewRegisteredCounter("cache.misses", r),
		JobsStarted:      metrics.NewRegisteredCounter("jobs.started", r),
		JobsCoalesced:    metrics.NewRegisteredCounter("jobs.coalesced", r),
		DispatchFailures: metrics.NewRegisteredCounter("jobs.dispatch_failures", r),
		Invalidations:    metrics.NewRegisteredCounter("cache.invalidations", r),
		VerifyLatency:    metrics.NewRegisteredTimer("verify.latency", r),
		registry:         r,
	}
}

// Registry exposes the underlying registry for reporting integrations.
func (m *EngineMetrics) Registry() metrics.Registry { return m.registry }
