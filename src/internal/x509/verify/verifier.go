// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"context"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/tls-cert-verifier/src/logger"
)

// Options configure a [Verifier]. The zero value selects defaults. TTL and
// MaxCacheEntries are static per instance; they are not mutable at runtime.
type Options struct {
	// TTL bounds cache entry freshness. Zero selects [DefaultCacheTTL].
	TTL time.Duration

	// MaxCacheEntries bounds cache memory. Zero selects [DefaultMaxCacheEntries].
	MaxCacheEntries int

	// Workers sizes the verification worker pool. Zero selects [DefaultWorkers].
	Workers int

	// QueueDepth sizes the dispatch queue. Zero selects [DefaultQueueDepth].
	QueueDepth int

	// Log receives engine diagnostics. Nil silences them.
	Log logger.Logger

	// Clock is the engine time source; nil selects [time.Now]. Exposed for
	// deterministic tests.
	Clock func() time.Time
}

// Verifier is the caching front-end: it composes the verification [Cache]
// with the coalescing [Scheduler]. Lookups are served synchronously from the
// cache; misses are delegated to the scheduler, and completed jobs
// opportunistically populate the cache before their outcome is fanned out.
//
// Verifier is safe for concurrent use. Its mutex is the external
// serialization the single-owner Cache requires; the scheduler needs none.
type Verifier struct {
	mu    sync.Mutex
	cache *Cache

	sched   *Scheduler
	metrics *EngineMetrics
	clock   func() time.Time
}

// NewVerifier creates a caching verifier dispatching cache misses to proc.
func NewVerifier(proc VerifyProc, opts Options) *Verifier {
	v := &Verifier{
		cache:   NewCache(opts.TTL, opts.MaxCacheEntries),
		metrics: newEngineMetrics(),
		clock:   opts.Clock,
	}
	if v.clock == nil {
		v.clock = time.Now
	}
	v.sched = NewScheduler(proc, opts.Workers, opts.QueueDepth, v.cacheCompleted, v.metrics, opts.Log, v.clock)
	return v
}

// Verify serves key from the cache when fresh, and otherwise attaches a
// pending [Request] to the in-flight job for key, starting one if needed.
// Exactly one of outcome and req is meaningful: on a cache hit req is nil;
// on a miss the zero outcome is returned with a live req.
func (v *Verifier) Verify(key RequestKey) (outcome Outcome, req *Request, err error) {
	if !key.Valid() {
		return Outcome{}, nil, ErrInvalidKey
	}

	now := v.clock()
	v.mu.Lock()
	cached, ok := v.cache.Lookup(key, now)
	v.mu.Unlock()
	if ok {
		v.metrics.CacheHits.Inc(1)
		return cached.Outcome, nil, nil
	}
	v.metrics.CacheMisses.Inc(1)

	req, err = v.sched.Verify(key)
	if err != nil {
		return Outcome{}, nil, err
	}
	return Outcome{}, req, nil
}

// VerifyWait is the blocking form of [Verifier.Verify]. Cancellation of ctx
// releases the pending request; the underlying job still runs to completion
// for any remaining waiters.
func (v *Verifier) VerifyWait(ctx context.Context, key RequestKey) (Outcome, error) {
	outcome, req, err := v.Verify(key)
	if err != nil {
		return Outcome{}, err
	}
	if req == nil {
		return outcome, nil
	}
	return req.Wait(ctx)
}

// cacheCompleted runs on the scheduler's owner goroutine for every job
// completion. The insert is anchored at the job's start time: a verification
// that straddled a trust-store change must not be considered fresh past the
// window its inputs actually reflect.
func (v *Verifier) cacheCompleted(key RequestKey, outcome Outcome, started time.Time) {
	if outcome.Status == StatusInternalError {
		return
	}
	v.mu.Lock()
	v.cache.AddEntry(key, outcome, started, v.clock())
	v.mu.Unlock()
}

// OnTrustStoreChanged reacts to a trust-store change by invalidating every
// cached outcome: any certificate could now verify differently. In-flight
// jobs are unaffected; their results enter the cache stamped with their
// pre-change start time.
func (v *Verifier) OnTrustStoreChanged() {
	v.mu.Lock()
	v.cache.InvalidateAll()
	v.mu.Unlock()
	v.metrics.Invalidations.Inc(1)
}

// InvalidateAll clears the verification cache. Equivalent to
// [Verifier.OnTrustStoreChanged].
func (v *Verifier) InvalidateAll() { v.OnTrustStoreChanged() }

// VisitEntries iterates the fresh cache entries in key order for
// diagnostics. The visitor must not call back into the Verifier.
func (v *Verifier) VisitEntries(visitor func(CacheEntry) bool) {
	now := v.clock()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache.VisitEntries(now, visitor)
}

// CacheLen returns the number of entries currently held, fresh or not.
func (v *Verifier) CacheLen() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cache.Len()
}

// CacheTTL returns the configured cache TTL.
func (v *Verifier) CacheTTL() time.Duration { return v.cache.TTL() }

// Metrics exposes the engine's operational counters and timers.
func (v *Verifier) Metrics() *EngineMetrics { return v.metrics }

// Close tears the engine down. Outstanding requests are marked canceled and
// never receive an outcome; verifications already running on the worker pool
// finish on their own and are discarded.
func (v *Verifier) Close() { v.sched.Close() }
