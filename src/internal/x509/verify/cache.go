// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"crypto/sha256"
	"sort"
	"time"
)

const (
	// DefaultCacheTTL bounds how long a verification outcome may be served
	// from the cache after the verification that produced it started.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultMaxCacheEntries bounds cache memory. Inserts beyond the bound
	// are refused rather than evicting live entries.
	DefaultMaxCacheEntries = 256

	// skewTolerance is how far the wall clock may move backward past an
	// entry's verification time before the entry stops being served. It
	// covers clock corrections without serving arbitrarily old results.
	skewTolerance = 5 * time.Minute
)

// CachedOutcome is a verification outcome together with the validity window
// that governs its freshness.
type CachedOutcome struct {
	Outcome Outcome

	// VerificationTime is when the verification producing the outcome
	// started. Freshness is anchored here, not at completion, because a
	// verification may straddle a trust-store change.
	VerificationTime time.Time

	// ExpirationTime is VerificationTime plus the cache TTL.
	ExpirationTime time.Time
}

// fresh reports whether the outcome may still be served at now. The window
// extends skewTolerance before VerificationTime so a backward clock
// correction does not immediately invalidate the whole cache.
func (co *CachedOutcome) fresh(now time.Time) bool {
	return !now.Before(co.VerificationTime.Add(-skewTolerance)) && !now.After(co.ExpirationTime)
}

// CacheEntry is the diagnostic view of one cached outcome, as reported by
// [Cache.VisitEntries].
type CacheEntry struct {
	Key              RequestKey
	Outcome          Outcome
	VerificationTime time.Time
	ExpirationTime   time.Time
}

// Cache is a bounded, time-aware map from [RequestKey] to [CachedOutcome].
//
// Cache owns no goroutines and performs no locking. It is a single-owner
// structure: all operations must be serialized externally, as [Verifier]
// does. Mutating the cache from within a [Cache.VisitEntries] visitor is a
// programmer error.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	entries    map[[sha256.Size]byte]*CachedOutcome
	keys       map[[sha256.Size]byte]RequestKey
}

// NewCache creates a cache with the given TTL and entry bound. Non-positive
// values select [DefaultCacheTTL] and [DefaultMaxCacheEntries].
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxCacheEntries
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[[sha256.Size]byte]*CachedOutcome),
		keys:       make(map[[sha256.Size]byte]RequestKey),
	}
}

// TTL returns the configured time-to-live for cache entries.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Len returns the number of entries currently held, fresh or not.
func (c *Cache) Len() int { return len(c.entries) }

// Lookup returns a copy of the cached outcome for key iff one exists and is
// fresh at now. A stale entry is treated as absent; its removal is deferred
// to the next insert that needs capacity.
func (c *Cache) Lookup(key RequestKey, now time.Time) (CachedOutcome, bool) {
	co, ok := c.entries[key.Digest()]
	if !ok || !co.fresh(now) {
		return CachedOutcome{}, false
	}
	return *co, true
}

// AddEntry caches outcome for key with freshness anchored at
// verificationTime. The insert is best-effort: it is refused, returning
// false, when a live entry for key already exists or when the cache is full
// and sweeping expired entries does not free capacity. A refused insert is
// not an error; a racing insert for the same key simply loses.
func (c *Cache) AddEntry(key RequestKey, outcome Outcome, verificationTime, now time.Time) bool {
	digest := key.Digest()
	if existing, ok := c.entries[digest]; ok {
		if existing.fresh(now) {
			return false
		}
		delete(c.entries, digest)
		delete(c.keys, digest)
	}

	if len(c.entries) >= c.maxEntries {
		c.sweep(now)
		if len(c.entries) >= c.maxEntries {
			return false
		}
	}

	c.entries[digest] = &CachedOutcome{
		Outcome:          outcome,
		VerificationTime: verificationTime,
		ExpirationTime:   verificationTime.Add(c.ttl),
	}
	c.keys[digest] = key
	return true
}

// sweep removes every entry that is no longer fresh at now.
func (c *Cache) sweep(now time.Time) {
	for digest, co := range c.entries {
		if !co.fresh(now) {
			delete(c.entries, digest)
			delete(c.keys, digest)
		}
	}
}

// InvalidateAll unconditionally clears the cache. It is called when the
// trust store changes, since any certificate could now verify differently.
func (c *Cache) InvalidateAll() {
	clear(c.entries)
	clear(c.keys)
}

// VisitEntries calls visitor for every entry fresh at now, in the total
// order of their request keys so diagnostic output is deterministic.
// Iteration stops early when visitor returns false. The visitor must not
// mutate the cache.
func (c *Cache) VisitEntries(now time.Time, visitor func(CacheEntry) bool) {
	digests := make([][sha256.Size]byte, 0, len(c.entries))
	for digest, co := range c.entries {
		if co.fresh(now) {
			digests = append(digests, digest)
		}
	}
	sort.Slice(digests, func(i, j int) bool {
		return c.keys[digests[i]].Compare(c.keys[digests[j]]) < 0
	})

	for _, digest := range digests {
		co := c.entries[digest]
		entry := CacheEntry{
			Key:              c.keys[digest],
			Outcome:          co.Outcome,
			VerificationTime: co.VerificationTime,
			ExpirationTime:   co.ExpirationTime,
		}
		if !visitor(entry) {
			return
		}
	}
}
