// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509verify implements the caching and coalescing layer that sits
// between callers and a pluggable [X.509] verification engine. It provides:
//   - A canonical, totally-ordered [RequestKey] derived from all verification inputs.
//   - A bounded, time-aware [Cache] of verification outcomes with clock-skew-tolerant freshness.
//   - A [Scheduler] that coalesces concurrent identical requests into a single
//     unit of work on a bounded worker pool and fans the result out to every waiter.
//   - A [Verifier] front-end composing the two, with trust-store invalidation.
//
// The cache and the scheduler's job table are single-owner structures: the
// scheduler confines all mutation to one owner goroutine and communicates with
// the worker pool over channels, so neither needs internal locking. The
// [Verifier] supplies the serialization the cache requires.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509verify
