// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver exposes the caching TLS certificate verifier over the
// [MCP] stdio protocol. It serves three tools: verify_host runs a hostname's
// presented chain through the caching engine, cache_status reports the
// verification cache and engine counters, and invalidate_cache clears every
// cached outcome as a trust-store change would.
//
// The engine instance lives for the whole server session, so repeated
// verify_host calls for the same material exercise the cache and request
// coalescing exactly as library callers do.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
