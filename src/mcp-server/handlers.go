// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"strings"

	x509probe "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/probe"
	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
	"github.com/mark3labs/mcp-go/mcp"
)

// engine bundles the long-lived verifier with its configuration for the
// tool handlers.
type engine struct {
	config   *Config
	verifier *x509verify.Verifier
}

// handleVerifyHost captures the chain the target presents and runs it
// through the caching engine. A verification failure is a normal tool
// result carrying the non-OK status, not a tool error.
func (e *engine) handleVerifyHost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments
	hostname, err := request.RequireString("hostname")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("hostname parameter required: %v", err)), nil
	}
	checkOCSP := request.GetBool("check_ocsp", false)
	bypassCache := request.GetBool("bypass_cache", false)

	var flags x509verify.VerifyFlags
	if checkOCSP {
		flags |= x509verify.FlagEnableRevocationChecking
	}

	material, err := x509probe.FetchPeerMaterial(ctx, hostname, e.config.probeTimeout(), flags)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch peer material: %v", err)), nil
	}

	key, err := x509verify.NewRequestKey(material)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build request key: %v", err)), nil
	}

	if bypassCache {
		e.verifier.InvalidateAll()
	}

	hitsBefore := e.verifier.Metrics().CacheHits.Count()
	outcome, err := e.verifier.VerifyWait(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("verification aborted: %v", err)), nil
	}
	source := "miss"
	if e.verifier.Metrics().CacheHits.Count() > hitsBefore {
		source = "hit"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Host: %s\nStatus: %s\nCache: %s\n", key.Hostname(), outcome.Status, source)
	if outcome.Detail != "" {
		fmt.Fprintf(&result, "Detail: %s\n", outcome.Detail)
	}
	for i, cert := range outcome.Result.VerifiedChain {
		fmt.Fprintf(&result, "Chain %d: %s (issuer: %s, expires: %s)\n",
			i, cert.Subject.CommonName, cert.Issuer.CommonName, cert.NotAfter.Format("2006-01-02"))
	}
	if outcome.Result.OCSPChecked {
		result.WriteString("Stapled OCSP response evaluated\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

// handleCacheStatus reports the cache contents and engine counters.
func (e *engine) handleCacheStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "table")

	switch format {
	case "json":
		status, err := e.verifier.CacheStatusJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render cache status: %v", err)), nil
		}
		return mcp.NewToolResultText(string(status)), nil
	default:
		return mcp.NewToolResultText(e.verifier.RenderCacheTable()), nil
	}
}

// handleInvalidateCache clears every cached outcome.
func (e *engine) handleInvalidateCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	before := e.verifier.CacheLen()
	e.verifier.InvalidateAll()
	return mcp.NewToolResultText(fmt.Sprintf("Invalidated %d cached verification outcomes", before)), nil
}
