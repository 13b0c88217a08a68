// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"crypto/x509"
	"fmt"
	"os"

	"github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/truststore"
	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
	"github.com/H0llyW00dzZ/tls-cert-verifier/src/logger"
	"github.com/H0llyW00dzZ/tls-cert-verifier/src/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var serverName = "TLS Certificate Verifier" // MCP server name
var appVersion = version.Version            // default version

// GetVersion returns the current version of the MCP server.
func GetVersion() string {
	return appVersion
}

// Run starts the MCP server exposing the caching certificate verifier.
// It loads configuration from the MCP_VERIFIER_CONFIG_FILE environment
// variable and serves until stdin closes.
func Run(ver string) error {
	appVersion = ver

	// Load configuration
	config, err := loadConfig(os.Getenv("MCP_VERIFIER_CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// MCP owns stdio, so engine diagnostics go to stderr as structured JSON.
	log := logger.NewJSONLogger(os.Stderr, false)

	// Build the long-lived engine shared by every tool call.
	var roots *x509.CertPool
	var store *truststore.Store
	eng := &engine{config: config}
	if config.TrustStore.Path != "" {
		store, err = truststore.Open(config.TrustStore.Path, func() {
			if eng.verifier != nil {
				eng.verifier.OnTrustStoreChanged()
			}
		}, log)
		if err != nil {
			return fmt.Errorf("trust store error: %w", err)
		}
		defer store.Close()
		roots = store.Pool()
	}

	opts := config.engineOptions()
	opts.Log = log
	eng.verifier = x509verify.NewVerifier(x509verify.NewBuiltinProc(roots), opts)
	defer eng.verifier.Close()

	if store != nil && config.TrustStore.Watch {
		if err := store.Watch(); err != nil {
			return fmt.Errorf("trust store watch error: %w", err)
		}
	}

	// Create MCP server
	s := server.NewMCPServer(
		serverName,
		appVersion,
		server.WithToolCapabilities(true),
	)

	// Define verification tool
	verifyHostTool := mcp.NewTool("verify_host",
		mcp.WithDescription("Verify the certificate chain a TLS host presents, using the caching verification engine"),
		mcp.WithString("hostname",
			mcp.Required(),
			mcp.Description("Hostname or hostname:port to connect to (default port: 443)"),
		),
		mcp.WithBoolean("check_ocsp",
			mcp.Description("Evaluate the stapled OCSP response (default: false)"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("bypass_cache",
			mcp.Description("Invalidate the cache entry for this request before verifying (default: false)"),
			mcp.DefaultBool(false),
		),
	)

	// Define cache diagnostics tool
	cacheStatusTool := mcp.NewTool("cache_status",
		mcp.WithDescription("Report the verification cache contents and engine counters"),
		mcp.WithString("format",
			mcp.Description("Output format: 'table' or 'json' (default: table)"),
			mcp.DefaultString("table"),
		),
	)

	// Define cache invalidation tool
	invalidateCacheTool := mcp.NewTool("invalidate_cache",
		mcp.WithDescription("Clear every cached verification outcome, as a trust-store change would"),
	)

	s.AddTool(verifyHostTool, eng.handleVerifyHost)
	s.AddTool(cacheStatusTool, eng.handleCacheStatus)
	s.AddTool(invalidateCacheTool, eng.handleInvalidateCache)

	return server.ServeStdio(s)
}
