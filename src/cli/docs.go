// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the TLS certificate verifier.
// It implements a Cobra-based CLI that captures the certificate material a host
// presents during a TLS handshake, runs it through the caching verification
// engine, and reports the outcome together with cache diagnostics in table or
// JSON form. The package handles configuration loading, context cancellation,
// and integrates with the logger package for output and error reporting.
package cli
