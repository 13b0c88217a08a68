// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Command tls-cert-verifier verifies the certificate chain a TLS host
// presents, through the caching, request-coalescing verification engine.
package main
