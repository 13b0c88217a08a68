// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509probe captures the verification inputs a TLS server presents
// during a handshake: the certificate chain, a stapled OCSP response, and
// any signed certificate timestamps. The handshake itself performs no
// verification; the captured material is handed to the verification engine.
package x509probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
)

// DefaultPort is used when the target address carries no explicit port.
const DefaultPort = "443"

// splitTarget splits addr into host and port, applying [DefaultPort] when
// none is present. A bracketed IPv6 literal without a port loses its brackets
// so the host can be rejoined with [net.JoinHostPort].
func splitTarget(addr string) (host, port string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = addr, DefaultPort
		if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
			host = host[1 : len(host)-1]
		}
	}
	return host, port
}

// FetchPeerMaterial dials addr ("host" or "host:port"), performs a TLS
// handshake without verifying the presented chain, and returns the
// verification inputs for that host with the given flags applied.
func FetchPeerMaterial(ctx context.Context, addr string, timeout time.Duration, flags x509verify.VerifyFlags) (*x509verify.KeyMaterial, error) {
	host, port := splitTarget(addr)

	dialer := &net.Dialer{Timeout: timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, port),
		// We only capture the presented material; verification is the
		// engine's job.
		&tls.Config{InsecureSkipVerify: true, ServerName: host})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", net.JoinHostPort(host, port), err)
	}
	defer conn.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("no certificates received from %s", host)
	}

	return &x509verify.KeyMaterial{
		Certs:        state.PeerCertificates,
		Hostname:     host,
		Flags:        flags,
		OCSPResponse: state.OCSPResponse,
		SCTs:         state.SignedCertificateTimestamps,
	}, nil
}
