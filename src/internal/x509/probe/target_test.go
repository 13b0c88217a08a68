// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509probe

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		wantHost string
		wantPort string
	}{
		{name: "bare hostname", addr: "example.com", wantHost: "example.com", wantPort: DefaultPort},
		{name: "hostname with port", addr: "example.com:8443", wantHost: "example.com", wantPort: "8443"},
		{name: "ipv4 literal", addr: "127.0.0.1", wantHost: "127.0.0.1", wantPort: DefaultPort},
		{name: "ipv4 with port", addr: "127.0.0.1:8443", wantHost: "127.0.0.1", wantPort: "8443"},
		{name: "bracketed ipv6 without port", addr: "[::1]", wantHost: "::1", wantPort: DefaultPort},
		{name: "bracketed ipv6 with port", addr: "[::1]:8443", wantHost: "::1", wantPort: "8443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := splitTarget(tt.addr)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)

			// The split host must always rejoin into a dialable address.
			joined := net.JoinHostPort(host, port)
			rehost, report, err := net.SplitHostPort(joined)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantHost, rehost)
			assert.Equal(t, tt.wantPort, report)
		})
	}
}
