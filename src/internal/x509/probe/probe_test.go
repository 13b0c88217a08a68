// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	x509probe "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/probe"
	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPeerMaterialCapturesChain(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	addr := server.Listener.Addr().String()
	material, err := x509probe.FetchPeerMaterial(context.Background(), addr, 5*time.Second, x509verify.FlagDisableNetworkFetches)
	require.NoError(t, err)

	require.NotEmpty(t, material.Certs)
	assert.Equal(t, "127.0.0.1", material.Hostname)
	assert.Equal(t, x509verify.FlagDisableNetworkFetches, material.Flags)

	// The captured material must canonicalize into a usable request key.
	key, err := x509verify.NewRequestKey(material)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", key.Hostname())
}

func TestFetchPeerMaterialRefusedConnection(t *testing.T) {
	// A listener that is immediately closed gives a port nothing accepts on.
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.Listener.Addr().String()
	server.Close()

	_, err := x509probe.FetchPeerMaterial(context.Background(), addr, 2*time.Second, 0)
	assert.Error(t, err)
}

func TestFetchPeerMaterialHonorsContextDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := x509probe.FetchPeerMaterial(ctx, "203.0.113.1:443", 10*time.Second, 0)
	assert.Error(t, err)
}
