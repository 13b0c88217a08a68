// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCacheTableEmpty(t *testing.T) {
	_, engine := countingProc(Outcome{Status: StatusOK})
	v := NewVerifier(engine, Options{})
	defer v.Close()

	assert.Equal(t, "Verification cache is empty", v.RenderCacheTable())
}

func TestRenderCacheTableListsEntries(t *testing.T) {
	clock := newFakeClock()
	_, engine := countingProc(Outcome{Status: StatusOK})
	v := NewVerifier(engine, Options{Clock: clock.Now})
	defer v.Close()

	_, err := v.VerifyWait(context.Background(), testKey(t, "example.com"))
	require.NoError(t, err)

	rendered := v.RenderCacheTable()
	assert.Contains(t, rendered, "example.com")
	assert.Contains(t, rendered, "ok")
	assert.Contains(t, rendered, "|")
}

func TestCacheStatusJSON(t *testing.T) {
	clock := newFakeClock()
	_, engine := countingProc(Outcome{Status: StatusRevoked, Detail: "revoked by staple"})
	v := NewVerifier(engine, Options{Clock: clock.Now})
	defer v.Close()

	key := testKey(t, "example.com")
	_, err := v.VerifyWait(context.Background(), key)
	require.NoError(t, err)
	_, _, err = v.Verify(key) // cache hit
	require.NoError(t, err)

	raw, err := v.CacheStatusJSON()
	require.NoError(t, err)

	var status struct {
		TTL     string `json:"ttl"`
		Entries []struct {
			Host        string `json:"host"`
			Status      string `json:"status"`
			Detail      string `json:"detail"`
			ChainLength int    `json:"chainLength"`
		} `json:"entries"`
		CacheHits   int64 `json:"cacheHits"`
		CacheMisses int64 `json:"cacheMisses"`
	}
	require.NoError(t, json.Unmarshal(raw, &status))

	assert.Equal(t, DefaultCacheTTL.String(), status.TTL)
	require.Len(t, status.Entries, 1)
	assert.Equal(t, "example.com", status.Entries[0].Host)
	assert.Equal(t, "revoked", status.Entries[0].Status)
	assert.Equal(t, "revoked by staple", status.Entries[0].Detail)
	assert.Equal(t, 2, status.Entries[0].ChainLength)
	assert.Equal(t, int64(1), status.CacheHits)
	assert.Equal(t, int64(1), status.CacheMisses)
}
