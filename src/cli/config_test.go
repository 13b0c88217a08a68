// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, int(x509verify.DefaultCacheTTL/time.Minute), config.Cache.TTLMinutes)
	assert.Equal(t, x509verify.DefaultMaxCacheEntries, config.Cache.MaxEntries)
	assert.Equal(t, x509verify.DefaultWorkers, config.Engine.Workers)
	assert.Equal(t, x509verify.DefaultQueueDepth, config.Engine.QueueDepth)
	assert.Equal(t, 10*time.Second, config.ProbeTimeout())
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "cache": {"ttlMinutes": 10, "maxEntries": 32},
  "engine": {"workers": 2, "queueDepth": 16},
  "trustStore": {"path": "/etc/ssl/anchors", "watch": true},
  "probe": {"timeoutSeconds": 3}
}`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	opts := config.EngineOptions()
	assert.Equal(t, 10*time.Minute, opts.TTL)
	assert.Equal(t, 32, opts.MaxCacheEntries)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 16, opts.QueueDepth)
	assert.Equal(t, "/etc/ssl/anchors", config.TrustStore.Path)
	assert.True(t, config.TrustStore.Watch)
	assert.Equal(t, 3*time.Second, config.ProbeTimeout())
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `cache:
  ttlMinutes: 45
engine:
  workers: 8
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 45, config.Cache.TTLMinutes)
	assert.Equal(t, 8, config.Engine.Workers)
	// Unset values keep their defaults.
	assert.Equal(t, x509verify.DefaultQueueDepth, config.Engine.QueueDepth)
}

func TestLoadConfigRejectsUnknownJSONKeys(t *testing.T) {
	path := writeConfig(t, "config.json", `{"cache": {"ttl": 10}}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config file")
}

func TestLoadConfigRejectsWrongJSONTypes(t *testing.T) {
	path := writeConfig(t, "config.json", `{"engine": {"workers": "many"}}`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "cache: [not a mapping")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
