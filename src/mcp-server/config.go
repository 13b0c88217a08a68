// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
	"gopkg.in/yaml.v3"
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Config represents the MCP server configuration structure. It mirrors the
// CLI configuration: cache sizing, worker pool sizing, optional trust
// anchors, and the handshake timeout.
//
// The configuration can be loaded from a JSON or YAML file specified by the
// MCP_VERIFIER_CONFIG_FILE environment variable, with defaults applied for
// any missing values. Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Cache: verification cache sizing and freshness
	Cache struct {
		// TTLMinutes: how long a verification outcome stays servable
		TTLMinutes int `json:"ttlMinutes" yaml:"ttlMinutes"`
		// MaxEntries: upper bound on cached outcomes
		MaxEntries int `json:"maxEntries" yaml:"maxEntries"`
	} `json:"cache" yaml:"cache"`

	// Engine: worker pool sizing
	Engine struct {
		// Workers: number of parallel verification workers
		Workers int `json:"workers" yaml:"workers"`
		// QueueDepth: pending dispatch queue length
		QueueDepth int `json:"queueDepth" yaml:"queueDepth"`
	} `json:"engine" yaml:"engine"`

	// TrustStore: optional custom trust anchors
	TrustStore struct {
		// Path: PEM file or directory of PEM files; empty selects system roots
		Path string `json:"path,omitempty" yaml:"path,omitempty"`
		// Watch: reload and invalidate the cache when the path changes
		Watch bool `json:"watch,omitempty" yaml:"watch,omitempty"`
	} `json:"trustStore" yaml:"trustStore"`

	// Probe: TLS handshake capture settings
	Probe struct {
		// Timeout: dial/handshake timeout in seconds
		Timeout int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	} `json:"probe" yaml:"probe"`
}

// detectConfigFormat determines the configuration file format based on file
// extension, using case-insensitive matching for cross-platform compatibility.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// loadConfig loads the server configuration, applying defaults for missing
// values. An empty path selects the defaults.
func loadConfig(configPath string) (*Config, error) {
	config := &Config{}
	config.Cache.TTLMinutes = int(x509verify.DefaultCacheTTL / time.Minute)
	config.Cache.MaxEntries = x509verify.DefaultMaxCacheEntries
	config.Engine.Workers = x509verify.DefaultWorkers
	config.Engine.QueueDepth = x509verify.DefaultQueueDepth
	config.Probe.Timeout = 10

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch detectConfigFormat(configPath) {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}

	return config, nil
}

// engineOptions maps the configuration onto engine options.
func (c *Config) engineOptions() x509verify.Options {
	return x509verify.Options{
		TTL:             time.Duration(c.Cache.TTLMinutes) * time.Minute,
		MaxCacheEntries: c.Cache.MaxEntries,
		Workers:         c.Engine.Workers,
		QueueDepth:      c.Engine.QueueDepth,
	}
}

// probeTimeout returns the configured handshake timeout.
func (c *Config) probeTimeout() time.Duration {
	if c.Probe.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Probe.Timeout) * time.Second
}
