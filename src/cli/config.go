// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	x509verify "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/verify"
	"github.com/xeipuuv/gojsonschema"
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

// configSchema validates JSON configuration files before they reach the
// engine. YAML files are validated structurally by the decoder instead.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "cache": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "ttlMinutes": {"type": "integer", "minimum": 0},
        "maxEntries": {"type": "integer", "minimum": 0}
      }
    },
    "engine": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "workers": {"type": "integer", "minimum": 0},
        "queueDepth": {"type": "integer", "minimum": 0}
      }
    },
    "trustStore": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "path": {"type": "string"},
        "watch": {"type": "boolean"}
      }
    },
    "probe": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "timeoutSeconds": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

// Config represents the verifier configuration structure shared by the CLI.
// It can be loaded from a JSON or YAML file; defaults are applied for any
// missing values. Supported file extensions: .json, .yaml, .yml
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

// defaultConfig returns the configuration used when no file is given.
func defaultConfig() *Config {
	config := &Config{}
	config.Cache.TTLMinutes = int(x509verify.DefaultCacheTTL / time.Minute)
	config.Cache.MaxEntries = x509verify.DefaultMaxCacheEntries
	config.Engine.Workers = x509verify.DefaultWorkers
	config.Engine.QueueDepth = x509verify.DefaultQueueDepth
	config.Probe.Timeout = 10
	return config
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

// LoadConfig loads the verifier configuration from configPath, falling back
// to defaults when the path is empty. JSON files are validated against the
// embedded schema before decoding.
func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()
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
		result, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(configSchema),
			gojsonschema.NewBytesLoader(data),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to validate config file: %w", err)
		}
		if !result.Valid() {
			var problems []string
			for _, desc := range result.Errors() {
				problems = append(problems, desc.String())
			}
			return nil, fmt.Errorf("invalid config file: %s", strings.Join(problems, "; "))
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}

	return config, nil
}

// EngineOptions maps the configuration onto engine options.
func (c *Config) EngineOptions() x509verify.Options {
	return x509verify.Options{
		TTL:             time.Duration(c.Cache.TTLMinutes) * time.Minute,
		MaxCacheEntries: c.Cache.MaxEntries,
		Workers:         c.Engine.Workers,
		QueueDepth:      c.Engine.QueueDepth,
	}
}

// ProbeTimeout returns the configured handshake timeout.
func (c *Config) ProbeTimeout() time.Duration {
	if c.Probe.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Probe.Timeout) * time.Second
}
