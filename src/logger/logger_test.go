// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLILoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewCLILogger()
	l.SetOutput(&buf)

	l.Printf("verified %s", "example.com")
	l.Println("done")

	assert.Contains(t, buf.String(), "verified example.com")
	assert.Contains(t, buf.String(), "done")
}

func TestJSONLoggerEmitsStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, false)

	l.Printf("cache invalidated after %d changes", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "cache invalidated after 3 changes", entry["message"])
}

func TestJSONLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, true)

	l.Printf("should not appear")
	l.Println("also hidden")

	assert.Zero(t, buf.Len())
}

func TestJSONLoggerNilWriter(t *testing.T) {
	l := NewJSONLogger(nil, false)

	// Must not panic with a discarded destination.
	l.Println("dropped")
	l.SetOutput(nil)
	l.Println("still dropped")
}
