// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderCacheTable renders the fresh cache entries as a formatted markdown
// table for status pages and CLI diagnostics, using tablewriter.
func (v *Verifier) RenderCacheTable() string {
	var rows [][]string
	v.VisitEntries(func(e CacheEntry) bool {
		subject := ""
		if certs := e.Key.Material().Certs; len(certs) > 0 {
			subject = certs[0].Subject.CommonName
		}
		rows = append(rows, []string{
			e.Key.Hostname(),
			subject,
			e.Outcome.Status.String(),
			e.Outcome.Detail,
			e.VerificationTime.UTC().Format(time.RFC3339),
			e.ExpirationTime.UTC().Format(time.RFC3339),
		})
		return true
	})

	if len(rows) == 0 {
		return "Verification cache is empty"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"Host", "Subject", "Status", "Detail", "Verified", "Expires"})
	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// CacheStatusJSON converts the fresh cache entries plus engine counters to
// structured JSON for external tooling.
func (v *Verifier) CacheStatusJSON() ([]byte, error) {
	type entryData struct {
		Host             string    `json:"host"`
		Digest           string    `json:"digest"`
		Status           string    `json:"status"`
		Detail           string    `json:"detail,omitempty"`
		ChainLength      int       `json:"chainLength"`
		VerificationTime time.Time `json:"verificationTime"`
		ExpirationTime   time.Time `json:"expirationTime"`
	}

	type statusData struct {
		Timestamp     string      `json:"timestamp"`
		TTL           string      `json:"ttl"`
		Entries       []entryData `json:"entries"`
		CacheHits     int64       `json:"cacheHits"`
		CacheMisses   int64       `json:"cacheMisses"`
		JobsStarted   int64       `json:"jobsStarted"`
		JobsCoalesced int64       `json:"jobsCoalesced"`
	}

	data := statusData{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		TTL:           v.CacheTTL().String(),
		Entries:       make([]entryData, 0),
		CacheHits:     v.metrics.CacheHits.Count(),
		CacheMisses:   v.metrics.CacheMisses.Count(),
		JobsStarted:   v.metrics.JobsStarted.Count(),
		JobsCoalesced: v.metrics.JobsCoalesced.Count(),
	}

	v.VisitEntries(func(e CacheEntry) bool {
		digest := e.Key.Digest()
		data.Entries = append(data.Entries, entryData{
			Host:             e.Key.Hostname(),
			Digest:           fmt.Sprintf("%x", digest[:6]),
			Status:           e.Outcome.Status.String(),
			Detail:           e.Outcome.Detail,
			ChainLength:      len(e.Key.Material().Certs),
			VerificationTime: e.VerificationTime.UTC(),
			ExpirationTime:   e.ExpirationTime.UTC(),
		})
		return true
	})

	return json.MarshalIndent(data, "", "  ")
}
