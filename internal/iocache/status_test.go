package iocache

import (
	"bytes"
	"testing"
	"time"

	"github.com/huangsam/discomfort/schema"
	"github.com/stretchr/testify/assert"
)

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	when := time.Date(2024, 2, 3, 4, 5, 6, 0, time.Local)
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend: "sqlite", Connected: true, TotalEntries: 3,
		LastEntryTime: when, OldestEntryTime: when, TableSizeBytes: 4096,
	})
	assert.Contains(t, buf.String(), "Total Entries: 3")
	assert.Contains(t, buf.String(), "Last Entry: 2024-02-03 04:05:06")
	assert.Contains(t, buf.String(), "Table Size: 4096 bytes")
}

func TestPrintRunStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintRunStatus(&buf, schema.RunStatus{
		Backend: "sqlite", Connected: true, TotalRuns: 2, LastRunID: 7, TotalItems: 12,
		TableSizes: map[string]int64{curveRowsTable: 4, runsTable: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "Last Run ID: 7")
	assert.Contains(t, out, "Total Items: 12")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(curveRowsTable)), bytes.Index(buf.Bytes(), []byte(runsTable+":")))
}
