// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/discomfort/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetScoreStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Clear() error
	Close() error
}

// RunStore defines the interface for tracking scoring and curve runs.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(kind schema.RunKind, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalItems int) error

	// RecordSegmentScores stores the final scores of a batch of segments
	RecordSegmentScores(runID int64, results []schema.ScoreResult) error

	// RecordCurve stores every level of a curve along with its trade-offs
	RecordCurve(runID int64, curve schema.CurveResult) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves every tracked run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllSegmentScores retrieves every recorded segment score
	GetAllSegmentScores() ([]schema.SegmentScoreRecord, error)

	// GetAllCurveRows retrieves every recorded curve level
	GetAllCurveRows() ([]schema.CurveRowRecord, error)

	// Clear removes all runs and their records
	Clear() error

	// Close closes the underlying connection
	Close() error
}
