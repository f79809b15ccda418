package schema

import "time"

// RunKind identifies what a tracked run computed.
type RunKind string

// All run kinds supported.
const (
	ScoreRun RunKind = "score"
	CurveRun RunKind = "curve"
)

// SegmentScoreRecord is the persisted form of one segment score.
type SegmentScoreRecord struct {
	RunID               int64
	SegmentKey          string // "u-v-key"
	Mode                string
	Variant             string
	ScoreWeightedByMain float64
	ScoreWeightedBySub  float64
	MainWeighted        string // JSON-encoded main component weighted values
	RecordedAt          time.Time
}

// CurveRowRecord is the persisted form of one curve level with its trade-off.
type CurveRowRecord struct {
	RunID                   int64
	Region                  string
	Beta                    float64
	RelativeDistance        float64
	RelativeDiscomfort      float64
	Retained                bool
	DistanceChangePercent   *float64 // nil for the first retained level
	DiscomfortChangePercent *float64
	TradeoffRate            *float64 // nil when undefined or not applicable
}

// RunRecord represents a row from the discomfort_runs table.
type RunRecord struct {
	RunID         int64
	RunUUID       string
	Kind          string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalItems    int32
	ConfigParams  *string
}
