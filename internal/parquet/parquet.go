// Package parquet provides data structures and functions for exporting discomfort
// scores, curves and tracked runs to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/huangsam/discomfort/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single tracked scoring or curve run with metadata.
// This struct maps to the discomfort_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the globally unique identifier for this run
	RunUUID string `parquet:"run_uuid,snappy"`

	// Kind is either score or curve
	Kind string `parquet:"kind,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalItems is the number of segments scored or curve levels recorded
	TotalItems int32 `parquet:"total_items,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// SegmentScore represents the persisted score of one segment in a run.
// This struct maps to the discomfort_segment_scores database table.
type SegmentScore struct {
	RunID               int64     `parquet:"run_id,snappy"`
	SegmentKey          string    `parquet:"segment_key,snappy"`
	Mode                string    `parquet:"mode,snappy"`
	Variant             string    `parquet:"variant,snappy"`
	ScoreWeightedByMain float64   `parquet:"score_weighted_by_main,snappy"`
	ScoreWeightedBySub  float64   `parquet:"score_weighted_by_sub,snappy"`
	MainWeighted        string    `parquet:"main_weighted,snappy"` // JSON object
	RecordedAt          time.Time `parquet:"recorded_at,snappy"`
}

// CurveRow represents one persisted curve level with its trade-off.
// This struct maps to the discomfort_curve_rows database table.
type CurveRow struct {
	RunID                   int64    `parquet:"run_id,snappy"`
	Region                  string   `parquet:"region,snappy"`
	Beta                    float64  `parquet:"beta,snappy"`
	RelativeDistance        float64  `parquet:"relative_distance,snappy"`
	RelativeDiscomfort      float64  `parquet:"relative_discomfort,snappy"`
	Retained                bool     `parquet:"retained,snappy"`
	DistanceChangePercent   *float64 `parquet:"distance_change_percent,optional,snappy"`
	DiscomfortChangePercent *float64 `parquet:"discomfort_change_percent,optional,snappy"`
	TradeoffRate            *float64 `parquet:"tradeoff_rate,optional,snappy"`
}

// ScoredSegment is one ranked segment of a score command's output.
type ScoredSegment struct {
	Rank                int     `parquet:"rank,snappy"`
	U                   int64   `parquet:"u,snappy"`
	V                   int64   `parquet:"v,snappy"`
	Key                 int32   `parquet:"key,snappy"`
	Length              float64 `parquet:"length,snappy"`
	Region              string  `parquet:"region,optional,snappy"`
	Mode                string  `parquet:"mode,snappy"`
	Variant             string  `parquet:"variant,snappy"`
	ScoreWeightedByMain float64 `parquet:"score_weighted_by_main,snappy"`
	ScoreWeightedBySub  float64 `parquet:"score_weighted_by_sub,snappy"`
	Label               string  `parquet:"label,snappy"`
}

// Tradeoff is one trade-off row of a curve command's output.
type Tradeoff struct {
	Region                  string   `parquet:"region,snappy"`
	LowerBeta               float64  `parquet:"lower_beta,snappy"`
	HigherBeta              float64  `parquet:"higher_beta,snappy"`
	RelativeDistance        float64  `parquet:"relative_distance,snappy"`
	RelativeDiscomfort      float64  `parquet:"relative_discomfort,snappy"`
	DistanceChangePercent   float64  `parquet:"distance_change_percent,snappy"`
	DiscomfortChangePercent *float64 `parquet:"discomfort_change_percent,optional,snappy"`
	TradeoffRate            *float64 `parquet:"tradeoff_rate,optional,snappy"`
}

// WriteRows writes rows of any record type to w.
// The schema is derived from the struct tags of T.
func WriteRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteFile creates outputPath and writes rows to it.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return WriteRows(file, rows)
}

// ReadFile reads every row of a Parquet file written by WriteFile.
func ReadFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			Kind:          record.Kind,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalItems:    record.TotalItems,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertSegmentScoreRecords converts schema.SegmentScoreRecord to SegmentScore for Parquet export.
func ConvertSegmentScoreRecords(records []schema.SegmentScoreRecord) []SegmentScore {
	result := make([]SegmentScore, len(records))
	for i, record := range records {
		result[i] = SegmentScore(record)
	}
	return result
}

// ConvertCurveRowRecords converts schema.CurveRowRecord to CurveRow for Parquet export.
func ConvertCurveRowRecords(records []schema.CurveRowRecord) []CurveRow {
	result := make([]CurveRow, len(records))
	for i, record := range records {
		result[i] = CurveRow(record)
	}
	return result
}

// ConvertScores flattens ranked segments for Parquet output.
func ConvertScores(scores []schema.EnrichedScore) []ScoredSegment {
	result := make([]ScoredSegment, len(scores))
	for i, s := range scores {
		row := ScoredSegment{
			Rank:                s.Rank,
			Mode:                string(s.Score.Mode),
			Variant:             string(s.Score.Variant),
			ScoreWeightedByMain: s.Score.ScoreWeightedByMain,
			ScoreWeightedBySub:  s.Score.ScoreWeightedBySub,
			Label:               s.Label,
			U:                   s.Score.SegmentID.U,
			V:                   s.Score.SegmentID.V,
			Key:                 int32(s.Score.SegmentID.Key),
		}
		if s.Segment != nil {
			row.Length = s.Segment.Length
			row.Region = s.Segment.Region
		}
		result[i] = row
	}
	return result
}

// ConvertTradeoffs flattens the trade-offs of every curve for Parquet output.
func ConvertTradeoffs(curves []schema.CurveResult) []Tradeoff {
	var result []Tradeoff
	for _, c := range curves {
		for _, t := range c.Tradeoffs {
			result = append(result, Tradeoff{
				Region:                  c.Region,
				LowerBeta:               t.LowerBeta,
				HigherBeta:              t.HigherBeta,
				RelativeDistance:        t.RelativeDistance,
				RelativeDiscomfort:      t.RelativeDiscomfort,
				DistanceChangePercent:   t.DistanceChangePercent,
				DiscomfortChangePercent: optional(t.DiscomfortChangePercent),
				TradeoffRate:            optional(t.MTOR),
			})
		}
	}
	return result
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
