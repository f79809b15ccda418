// Package schema has models, keys and helpers shared by all parts of discomfort.
package schema

import (
	"fmt"
	"math"
	"strings"
)

// SegmentID identifies one edge of the network by its end nodes and parallel key.
type SegmentID struct {
	U   int64 `json:"u"`
	V   int64 `json:"v"`
	Key int   `json:"key"`
}

// String renders the id as "u-v-key".
func (id SegmentID) String() string {
	return fmt.Sprintf("%d-%d-%d", id.U, id.V, id.Key)
}

// Edge drops the parallel key.
func (id SegmentID) Edge() EdgeKey {
	return EdgeKey{U: id.U, V: id.V}
}

// EdgeKey identifies all parallel segments between two nodes.
type EdgeKey struct {
	U int64
	V int64
}

// Segment is one street or path element with its cleaned attributes.
// Segments are read-only once loaded; scoring never mutates them.
type Segment struct {
	ID       SegmentID          `json:"id"`
	Length   float64            `json:"length"`             // Physical length in meters
	Region   string             `json:"region,omitempty"`   // Optional neighborhood label
	Tags     map[string]string  `json:"tags,omitempty"`     // Categorical attributes
	Measures map[string]float64 `json:"measures,omitempty"` // Continuous attributes; absent means unobserved
	Geometry [][]float64        `json:"-"`                  // Optional lon/lat line
}

// Tag returns the trimmed categorical value of a field, or "" when absent.
func (s *Segment) Tag(field string) string {
	if s.Tags == nil {
		return ""
	}
	return strings.TrimSpace(s.Tags[field])
}

// Measure returns the continuous value of a field.
// NaN values are reported as missing.
func (s *Segment) Measure(field string) (float64, bool) {
	if s.Measures == nil {
		return 0, false
	}
	v, ok := s.Measures[field]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ScoreResult is the full discomfort breakdown for one segment.
type ScoreResult struct {
	SegmentID           SegmentID                    `json:"segment_id"`
	Mode                Mode                         `json:"mode"`
	Variant             Variant                      `json:"variant"`
	SubUnweighted       map[SubcomponentKey]float64  `json:"sub_unweighted"`
	SubWeighted         map[SubcomponentKey]float64  `json:"sub_weighted"`
	MainUnweighted      map[MainComponentKey]float64 `json:"main_unweighted"`
	MainWeighted        map[MainComponentKey]float64 `json:"main_weighted"`
	ScoreWeightedByMain float64                      `json:"score_weighted_by_main"`
	ScoreWeightedBySub  float64                      `json:"score_weighted_by_sub"`
}

// Total returns the total selected by kind.
func (r *ScoreResult) Total(kind TotalKind) float64 {
	if kind == TotalBySub {
		return r.ScoreWeightedBySub
	}
	return r.ScoreWeightedByMain
}

// ScoredSegment pairs a segment with its score.
type ScoredSegment struct {
	Segment *Segment    `json:"segment"`
	Score   ScoreResult `json:"score"`
}

// NetworkScoreOutput is the result of scoring a whole network.
type NetworkScoreOutput struct {
	Mode     Mode            `json:"mode"`
	Total    TotalKind       `json:"total"`
	Results  []ScoredSegment `json:"results"`
	Variants map[Variant]int `json:"variants"` // Segment count per variant
}
