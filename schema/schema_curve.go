package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ODPair is an origin/destination node pair.
type ODPair struct {
	Origin      int64 `json:"origin"`
	Destination int64 `json:"destination"`
}

// String renders the pair in the "o, d" form used by path result files.
func (p ODPair) String() string {
	return fmt.Sprintf("%d, %d", p.Origin, p.Destination)
}

// ParseODPair parses the "o, d" form.
func ParseODPair(s string) (ODPair, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return ODPair{}, fmt.Errorf("invalid origin/destination key %q", s)
	}
	o, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return ODPair{}, fmt.Errorf("invalid origin in %q: %w", s, err)
	}
	d, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return ODPair{}, fmt.Errorf("invalid destination in %q: %w", s, err)
	}
	return ODPair{Origin: o, Destination: d}, nil
}

// PathResults maps beta -> origin/destination pair -> ordered node ids.
type PathResults map[float64]map[ODPair][]int64

// Betas returns the beta levels in ascending order.
func (p PathResults) Betas() []float64 {
	betas := make([]float64, 0, len(p))
	for b := range p {
		betas = append(betas, b)
	}
	slices.Sort(betas)
	return betas
}

// Pairs returns every pair present at any beta, ordered by origin then destination.
func (p PathResults) Pairs() []ODPair {
	seen := make(map[ODPair]struct{})
	for _, byPair := range p {
		for pair := range byPair {
			seen[pair] = struct{}{}
		}
	}
	pairs := make([]ODPair, 0, len(seen))
	for pair := range seen {
		pairs = append(pairs, pair)
	}
	slices.SortFunc(pairs, func(a, b ODPair) int {
		if a.Origin != b.Origin {
			return cmpInt64(a.Origin, b.Origin)
		}
		return cmpInt64(a.Destination, b.Destination)
	})
	return pairs
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SegmentCost is the length and beta=1 discomfort of one segment.
type SegmentCost struct {
	Length     float64 `json:"length"`
	Discomfort float64 `json:"discomfort"`
}

// SegmentCosts holds the costs of all parallel segments between two nodes.
type SegmentCosts map[EdgeKey][]SegmentCost

// DistanceMap is a straight-line distance table. Lookups are symmetric.
type DistanceMap map[ODPair]float64

// Distance returns the straight-line distance between two nodes.
func (m DistanceMap) Distance(origin, destination int64) (float64, bool) {
	if d, ok := m[ODPair{Origin: origin, Destination: destination}]; ok {
		return d, true
	}
	d, ok := m[ODPair{Origin: destination, Destination: origin}]
	return d, ok
}

// PathMetrics are the accumulated costs of one path at one beta.
type PathMetrics struct {
	Beta               float64 `json:"beta"`
	Pair               ODPair  `json:"pair"`
	Nodes              int     `json:"nodes"`
	TotalLength        float64 `json:"total_length"`
	TotalDiscomfort    float64 `json:"total_discomfort"`
	WeightedDiscomfort float64 `json:"weighted_discomfort"` // beta * TotalDiscomfort
	StraightLine       float64 `json:"straight_line"`
	RelativeDistance   float64 `json:"relative_distance"`
	RelativeDiscomfort float64 `json:"relative_discomfort"`
}

// CurveRow is one point of a bikeability or walkability curve.
type CurveRow struct {
	Beta               float64 `json:"beta"`
	RelativeDistance   float64 `json:"relative_distance"`
	RelativeDiscomfort float64 `json:"relative_discomfort"`
	Pairs              int     `json:"pairs"` // Number of OD pairs averaged into this row
}

// TradeoffRow compares two consecutive retained curve rows.
// MTOR is NaN when the route length did not change.
type TradeoffRow struct {
	LowerBeta               float64 `json:"lower_beta"`
	HigherBeta              float64 `json:"higher_beta"`
	BetaPair                string  `json:"beta_pair"`
	PrevRelativeDistance    float64 `json:"relative_distance_previous"`
	PrevRelativeDiscomfort  float64 `json:"relative_discomfort_previous"`
	RelativeDistance        float64 `json:"relative_distance"`
	RelativeDiscomfort      float64 `json:"relative_discomfort"`
	DistanceChangePercent   float64 `json:"distance_change_percent"`
	DiscomfortChangePercent float64 `json:"discomfort_change_percent"`
	DistanceChangeExact     float64 `json:"distance_change_exact"`
	DiscomfortChangeExact   float64 `json:"discomfort_change_exact"`
	MTOR                    float64 `json:"tradeoff_rate"`
	MTORRounded             float64 `json:"tradeoff_rate_rounded"`
}

// HasRate reports whether the trade-off rate is defined.
func (r TradeoffRow) HasRate() bool {
	return !math.IsNaN(r.MTOR)
}

// MarshalJSON encodes undefined values as null since JSON has no NaN.
func (r TradeoffRow) MarshalJSON() ([]byte, error) {
	type plain TradeoffRow
	out := struct {
		plain
		DiscomfortChangePercent *float64 `json:"discomfort_change_percent"`
		MTOR                    *float64 `json:"tradeoff_rate"`
		MTORRounded             *float64 `json:"tradeoff_rate_rounded"`
	}{plain: plain(r)}
	if !math.IsNaN(r.DiscomfortChangePercent) {
		out.DiscomfortChangePercent = &r.DiscomfortChangePercent
	}
	if r.HasRate() {
		out.MTOR = &r.MTOR
		out.MTORRounded = &r.MTORRounded
	}
	return json.Marshal(out)
}

// CurveResult is a full curve with its suppressed levels and trade-offs.
type CurveResult struct {
	Region    string        `json:"region"`
	Rows      []CurveRow    `json:"rows"`     // All levels, ascending beta
	Retained  []CurveRow    `json:"retained"` // Levels left after duplicate suppression
	Dropped   []float64     `json:"dropped_betas"`
	Tradeoffs []TradeoffRow `json:"tradeoffs"`
}

// CityRegion labels the curve computed over every OD pair.
const CityRegion = "city"

// RouteResult is one origin/destination pair followed across every beta.
type RouteResult struct {
	Pair    ODPair        `json:"pair"`
	Metrics []PathMetrics `json:"metrics"`
	Curve   CurveResult   `json:"curve"`
}
