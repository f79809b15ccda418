package algo

import (
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/discomfort/schema"
	"github.com/rotisserie/eris"
)

// DefaultDedupePrecision is the number of decimals compared when suppressing duplicate levels.
const DefaultDedupePrecision = 3

// Lookup misses and data faults of the curve engine.
var (
	ErrPathNotFound     = eris.New("path not found")
	ErrDistanceNotFound = eris.New("straight-line distance not found")
	ErrEdgeNotFound     = eris.New("no segment joins consecutive path nodes")
	ErrEmptyPath        = eris.New("path has fewer than two nodes")
	ErrZeroLength       = eris.New("path has zero length")
	ErrUnorderedCurve   = eris.New("curve rows are not in strictly ascending beta order")
)

// DistanceLookup returns the straight-line distance between two nodes.
type DistanceLookup interface {
	Distance(origin, destination int64) (float64, bool)
}

// PathMetrics accumulates length and discomfort along a node path.
// Between parallel segments the one with the lowest length + beta*discomfort is taken, the
// choice a solver with that beta would have made. Segments are matched in path direction
// first and then reversed.
func PathMetrics(nodes []int64, beta float64, pair schema.ODPair, costs schema.SegmentCosts, dist DistanceLookup) (schema.PathMetrics, error) {
	if len(nodes) < 2 {
		return schema.PathMetrics{}, eris.Wrapf(ErrEmptyPath, "pair %s at beta %g", pair, beta)
	}
	straight, ok := dist.Distance(pair.Origin, pair.Destination)
	if !ok || straight <= 0 || math.IsNaN(straight) {
		return schema.PathMetrics{}, eris.Wrapf(ErrDistanceNotFound, "pair %s", pair)
	}

	m := schema.PathMetrics{Beta: beta, Pair: pair, Nodes: len(nodes), StraightLine: straight}
	for i := 1; i < len(nodes); i++ {
		u, v := nodes[i-1], nodes[i]
		options, ok := costs[schema.EdgeKey{U: u, V: v}]
		if !ok {
			options, ok = costs[schema.EdgeKey{U: v, V: u}]
		}
		if !ok || len(options) == 0 {
			return schema.PathMetrics{}, eris.Wrapf(ErrEdgeNotFound, "%d -> %d on pair %s at beta %g", u, v, pair, beta)
		}
		best := options[0]
		for _, c := range options[1:] {
			if c.Length+beta*c.Discomfort < best.Length+beta*best.Discomfort {
				best = c
			}
		}
		m.TotalLength += best.Length
		m.TotalDiscomfort += best.Discomfort
	}
	if m.TotalLength <= 0 {
		return schema.PathMetrics{}, eris.Wrapf(ErrZeroLength, "pair %s at beta %g", pair, beta)
	}
	m.WeightedDiscomfort = beta * m.TotalDiscomfort
	m.RelativeDistance = m.TotalLength / straight
	m.RelativeDiscomfort = m.TotalDiscomfort / m.TotalLength
	return m, nil
}

// RouteMetrics returns the path metrics of one pair at every beta, in ascending beta order.
// A beta level without a path for the pair is a lookup miss.
func RouteMetrics(paths schema.PathResults, pair schema.ODPair, costs schema.SegmentCosts, dist DistanceLookup) ([]schema.PathMetrics, error) {
	betas := paths.Betas()
	if len(betas) == 0 {
		return nil, eris.Wrap(ErrPathNotFound, "no beta levels")
	}
	out := make([]schema.PathMetrics, 0, len(betas))
	for _, beta := range betas {
		nodes, ok := paths[beta][pair]
		if !ok {
			return nil, eris.Wrapf(ErrPathNotFound, "pair %s at beta %g", pair, beta)
		}
		m, err := PathMetrics(nodes, beta, pair, costs, dist)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ComputeCurve returns the curve rows of one origin/destination pair.
func ComputeCurve(paths schema.PathResults, pair schema.ODPair, costs schema.SegmentCosts, dist DistanceLookup) ([]schema.CurveRow, error) {
	metrics, err := RouteMetrics(paths, pair, costs, dist)
	if err != nil {
		return nil, err
	}
	rows := make([]schema.CurveRow, len(metrics))
	for i, m := range metrics {
		rows[i] = schema.CurveRow{
			Beta:               m.Beta,
			RelativeDistance:   m.RelativeDistance,
			RelativeDiscomfort: m.RelativeDiscomfort,
			Pairs:              1,
		}
	}
	return rows, nil
}

// ComputeAggregateCurve averages the relative metrics of many pairs at each beta.
func ComputeAggregateCurve(paths schema.PathResults, pairs []schema.ODPair, costs schema.SegmentCosts, dist DistanceLookup) ([]schema.CurveRow, error) {
	if len(pairs) == 0 {
		return nil, eris.Wrap(ErrPathNotFound, "no origin/destination pairs")
	}
	var rows []schema.CurveRow
	for i, pair := range pairs {
		curve, err := ComputeCurve(paths, pair, costs, dist)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			rows = curve
			continue
		}
		for j := range rows {
			rows[j].RelativeDistance += curve[j].RelativeDistance
			rows[j].RelativeDiscomfort += curve[j].RelativeDiscomfort
			rows[j].Pairs++
		}
	}
	n := float64(len(pairs))
	for j := range rows {
		rows[j].RelativeDistance /= n
		rows[j].RelativeDiscomfort /= n
	}
	return rows, nil
}

func round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

func checkAscending(rows []schema.CurveRow) error {
	for i := 1; i < len(rows); i++ {
		if rows[i].Beta <= rows[i-1].Beta {
			return eris.Wrapf(ErrUnorderedCurve, "beta %g follows %g", rows[i].Beta, rows[i-1].Beta)
		}
	}
	return nil
}

// SuppressDuplicates drops levels whose rounded relative distance and discomfort were already
// seen at a lower beta. Rows must be in ascending beta order; the first occurrence is kept.
func SuppressDuplicates(rows []schema.CurveRow, precision int) (retained []schema.CurveRow, dropped []float64) {
	type key struct{ distance, discomfort float64 }
	seen := make(map[key]struct{}, len(rows))
	retained = make([]schema.CurveRow, 0, len(rows))
	for _, r := range rows {
		k := key{round(r.RelativeDistance, precision), round(r.RelativeDiscomfort, precision)}
		if _, ok := seen[k]; ok {
			dropped = append(dropped, r.Beta)
			continue
		}
		seen[k] = struct{}{}
		retained = append(retained, r)
	}
	return retained, dropped
}

// tradeoff compares two consecutive retained rows. The rate is NaN when the route length did
// not change, and also when the lower row has no discomfort to improve on.
func tradeoff(prev, next schema.CurveRow) schema.TradeoffRow {
	dx := 100 * (next.RelativeDistance/prev.RelativeDistance - 1)
	dd := math.NaN()
	if prev.RelativeDiscomfort != 0 {
		dd = 100 * (1 - next.RelativeDiscomfort/prev.RelativeDiscomfort)
	}
	mtor := math.NaN()
	if dx != 0 && !math.IsNaN(dd) {
		mtor = math.Abs(dd / dx)
	}
	return schema.TradeoffRow{
		LowerBeta:               prev.Beta,
		HigherBeta:              next.Beta,
		BetaPair:                fmt.Sprintf("Beta=%g to Beta=%g", prev.Beta, next.Beta),
		PrevRelativeDistance:    prev.RelativeDistance,
		PrevRelativeDiscomfort:  prev.RelativeDiscomfort,
		RelativeDistance:        next.RelativeDistance,
		RelativeDiscomfort:      next.RelativeDiscomfort,
		DistanceChangePercent:   dx,
		DiscomfortChangePercent: dd,
		DistanceChangeExact:     math.Abs(next.RelativeDistance - prev.RelativeDistance),
		DiscomfortChangeExact:   math.Abs(next.RelativeDiscomfort - prev.RelativeDiscomfort),
		MTOR:                    mtor,
		MTORRounded:             round(mtor, 2),
	}
}

// ComputeTradeoffs suppresses duplicate levels and compares each retained row with the one
// before it. The rate is attached to the higher beta of each pair.
func ComputeTradeoffs(rows []schema.CurveRow, precision int) ([]schema.TradeoffRow, error) {
	result, err := BuildCurve("", rows, precision)
	if err != nil {
		return nil, err
	}
	return result.Tradeoffs, nil
}

// BuildCurve assembles the full curve result for a region from its rows.
// A negative precision selects DefaultDedupePrecision.
func BuildCurve(region string, rows []schema.CurveRow, precision int) (schema.CurveResult, error) {
	if precision < 0 {
		precision = DefaultDedupePrecision
	}
	if err := checkAscending(rows); err != nil {
		return schema.CurveResult{}, err
	}
	retained, dropped := SuppressDuplicates(rows, precision)
	tradeoffs := make([]schema.TradeoffRow, 0, max(len(retained)-1, 0))
	for i := 1; i < len(retained); i++ {
		tradeoffs = append(tradeoffs, tradeoff(retained[i-1], retained[i]))
	}
	return schema.CurveResult{
		Region:    region,
		Rows:      slices.Clone(rows),
		Retained:  retained,
		Dropped:   dropped,
		Tradeoffs: tradeoffs,
	}, nil
}

// Interpretation describes a trade-off row in plain words.
func Interpretation(r schema.TradeoffRow) string {
	switch {
	case r.DistanceChangePercent == 0:
		return fmt.Sprintf("Going from %s does not change the route length, so no trade-off rate is defined.", r.BetaPair)
	case !r.HasRate():
		return fmt.Sprintf("Going from %s starts from zero discomfort, so no trade-off rate is defined.", r.BetaPair)
	}
	return fmt.Sprintf(
		"To reduce discomfort by %.1f%%, you need a detour that is %.1f%% longer, vs. the route taken with lower sensitivity to discomfort (Beta=%g). Discomfort decreases %.2f times as much as the extra distance, percentagewise.",
		r.DiscomfortChangePercent, r.DistanceChangePercent, r.LowerBeta, r.MTORRounded,
	)
}
