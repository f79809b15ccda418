package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/schema"
	"golang.org/x/sync/errgroup"
)

// SegmentCosts turns a scored network into path costs. The selected total is read as
// discomfort per meter, so a segment carries total * length.
func SegmentCosts(results []schema.ScoredSegment, kind schema.TotalKind) schema.SegmentCosts {
	costs := make(schema.SegmentCosts, len(results))
	for _, r := range results {
		if r.Segment == nil {
			continue
		}
		key := r.Segment.ID.Edge()
		costs[key] = append(costs[key], schema.SegmentCost{
			Length:     r.Segment.Length,
			Discomfort: r.Score.Total(kind) * r.Segment.Length,
		})
	}
	return costs
}

// GroupPairsByRegion buckets pairs by their region label. Unlabeled pairs are left out.
func GroupPairsByRegion(pairs []schema.ODPair, regions map[schema.ODPair]string) map[string][]schema.ODPair {
	groups := make(map[string][]schema.ODPair)
	for _, pair := range pairs {
		if region, ok := regions[pair]; ok {
			groups[region] = append(groups[region], pair)
		}
	}
	return groups
}

// ComputeRegionCurves builds the city curve over every pair, then one curve per region,
// at most cfg.Workers at a time. The city curve comes first and regions follow by name.
// The first failure cancels the curves still waiting.
func ComputeRegionCurves(
	ctx context.Context,
	cfg *contract.Config,
	paths schema.PathResults,
	costs schema.SegmentCosts,
	dist algo.DistanceLookup,
	regions map[schema.ODPair]string,
) ([]schema.CurveResult, error) {
	pairs := paths.Pairs()
	groups := GroupPairsByRegion(pairs, regions)
	names := make([]string, 0, len(groups)+1)
	names = append(names, schema.CityRegion)
	for name := range groups {
		if name != schema.CityRegion {
			names = append(names, name)
		}
	}
	slices.Sort(names[1:])
	groups[schema.CityRegion] = pairs

	results := make([]schema.CurveResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := algo.ComputeAggregateCurve(paths, groups[name], costs, dist)
			if err != nil {
				return fmt.Errorf("region %s: %w", name, err)
			}
			curve, err := algo.BuildCurve(name, rows, cfg.DedupePrecision)
			if err != nil {
				return fmt.Errorf("region %s: %w", name, err)
			}
			results[i] = curve
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ComputeRoute follows one pair across every beta and builds its own curve.
func ComputeRoute(
	cfg *contract.Config,
	paths schema.PathResults,
	pair schema.ODPair,
	costs schema.SegmentCosts,
	dist algo.DistanceLookup,
) (schema.RouteResult, error) {
	metrics, err := algo.RouteMetrics(paths, pair, costs, dist)
	if err != nil {
		return schema.RouteResult{}, err
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
	curve, err := algo.BuildCurve(pair.String(), rows, cfg.DedupePrecision)
	if err != nil {
		return schema.RouteResult{}, err
	}
	return schema.RouteResult{Pair: pair, Metrics: metrics, Curve: curve}, nil
}
