// Package core has core logic for scoring networks and building trade-off curves.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/ingest"
	"github.com/huangsam/discomfort/internal/outwriter"
	"github.com/huangsam/discomfort/schema"
	"go.uber.org/zap"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteScore scores every segment of the input network and prints the ranked results.
// It serves as the main entry point for the 'score' command.
func ExecuteScore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	output, ranked, err := GetScoreResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.PrintScoreResults(output, ranked, cfg, duration)
}

// GetScoreResults scores the input network and returns the summary with the ranked segments.
func GetScoreResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.NetworkScoreOutput, []schema.ScoredSegment, error) {
	output, err := runScoreCore(ctx, cfg, mgr)
	if err != nil {
		return nil, nil, err
	}
	return output, algo.RankSegments(output.Results, cfg.Total, cfg.ResultLimit), nil
}

// ExecuteRoute follows one origin/destination pair across every beta and prints
// its path metrics and trade-offs.
func ExecuteRoute(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := GetRouteResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.PrintRouteResult(result, cfg, duration)
}

// GetRouteResult computes the path metrics and curve of cfg.Origin to cfg.Destination.
func GetRouteResult(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.RouteResult, error) {
	if cfg.Origin == cfg.Destination {
		return schema.RouteResult{}, errors.New("--origin and --destination must be two different nodes")
	}
	pair := schema.ODPair{Origin: cfg.Origin, Destination: cfg.Destination}

	paths, err := loadPaths(cfg)
	if err != nil {
		return schema.RouteResult{}, err
	}
	costs, err := loadCosts(WithSuppressHeader(ctx), cfg, mgr)
	if err != nil {
		return schema.RouteResult{}, err
	}
	dist, err := loadDistances(cfg, []schema.ODPair{pair})
	if err != nil {
		return schema.RouteResult{}, err
	}
	return ComputeRoute(cfg, paths, pair, costs, dist)
}

// ExecuteCurve builds the city curve and one curve per region, records them when run
// tracking is enabled, and prints the trade-offs.
func ExecuteCurve(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	curves, err := GetCurveResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.PrintCurveResults(curves, cfg, duration)
}

// GetCurveResults builds the city and region curves and records them when run tracking is enabled.
func GetCurveResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.CurveResult, error) {
	start := time.Now()
	paths, err := loadPaths(cfg)
	if err != nil {
		return nil, err
	}
	costs, err := loadCosts(WithSuppressHeader(ctx), cfg, mgr)
	if err != nil {
		return nil, err
	}
	dist, err := loadDistances(cfg, paths.Pairs())
	if err != nil {
		return nil, err
	}
	var regions map[schema.ODPair]string
	if cfg.RegionsFile != "" {
		if regions, err = ingest.LoadRegions(cfg.RegionsFile); err != nil {
			return nil, err
		}
	}

	if !shouldSuppressHeader(ctx) {
		zap.L().Info("building curves",
			zap.Int("betas", len(paths.Betas())),
			zap.Int("pairs", len(paths.Pairs())),
			zap.Int("regions", len(regions)),
		)
	}
	curves, err := ComputeRegionCurves(ctx, cfg, paths, costs, dist, regions)
	if err != nil {
		return nil, err
	}
	recordCurves(cfg, mgr, start, curves)
	return curves, nil
}

// ExecuteTaxonomy prints the subcomponent catalog with formulas, levels and active weights.
func ExecuteTaxonomy(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	w, err := ResolveWeights(cfg)
	if err != nil {
		return err
	}
	return outwriter.PrintTaxonomy(BuildTaxonomyModel(cfg.Taxonomy, w), cfg)
}

// ExecuteWeights prints the active sub and main weights per variant and mode.
func ExecuteWeights(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	w, err := ResolveWeights(cfg)
	if err != nil {
		return err
	}
	return outwriter.PrintWeights(BuildTaxonomyModel(cfg.Taxonomy, w), cfg)
}

// ResolveWeights applies the configured overrides on top of the neutral weights.
func ResolveWeights(cfg *contract.Config) (*algo.WeightSnapshot, error) {
	wc := algo.NewWeightConfig(cfg.Taxonomy)
	if err := wc.Apply(cfg.SubWeights, cfg.MainWeights); err != nil {
		return nil, fmt.Errorf("apply weights: %w", err)
	}
	return wc.Snapshot(), nil
}

func loadPaths(cfg *contract.Config) (schema.PathResults, error) {
	if cfg.PathsFile == "" {
		return nil, errors.New("--paths is required")
	}
	return ingest.LoadPaths(cfg.PathsFile)
}

// loadCosts reads a costs file when given, otherwise scores the input network.
func loadCosts(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.SegmentCosts, error) {
	if cfg.CostsFile != "" {
		return ingest.LoadCosts(cfg.CostsFile)
	}
	if cfg.InputPath == "" {
		return nil, errors.New("a segment file or --costs is required")
	}
	output, err := runScoreCore(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	return SegmentCosts(output.Results, cfg.Total), nil
}

func loadDistances(cfg *contract.Config, pairs []schema.ODPair) (algo.DistanceLookup, error) {
	switch {
	case cfg.DistancesFile != "":
		return ingest.LoadDistances(cfg.DistancesFile)
	case cfg.NodesFile != "":
		nodes, err := ingest.LoadNodes(cfg.NodesFile)
		if err != nil {
			return nil, err
		}
		return ingest.HaversineDistances(nodes, pairs)
	default:
		return nil, errors.New("--distances or --nodes is required")
	}
}
