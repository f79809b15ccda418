package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/ingest"
	"github.com/huangsam/discomfort/schema"
	"go.uber.org/zap"
)

// runScoreCore loads the segment file, scores it and records the run when tracking is on.
func runScoreCore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.NetworkScoreOutput, error) {
	w, err := ResolveWeights(cfg)
	if err != nil {
		return nil, err
	}
	file, err := ingest.LoadSegments(cfg.InputPath, cfg.Taxonomy.MeasureFields())
	if err != nil {
		return nil, err
	}
	if !shouldSuppressHeader(ctx) {
		zap.L().Info("scoring network",
			zap.String("input", cfg.InputPath),
			zap.String("mode", string(cfg.Mode)),
			zap.String("total", string(cfg.Total)),
			zap.Int("segments", len(file.Segments)),
			zap.Int("workers", cfg.Workers),
		)
	}

	start := time.Now()
	ctx = beginRun(ctx, cfg, mgr, schema.ScoreRun, start)

	var progress ProgressFunc
	if !shouldSuppressHeader(ctx) {
		progress = logProgress
	}
	results, err := cachedScoreNetwork(ctx, cfg, mgr, file.Digest, file.Segments, w, progress)
	if err != nil {
		return nil, err
	}

	if runID, ok := getRunID(ctx); ok {
		store := mgr.GetRunStore()
		scores := make([]schema.ScoreResult, len(results))
		for i, r := range results {
			scores[i] = r.Score
		}
		if err := store.RecordSegmentScores(runID, scores); err != nil {
			contract.LogWarn("Failed to record segment scores", err)
		}
		if err := store.EndRun(runID, time.Now(), len(results)); err != nil {
			contract.LogWarn("Failed to end run", err)
		}
	}
	return SummarizeNetwork(cfg, results), nil
}

func logProgress(done, total int) {
	zap.L().Info("scoring progress", zap.Int("done", done), zap.Int("total", total))
}

// beginRun opens a tracked run and stores its id in the context.
// Failures are logged and the run continues untracked.
func beginRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, kind schema.RunKind, start time.Time) context.Context {
	if mgr == nil || mgr.GetRunStore() == nil {
		return ctx
	}
	runID, err := mgr.GetRunStore().BeginRun(kind, start, runParams(cfg))
	if err != nil {
		contract.LogWarn("Failed to begin run", err)
		return ctx
	}
	return withRunID(ctx, runID)
}

// recordCurves stores every curve of a curve run.
func recordCurves(cfg *contract.Config, mgr contract.CacheManager, start time.Time, curves []schema.CurveResult) {
	ctx := beginRun(context.Background(), cfg, mgr, schema.CurveRun, start)
	runID, ok := getRunID(ctx)
	if !ok {
		return
	}
	store := mgr.GetRunStore()
	items := 0
	for _, curve := range curves {
		if err := store.RecordCurve(runID, curve); err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to record curve %s", curve.Region), err)
			continue
		}
		items += len(curve.Rows)
	}
	if err := store.EndRun(runID, time.Now(), items); err != nil {
		contract.LogWarn("Failed to end run", err)
	}
}

func runParams(cfg *contract.Config) map[string]any {
	params := map[string]any{
		"mode":     string(cfg.Mode),
		"total":    string(cfg.Total),
		"workers":  cfg.Workers,
		"taxonomy": cfg.Taxonomy.Fingerprint(),
	}
	if cfg.InputPath != "" {
		params["input"] = cfg.InputPath
	}
	if cfg.PathsFile != "" {
		params["paths"] = cfg.PathsFile
		params["dedupe_precision"] = cfg.DedupePrecision
	}
	if len(cfg.SubWeights) > 0 {
		params["sub_weights"] = cfg.SubWeights
	}
	if len(cfg.MainWeights) > 0 {
		params["main_weights"] = cfg.MainWeights
	}
	return params
}
