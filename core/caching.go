package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/schema"
	"go.uber.org/zap"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL bounds how long a scored network is reused
const cacheTTL = 7 * 24 * time.Hour

// cachedScoreNetwork scores a network, reusing a stored result for the same input bytes,
// mode, taxonomy and weights.
func cachedScoreNetwork(
	ctx context.Context,
	cfg *contract.Config,
	mgr contract.CacheManager,
	digest string,
	segments []*schema.Segment,
	w *algo.WeightSnapshot,
	progress ProgressFunc,
) ([]schema.ScoredSegment, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetScoreStore()
	}
	if store == nil || digest == "" {
		return ScoreNetwork(ctx, cfg, segments, w, cfg.Taxonomy, progress)
	}

	key := generateCacheKey(cfg, digest, w)

	if results := checkCacheHit(store, key, segments); results != nil {
		zap.L().Debug("score cache hit", zap.String("key", key[:12]), zap.Int("segments", len(results)))
		return results, nil
	}

	return computeAndStore(ctx, cfg, store, key, segments, w, progress)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string, segments []*schema.Segment) []schema.ScoredSegment {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}
	var scores []schema.ScoreResult
	if err := json.Unmarshal(data, &scores); err != nil || len(scores) != len(segments) {
		return nil
	}
	results := make([]schema.ScoredSegment, len(segments))
	for i, seg := range segments {
		if seg == nil || scores[i].SegmentID != seg.ID {
			return nil
		}
		results[i] = schema.ScoredSegment{Segment: seg, Score: scores[i]}
	}
	return results
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(
	ctx context.Context,
	cfg *contract.Config,
	store contract.CacheStore,
	key string,
	segments []*schema.Segment,
	w *algo.WeightSnapshot,
	progress ProgressFunc,
) ([]schema.ScoredSegment, error) {
	results, err := ScoreNetwork(ctx, cfg, segments, w, cfg.Taxonomy, progress)
	if err != nil {
		return nil, err
	}

	scores := make([]schema.ScoreResult, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	if data, err := json.Marshal(scores); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store scored network", err)
		}
	}

	return results, nil
}

// generateCacheKey creates a unique key based on scoring inputs
func generateCacheKey(cfg *contract.Config, digest string, w *algo.WeightSnapshot) string {
	key := fmt.Sprintf("%s:%s:%s:%s",
		digest,
		cfg.Mode,
		cfg.Taxonomy.Fingerprint(),
		w.Fingerprint(),
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
