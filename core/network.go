package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/schema"
)

// ProgressFunc is told how many segments have been scored out of the total.
// Calls are serialized and done never decreases.
type ProgressFunc func(done, total int)

// ScoreNetwork scores every segment with a pool of cfg.Workers goroutines.
// Results keep the order of segments. progress, if set, is called every cfg.ProgressEvery
// segments and once more at the end. Cancellation is checked between segments.
func ScoreNetwork(
	ctx context.Context,
	cfg *contract.Config,
	segments []*schema.Segment,
	w *algo.WeightSnapshot,
	tax *taxonomy.Taxonomy,
	progress ProgressFunc,
) ([]schema.ScoredSegment, error) {
	if _, ok := schema.ValidModes[cfg.Mode]; !ok {
		return nil, fmt.Errorf("invalid mode %q", cfg.Mode)
	}
	total := len(segments)
	results := make([]schema.ScoredSegment, total)
	if total == 0 {
		return results, nil
	}
	every := cfg.ProgressEvery
	if every <= 0 {
		every = contract.DefaultProgressEvery
	}
	workers := max(cfg.Workers, 1)

	var (
		mu       sync.Mutex
		done     int
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}
	tick := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if progress != nil && (done%every == 0 || done == total) {
			progress(done, total)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indexCh := make(chan int, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for i := range indexCh {
				if ctx.Err() != nil {
					continue // drain
				}
				seg := segments[i]
				if seg == nil {
					fail(fmt.Errorf("segment %d is nil", i))
					cancel()
					continue
				}
				score, err := algo.ScoreSegment(seg, cfg.Mode, w, tax)
				if err != nil {
					fail(fmt.Errorf("score segment %s: %w", seg.ID, err))
					cancel()
					continue
				}
				// each worker writes a unique index
				results[i] = schema.ScoredSegment{Segment: seg, Score: score}
				tick()
			}
		})
	}

feed:
	for i := range segments {
		select {
		case <-ctx.Done():
			break feed
		case indexCh <- i:
		}
	}
	close(indexCh)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if done < total {
		return nil, ctx.Err()
	}
	return results, nil
}

// SummarizeNetwork counts segments per variant.
func SummarizeNetwork(cfg *contract.Config, results []schema.ScoredSegment) *schema.NetworkScoreOutput {
	variants := make(map[schema.Variant]int, len(schema.ModeVariants[cfg.Mode]))
	for _, v := range schema.ModeVariants[cfg.Mode] {
		variants[v] = 0
	}
	for _, r := range results {
		variants[r.Score.Variant]++
	}
	return &schema.NetworkScoreOutput{
		Mode:     cfg.Mode,
		Total:    cfg.Total,
		Results:  results,
		Variants: variants,
	}
}
