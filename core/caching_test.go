package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/internal/iocache"
	"github.com/huangsam/discomfort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cacheSegments() []*schema.Segment {
	return []*schema.Segment{
		{ID: schema.SegmentID{U: 1, V: 2}, Length: 100, Tags: map[string]string{"highway": "primary"}},
		{ID: schema.SegmentID{U: 2, V: 3}, Length: 40, Tags: map[string]string{"highway": "footway", "bicycle": "dismount"}},
	}
}

func cacheManager(store *iocache.MockCacheStore) *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetScoreStore").Return(store)
	return mgr
}

func TestCachedScoreNetworkMissThenHit(t *testing.T) {
	cfg := testConfig(t)
	w := algo.NeutralWeights()
	segments := cacheSegments()
	key := generateCacheKey(cfg, "digest", w)

	var stored []byte
	store := &iocache.MockCacheStore{}
	store.On("Get", key).Return(nil, 0, int64(0), sql.ErrNoRows).Once()
	store.On("Set", key, mock.Anything, currentCacheVersion, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).([]byte) }).
		Return(nil).Once()

	first, err := cachedScoreNetwork(context.Background(), cfg, cacheManager(store), "digest", segments, w, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, stored)

	store.On("Get", key).Return(stored, currentCacheVersion, time.Now().Unix(), nil).Once()
	second, err := cachedScoreNetwork(context.Background(), cfg, cacheManager(store), "digest", segments, w, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	store.AssertExpectations(t)
}

func TestCheckCacheHitRejects(t *testing.T) {
	segments := cacheSegments()
	scores := []schema.ScoreResult{{SegmentID: segments[0].ID}, {SegmentID: segments[1].ID}}
	good, err := json.Marshal(scores)
	require.NoError(t, err)
	short, err := json.Marshal(scores[:1])
	require.NoError(t, err)
	swapped, err := json.Marshal([]schema.ScoreResult{scores[1], scores[0]})
	require.NoError(t, err)

	now := time.Now().Unix()
	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
		hit     bool
	}{
		{"fresh", good, currentCacheVersion, now, nil, true},
		{"missing", nil, 0, 0, sql.ErrNoRows, false},
		{"old version", good, currentCacheVersion + 1, now, nil, false},
		{"stale", good, currentCacheVersion, time.Now().Add(-cacheTTL - time.Hour).Unix(), nil, false},
		{"corrupt", []byte("{"), currentCacheVersion, now, nil, false},
		{"length mismatch", short, currentCacheVersion, now, nil, false},
		{"id mismatch", swapped, currentCacheVersion, now, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "k").Return(tt.data, tt.version, tt.ts, tt.err)
			got := checkCacheHit(store, "k", segments)
			if tt.hit {
				require.Len(t, got, 2)
				assert.Same(t, segments[0], got[0].Segment)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestCachedScoreNetworkSetFailureIsIgnored(t *testing.T) {
	cfg := testConfig(t)
	w := algo.NeutralWeights()
	store := &iocache.MockCacheStore{}
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows)
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	results, err := cachedScoreNetwork(context.Background(), cfg, cacheManager(store), "digest", cacheSegments(), w, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCachedScoreNetworkSkipsWithoutDigest(t *testing.T) {
	cfg := testConfig(t)
	store := &iocache.MockCacheStore{}

	results, err := cachedScoreNetwork(context.Background(), cfg, cacheManager(store), "", cacheSegments(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	store.AssertNotCalled(t, "Get", mock.Anything)
}

func TestGenerateCacheKey(t *testing.T) {
	cfg := testConfig(t)
	neutral := algo.NeutralWeights()
	base := generateCacheKey(cfg, "digest", neutral)
	assert.Len(t, base, 64)
	assert.Equal(t, base, generateCacheKey(cfg, "digest", neutral))
	assert.NotEqual(t, base, generateCacheKey(cfg, "other", neutral))

	walk := cfg.Clone()
	walk.Mode = schema.WalkMode
	assert.NotEqual(t, base, generateCacheKey(walk, "digest", neutral))

	wc := algo.NewWeightConfig(cfg.Taxonomy)
	require.NoError(t, wc.SetSubWeight(schema.CycleVariant, schema.SubLit, 3))
	assert.NotEqual(t, base, generateCacheKey(cfg, "digest", wc.Snapshot()))
}
