package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/iocache"
	"github.com/huangsam/discomfort/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const networkCSV = `u,v,key,length,region,highway,bicycle,name
1,2,0,100,north,primary,no,Main Street
2,3,1,50,south,footway,dismount,
`

// Two routes join nodes 1 and 4: a short uncomfortable one through 2 and a longer calm one through 3.
const (
	costsCSV = `u,v,length,discomfort
1,2,50,100
2,4,50,100
1,3,60,10
3,4,65,10
`
	distancesCSV = `origin,destination,distance
1,4,100
`
	regionsCSV = `origin,destination,region
1,4,north
`
	pathsJSON = `{
  "0": {"1, 4": [1, 2, 4]},
  "1": {"1, 4": [1, 3, 4]},
  "2": {"1, 4": [1, 3, 4]}
}`
)

func writeFixture(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t testing.TB) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	return &contract.Config{
		InputPath:       writeFixture(t, dir, "network.csv", networkCSV),
		Mode:            schema.BikeMode,
		Total:           schema.TotalByMain,
		Workers:         2,
		Precision:       2,
		DedupePrecision: 3,
		ProgressEvery:   1,
		Output:          schema.JSONOut,
		OutputFile:      filepath.Join(dir, "out.json"),
		Taxonomy:        taxonomy.Default(),
		CacheBackend:    schema.NoneBackend,
		RunBackend:      schema.NoneBackend,
	}
}

func curveConfig(t *testing.T) *contract.Config {
	t.Helper()
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.OutputFile)
	cfg.InputPath = ""
	cfg.CostsFile = writeFixture(t, dir, "costs.csv", costsCSV)
	cfg.DistancesFile = writeFixture(t, dir, "distances.csv", distancesCSV)
	cfg.RegionsFile = writeFixture(t, dir, "regions.csv", regionsCSV)
	cfg.PathsFile = writeFixture(t, dir, "paths.json", pathsJSON)
	return cfg
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func untrackedManager() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetScoreStore").Return(nil)
	mgr.On("GetRunStore").Return(nil)
	return mgr
}

func TestExecuteScore(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, ExecuteScore(context.Background(), cfg, untrackedManager()))

	var out struct {
		Mode     string         `json:"mode"`
		Segments int            `json:"segments"`
		Variants map[string]int `json:"variants"`
		Results  []struct {
			Rank  int    `json:"rank"`
			Label string `json:"label"`
			Score struct {
				Variant string  `json:"variant"`
				Main    float64 `json:"score_weighted_by_main"`
			} `json:"score"`
		} `json:"results"`
	}
	readJSON(t, cfg.OutputFile, &out)

	assert.Equal(t, "bike", out.Mode)
	assert.Equal(t, 2, out.Segments)
	assert.Equal(t, map[string]int{"CYCLE": 1, "DISMOUNT": 1}, out.Variants)
	require.Len(t, out.Results, 2)
	assert.Equal(t, 1, out.Results[0].Rank)
	assert.Equal(t, "DISMOUNT", out.Results[0].Score.Variant)
	assert.GreaterOrEqual(t, out.Results[0].Score.Main, out.Results[1].Score.Main)
}

func TestExecuteScoreLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResultLimit = 1
	require.NoError(t, ExecuteScore(context.Background(), cfg, nil))

	var out struct {
		Segments int               `json:"segments"`
		Results  []json.RawMessage `json:"results"`
	}
	readJSON(t, cfg.OutputFile, &out)
	assert.Equal(t, 2, out.Segments)
	assert.Len(t, out.Results, 1)
}

func TestExecuteScoreTracksRun(t *testing.T) {
	cfg := testConfig(t)

	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", schema.ScoreRun, mock.Anything, mock.Anything).Return(int64(7), nil).Once()
	runs.On("RecordSegmentScores", int64(7), mock.MatchedBy(func(s []schema.ScoreResult) bool { return len(s) == 2 })).Return(nil).Once()
	runs.On("EndRun", int64(7), mock.Anything, 2).Return(nil).Once()

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetScoreStore").Return(nil)
	mgr.On("GetRunStore").Return(runs)

	require.NoError(t, ExecuteScore(context.Background(), cfg, mgr))
	runs.AssertExpectations(t)
}

func TestExecuteScoreErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputPath = filepath.Join(t.TempDir(), "missing.csv")
	assert.Error(t, ExecuteScore(context.Background(), cfg, nil))

	cfg = testConfig(t)
	cfg.SubWeights = map[schema.Variant]map[schema.SubcomponentKey]float64{
		schema.CycleVariant: {"bogus": 2},
	}
	assert.ErrorContains(t, ExecuteScore(context.Background(), cfg, nil), "apply weights")
}

func TestExecuteCurve(t *testing.T) {
	cfg := curveConfig(t)
	require.NoError(t, ExecuteCurve(context.Background(), cfg, untrackedManager()))

	var curves []schema.CurveResult
	readJSON(t, cfg.OutputFile, &curves)
	require.Len(t, curves, 2)
	assert.Equal(t, schema.CityRegion, curves[0].Region)
	assert.Equal(t, "north", curves[1].Region)

	city := curves[0]
	assert.Len(t, city.Rows, 3)
	assert.Len(t, city.Retained, 2)
	assert.Equal(t, []float64{2}, city.Dropped)
	require.Len(t, city.Tradeoffs, 1)
	assert.InDelta(t, 25, city.Tradeoffs[0].DistanceChangePercent, 1e-9)
	assert.InDelta(t, 92, city.Tradeoffs[0].DiscomfortChangePercent, 1e-9)
	assert.InDelta(t, 3.68, city.Tradeoffs[0].MTOR, 1e-9)
}

func TestExecuteCurveTracksRun(t *testing.T) {
	cfg := curveConfig(t)

	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", schema.CurveRun, mock.Anything, mock.Anything).Return(int64(3), nil).Once()
	runs.On("RecordCurve", int64(3), mock.Anything).Return(nil).Twice()
	runs.On("EndRun", int64(3), mock.Anything, 6).Return(nil).Once()

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetScoreStore").Return(nil)
	mgr.On("GetRunStore").Return(runs)

	require.NoError(t, ExecuteCurve(context.Background(), cfg, mgr))
	runs.AssertExpectations(t)
}

func TestExecuteCurveFromScores(t *testing.T) {
	cfg := curveConfig(t)
	cfg.CostsFile = ""
	cfg.RegionsFile = ""
	cfg.InputPath = writeFixture(t, filepath.Dir(cfg.OutputFile), "network.csv", networkCSV)

	// The scored network has no segment joining nodes 1 and 4
	err := ExecuteCurve(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestExecuteRoute(t *testing.T) {
	cfg := curveConfig(t)
	cfg.Origin, cfg.Destination = 1, 4
	require.NoError(t, ExecuteRoute(context.Background(), cfg, nil))

	var route schema.RouteResult
	readJSON(t, cfg.OutputFile, &route)
	assert.Equal(t, schema.ODPair{Origin: 1, Destination: 4}, route.Pair)
	require.Len(t, route.Metrics, 3)
	assert.Equal(t, 100.0, route.Metrics[0].TotalLength)
	assert.Equal(t, 200.0, route.Metrics[0].TotalDiscomfort)
	assert.Equal(t, 125.0, route.Metrics[1].TotalLength)
	assert.Len(t, route.Curve.Tradeoffs, 1)
}

func TestExecuteRouteErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*contract.Config)
		want   string
	}{
		{"same nodes", func(c *contract.Config) { c.Origin, c.Destination = 4, 4 }, "different nodes"},
		{"missing paths", func(c *contract.Config) { c.PathsFile = "" }, "--paths is required"},
		{"missing costs", func(c *contract.Config) { c.CostsFile = "" }, "--costs is required"},
		{"missing distances", func(c *contract.Config) { c.DistancesFile = "" }, "--distances or --nodes is required"},
		{"unknown pair", func(c *contract.Config) { c.Origin, c.Destination = 2, 3 }, "path not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := curveConfig(t)
			cfg.Origin, cfg.Destination = 1, 4
			tt.mutate(cfg)
			assert.ErrorContains(t, ExecuteRoute(context.Background(), cfg, nil), tt.want)
		})
	}
}

func TestExecuteRouteWithNodes(t *testing.T) {
	cfg := curveConfig(t)
	cfg.Origin, cfg.Destination = 1, 4
	cfg.DistancesFile = ""
	cfg.NodesFile = writeFixture(t, filepath.Dir(cfg.OutputFile), "nodes.csv", "id,lon,lat\n1,8.5400,47.3700\n4,8.5413,47.3700\n")
	require.NoError(t, ExecuteRoute(context.Background(), cfg, nil))

	var route schema.RouteResult
	readJSON(t, cfg.OutputFile, &route)
	assert.InDelta(t, 98, route.Metrics[0].StraightLine, 2)
}

func TestExecuteTaxonomyAndWeights(t *testing.T) {
	cfg := testConfig(t)
	cfg.SubWeights = map[schema.Variant]map[schema.SubcomponentKey]float64{
		schema.WalkVariant: {schema.SubLit: 2},
	}
	require.NoError(t, ExecuteTaxonomy(context.Background(), cfg, nil))

	var model schema.TaxonomyRenderModel
	readJSON(t, cfg.OutputFile, &model)
	assert.Len(t, model.Variants, len(schema.AllVariants))

	require.NoError(t, ExecuteWeights(context.Background(), cfg, nil))
	var weights struct {
		Sub map[string]map[string]float64 `json:"sub"`
	}
	readJSON(t, cfg.OutputFile, &weights)
	assert.Equal(t, 2.0, weights.Sub["WALK"][string(schema.SubLit)])
	assert.Equal(t, 1.0, weights.Sub["CYCLE"][string(schema.SubLit)])
}

func TestResolveWeights(t *testing.T) {
	cfg := testConfig(t)
	cfg.MainWeights = map[schema.Mode]map[schema.MainComponentKey]float64{
		schema.BikeMode: {schema.MainSecurity: 0.5},
	}
	w, err := ResolveWeights(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.5, w.Main(schema.BikeMode, schema.MainSecurity))
}
