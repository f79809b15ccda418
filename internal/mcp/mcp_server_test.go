package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/discomfort/core/taxonomy"
	"github.com/huangsam/discomfort/internal/contract"
	mcp_internal "github.com/huangsam/discomfort/internal/mcp"
	"github.com/huangsam/discomfort/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *server.MCPServer {
	t.Helper()
	baseCfg := &contract.Config{
		Mode:            schema.BikeMode,
		Total:           schema.TotalByMain,
		Workers:         2,
		Precision:       2,
		DedupePrecision: 3,
		Taxonomy:        taxonomy.Default(),
	}
	// No stores: nothing is cached or tracked
	var mgr contract.CacheManager
	return mcp_internal.NewMCPServer(baseCfg, mgr)
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestScoreSegment(t *testing.T) {
	s := newServer(t)

	res := callTool(t, s, "score_segment", map[string]any{
		"attributes": `{"highway": "footway", "bicycle": "dismount"}`,
		"explain":    3.0,
	})
	require.False(t, res.IsError, resultText(t, res))

	var out struct {
		Score         schema.ScoreResult `json:"score"`
		Contributions []map[string]any   `json:"contributions"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, schema.DismountVariant, out.Score.Variant)
	assert.Equal(t, taxonomy.DefaultDismountPenalty, out.Score.SubWeighted[schema.SubDismount])
	assert.NotEmpty(t, out.Contributions)
	assert.LessOrEqual(t, len(out.Contributions), 3)

	walk := callTool(t, s, "score_segment", map[string]any{
		"attributes": `{"highway": "footway", "bicycle": "dismount"}`,
		"mode":       "walk",
	})
	require.False(t, walk.IsError)
	assert.Contains(t, resultText(t, walk), `"variant": "WALK"`)
}

func TestScoreNetwork(t *testing.T) {
	s := newServer(t)
	input := filepath.Join(t.TempDir(), "network.csv")
	require.NoError(t, os.WriteFile(input, []byte("u,v,key,length,highway,bicycle\n1,2,0,100,primary,no\n2,3,0,50,footway,dismount\n"), 0o644))

	res := callTool(t, s, "score_network", map[string]any{"input_path": input, "limit": 1.0})
	require.False(t, res.IsError, resultText(t, res))

	var out struct {
		Segments int               `json:"segments"`
		Results  []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 2, out.Segments)
	assert.Len(t, out.Results, 1)
}

func TestComputeTradeoffs(t *testing.T) {
	s := newServer(t)
	res := callTool(t, s, "compute_tradeoffs", map[string]any{
		"rows": `[
			{"beta": 0, "relative_distance": 1.0, "relative_discomfort": 2.0},
			{"beta": 1, "relative_distance": 1.25, "relative_discomfort": 0.16},
			{"beta": 2, "relative_distance": 1.25, "relative_discomfort": 0.16}
		]`,
	})
	require.False(t, res.IsError, resultText(t, res))

	var curve struct {
		Dropped   []float64 `json:"dropped_betas"`
		Tradeoffs []struct {
			Rate float64 `json:"tradeoff_rate"`
		} `json:"tradeoffs"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &curve))
	assert.Equal(t, []float64{2}, curve.Dropped)
	require.Len(t, curve.Tradeoffs, 1)
	assert.InDelta(t, 3.68, curve.Tradeoffs[0].Rate, 1e-9)
}

func TestTaxonomyAndWeights(t *testing.T) {
	s := newServer(t)

	res := callTool(t, s, "get_taxonomy", map[string]any{"variant": "WALK"})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"variant": "WALK"`)

	res = callTool(t, s, "get_taxonomy", map[string]any{})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"dismount_field": "bicycle"`)

	res = callTool(t, s, "get_weights", map[string]any{})
	require.False(t, res.IsError)
	var weights struct {
		Sub  map[string]map[string]float64 `json:"sub"`
		Main map[string]map[string]float64 `json:"main"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &weights))
	assert.Equal(t, 1.0, weights.Sub["CYCLE"]["lit"])
	assert.Contains(t, weights.Main, "walk")
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"score_segment bad attributes", "score_segment", map[string]any{"attributes": "[1, 2]"}, "attributes must be a JSON object"},
		{"score_segment bad mode", "score_segment", map[string]any{"attributes": "{}", "mode": "boat"}, "invalid mode"},
		{"score_segment bad measure", "score_segment", map[string]any{"attributes": `{"width": "wide"}`}, "invalid attributes"},
		{"score_network missing input", "score_network", map[string]any{}, "input_path is required"},
		{"score_network bad total", "score_network", map[string]any{"input_path": "x.csv", "total": "both"}, "invalid total"},
		{"score_network missing file", "score_network", map[string]any{"input_path": "missing.csv"}, "scoring failed"},
		{"compute_curves missing paths", "compute_curves", map[string]any{}, "--paths is required"},
		{"compute_tradeoffs empty", "compute_tradeoffs", map[string]any{"rows": "[]"}, "rows must not be empty"},
		{"compute_tradeoffs not json", "compute_tradeoffs", map[string]any{"rows": "rows"}, "rows must be a JSON array"},
		{"compute_tradeoffs unordered", "compute_tradeoffs", map[string]any{
			"rows": `[{"beta": 1, "relative_distance": 1, "relative_discomfort": 1}, {"beta": 0, "relative_distance": 1, "relative_discomfort": 1}]`,
		}, "invalid curve"},
		{"compute_tradeoffs precision", "compute_tradeoffs", map[string]any{
			"rows": `[{"beta": 0, "relative_distance": 1, "relative_discomfort": 1}]`, "dedupe_precision": 20.0,
		}, "dedupe_precision must be between"},
		{"get_taxonomy unknown variant", "get_taxonomy", map[string]any{"variant": "SKATE"}, "unknown variant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}
