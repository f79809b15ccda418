package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/discomfort/core"
	"github.com/huangsam/discomfort/core/algo"
	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/internal/ingest"
	"github.com/huangsam/discomfort/internal/outwriter"
	"github.com/huangsam/discomfort/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// segmentScore is the score_segment reply.
type segmentScore struct {
	Score         schema.ScoreResult  `json:"score"`
	Contributions []algo.Contribution `json:"contributions,omitempty"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// applyMode overrides the configured mode when the request names a valid one.
func applyMode(cfg *contract.Config, request mcp.CallToolRequest) error {
	m := request.GetString("mode", "")
	if m == "" {
		return nil
	}
	if _, ok := schema.ValidModes[schema.Mode(m)]; !ok {
		return fmt.Errorf("invalid mode %q. Must be bike or walk", m)
	}
	cfg.Mode = schema.Mode(m)
	return nil
}

func (h *toolHandler) handleScoreSegment(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyMode(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var attrs map[string]any
	if err := json.Unmarshal([]byte(request.GetString("attributes", "")), &attrs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("attributes must be a JSON object: %v", err)), nil
	}
	seg := &schema.Segment{}
	if err := ingest.ApplyAttributes(seg, attrs, ingest.MeasureSet(cfg.Taxonomy.MeasureFields())); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid attributes: %v", err)), nil
	}

	w, err := core.ResolveWeights(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	score, err := algo.ScoreSegment(seg, cfg.Mode, w, cfg.Taxonomy)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	out := segmentScore{Score: score}
	if n := request.GetInt("explain", 0); n > 0 {
		out.Contributions = algo.Explain(&score, n)
	}
	return jsonResult(out)
}

func (h *toolHandler) handleScoreNetwork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input_path", "")
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("input_path is required"), nil
	}
	if err := applyMode(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if t := request.GetString("total", ""); t != "" {
		if _, ok := schema.ValidTotalKinds[schema.TotalKind(t)]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid total %q. Must be main or sub", t)), nil
		}
		cfg.Total = schema.TotalKind(t)
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	output, ranked, err := core.GetScoreResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(struct {
		Mode     schema.Mode            `json:"mode"`
		Total    schema.TotalKind       `json:"total"`
		Segments int                    `json:"segments"`
		Variants map[schema.Variant]int `json:"variants"`
		Results  []schema.EnrichedScore `json:"results"`
	}{output.Mode, output.Total, len(output.Results), output.Variants, schema.EnrichScores(ranked, cfg.Total)})
}

func (h *toolHandler) handleComputeCurves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.PathsFile = request.GetString("paths", "")
	cfg.CostsFile = request.GetString("costs", "")
	cfg.InputPath = request.GetString("input_path", "")
	cfg.DistancesFile = request.GetString("distances", "")
	cfg.NodesFile = request.GetString("nodes", "")
	cfg.RegionsFile = request.GetString("regions", "")
	if err := applyMode(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	curves, err := core.GetCurveResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("curve computation failed: %v", err)), nil
	}
	return jsonResult(curves)
}

func (h *toolHandler) handleComputeTradeoffs(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rows []schema.CurveRow
	if err := json.Unmarshal([]byte(request.GetString("rows", "")), &rows); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rows must be a JSON array of curve rows: %v", err)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultError("rows must not be empty"), nil
	}
	precision := request.GetInt("dedupe_precision", h.baseCfg.DedupePrecision)
	if precision < 0 || precision > 10 {
		return mcp.NewToolResultError(fmt.Sprintf("dedupe_precision must be between 0 and 10, got %d", precision)), nil
	}

	curve, err := algo.BuildCurve("", rows, precision)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid curve: %v", err)), nil
	}
	return jsonResult(curve)
}

func (h *toolHandler) handleGetTaxonomy(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, err := core.ResolveWeights(h.baseCfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	model := core.BuildTaxonomyModel(h.baseCfg.Taxonomy, w)
	if v := request.GetString("variant", ""); v != "" {
		for _, vm := range model.Variants {
			if vm.Variant == v {
				return jsonResult(vm)
			}
		}
		return mcp.NewToolResultError(fmt.Sprintf("unknown variant %q", v)), nil
	}
	return jsonResult(model)
}

func (h *toolHandler) handleGetWeights(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, err := core.ResolveWeights(h.baseCfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(outwriter.WeightsView(core.BuildTaxonomyModel(h.baseCfg.Taxonomy, w)))
}
