// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/discomfort/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Discomfort MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Discomfort Scoring Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: score_segment ---
	s.AddTool(mcp.NewTool("score_segment",
		mcp.WithDescription("Score one street segment from its attributes and return the full discomfort breakdown."),
		mcp.WithString("attributes", mcp.Description(`JSON object of segment attributes, e.g. {"highway": "primary", "bicycle": "dismount", "width": 3.5}.`), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Transport mode. Defaults to 'bike'."), mcp.Enum("bike", "walk")),
		mcp.WithNumber("explain", mcp.Description("Number of largest contributions to list.")),
	), h.handleScoreSegment)

	// --- 2. Tool: score_network ---
	s.AddTool(mcp.NewTool("score_network",
		mcp.WithDescription("Score every segment of a network file (.csv or .geojson) and return the most uncomfortable ones."),
		mcp.WithString("input_path", mcp.Description("Path to the segment file."), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Transport mode."), mcp.Enum("bike", "walk")),
		mcp.WithString("total", mcp.Description("Total used for ranking. Defaults to 'main'."), mcp.Enum("main", "sub")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleScoreNetwork)

	// --- 3. Tool: compute_curves ---
	s.AddTool(mcp.NewTool("compute_curves",
		mcp.WithDescription("Build the city and region bikeability or walkability curves from precomputed paths."),
		mcp.WithString("paths", mcp.Description("Path results JSON file."), mcp.Required()),
		mcp.WithString("costs", mcp.Description("Segment costs CSV file. Without it input_path is scored.")),
		mcp.WithString("input_path", mcp.Description("Segment file to score when no costs file is given.")),
		mcp.WithString("distances", mcp.Description("Straight-line distances CSV file.")),
		mcp.WithString("nodes", mcp.Description("Node coordinates CSV file, used when no distances are given.")),
		mcp.WithString("regions", mcp.Description("Origin/destination region labels CSV file.")),
		mcp.WithString("mode", mcp.Description("Transport mode."), mcp.Enum("bike", "walk")),
	), h.handleComputeCurves)

	// --- 4. Tool: compute_tradeoffs ---
	s.AddTool(mcp.NewTool("compute_tradeoffs",
		mcp.WithDescription("Suppress duplicate curve levels and compute the marginal trade-off rate between the rest."),
		mcp.WithString("rows", mcp.Description(`JSON array of curve rows, e.g. [{"beta": 0, "relative_distance": 1, "relative_discomfort": 2}].`), mcp.Required()),
		mcp.WithNumber("dedupe_precision", mcp.Description("Decimals compared when suppressing duplicates. Defaults to 3.")),
	), h.handleComputeTradeoffs)

	// --- 5. Tool: get_taxonomy ---
	s.AddTool(mcp.NewTool("get_taxonomy",
		mcp.WithDescription("List every variant with its subcomponents, formulas, levels and main components."),
		mcp.WithString("variant", mcp.Description("Only return this variant."), mcp.Enum("CYCLE", "DISMOUNT", "WALK")),
	), h.handleGetTaxonomy)

	// --- 6. Tool: get_weights ---
	s.AddTool(mcp.NewTool("get_weights",
		mcp.WithDescription("Return the active sub weights per variant and main weights per mode."),
	), h.handleGetWeights)

	return s
}

// StartMCPServer starts the Discomfort MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
