package cmd

import (
	"github.com/huangsam/discomfort/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Discomfort MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents score segments, inspect the
taxonomy and weights, and compute trade-off curves via standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
