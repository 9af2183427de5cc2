package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyrylo/fast-method-source/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for Ruby source lookup",
	Long: `Start the Model Context Protocol (MCP) server that lets coding assistants
fetch the source and comments of Ruby callables in this project.

The MCP server:
- Provides source_for, comment_for and comment_and_source_for
- Provides list_callables to enumerate the definitions in a file
- Drops changed files from its line cache when mcp.watch is enabled
- Communicates via stdio (standard MCP transport)

Example:
  fms mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	projectPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "fms MCP Server\n")
	fmt.Fprintf(os.Stderr, "Project: %s\n", projectPath)
	fmt.Fprintf(os.Stderr, "Watching: %t\n\n", cfg.MCP.Watch)

	server, err := mcp.NewMCPServer(mcp.NewServerConfig(projectPath, cfg), Version)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	// Serve (blocks until shutdown)
	if err := server.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
