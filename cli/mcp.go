// ABOUTME: MCP server subcommand
// ABOUTME: Starts the deal pipeline MCP server on stdio
package cli

import (
	"context"
	"log"

	"github.com/harperreed/dealflow/handlers"
	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, s *store.Store, e *kanban.Engine, version string) error {
	log.Println("Starting dealflow MCP Server...")

	server := handlers.NewServer(s, e, version)
	err := server.Run(ctx, &mcp.StdioTransport{})

	// Let in-flight moves finish before the process exits.
	e.Wait()
	return err
}
