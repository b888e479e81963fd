// ABOUTME: MCP server assembly for the deal pipeline
// ABOUTME: Registers deal tools, graph tools, resources and prompts on one server
package handlers

import (
	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server whose tools read and write through s.
// Moves go through e so they get the same policy and rollback as the board.
func NewServer(s *store.Store, e *kanban.Engine, version string) *mcp.Server {
	dealHandlers := NewDealHandlers(s, e)
	vizHandlers := NewVizHandlers(s)
	resourceHandlers := NewResourceHandlers(s)
	promptHandlers := NewPromptHandlers(s)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dealflow",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deals",
		Description: "List deals in the pipeline, optionally filtered by search text or stage",
	}, dealHandlers.ListDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new deal for a client and product",
	}, dealHandlers.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update an existing deal's client, product, stage or description",
	}, dealHandlers.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_deal",
		Description: "Move a deal to another stage the way the kanban board does; over is a stage label or a deal ID",
	}, dealHandlers.MoveDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_deal",
		Description: "Delete a deal",
	}, dealHandlers.DeleteDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_entities",
		Description: "List known clients and products",
	}, dealHandlers.ListEntities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the pipeline or of clients and products",
	}, vizHandlers.GenerateGraph)

	server.AddResource(&mcp.Resource{
		URI:         "dealflow://deals",
		Name:        "deals",
		Description: "All deals as JSON",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "dealflow://pipeline",
		Name:        "pipeline",
		Description: "Deal counts per stage",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "dealflow://deals/{id}",
		Name:        "deal",
		Description: "A single deal by ID",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review where deals sit in the pipeline",
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "deal-analysis",
		Description: "Suggest next steps for one deal",
		Arguments: []*mcp.PromptArgument{
			{Name: "deal_id", Description: "Deal ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}
