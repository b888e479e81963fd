// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	store *store.Store
}

func NewVizHandlers(s *store.Store) *VizHandlers {
	return &VizHandlers{store: s}
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: pipeline or clients"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	if err := h.store.FetchDeals(ctx); err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to fetch deals: %w", err)
	}
	deals := h.store.Deals()

	var dot string
	var err error
	switch input.Type {
	case "pipeline":
		dot, err = viz.GeneratePipelineGraph(deals)
	case "clients":
		dot, err = viz.GenerateClientGraph(deals)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, clients)", input.Type)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}
