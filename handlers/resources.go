// ABOUTME: MCP resource handlers for exposing pipeline data
// ABOUTME: Provides read-only access to deals and stage counts via dealflow:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "dealflow://"

type ResourceHandlers struct {
	store *store.Store
}

func NewResourceHandlers(s *store.Store) *ResourceHandlers {
	return &ResourceHandlers{store: s}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	if err := h.store.FetchDeals(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "deals":
		if len(parts) == 1 || parts[1] == "" {
			return jsonResource(uri, h.store.Deals())
		}
		return h.readDeal(uri, parts[1])
	case "pipeline":
		return h.readPipeline(uri)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readDeal(uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := models.ParseDealID(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid deal ID: %w", err)
	}
	deal, ok := h.store.Deal(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, deal)
}

type pipelineStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

func (h *ResourceHandlers) readPipeline(uri string) (*mcp.ReadResourceResult, error) {
	counts := viz.StageCounts(h.store.Deals())
	pipeline := make([]pipelineStage, 0, len(counts))
	for _, stage := range models.Stages() {
		pipeline = append(pipeline, pipelineStage{Stage: stage.String(), Count: counts[stage]})
	}
	return jsonResource(uri, pipeline)
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
