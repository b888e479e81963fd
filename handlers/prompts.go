// ABOUTME: MCP prompt handlers for reusable pipeline workflow templates
// ABOUTME: Provides pipeline-review and deal-analysis prompts built from live deal data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	store *store.Store
}

func NewPromptHandlers(s *store.Store) *PromptHandlers {
	return &PromptHandlers{store: s}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	if err := h.store.FetchDeals(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}

	switch request.Params.Name {
	case "pipeline-review":
		return h.getPipelineReviewPrompt()
	case "deal-analysis":
		return h.getDealAnalysisPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getPipelineReviewPrompt() (*mcp.GetPromptResult, error) {
	deals := h.store.Deals()
	counts := viz.StageCounts(deals)

	var promptText strings.Builder
	promptText.WriteString("Please review the current deal pipeline:\n\n")
	promptText.WriteString(fmt.Sprintf("Total Deals: %d\n\n", len(deals)))
	promptText.WriteString("Deals by Stage:\n")
	for _, stage := range models.Stages() {
		promptText.WriteString(fmt.Sprintf("  - %s: %d\n", stage, counts[stage]))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Where deals are piling up")
	promptText.WriteString("\n2. Which clients should be contacted next")

	return userPrompt("Deal pipeline review", promptText.String()), nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	idStr, ok := args["deal_id"]
	if !ok {
		return nil, fmt.Errorf("deal_id is required")
	}
	id, err := models.ParseDealID(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid deal_id: %w", err)
	}
	deal, ok := h.store.Deal(id)
	if !ok {
		return nil, fmt.Errorf("deal %s not found", id)
	}

	var promptText strings.Builder
	promptText.WriteString("Please analyze this deal:\n\n")
	promptText.WriteString(fmt.Sprintf("Client: %s\n", deal.ClientName))
	promptText.WriteString(fmt.Sprintf("Product: %s\n", deal.ProductName))
	promptText.WriteString(fmt.Sprintf("Stage: %s (%d of %d)\n", deal.Stage, deal.Stage.Index()+1, len(models.Stages())))
	promptText.WriteString(fmt.Sprintf("Created: %s\n", deal.CreatedAt))
	if deal.Description != "" {
		promptText.WriteString(fmt.Sprintf("Notes: %s\n", deal.Description))
	}
	promptText.WriteString("\nSuggest the next step to move it forward.")

	return userPrompt(fmt.Sprintf("Analysis for deal %s", deal.ID), promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
