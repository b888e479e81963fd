// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements list, create, update, move and delete tools over the deal store
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DealHandlers struct {
	store  *store.Store
	engine *kanban.Engine
}

func NewDealHandlers(s *store.Store, e *kanban.Engine) *DealHandlers {
	return &DealHandlers{store: s, engine: e}
}

type DealOutput struct {
	ID          int64  `json:"id"`
	ClientName  string `json:"client_name"`
	ProductName string `json:"product_name"`
	Stage       string `json:"stage"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func dealToOutput(d models.Deal) DealOutput {
	return DealOutput{
		ID:          int64(d.ID),
		ClientName:  d.ClientName,
		ProductName: d.ProductName,
		Stage:       d.Stage.String(),
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}

type ListDealsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive search over client, product, stage and description"`
	Stage string `json:"stage,omitempty" jsonschema:"Only return deals in this stage"`
}

type ListDealsOutput struct {
	Deals []DealOutput `json:"deals"`
	Count int          `json:"count"`
}

func (h *DealHandlers) ListDeals(ctx context.Context, _ *mcp.CallToolRequest, input ListDealsInput) (*mcp.CallToolResult, ListDealsOutput, error) {
	var stage models.Stage
	if input.Stage != "" {
		s, err := models.ParseStage(input.Stage)
		if err != nil {
			return nil, ListDealsOutput{}, invalidStage(input.Stage)
		}
		stage = s
	}

	if err := h.store.FetchDeals(ctx); err != nil {
		return nil, ListDealsOutput{}, fmt.Errorf("failed to fetch deals: %w", err)
	}

	out := ListDealsOutput{Deals: []DealOutput{}}
	for _, d := range views.FilterDeals(h.store.Deals(), input.Query) {
		if stage != "" && d.Stage != stage {
			continue
		}
		out.Deals = append(out.Deals, dealToOutput(d))
	}
	out.Count = len(out.Deals)
	return nil, out, nil
}

type CreateDealInput struct {
	ClientName  string `json:"client_name" jsonschema:"Client name (required)"`
	ProductName string `json:"product_name" jsonschema:"Product name (required)"`
	Stage       string `json:"stage,omitempty" jsonschema:"Pipeline stage (default Lead Generated)"`
	Description string `json:"description,omitempty" jsonschema:"Free-form notes"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.ClientName == "" {
		return nil, DealOutput{}, fmt.Errorf("client_name is required")
	}
	if input.ProductName == "" {
		return nil, DealOutput{}, fmt.Errorf("product_name is required")
	}

	draft := models.DealDraft{
		ClientName:  input.ClientName,
		ProductName: input.ProductName,
		Stage:       models.Stage(input.Stage),
		Description: input.Description,
	}
	deal, err := h.store.AddDeal(ctx, draft)
	if err != nil {
		if errors.Is(err, models.ErrInvalidStage) {
			return nil, DealOutput{}, invalidStage(input.Stage)
		}
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return nil, dealToOutput(deal), nil
}

type UpdateDealInput struct {
	ID          int64   `json:"id" jsonschema:"Deal ID (required)"`
	ClientName  *string `json:"client_name,omitempty" jsonschema:"New client name"`
	ProductName *string `json:"product_name,omitempty" jsonschema:"New product name"`
	Stage       *string `json:"stage,omitempty" jsonschema:"New pipeline stage"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
}

func (h *DealHandlers) UpdateDeal(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.ID == 0 {
		return nil, DealOutput{}, fmt.Errorf("id is required")
	}

	patch := models.DealPatch{
		ClientName:  input.ClientName,
		ProductName: input.ProductName,
		Description: input.Description,
	}
	if input.Stage != nil {
		stage := models.Stage(*input.Stage)
		patch.Stage = &stage
	}
	if patch.IsEmpty() {
		return nil, DealOutput{}, fmt.Errorf("nothing to update")
	}

	deal, err := h.store.UpdateDeal(ctx, models.DealID(input.ID), patch)
	if err != nil {
		if errors.Is(err, models.ErrInvalidStage) {
			return nil, DealOutput{}, invalidStage(*input.Stage)
		}
		return nil, DealOutput{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return nil, dealToOutput(deal), nil
}

type MoveDealInput struct {
	ID   string `json:"id" jsonschema:"ID of the deal to move (required)"`
	Over string `json:"over" jsonschema:"Drop target: a stage label, or the ID of a deal already in the target stage"`
}

type MoveDealOutput struct {
	Outcome    string `json:"outcome"`
	GestureID  string `json:"gesture_id"`
	DealID     int64  `json:"deal_id,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	RolledBack bool   `json:"rolled_back"`
}

// MoveDeal drops a deal on a target exactly as the board does and waits for
// the server to confirm or reject the move.
func (h *DealHandlers) MoveDeal(ctx context.Context, _ *mcp.CallToolRequest, input MoveDealInput) (*mcp.CallToolResult, MoveDealOutput, error) {
	if input.ID == "" {
		return nil, MoveDealOutput{}, fmt.Errorf("id is required")
	}
	if input.Over == "" {
		return nil, MoveDealOutput{}, fmt.Errorf("over is required")
	}

	if err := h.store.FetchDeals(ctx); err != nil {
		return nil, MoveDealOutput{}, fmt.Errorf("failed to fetch deals: %w", err)
	}

	res := h.engine.HandleDragEnd(ctx, kanban.Drop(input.ID, input.Over))
	out := MoveDealOutput{
		Outcome:   res.Outcome.String(),
		GestureID: res.GestureID,
		DealID:    int64(res.DealID),
		From:      res.From.String(),
		To:        res.To.String(),
	}

	switch res.Outcome {
	case kanban.OutcomeUnknownDeal:
		return nil, out, fmt.Errorf("deal %s not found", input.ID)
	case kanban.OutcomeUnresolved:
		return nil, out, fmt.Errorf("drop target %q is neither a stage nor a deal", input.Over)
	case kanban.OutcomeRejected:
		return nil, out, fmt.Errorf("moving from %s to %s is not allowed by the %s policy", res.From, res.To, h.engine.Policy().Name())
	case kanban.OutcomeMoved:
		err := res.Pending.Wait()
		out.RolledBack = res.Pending.RolledBack()
		if err != nil {
			return nil, out, fmt.Errorf("failed to move deal: %w", err)
		}
	}
	return nil, out, nil
}

type DeleteDealInput struct {
	ID int64 `json:"id" jsonschema:"Deal ID (required)"`
}

type DeleteDealOutput struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

func (h *DealHandlers) DeleteDeal(ctx context.Context, _ *mcp.CallToolRequest, input DeleteDealInput) (*mcp.CallToolResult, DeleteDealOutput, error) {
	if input.ID == 0 {
		return nil, DeleteDealOutput{}, fmt.Errorf("id is required")
	}
	if err := h.store.DeleteDeal(ctx, models.DealID(input.ID)); err != nil {
		return nil, DeleteDealOutput{ID: input.ID}, fmt.Errorf("failed to delete deal: %w", err)
	}
	return nil, DeleteDealOutput{ID: input.ID, Deleted: true}, nil
}

type ListEntitiesInput struct{}

type EntityOutput struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ListEntitiesOutput struct {
	Clients  []EntityOutput `json:"clients"`
	Products []EntityOutput `json:"products"`
}

func (h *DealHandlers) ListEntities(ctx context.Context, _ *mcp.CallToolRequest, _ ListEntitiesInput) (*mcp.CallToolResult, ListEntitiesOutput, error) {
	if err := h.store.FetchEntities(ctx); err != nil {
		return nil, ListEntitiesOutput{}, fmt.Errorf("failed to fetch entities: %w", err)
	}

	st := h.store.Snapshot()
	out := ListEntitiesOutput{Clients: []EntityOutput{}, Products: []EntityOutput{}}
	for _, c := range st.Clients {
		out.Clients = append(out.Clients, EntityOutput{ID: c.ID, Name: c.Name})
	}
	for _, p := range st.Products {
		out.Products = append(out.Products, EntityOutput{ID: p.ID, Name: p.Name})
	}
	return nil, out, nil
}

func invalidStage(stage string) error {
	return fmt.Errorf("invalid stage: %s (valid: %s)", stage, stageList())
}

func stageList() string {
	var out string
	for i, s := range models.Stages() {
		if i > 0 {
			out += ", "
		}
		out += s.String()
	}
	return out
}
