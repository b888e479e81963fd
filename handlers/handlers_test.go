// ABOUTME: Tests for deal MCP tool handlers
// ABOUTME: Validates tool input/output, drag-engine moves and a full client session
package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*store.Store, *kanban.Engine, *gateway.Memory) {
	t.Helper()
	gw := gateway.NewMemory(
		models.Deal{ID: 1, ClientName: "Acme", ProductName: "Mortgage", Stage: models.StageLeadGenerated, CreatedAt: "2026-02-01T00:00:00Z"},
		models.Deal{ID: 2, ClientName: "Globex", ProductName: "Loan", Stage: models.StageContacted, CreatedAt: "2026-02-02T00:00:00Z"},
	)
	gw.SetEntities([]models.Entity{
		{ID: 1, Name: "Acme", Type: models.EntityClient},
		{ID: 2, Name: "Mortgage", Type: models.EntityProduct},
	})
	s := store.New(gw, nil)
	return s, kanban.NewEngine(s, kanban.Quiet()), gw
}

func TestListDeals(t *testing.T) {
	s, e, _ := setupTestStore(t)
	h := NewDealHandlers(s, e)
	ctx := context.Background()

	_, out, err := h.ListDeals(ctx, nil, ListDealsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	_, out, err = h.ListDeals(ctx, nil, ListDealsInput{Query: "glob"})
	require.NoError(t, err)
	require.Len(t, out.Deals, 1)
	assert.Equal(t, "Globex", out.Deals[0].ClientName)

	_, out, err = h.ListDeals(ctx, nil, ListDealsInput{Stage: "Lead Generated"})
	require.NoError(t, err)
	require.Len(t, out.Deals, 1)
	assert.Equal(t, int64(1), out.Deals[0].ID)

	_, _, err = h.ListDeals(ctx, nil, ListDealsInput{Stage: "Won"})
	assert.ErrorContains(t, err, "invalid stage")
}

func TestCreateDeal(t *testing.T) {
	s, e, gw := setupTestStore(t)
	h := NewDealHandlers(s, e)
	ctx := context.Background()

	_, out, err := h.CreateDeal(ctx, nil, CreateDealInput{ClientName: "Initech", ProductName: "Card"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.ID)
	assert.Equal(t, models.StageLeadGenerated.String(), out.Stage)
	assert.NotEmpty(t, out.CreatedAt)

	_, _, err = h.CreateDeal(ctx, nil, CreateDealInput{ProductName: "Card"})
	assert.ErrorContains(t, err, "client_name is required")

	before := gw.CallCount(gateway.OpCreate)
	_, _, err = h.CreateDeal(ctx, nil, CreateDealInput{ClientName: "A", ProductName: "B", Stage: "Won"})
	assert.ErrorContains(t, err, "invalid stage")
	assert.Equal(t, before, gw.CallCount(gateway.OpCreate))
}

func TestUpdateDeal(t *testing.T) {
	s, e, _ := setupTestStore(t)
	h := NewDealHandlers(s, e)
	ctx := context.Background()
	require.NoError(t, s.FetchDeals(ctx))

	stage := "Deal Finalized"
	desc := "signed"
	_, out, err := h.UpdateDeal(ctx, nil, UpdateDealInput{ID: 1, Stage: &stage, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, stage, out.Stage)
	assert.Equal(t, "signed", out.Description)
	assert.Equal(t, "Acme", out.ClientName)

	_, _, err = h.UpdateDeal(ctx, nil, UpdateDealInput{ID: 1})
	assert.ErrorContains(t, err, "nothing to update")

	_, _, err = h.UpdateDeal(ctx, nil, UpdateDealInput{Stage: &stage})
	assert.ErrorContains(t, err, "id is required")
}

func TestMoveDeal(t *testing.T) {
	s, e, gw := setupTestStore(t)
	h := NewDealHandlers(s, e)
	ctx := context.Background()

	// Dropping on another card resolves to that card's column.
	_, out, err := h.MoveDeal(ctx, nil, MoveDealInput{ID: "1", Over: "2"})
	require.NoError(t, err)
	assert.Equal(t, "moved", out.Outcome)
	assert.Equal(t, models.StageContacted.String(), out.To)
	assert.False(t, out.RolledBack)
	server, _ := gw.Deal(1)
	assert.Equal(t, models.StageContacted, server.Stage)

	_, out, err = h.MoveDeal(ctx, nil, MoveDealInput{ID: "1", Over: "Contacted"})
	require.NoError(t, err)
	assert.Equal(t, "same_stage", out.Outcome)

	_, _, err = h.MoveDeal(ctx, nil, MoveDealInput{ID: "9", Over: "Lost"})
	assert.ErrorContains(t, err, "not found")

	_, _, err = h.MoveDeal(ctx, nil, MoveDealInput{ID: "1", Over: "nowhere"})
	assert.ErrorContains(t, err, "neither a stage nor a deal")
}

func TestMoveDealRollsBackOnFailure(t *testing.T) {
	s, e, gw := setupTestStore(t)
	h := NewDealHandlers(s, e)
	gw.Fail(gateway.OpUpdate, nil)

	_, out, err := h.MoveDeal(context.Background(), nil, MoveDealInput{ID: "1", Over: "Completed"})
	require.Error(t, err)
	assert.True(t, out.RolledBack)

	d, ok := s.Deal(1)
	require.True(t, ok)
	assert.Equal(t, models.StageLeadGenerated, d.Stage)
	require.Len(t, s.Notifications(), 1)
	assert.Contains(t, s.Notifications()[0].Message, "reverted to Lead Generated")
}

func TestMoveDealForwardOnlyPolicy(t *testing.T) {
	s, _, _ := setupTestStore(t)
	h := NewDealHandlers(s, kanban.NewEngine(s, kanban.Quiet(), kanban.WithPolicy(kanban.ForwardOnly)))

	_, out, err := h.MoveDeal(context.Background(), nil, MoveDealInput{ID: "2", Over: "Lead Generated"})
	assert.ErrorContains(t, err, "forward policy")
	assert.Equal(t, "rejected", out.Outcome)
}

func TestDeleteDeal(t *testing.T) {
	s, e, gw := setupTestStore(t)
	h := NewDealHandlers(s, e)
	ctx := context.Background()

	_, out, err := h.DeleteDeal(ctx, nil, DeleteDealInput{ID: 2})
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	_, ok := gw.Deal(2)
	assert.False(t, ok)

	_, out, err = h.DeleteDeal(ctx, nil, DeleteDealInput{ID: 2})
	assert.Error(t, err)
	assert.False(t, out.Deleted)
}

func TestListEntities(t *testing.T) {
	s, e, _ := setupTestStore(t)
	h := NewDealHandlers(s, e)

	_, out, err := h.ListEntities(context.Background(), nil, ListEntitiesInput{})
	require.NoError(t, err)
	require.Len(t, out.Clients, 1)
	require.Len(t, out.Products, 1)
	assert.Equal(t, "Mortgage", out.Products[0].Name)
}

func TestGenerateGraph(t *testing.T) {
	s, _, _ := setupTestStore(t)
	h := NewVizHandlers(s)

	_, out, err := h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "pipeline"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Contacted (1)")
	assert.Positive(t, out.EdgeCount)

	_, _, err = h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "contacts"})
	assert.ErrorContains(t, err, "unknown graph type")
}

func TestReadResource(t *testing.T) {
	s, _, _ := setupTestStore(t)
	h := NewResourceHandlers(s)
	ctx := context.Background()

	res, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "dealflow://deals/2"}})
	require.NoError(t, err)
	var deal models.Deal
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &deal))
	assert.Equal(t, "Globex", deal.ClientName)

	res, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "dealflow://pipeline"}})
	require.NoError(t, err)
	var pipeline []pipelineStage
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &pipeline))
	require.Len(t, pipeline, len(models.Stages()))
	assert.Equal(t, 1, pipeline[0].Count)

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "dealflow://deals/99"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://deals"}})
	assert.Error(t, err)
}

func TestGetPrompt(t *testing.T) {
	s, _, _ := setupTestStore(t)
	h := NewPromptHandlers(s)
	ctx := context.Background()

	res, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "deal-analysis",
		Arguments: map[string]string{"deal_id": "1"},
	}})
	require.NoError(t, err)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Client: Acme")
	assert.Contains(t, text, "Stage: Lead Generated (1 of 8)")

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "deal-analysis"}})
	assert.ErrorContains(t, err, "deal_id is required")
}

func TestServerSession(t *testing.T) {
	s, e, _ := setupTestStore(t)
	server := NewServer(s, e, "test")
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{"list_deals", "create_deal", "update_deal", "move_deal", "delete_deal", "list_entities"} {
		assert.Contains(t, names, want)
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "move_deal",
		Arguments: map[string]any{"id": "1", "over": "Contacted"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	d, _ := s.Deal(1)
	assert.Equal(t, models.StageContacted, d.Stage)
}
