// ABOUTME: Tests for table, board and action view models
// ABOUTME: Covers search, pagination, stage grouping, delete tracking and cosmetic delays
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/prefs"
	"github.com/harperreed/dealflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeals() []models.Deal {
	return []models.Deal{
		{ID: 1, ClientName: "Acme", ProductName: "Mortgage", Stage: models.StageLeadGenerated},
		{ID: 2, ClientName: "Globex", ProductName: "Car Loan", Stage: models.StageContacted, Description: "Referred by ACME"},
		{ID: 3, ClientName: "Initech", ProductName: "Credit Card", Stage: models.StageLost},
	}
}

func TestFilterDeals(t *testing.T) {
	deals := sampleDeals()

	assert.Len(t, FilterDeals(deals, ""), 3)
	assert.Len(t, FilterDeals(deals, "   "), 3)

	got := FilterDeals(deals, "acme")
	require.Len(t, got, 2, "matches client name and description")
	assert.Equal(t, models.DealID(1), got[0].ID)
	assert.Equal(t, models.DealID(2), got[1].ID)

	got = FilterDeals(deals, "LOAN")
	require.Len(t, got, 1)
	assert.Equal(t, "Globex", got[0].ClientName)

	got = FilterDeals(deals, "lost")
	require.Len(t, got, 1)

	assert.Empty(t, FilterDeals(deals, "zzz"))
}

func manyDeals(n int) []models.Deal {
	out := make([]models.Deal, n)
	for i := range out {
		out[i] = models.Deal{ID: models.DealID(i + 1), ClientName: fmt.Sprintf("Client %d", i+1), Stage: models.StageContacted}
	}
	return out
}

func TestPaginate(t *testing.T) {
	rows, page := Paginate(manyDeals(23), 1, PageSize)
	assert.Len(t, rows, 10)
	assert.Equal(t, Page{Number: 1, Total: 3, HasPrev: false, HasNext: true}, page)

	rows, page = Paginate(manyDeals(23), 3, PageSize)
	assert.Len(t, rows, 3)
	assert.Equal(t, models.DealID(21), rows[0].ID)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)

	_, page = Paginate(manyDeals(23), 9, PageSize)
	assert.Equal(t, 3, page.Number)

	_, page = Paginate(manyDeals(23), -1, PageSize)
	assert.Equal(t, 1, page.Number)

	rows, page = Paginate(nil, 1, PageSize)
	assert.Empty(t, rows)
	assert.Equal(t, 1, page.Total)
}

func TestGroupByStage(t *testing.T) {
	deals := append(sampleDeals(), models.Deal{ID: 9, Stage: "Won"})
	cols := GroupByStage(deals)

	require.Len(t, cols, 8)
	assert.Equal(t, models.StageLeadGenerated, cols[0].Stage)
	assert.Equal(t, 1, cols[0].Count())
	assert.Equal(t, 1, cols[1].Count())
	assert.Equal(t, 0, cols[2].Count())
	assert.Equal(t, models.StageLost, cols[7].Stage)
	assert.Equal(t, 1, cols[7].Count())

	total := 0
	for _, c := range cols {
		total += c.Count()
	}
	assert.Equal(t, 3, total)
}

func TestTableColumnsAndToggleLabels(t *testing.T) {
	vis := prefs.DefaultColumns()
	vis.Actions = false
	cols := TableColumns(vis)

	require.Len(t, cols, 5)
	assert.Equal(t, "Client Name", cols[0].Label)
	assert.False(t, cols[4].Visible)

	assert.Equal(t, "Hide clientName", ToggleLabel("clientName", true))
	assert.Equal(t, "Show clientName", ToggleLabel("clientName", false))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "3/7/2026", FormatDate("2026-03-07T10:00:00Z"))
	assert.Equal(t, "12/25/2025", FormatDate("2025-12-25"))
	assert.Equal(t, "yesterday", FormatDate("yesterday"))
}

func TestDeleteTracker(t *testing.T) {
	tr := NewDeleteTracker()
	assert.True(t, tr.Begin(1))
	assert.False(t, tr.Begin(1))
	assert.True(t, tr.Begin(2), "deletions of different deals are independent")
	assert.True(t, tr.InFlight(1))

	tr.End(1)
	assert.False(t, tr.InFlight(1))
	assert.True(t, tr.InFlight(2))
}

func TestDeleteConfirmScenario(t *testing.T) {
	gw := gateway.NewMemory(sampleDeals()...)
	s := store.New(gw, nil)
	require.NoError(t, s.FetchDeals(context.Background()))

	actions := NewActions(s, Delays{Delete: 50 * time.Millisecond})

	var wg sync.WaitGroup
	wg.Add(1)
	var deleteErr error
	go func() {
		defer wg.Done()
		deleteErr = actions.Delete(context.Background(), 2)
	}()

	require.Eventually(t, func() bool { return actions.Tracker.InFlight(2) }, time.Second, time.Millisecond)
	_, stillThere := s.Deal(2)
	assert.True(t, stillThere, "deal stays while the delete is pending")

	err := actions.Delete(context.Background(), 2)
	assert.True(t, errors.Is(err, ErrDeleteInFlight))

	wg.Wait()
	require.NoError(t, deleteErr)
	assert.False(t, actions.Tracker.InFlight(2))
	_, stillThere = s.Deal(2)
	assert.False(t, stillThere)
}

func TestCreateValidatesBeforeDelay(t *testing.T) {
	gw := gateway.NewMemory()
	s := store.New(gw, nil)
	actions := NewActions(s, Delays{Create: time.Hour})

	start := time.Now()
	_, err := actions.Create(context.Background(), models.DealDraft{ClientName: "Acme"})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "All fields are required", AlertMessage(err))
	assert.Equal(t, 0, gw.CallCount(gateway.OpCreate))
}

func TestActionsRespectContext(t *testing.T) {
	s := store.New(gateway.NewMemory(sampleDeals()...), nil)
	actions := NewActions(s, DefaultDelays())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := actions.Update(ctx, 1, models.StagePatch(models.StageContacted))
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = actions.Update(context.Background(), 1, models.StagePatch("Won"))
	assert.Equal(t, "Please choose a valid stage", AlertMessage(err))
	assert.Equal(t, "", AlertMessage(errors.New("network")))
}

func TestCreateAndUpdateWithoutDelay(t *testing.T) {
	gw := gateway.NewMemory()
	s := store.New(gw, nil)
	actions := NewActions(s, Delays{})

	deal, err := actions.Create(context.Background(), models.DealDraft{ClientName: "Acme", ProductName: "Loan"})
	require.NoError(t, err)

	updated, err := actions.Update(context.Background(), deal.ID, models.StagePatch(models.StageContacted))
	require.NoError(t, err)
	assert.Equal(t, models.StageContacted, updated.Stage)
}
