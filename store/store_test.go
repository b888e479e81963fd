// ABOUTME: Tests for the deal store
// ABOUTME: Uses the in-memory gateway to cover fetch, CRUD, tombstones, prefs and notifications
package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDeals() []models.Deal {
	return []models.Deal{
		{ID: 1, ClientName: "Acme", ProductName: "Loan", Stage: models.StageLeadGenerated, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: 2, ClientName: "Globex", ProductName: "Lease", Stage: models.StageContacted, CreatedAt: "2026-01-02T00:00:00Z"},
	}
}

func newTestStore(t *testing.T) (*Store, *gateway.Memory) {
	t.Helper()
	gw := gateway.NewMemory(seedDeals()...)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return New(gw, nil, WithClock(func() time.Time { return fixed })), gw
}

func TestFetchDeals(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.FetchDeals(context.Background()))

	st := s.Snapshot()
	assert.Len(t, st.Deals, 2)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestFetchDealsFailure(t *testing.T) {
	s, gw := newTestStore(t)
	require.NoError(t, s.FetchDeals(context.Background()))

	gw.Fail(gateway.OpList, errors.New("network down"))
	err := s.FetchDeals(context.Background())
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, "Failed to fetch deals", st.Error)
	assert.Empty(t, st.Deals)
	assert.NotNil(t, st.Deals)
	assert.False(t, st.Loading)
}

func TestFetchDealsSetsLoadingWhileInFlight(t *testing.T) {
	s, _ := newTestStore(t)

	var mu sync.Mutex
	var seen []bool
	unsubscribe := s.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, st.Loading)
		mu.Unlock()
	})
	defer unsubscribe()

	require.NoError(t, s.FetchDeals(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(seen), 2)
	assert.True(t, seen[0])
	assert.False(t, seen[len(seen)-1])
}

func TestFetchEntitiesFailureKeepsLists(t *testing.T) {
	s, gw := newTestStore(t)
	gw.SetEntities([]models.Entity{
		{ID: 1, Name: "Acme", Type: models.EntityClient},
		{ID: 2, Name: "Loan", Type: models.EntityProduct},
	})
	require.NoError(t, s.FetchEntities(context.Background()))

	gw.Fail(gateway.OpEntities, nil)
	require.Error(t, s.FetchEntities(context.Background()))

	st := s.Snapshot()
	assert.Equal(t, ErrMsgFetchEntities, st.Error)
	assert.Len(t, st.Clients, 1)
	assert.Len(t, st.Products, 1)
}

func TestAddDeal(t *testing.T) {
	s, gw := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.FetchDeals(ctx))

	deal, err := s.AddDeal(ctx, models.DealDraft{ClientName: "Initech", ProductName: "Card"})
	require.NoError(t, err)
	assert.Equal(t, models.DealID(3), deal.ID)
	assert.Equal(t, models.StageLeadGenerated, deal.Stage)
	assert.Equal(t, "2026-05-01T09:00:00Z", deal.CreatedAt)
	assert.Len(t, s.Deals(), 3)

	// Validation failures never reach the gateway or the shared error.
	_, err = s.AddDeal(ctx, models.DealDraft{ClientName: "Initech"})
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Empty(t, s.Snapshot().Error)
	assert.Equal(t, 1, gw.CallCount(gateway.OpCreate))

	gw.Fail(gateway.OpCreate, nil)
	_, err = s.AddDeal(ctx, models.DealDraft{ClientName: "Hooli", ProductName: "Loan"})
	require.Error(t, err)
	assert.Equal(t, "Failed to add deal", s.Snapshot().Error)
	assert.Len(t, s.Deals(), 3)
}

func TestUpdateDeal(t *testing.T) {
	s, gw := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.FetchDeals(ctx))

	name := "Acme Corp"
	updated, err := s.UpdateDeal(ctx, 1, models.DealPatch{ClientName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.ClientName)

	d, ok := s.Deal(1)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", d.ClientName)

	gw.Fail(gateway.OpUpdate, nil)
	_, err = s.UpdateDeal(ctx, 1, models.StagePatch(models.StageLost))
	require.Error(t, err)
	assert.Equal(t, "Failed to update deal", s.Snapshot().Error)
}

func TestUpdateDealRejectsInvalidStage(t *testing.T) {
	s, gw := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.FetchDeals(ctx))

	_, err := s.UpdateDeal(ctx, 1, models.StagePatch("Won"))
	assert.True(t, errors.Is(err, models.ErrInvalidStage))
	assert.Equal(t, 0, gw.CallCount(gateway.OpUpdate))
	assert.Empty(t, s.Snapshot().Error)

	d, _ := s.Deal(1)
	assert.Equal(t, models.StageLeadGenerated, d.Stage)
}

func TestDeleteDealTombstones(t *testing.T) {
	s, gw := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.FetchDeals(ctx))

	require.NoError(t, s.DeleteDeal(ctx, 1))
	_, ok := s.Deal(1)
	assert.False(t, ok)
	assert.True(t, s.IsDeleted(1))

	// A stale optimistic write cannot bring the deal back.
	s.ReplaceDeals(func(deals []models.Deal) []models.Deal {
		return append(deals, seedDeals()[0])
	})
	_, ok = s.Deal(1)
	assert.False(t, ok)

	gw.Fail(gateway.OpDelete, nil)
	require.Error(t, s.DeleteDeal(ctx, 2))
	assert.Equal(t, "Failed to delete deal", s.Snapshot().Error)
	_, ok = s.Deal(2)
	assert.True(t, ok)
}

// lateGateway answers updates only once released, whatever the server state.
type lateGateway struct {
	*gateway.Memory
	release chan struct{}
}

func (g *lateGateway) UpdateDeal(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error) {
	<-g.release
	return models.Deal{ID: id, ClientName: "Globex", ProductName: "Lease", Stage: *patch.Stage}, nil
}

func TestLateUpdateAfterDeleteIsDropped(t *testing.T) {
	gw := &lateGateway{Memory: gateway.NewMemory(seedDeals()...), release: make(chan struct{})}
	s := New(gw, nil)
	ctx := context.Background()
	require.NoError(t, s.FetchDeals(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := s.UpdateDeal(ctx, 2, models.StagePatch(models.StageCompleted))
		done <- err
	}()

	require.NoError(t, s.DeleteDeal(ctx, 2))
	close(gw.release)
	require.NoError(t, <-done)

	_, ok := s.Deal(2)
	assert.False(t, ok, "deleted deal must not reappear")

	// Refetching cannot resurrect it either, even if the server still lists it.
	s.ReplaceDeals(func(deals []models.Deal) []models.Deal { return append(deals, seedDeals()[1]) })
	_, ok = s.Deal(2)
	assert.False(t, ok)
}

func TestCompareAndSetStage(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.FetchDeals(context.Background()))

	assert.False(t, s.CompareAndSetStage(1, models.StageContacted, models.StageLost))
	assert.True(t, s.CompareAndSetStage(1, models.StageLeadGenerated, models.StageLost))
	d, _ := s.Deal(1)
	assert.Equal(t, models.StageLost, d.Stage)

	assert.False(t, s.SetDealStage(99, models.StageLost))
}

func TestErrorHelpers(t *testing.T) {
	s, gw := newTestStore(t)
	gw.Fail(gateway.OpDelete, nil)
	_ = s.DeleteDeal(context.Background(), 1)

	assert.False(t, s.ClearErrorIf(ErrMsgUpdateDeal))
	assert.Equal(t, ErrMsgDeleteDeal, s.Snapshot().Error)
	assert.True(t, s.ClearErrorIf(ErrMsgDeleteDeal))
	assert.Empty(t, s.Snapshot().Error)
}

func TestNotifications(t *testing.T) {
	s, _ := newTestStore(t)
	first := s.Notify("one")
	s.Notify("two")
	require.Len(t, s.Notifications(), 2)

	s.DismissNotification(first)
	notes := s.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "two", notes[0].Message)
}

func TestPreferenceSettersPersist(t *testing.T) {
	ctx := context.Background()
	storage := prefs.NewMemoryStorage()
	s := New(gateway.NewMemory(), prefs.NewManager(storage))

	require.NoError(t, s.SetCurrentView(ctx, prefs.ViewKanban))
	require.NoError(t, s.SetColumnVisible(ctx, "createdAt", false))
	require.NoError(t, s.SetKanbanMetadataVisible(ctx, "productName", false))
	require.NoError(t, s.SetTheme(ctx, prefs.ThemeDark))

	err := s.SetColumnVisible(ctx, "nope", false)
	assert.True(t, errors.Is(err, prefs.ErrUnknownField))

	// Setting the same value again must not write.
	writes := storage.Writes()
	require.NoError(t, s.SetCurrentView(ctx, prefs.ViewKanban))
	assert.Equal(t, writes, storage.Writes())

	// A new store over the same storage sees the saved state.
	reloaded := New(gateway.NewMemory(), prefs.NewManager(storage)).Prefs()
	assert.Equal(t, prefs.ViewKanban, reloaded.View)
	assert.False(t, reloaded.Columns.CreatedAt)
	assert.False(t, reloaded.Kanban.ProductName)
	assert.Equal(t, prefs.ThemeDark, reloaded.Theme)
}

func TestConcurrentToggleKeepsEveryField(t *testing.T) {
	ctx := context.Background()
	storage := prefs.NewMemoryStorage()
	s := New(gateway.NewMemory(), prefs.NewManager(storage))

	var wg sync.WaitGroup
	for _, field := range prefs.DefaultColumns().Fields() {
		wg.Add(1)
		go func(field string) {
			defer wg.Done()
			assert.NoError(t, s.SetColumnVisible(ctx, field, false))
		}(field)
	}
	for _, field := range prefs.DefaultKanbanMetadata().Fields() {
		wg.Add(1)
		go func(field string) {
			defer wg.Done()
			assert.NoError(t, s.SetKanbanMetadataVisible(ctx, field, false))
		}(field)
	}
	wg.Wait()

	saved := prefs.NewManager(storage).Load(ctx)
	assert.Equal(t, prefs.ColumnVisibility{}, saved.Columns)
	assert.Equal(t, prefs.KanbanMetadata{}, saved.Kanban)
	assert.Equal(t, saved.Columns, s.Prefs().Columns)
	assert.Equal(t, saved.Kanban, s.Prefs().Kanban)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.FetchDeals(context.Background()))

	snap := s.Snapshot()
	snap.Deals[0].Stage = models.StageLost

	d, _ := s.Deal(1)
	assert.Equal(t, models.StageLeadGenerated, d.Stage)
}
