// ABOUTME: Tests for deal and entity database operations
// ABOUTME: Covers CRUD, partial updates, not-found handling and YAML seeding
package db

import (
	"errors"
	"testing"

	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListDeals(t *testing.T) {
	db := setupTestDB(t)

	deal, err := CreateDeal(db, models.DealDraft{ClientName: "Acme", ProductName: "Loan"})
	require.NoError(t, err)
	assert.Equal(t, models.DealID(1), deal.ID)
	assert.Equal(t, models.StageLeadGenerated, deal.Stage)
	assert.NotEmpty(t, deal.CreatedAt)

	_, err = CreateDeal(db, models.DealDraft{ClientName: "Globex", ProductName: "Lease", Stage: models.StageLost, Description: "cold"})
	require.NoError(t, err)

	deals, err := ListDeals(db)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "cold", deals[1].Description)

	_, err = CreateDeal(db, models.DealDraft{ClientName: "", ProductName: "Loan"})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestUpdateDealPartial(t *testing.T) {
	db := setupTestDB(t)
	deal, err := CreateDeal(db, models.DealDraft{ClientName: "Acme", ProductName: "Loan", Description: "keep me"})
	require.NoError(t, err)

	updated, err := UpdateDeal(db, deal.ID, models.StagePatch(models.StageContacted))
	require.NoError(t, err)
	assert.Equal(t, models.StageContacted, updated.Stage)
	assert.Equal(t, "Acme", updated.ClientName)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, deal.CreatedAt, updated.CreatedAt)

	_, err = UpdateDeal(db, deal.ID, models.StagePatch("Won"))
	assert.True(t, errors.Is(err, models.ErrInvalidStage))

	_, err = UpdateDeal(db, 404, models.StagePatch(models.StageLost))
	assert.True(t, errors.Is(err, models.ErrNotFound))

	same, err := UpdateDeal(db, deal.ID, models.DealPatch{})
	require.NoError(t, err)
	assert.Equal(t, updated, same)
}

func TestDeleteDeal(t *testing.T) {
	db := setupTestDB(t)
	deal, err := CreateDeal(db, models.DealDraft{ClientName: "Acme", ProductName: "Loan"})
	require.NoError(t, err)

	require.NoError(t, DeleteDeal(db, deal.ID))
	_, err = GetDeal(db, deal.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.True(t, errors.Is(DeleteDeal(db, deal.ID), models.ErrNotFound))
}

func TestEntities(t *testing.T) {
	db := setupTestDB(t)

	id1, err := UpsertEntity(db, "Acme", models.EntityClient)
	require.NoError(t, err)
	id2, err := UpsertEntity(db, "Acme", models.EntityClient)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	_, err = UpsertEntity(db, "Acme", models.EntityProduct)
	require.NoError(t, err)
	_, err = UpsertEntity(db, "Widget", "vendor")
	assert.Error(t, err)

	entities, err := ListEntities(db)
	require.NoError(t, err)
	assert.Len(t, entities, 2)
}

func TestSeed(t *testing.T) {
	db := setupTestDB(t)

	seed, err := ParseSeed([]byte(`
clients: [Acme, Globex]
products: [Mortgage]
deals:
  - client: Acme
    product: Mortgage
    stage: Contacted
  - client: Initech
    product: Credit Card
`))
	require.NoError(t, err)

	res, err := ApplySeed(db, seed)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Clients)
	assert.Equal(t, 2, res.Products)
	assert.Equal(t, 2, res.Deals)

	deals, err := ListDeals(db)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, models.StageContacted, deals[0].Stage)
	assert.Equal(t, models.StageLeadGenerated, deals[1].Stage)

	_, err = ParseSeed([]byte("deals:\n  - client: Acme\n    product: Loan\n    stage: Won\n"))
	assert.True(t, errors.Is(err, models.ErrInvalidStage))
}
