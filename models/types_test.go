// ABOUTME: Tests for deal pipeline data models
// ABOUTME: Covers stage ordering, ID normalization, draft validation and patches
package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagesOrder(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 8)
	assert.Equal(t, StageLeadGenerated, stages[0])
	assert.Equal(t, StageLost, stages[7])

	for i, s := range stages {
		if s.Index() != i {
			t.Errorf("expected %s at index %d, got %d", s, i, s.Index())
		}
	}

	// Callers cannot reorder the pipeline through the returned slice.
	stages[0] = StageLost
	assert.Equal(t, StageLeadGenerated, Stages()[0])
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("Application Under Review")
	require.NoError(t, err)
	assert.Equal(t, StageApplicationUnderReview, s)

	for _, bad := range []string{"", "contacted", "Won", " Contacted"} {
		_, err := ParseStage(bad)
		if !errors.Is(err, ErrInvalidStage) {
			t.Errorf("expected ErrInvalidStage for %q, got %v", bad, err)
		}
	}
	assert.Equal(t, -1, Stage("Won").Index())
}

func TestDealIDCanonicalForm(t *testing.T) {
	id := DealID(42)
	assert.Equal(t, "42", id.String())
	assert.True(t, id.Matches("42"))
	assert.True(t, id.Matches(" 42 "))
	assert.False(t, id.Matches("42a"))
	assert.False(t, id.Matches("Contacted"))
	assert.False(t, id.Matches("43"))

	parsed, err := ParseDealID("7")
	require.NoError(t, err)
	assert.Equal(t, DealID(7), parsed)

	_, err = ParseDealID("seven")
	assert.Error(t, err)
}

func TestDealDraftPrepare(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	draft := DealDraft{ClientName: "  Acme ", ProductName: "Loan"}
	require.NoError(t, draft.Prepare(now))
	assert.Equal(t, "Acme", draft.ClientName)
	assert.Equal(t, StageLeadGenerated, draft.Stage)
	assert.Equal(t, "2026-03-01T12:00:00Z", draft.CreatedAt)

	missing := DealDraft{ClientName: "Acme", ProductName: "   "}
	err := missing.Prepare(now)
	assert.True(t, errors.Is(err, ErrValidation))

	badStage := DealDraft{ClientName: "Acme", ProductName: "Loan", Stage: "Won"}
	err = badStage.Prepare(now)
	assert.True(t, errors.Is(err, ErrInvalidStage))
}

func TestDealPatch(t *testing.T) {
	deal := Deal{ID: 1, ClientName: "Acme", ProductName: "Loan", Stage: StageLeadGenerated}

	patch := StagePatch(StageContacted)
	require.NoError(t, patch.Validate())
	moved := deal.Apply(patch)
	assert.Equal(t, StageContacted, moved.Stage)
	assert.Equal(t, StageLeadGenerated, deal.Stage, "Apply must not mutate the receiver")

	assert.True(t, DealPatch{}.IsEmpty())
	assert.False(t, patch.IsEmpty())

	invalid := StagePatch("Won")
	assert.True(t, errors.Is(invalid.Validate(), ErrInvalidStage))

	blank := ""
	assert.True(t, errors.Is(DealPatch{ClientName: &blank}.Validate(), ErrValidation))
}

func TestDealPatchJSONOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(StagePatch(StageContacted))
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"Contacted"}`, string(data))
}

func TestDealJSONFieldNames(t *testing.T) {
	var d Deal
	err := json.Unmarshal([]byte(`{"id":3,"clientName":"A","productName":"B","stage":"Lost","createdAt":"2026-01-02T00:00:00Z"}`), &d)
	require.NoError(t, err)
	assert.Equal(t, DealID(3), d.ID)
	assert.Equal(t, StageLost, d.Stage)
	assert.Empty(t, d.Description)
}

func TestPartitionEntities(t *testing.T) {
	clients, products := PartitionEntities([]Entity{
		{ID: 1, Name: "Acme", Type: EntityClient},
		{ID: 2, Name: "Loan", Type: EntityProduct},
		{ID: 3, Name: "Mystery", Type: "vendor"},
		{ID: 4, Name: "Globex", Type: EntityClient},
	})
	assert.Len(t, clients, 2)
	assert.Len(t, products, 1)
	assert.Equal(t, "Globex", clients[1].Name)

	clients, products = PartitionEntities(nil)
	assert.NotNil(t, clients)
	assert.NotNil(t, products)
}
