// ABOUTME: Tests for the reference deal server handlers
// ABOUTME: Drives the router directly and through the HTTP gateway for full CRUD round trips
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/harperreed/dealflow/db"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database, err := db.OpenMemory()
	require.NoError(t, err)
	r := NewRouter(RouterDeps{DB: database, ServiceName: "dealsrv", Version: "test"})
	return r, func() { _ = database.Close() }
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	r, cleanup := newTestRouter(t)
	defer cleanup()

	rr := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "up", resp.DB)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestRequestIDEchoed(t *testing.T) {
	r, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/deals", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-Id"))
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestDealEndpoints(t *testing.T) {
	r, cleanup := newTestRouter(t)
	defer cleanup()

	rr := do(r, http.MethodPost, "/deals", `{"clientName":"Acme","productName":"Loan","stage":"Lead Generated","createdAt":"2026-02-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.Deal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, models.DealID(1), created.ID)

	rr = do(r, http.MethodPatch, "/deals/1", `{"stage":"Contacted"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated models.Deal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, models.StageContacted, updated.Stage)
	assert.Equal(t, "Acme", updated.ClientName)

	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPatch, "/deals/1", `{"stage":"Won"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPost, "/deals", `{"clientName":"","productName":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/deals/abc", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/deals", `{not json`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/deals/99", "").Code)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/deals/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/deals/1", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	r, cleanup := newTestRouter(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodOptions, "/deals/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

// TestStoreRoundTrip runs the deal store against a live server over HTTP.
func TestStoreRoundTrip(t *testing.T) {
	r, cleanup := newTestRouter(t)
	defer cleanup()
	srv := httptest.NewServer(r)
	defer srv.Close()

	gw := gateway.NewHTTPClient(srv.URL, gateway.WithLogger(log.New(io.Discard, "", 0)))
	s := store.New(gw, nil)
	ctx := context.Background()

	deal, err := s.AddDeal(ctx, models.DealDraft{ClientName: "Acme", ProductName: "Mortgage", Description: "first"})
	require.NoError(t, err)
	assert.NotZero(t, deal.ID)

	require.NoError(t, s.FetchDeals(ctx))
	found, ok := s.Deal(deal.ID)
	require.True(t, ok)
	assert.Equal(t, "Acme", found.ClientName)
	assert.Equal(t, "Mortgage", found.ProductName)
	assert.Equal(t, models.StageLeadGenerated, found.Stage)
	assert.Equal(t, "first", found.Description)

	_, err = s.UpdateDeal(ctx, deal.ID, models.StagePatch(models.StagePaymentConfirmed))
	require.NoError(t, err)

	require.NoError(t, s.DeleteDeal(ctx, deal.ID))
	require.NoError(t, s.FetchDeals(ctx))
	_, ok = s.Deal(deal.ID)
	assert.False(t, ok)

	// Deleting again is a 404 from the server and an error in the store.
	err = s.DeleteDeal(ctx, deal.ID)
	var statusErr *gateway.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, store.ErrMsgDeleteDeal, s.Snapshot().Error)
}

func TestEntitiesEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	_, err = db.UpsertEntity(database, "Acme", models.EntityClient)
	require.NoError(t, err)
	_, err = db.UpsertEntity(database, "Mortgage", models.EntityProduct)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(RouterDeps{DB: database}))
	defer srv.Close()

	s := store.New(gateway.NewHTTPClient(srv.URL, gateway.WithLogger(log.New(io.Discard, "", 0))), nil)
	require.NoError(t, s.FetchEntities(context.Background()))
	st := s.Snapshot()
	require.Len(t, st.Clients, 1)
	require.Len(t, st.Products, 1)
	assert.Equal(t, "Mortgage", st.Products[0].Name)
}
