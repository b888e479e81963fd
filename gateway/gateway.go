// ABOUTME: Remote data gateway contract for the deal REST API
// ABOUTME: Declares the Gateway interface and the error returned for non-2xx responses
package gateway

import (
	"context"
	"fmt"

	"github.com/harperreed/dealflow/models"
)

// Gateway is the remote deal store. Every method is one request with no retry.
type Gateway interface {
	ListDeals(ctx context.Context) ([]models.Deal, error)
	CreateDeal(ctx context.Context, draft models.DealDraft) (models.Deal, error)
	UpdateDeal(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error)
	DeleteDeal(ctx context.Context, id models.DealID) error
	ListEntities(ctx context.Context) ([]models.Entity, error)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
