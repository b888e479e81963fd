// ABOUTME: Form and delete actions with the UI's cosmetic delays
// ABOUTME: Tracks in-flight deletions per deal so several can run at once
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/dealflow/models"
)

// Labels shown while an action is outstanding.
const (
	LabelDeleting = "Deleting..."
	LabelCreating = "Creating Deal..."
	LabelUpdating = "Updating Deal..."

	ConfirmDelete = "Are you sure you want to delete this deal?"
)

var ErrDeleteInFlight = errors.New("delete already in progress")

// Delays are cosmetic pauses before the store is called. They are not timeouts.
type Delays struct {
	Create time.Duration
	Update time.Duration
	Delete time.Duration
}

func DefaultDelays() Delays {
	return Delays{Create: 2 * time.Second, Update: time.Second, Delete: time.Second}
}

type DeleteTracker struct {
	mu       sync.Mutex
	inFlight map[models.DealID]struct{}
}

func NewDeleteTracker() *DeleteTracker {
	return &DeleteTracker{inFlight: make(map[models.DealID]struct{})}
}

// Begin marks id as being deleted. It returns false if it already was.
func (t *DeleteTracker) Begin(id models.DealID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inFlight[id]; ok {
		return false
	}
	t.inFlight[id] = struct{}{}
	return true
}

func (t *DeleteTracker) End(id models.DealID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inFlight, id)
}

func (t *DeleteTracker) InFlight(id models.DealID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inFlight[id]
	return ok
}

// DealWriter is the store surface the forms use.
type DealWriter interface {
	AddDeal(ctx context.Context, draft models.DealDraft) (models.Deal, error)
	UpdateDeal(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error)
	DeleteDeal(ctx context.Context, id models.DealID) error
}

type Actions struct {
	Store   DealWriter
	Tracker *DeleteTracker
	Delays  Delays
	Now     func() time.Time
}

func NewActions(store DealWriter, delays Delays) *Actions {
	return &Actions{Store: store, Tracker: NewDeleteTracker(), Delays: delays, Now: time.Now}
}

// Create validates first so the form can alert without waiting.
func (a *Actions) Create(ctx context.Context, draft models.DealDraft) (models.Deal, error) {
	if err := draft.Prepare(a.Now()); err != nil {
		return models.Deal{}, err
	}
	if err := pause(ctx, a.Delays.Create); err != nil {
		return models.Deal{}, err
	}
	return a.Store.AddDeal(ctx, draft)
}

func (a *Actions) Update(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error) {
	if err := patch.Validate(); err != nil {
		return models.Deal{}, err
	}
	if err := pause(ctx, a.Delays.Update); err != nil {
		return models.Deal{}, err
	}
	return a.Store.UpdateDeal(ctx, id, patch)
}

// Delete runs a confirmed deletion. While it runs, Tracker reports id in flight.
func (a *Actions) Delete(ctx context.Context, id models.DealID) error {
	if !a.Tracker.Begin(id) {
		return fmt.Errorf("%w: deal %s", ErrDeleteInFlight, id)
	}
	defer a.Tracker.End(id)

	if err := pause(ctx, a.Delays.Delete); err != nil {
		return err
	}
	return a.Store.DeleteDeal(ctx, id)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AlertMessage is the blocking alert text for a form error, or "" when the
// error belongs in the shared error banner instead.
func AlertMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrValidation):
		return "All fields are required"
	case errors.Is(err, models.ErrInvalidStage):
		return "Please choose a valid stage"
	default:
		return ""
	}
}
