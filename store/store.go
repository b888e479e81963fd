// ABOUTME: Central deal state container shared by the web and terminal front ends
// ABOUTME: Owns deals, reference entities, loading/error flags, preferences and notifications
package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/prefs"
	"github.com/oklog/ulid/v2"
)

// User-facing error strings recorded in State.Error.
const (
	ErrMsgFetchDeals    = "Failed to fetch deals"
	ErrMsgFetchEntities = "Failed to fetch entities"
	ErrMsgAddDeal       = "Failed to add deal"
	ErrMsgUpdateDeal    = "Failed to update deal"
	ErrMsgDeleteDeal    = "Failed to delete deal"
)

// Notification is a non-blocking message shown until dismissed.
type Notification struct {
	ID        string
	Message   string
	CreatedAt time.Time
}

// State is a point-in-time copy of everything the store holds.
type State struct {
	Deals         []models.Deal
	Clients       []models.Client
	Products      []models.Product
	Loading       bool
	Error         string
	Prefs         prefs.State
	Notifications []Notification
}

func (s State) clone() State {
	out := s
	out.Deals = append([]models.Deal{}, s.Deals...)
	out.Clients = append([]models.Client{}, s.Clients...)
	out.Products = append([]models.Product{}, s.Products...)
	out.Notifications = append([]Notification{}, s.Notifications...)
	return out
}

type Store struct {
	gw    gateway.Gateway
	prefs *prefs.Manager
	now   func() time.Time

	mu         sync.Mutex
	state      State
	tombstones map[models.DealID]struct{}

	// prefsMu orders preference writes; held across save and apply.
	prefsMu sync.Mutex
	subs       map[int]func(State)
	nextSub    int
}

type Option func(*Store)

// WithClock replaces time.Now for draft timestamps and notifications.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New builds a store over a gateway. A nil manager keeps preferences in memory.
// Saved preferences are loaded immediately.
func New(gw gateway.Gateway, pm *prefs.Manager, opts ...Option) *Store {
	if pm == nil {
		pm = prefs.NewManager(prefs.NewMemoryStorage())
	}
	s := &Store{
		gw:         gw,
		prefs:      pm,
		now:        time.Now,
		tombstones: make(map[models.DealID]struct{}),
		subs:       make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{
		Deals:    []models.Deal{},
		Clients:  []models.Client{},
		Products: []models.Product{},
		Prefs:    pm.Load(context.Background()),
	}
	return s
}

// Subscribe registers fn to be called with a snapshot after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// update mutates state under the lock, then notifies subscribers outside it.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Deals() []models.Deal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Deal{}, s.state.Deals...)
}

func (s *Store) Deal(id models.DealID) (models.Deal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.state.Deals {
		if d.ID == id {
			return d, true
		}
	}
	return models.Deal{}, false
}

func (s *Store) Prefs() prefs.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Prefs
}

// IsDeleted reports whether a deal was deleted during this store's lifetime.
func (s *Store) IsDeleted(id models.DealID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tombstones[id]
	return ok
}

// withoutTombstoned must be called with the lock held.
func (s *Store) withoutTombstoned(deals []models.Deal) []models.Deal {
	out := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if _, dead := s.tombstones[d.ID]; !dead {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) FetchDeals(ctx context.Context) error {
	s.update(func(st *State) {
		st.Loading = true
		st.Error = ""
	})

	deals, err := s.gw.ListDeals(ctx)
	if err != nil {
		log.Printf("[store] op=fetch_deals error=%q", err)
		s.update(func(st *State) {
			st.Deals = []models.Deal{}
			st.Error = ErrMsgFetchDeals
			st.Loading = false
		})
		return fmt.Errorf("failed to fetch deals: %w", err)
	}

	s.update(func(st *State) {
		st.Deals = s.withoutTombstoned(deals)
		st.Loading = false
	})
	return nil
}

// FetchEntities loads clients and products. On failure the previously
// loaded lists are kept.
func (s *Store) FetchEntities(ctx context.Context) error {
	entities, err := s.gw.ListEntities(ctx)
	if err != nil {
		log.Printf("[store] op=fetch_entities error=%q", err)
		s.update(func(st *State) {
			st.Error = ErrMsgFetchEntities
		})
		return fmt.Errorf("failed to fetch entities: %w", err)
	}

	clients, products := models.PartitionEntities(entities)
	s.update(func(st *State) {
		st.Clients = clients
		st.Products = products
	})
	return nil
}

// AddDeal validates the draft and creates it remotely. Validation errors
// are returned only; they never touch State.Error.
func (s *Store) AddDeal(ctx context.Context, draft models.DealDraft) (models.Deal, error) {
	if err := draft.Prepare(s.now()); err != nil {
		return models.Deal{}, err
	}

	deal, err := s.gw.CreateDeal(ctx, draft)
	if err != nil {
		log.Printf("[store] op=add_deal client=%q error=%q", draft.ClientName, err)
		s.update(func(st *State) {
			st.Error = ErrMsgAddDeal
		})
		return models.Deal{}, fmt.Errorf("failed to add deal: %w", err)
	}

	s.update(func(st *State) {
		st.Deals = append(st.Deals, deal)
	})
	return deal, nil
}

// UpdateDeal sends a partial update and swaps in the server's record.
// A failure leaves any optimistic local change in place.
func (s *Store) UpdateDeal(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error) {
	if err := patch.Validate(); err != nil {
		return models.Deal{}, fmt.Errorf("failed to update deal %s: %w", id, err)
	}

	deal, err := s.gw.UpdateDeal(ctx, id, patch)
	if err != nil {
		log.Printf("[store] op=update_deal id=%s error=%q", id, err)
		s.update(func(st *State) {
			st.Error = ErrMsgUpdateDeal
		})
		return models.Deal{}, fmt.Errorf("failed to update deal %s: %w", id, err)
	}

	s.update(func(st *State) {
		if _, dead := s.tombstones[id]; dead {
			return
		}
		for i := range st.Deals {
			if st.Deals[i].ID == id {
				st.Deals[i] = deal
				return
			}
		}
	})
	return deal, nil
}

func (s *Store) DeleteDeal(ctx context.Context, id models.DealID) error {
	if err := s.gw.DeleteDeal(ctx, id); err != nil {
		log.Printf("[store] op=delete_deal id=%s error=%q", id, err)
		s.update(func(st *State) {
			st.Error = ErrMsgDeleteDeal
		})
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}

	s.update(func(st *State) {
		s.tombstones[id] = struct{}{}
		st.Deals = s.withoutTombstoned(st.Deals)
	})
	return nil
}

// ReplaceDeals applies fn to the deal collection as one optimistic write.
// Tombstoned deals are dropped from whatever fn returns.
func (s *Store) ReplaceDeals(fn func([]models.Deal) []models.Deal) {
	s.update(func(st *State) {
		next := fn(append([]models.Deal{}, st.Deals...))
		st.Deals = s.withoutTombstoned(next)
	})
}

// SetDealStage moves one deal locally. It reports whether the deal exists.
func (s *Store) SetDealStage(id models.DealID, stage models.Stage) bool {
	found := false
	s.update(func(st *State) {
		for i := range st.Deals {
			if st.Deals[i].ID == id {
				st.Deals[i].Stage = stage
				found = true
				return
			}
		}
	})
	return found
}

// CompareAndSetStage moves a deal only while it still shows expected.
func (s *Store) CompareAndSetStage(id models.DealID, expected, next models.Stage) bool {
	swapped := false
	s.update(func(st *State) {
		for i := range st.Deals {
			if st.Deals[i].ID == id && st.Deals[i].Stage == expected {
				st.Deals[i].Stage = next
				swapped = true
				return
			}
		}
	})
	return swapped
}

func (s *Store) ClearError() {
	s.update(func(st *State) {
		st.Error = ""
	})
}

// ClearErrorIf clears the error only while it still reads msg.
func (s *Store) ClearErrorIf(msg string) bool {
	cleared := false
	s.update(func(st *State) {
		if st.Error == msg {
			st.Error = ""
			cleared = true
		}
	})
	return cleared
}

// Notify queues a notification and returns its ID.
func (s *Store) Notify(message string) string {
	n := Notification{
		ID:        ulid.Make().String(),
		Message:   message,
		CreatedAt: s.now(),
	}
	s.update(func(st *State) {
		st.Notifications = append(st.Notifications, n)
	})
	return n.ID
}

func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification{}, s.state.Notifications...)
}

func (s *Store) DismissNotification(id string) {
	s.update(func(st *State) {
		kept := st.Notifications[:0]
		for _, n := range st.Notifications {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		st.Notifications = kept
	})
}

func (s *Store) SetCurrentView(ctx context.Context, v prefs.ViewMode) error {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	if err := s.prefs.SaveView(ctx, v); err != nil {
		return err
	}
	s.update(func(st *State) {
		st.Prefs.View = v
	})
	return nil
}

func (s *Store) SetTheme(ctx context.Context, t prefs.Theme) error {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	if err := s.prefs.SaveTheme(ctx, t); err != nil {
		return err
	}
	s.update(func(st *State) {
		st.Prefs.Theme = t
	})
	return nil
}

func (s *Store) SetColumnVisible(ctx context.Context, field string, visible bool) error {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	cols := s.Prefs().Columns
	if err := cols.Set(field, visible); err != nil {
		return err
	}
	if err := s.prefs.SaveColumns(ctx, cols); err != nil {
		return err
	}
	s.update(func(st *State) {
		st.Prefs.Columns = cols
	})
	return nil
}

func (s *Store) SetKanbanMetadataVisible(ctx context.Context, field string, visible bool) error {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	meta := s.Prefs().Kanban
	if err := meta.Set(field, visible); err != nil {
		return err
	}
	if err := s.prefs.SaveKanban(ctx, meta); err != nil {
		return err
	}
	s.update(func(st *State) {
		st.Prefs.Kanban = meta
	})
	return nil
}
