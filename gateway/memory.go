// ABOUTME: In-memory gateway used by tests and offline demos
// ABOUTME: Supports per-operation failure injection, call recording and request gating
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/harperreed/dealflow/models"
)

type Op string

const (
	OpList     Op = "list"
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpEntities Op = "entities"
)

// ErrInjected is the default failure returned by Memory.Fail.
var ErrInjected = errors.New("injected failure")

// Call records one request received by Memory.
type Call struct {
	Op    Op
	ID    models.DealID
	Patch models.DealPatch
}

// Memory is a Gateway backed by a map. It behaves like the reference server.
type Memory struct {
	mu       sync.Mutex
	deals    map[models.DealID]models.Deal
	entities []models.Entity
	nextID   models.DealID
	failures map[Op]error
	calls    []Call

	// Gate, when set, is received from before each update is answered.
	// Tests use it to observe state while a durable write is in flight.
	Gate chan struct{}
}

func NewMemory(deals ...models.Deal) *Memory {
	m := &Memory{
		deals:    make(map[models.DealID]models.Deal),
		failures: make(map[Op]error),
		nextID:   1,
	}
	for _, d := range deals {
		m.deals[d.ID] = d
		if d.ID >= m.nextID {
			m.nextID = d.ID + 1
		}
	}
	return m
}

func (m *Memory) SetEntities(entities []models.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = append([]models.Entity(nil), entities...)
}

// Fail makes every later call of op return err (ErrInjected when nil).
func (m *Memory) Fail(op Op, err error) {
	if err == nil {
		err = ErrInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *Memory) Recover(op Op) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, op)
}

func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how many calls of op were received.
func (m *Memory) CallCount(op Op) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Deal returns the server-side copy of a deal.
func (m *Memory) Deal(id models.DealID) (models.Deal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	return d, ok
}

func (m *Memory) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.failures[c.Op]
}

func (m *Memory) ListDeals(ctx context.Context) ([]models.Deal, error) {
	if err := m.record(Call{Op: OpList}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Deal, 0, len(m.deals))
	for _, d := range m.deals {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateDeal(ctx context.Context, draft models.DealDraft) (models.Deal, error) {
	if err := m.record(Call{Op: OpCreate}); err != nil {
		return models.Deal{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	deal := draft.WithID(m.nextID)
	m.nextID++
	m.deals[deal.ID] = deal
	return deal, nil
}

func (m *Memory) UpdateDeal(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error) {
	err := m.record(Call{Op: OpUpdate, ID: id, Patch: patch})
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return models.Deal{}, ctx.Err()
		}
	}
	if err != nil {
		return models.Deal{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	deal, ok := m.deals[id]
	if !ok {
		return models.Deal{}, &StatusError{Method: "PATCH", Path: "/deals/" + id.String(), StatusCode: 404}
	}
	deal = deal.Apply(patch)
	m.deals[id] = deal
	return deal, nil
}

func (m *Memory) DeleteDeal(ctx context.Context, id models.DealID) error {
	if err := m.record(Call{Op: OpDelete, ID: id}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deals[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	delete(m.deals, id)
	return nil
}

func (m *Memory) ListEntities(ctx context.Context) ([]models.Entity, error) {
	if err := m.record(Call{Op: OpEntities}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Entity(nil), m.entities...), nil
}
