// ABOUTME: Drag reconciliation engine for the kanban board
// ABOUTME: Resolves a drop to a stage, applies it optimistically and commits it in the background
package kanban

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
	"github.com/oklog/ulid/v2"
)

// DragEndEvent is what a board reports when a drag gesture ends.
// Drag-layer identifiers are strings: a stage label or a deal ID.
type DragEndEvent struct {
	ActiveID string
	OverID   string
	HasOver  bool
}

// Drop builds an event for a gesture that ended over a target.
func Drop(active, over string) DragEndEvent {
	return DragEndEvent{ActiveID: active, OverID: over, HasOver: true}
}

// Cancel builds an event for a gesture that ended over nothing.
func Cancel(active string) DragEndEvent {
	return DragEndEvent{ActiveID: active}
}

type Outcome int

const (
	OutcomeNoTarget Outcome = iota
	OutcomeUnknownDeal
	OutcomeUnresolved
	OutcomeSameStage
	OutcomeRejected
	OutcomeMoved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoTarget:
		return "no_target"
	case OutcomeUnknownDeal:
		return "unknown_deal"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeSameStage:
		return "same_stage"
	case OutcomeRejected:
		return "rejected"
	case OutcomeMoved:
		return "moved"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Store is the part of the deal store the engine writes through.
type Store interface {
	Deals() []models.Deal
	SetDealStage(id models.DealID, stage models.Stage) bool
	CompareAndSetStage(id models.DealID, expected, next models.Stage) bool
	UpdateDeal(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error)
	ClearErrorIf(msg string) bool
	Notify(message string) string
}

// Result describes what a drop did. Pending is set only for OutcomeMoved.
type Result struct {
	Outcome   Outcome
	GestureID string
	DealID    models.DealID
	From      models.Stage
	To        models.Stage
	Pending   *Pending
}

// Pending tracks the durable write started by a move.
type Pending struct {
	done       chan struct{}
	err        error
	rolledBack bool
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the durable write finishes and returns its error.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// RolledBack reports whether the optimistic move was reverted. Valid after Done.
func (p *Pending) RolledBack() bool {
	<-p.done
	return p.rolledBack
}

// dealTrack follows a deal while it has unanswered moves.
type dealTrack struct {
	seq       uint64       // latest gesture
	target    models.Stage // stage the latest gesture moved to
	settled   bool         // the latest gesture has been answered
	inflight  int          // commits not yet answered
	confirmed models.Stage // last stage the server acknowledged
}

type Engine struct {
	store  Store
	policy Policy
	logger *log.Logger

	mu     sync.Mutex
	tracks map[models.DealID]*dealTrack
	wg     sync.WaitGroup
}

type Option func(*Engine)

func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Quiet discards engine log output.
func Quiet() Option {
	return WithLogger(log.New(io.Discard, "", 0))
}

func NewEngine(s Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		policy: AnyStage,
		logger: log.Default(),
		tracks: make(map[models.DealID]*dealTrack),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// HandleDragEnd reconciles one finished drag. It returns as soon as the
// optimistic move is applied; the server update continues in the background
// and outlives ctx cancellation.
func (e *Engine) HandleDragEnd(ctx context.Context, ev DragEndEvent) Result {
	res := Result{GestureID: ulid.Make().String()}

	if !ev.HasOver {
		res.Outcome = OutcomeNoTarget
		return e.logged(res, ev)
	}

	deals := e.store.Deals()
	active, ok := findDeal(deals, ev.ActiveID)
	if !ok {
		res.Outcome = OutcomeUnknownDeal
		return e.logged(res, ev)
	}
	res.DealID = active.ID
	res.From = active.Stage

	target, ok := resolveTarget(deals, ev.OverID)
	if !ok {
		res.Outcome = OutcomeUnresolved
		return e.logged(res, ev)
	}
	res.To = target

	if target == active.Stage {
		res.Outcome = OutcomeSameStage
		return e.logged(res, ev)
	}
	if !e.policy.Allow(active.Stage, target) {
		res.Outcome = OutcomeRejected
		return e.logged(res, ev)
	}

	e.mu.Lock()
	t, ok := e.tracks[active.ID]
	if !ok {
		// No move in flight, so the shown stage is the server's.
		t = &dealTrack{confirmed: active.Stage}
		e.tracks[active.ID] = t
	}
	t.seq++
	t.inflight++
	t.target = target
	t.settled = false
	gesture := t.seq
	e.store.SetDealStage(active.ID, target)
	e.mu.Unlock()

	pending := &Pending{done: make(chan struct{})}
	res.Outcome = OutcomeMoved
	res.Pending = pending
	e.logged(res, ev)

	e.wg.Add(1)
	go e.commit(context.WithoutCancel(ctx), res, active, gesture, pending)

	return res
}

// commit sends the stage to the server. A failure of the latest gesture
// reverts the card to the last stage the server acknowledged, which may be
// older than res.From when earlier moves also failed.
func (e *Engine) commit(ctx context.Context, res Result, active models.Deal, gesture uint64, p *Pending) {
	defer e.wg.Done()
	defer close(p.done)

	_, err := e.store.UpdateDeal(ctx, active.ID, models.StagePatch(res.To))

	e.mu.Lock()
	t := e.tracks[active.ID]
	t.inflight--
	if t.inflight == 0 {
		delete(e.tracks, active.ID)
	}
	latest := t.seq == gesture
	if latest {
		t.settled = true
	}
	if err == nil {
		t.confirmed = res.To
		if !t.settled {
			// The store applied this older reply; the newer move is still pending.
			e.store.SetDealStage(active.ID, t.target)
		}
		e.mu.Unlock()
		return
	}
	p.err = err

	restore := t.confirmed
	reverted := latest && e.store.CompareAndSetStage(active.ID, res.To, restore)
	e.mu.Unlock()

	if !reverted {
		e.logger.Printf("[kanban] gesture=%s deal=%s commit failed, superseded: %v", res.GestureID, active.ID, err)
		return
	}

	p.rolledBack = true
	e.store.ClearErrorIf(store.ErrMsgUpdateDeal)
	e.store.Notify(fmt.Sprintf("Could not move %s to %s; reverted to %s", active.ClientName, res.To, restore))
	e.logger.Printf("[kanban] gesture=%s deal=%s rolled back to %q: %v", res.GestureID, active.ID, restore, err)
}

// Wait blocks until every background commit has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) logged(res Result, ev DragEndEvent) Result {
	e.logger.Printf("[kanban] gesture=%s active=%q over=%q outcome=%s from=%q to=%q",
		res.GestureID, ev.ActiveID, ev.OverID, res.Outcome, res.From, res.To)
	return res
}

func findDeal(deals []models.Deal, id string) (models.Deal, bool) {
	for _, d := range deals {
		if d.ID.Matches(id) {
			return d, true
		}
	}
	return models.Deal{}, false
}

// resolveTarget maps a drop target to a stage. Column labels win over card IDs.
func resolveTarget(deals []models.Deal, over string) (models.Stage, bool) {
	if stage, err := models.ParseStage(over); err == nil {
		return stage, true
	}
	if d, ok := findDeal(deals, over); ok {
		return d.Stage, true
	}
	return "", false
}
