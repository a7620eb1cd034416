package assignment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"leadrouter/clock"
)

// leadRepository is the subset of lead.Repository the engine needs to
// flip the unassigned flag; kept as a narrow interface so tests can
// fake it without a database.
type leadRepository interface {
	MarkUnassigned(ctx context.Context, tx pgx.Tx, id string) error
	ClearUnassigned(ctx context.Context, tx pgx.Tx, id string) error
}

// store is the subset of Repository the engine drives; narrowed to an
// interface so the engine's decision logic can be unit tested against
// a fake without a real transaction.
type store interface {
	LockStateCandidates(ctx context.Context, tx pgx.Tx, state string) ([]Candidate, error)
	LockAllActiveCandidates(ctx context.Context, tx pgx.Tx) ([]Candidate, error)
	LockCounters(ctx context.Context, tx pgx.Tx, callerIDs []string, businessDate time.Time) (map[string]int, error)
	IncrementCounter(ctx context.Context, tx pgx.Tx, callerID string, businessDate time.Time) (int, error)
	LockPointer(ctx context.Context, tx pgx.Tx, routingKey string) (string, error)
	SetPointer(ctx context.Context, tx pgx.Tx, routingKey, callerID string) error
	LockCallerForManualAssign(ctx context.Context, tx pgx.Tx, callerID string) error
	InsertAssignment(ctx context.Context, tx pgx.Tx, leadID string, callerID *string, status Status, reason Reason) (Outcome, error)
}

// Engine is the assignment orchestrator: eligibility filter, selector,
// and counter mutator composed into one transactional decision.
type Engine struct {
	store store
	leads leadRepository
	clock clock.Clock
	tz    *time.Location
}

// NewEngine builds an Engine. tz is the time zone business dates are
// computed in.
func NewEngine(store store, leads leadRepository, c clock.Clock, tz *time.Location) *Engine {
	return &Engine{store: store, leads: leads, clock: c, tz: tz}
}

// Assign is the single entry point described in the routing design: it
// must run inside a transaction the caller already opened (so lead
// ingestion, this decision, and the eventual event emission compose
// atomically from the client's point of view), and it never commits
// or rolls back tx itself.
func (e *Engine) Assign(ctx context.Context, tx pgx.Tx, leadID, leadState string, forcedCallerID, reasonOverride *string) (Outcome, error) {
	businessDate := clock.BusinessDate(e.clock, e.tz)

	if forcedCallerID != nil {
		return e.assignManual(ctx, tx, leadID, *forcedCallerID, businessDate, reasonOverride)
	}
	return e.assignAutomatic(ctx, tx, leadID, leadState, businessDate)
}

func (e *Engine) assignManual(ctx context.Context, tx pgx.Tx, leadID, callerID string, businessDate time.Time, reasonOverride *string) (Outcome, error) {
	if err := e.store.LockCallerForManualAssign(ctx, tx, callerID); err != nil {
		return Outcome{}, err
	}

	reason := ReasonManualReassign
	if reasonOverride != nil && *reasonOverride != "" {
		reason = Reason(*reasonOverride)
	}

	if _, err := e.store.IncrementCounter(ctx, tx, callerID, businessDate); err != nil {
		return Outcome{}, err
	}
	if err := e.leads.ClearUnassigned(ctx, tx, leadID); err != nil {
		return Outcome{}, err
	}
	id := callerID
	return e.store.InsertAssignment(ctx, tx, leadID, &id, StatusAssigned, reason)
}

func (e *Engine) assignAutomatic(ctx context.Context, tx pgx.Tx, leadID, leadState string, businessDate time.Time) (Outcome, error) {
	candidates, routingKey, err := e.eligible(ctx, tx, leadState)
	if err != nil {
		return Outcome{}, err
	}
	if len(candidates) == 0 {
		return e.unassign(ctx, tx, leadID, ReasonUnassignedNoEligible)
	}

	callerIDs := make([]string, len(candidates))
	for i, c := range candidates {
		callerIDs[i] = c.ID
	}
	counts, err := e.store.LockCounters(ctx, tx, callerIDs, businessDate)
	if err != nil {
		return Outcome{}, err
	}

	survivors := capFilter(candidates, counts)
	if len(survivors) == 0 {
		return e.unassign(ctx, tx, leadID, ReasonUnassignedCapped)
	}

	lastCallerID, err := e.store.LockPointer(ctx, tx, routingKey)
	if err != nil {
		return Outcome{}, err
	}

	chosen := pickNext(survivors, lastCallerID)

	if _, err := e.store.IncrementCounter(ctx, tx, chosen.ID, businessDate); err != nil {
		return Outcome{}, err
	}
	if err := e.store.SetPointer(ctx, tx, routingKey, chosen.ID); err != nil {
		return Outcome{}, err
	}
	if err := e.leads.ClearUnassigned(ctx, tx, leadID); err != nil {
		return Outcome{}, err
	}

	reason := ReasonGlobalRoundRobin
	if routingKey != globalRoutingKey {
		reason = ReasonStateRoundRobin
	}

	callerID := chosen.ID
	return e.store.InsertAssignment(ctx, tx, leadID, &callerID, StatusAssigned, reason)
}

const globalRoutingKey = "global"

func (e *Engine) eligible(ctx context.Context, tx pgx.Tx, leadState string) ([]Candidate, string, error) {
	if leadState != "" {
		stateCandidates, err := e.store.LockStateCandidates(ctx, tx, leadState)
		if err != nil {
			return nil, "", err
		}
		if len(stateCandidates) > 0 {
			return stateCandidates, "state:" + leadState, nil
		}
	}

	all, err := e.store.LockAllActiveCandidates(ctx, tx)
	if err != nil {
		return nil, "", err
	}
	return all, globalRoutingKey, nil
}

func (e *Engine) unassign(ctx context.Context, tx pgx.Tx, leadID string, reason Reason) (Outcome, error) {
	if err := e.leads.MarkUnassigned(ctx, tx, leadID); err != nil {
		return Outcome{}, err
	}
	return e.store.InsertAssignment(ctx, tx, leadID, nil, StatusUnassigned, reason)
}
