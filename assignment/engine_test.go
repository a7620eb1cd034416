package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type fakeStore struct {
	stateCandidates map[string][]Candidate
	allActive       []Candidate
	counts          map[string]int
	pointers        map[string]string
	assignments     []Outcome
	lockedCallers   map[string]string // id -> status
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stateCandidates: map[string][]Candidate{},
		counts:          map[string]int{},
		pointers:        map[string]string{},
		lockedCallers:   map[string]string{},
	}
}

func (f *fakeStore) LockStateCandidates(ctx context.Context, tx pgx.Tx, state string) ([]Candidate, error) {
	return f.stateCandidates[state], nil
}

func (f *fakeStore) LockAllActiveCandidates(ctx context.Context, tx pgx.Tx) ([]Candidate, error) {
	return f.allActive, nil
}

func (f *fakeStore) LockCounters(ctx context.Context, tx pgx.Tx, callerIDs []string, businessDate time.Time) (map[string]int, error) {
	out := make(map[string]int, len(callerIDs))
	for _, id := range callerIDs {
		out[id] = f.counts[id]
	}
	return out, nil
}

func (f *fakeStore) IncrementCounter(ctx context.Context, tx pgx.Tx, callerID string, businessDate time.Time) (int, error) {
	f.counts[callerID]++
	return f.counts[callerID], nil
}

func (f *fakeStore) LockPointer(ctx context.Context, tx pgx.Tx, routingKey string) (string, error) {
	return f.pointers[routingKey], nil
}

func (f *fakeStore) SetPointer(ctx context.Context, tx pgx.Tx, routingKey, callerID string) error {
	f.pointers[routingKey] = callerID
	return nil
}

func (f *fakeStore) LockCallerForManualAssign(ctx context.Context, tx pgx.Tx, callerID string) error {
	status, ok := f.lockedCallers[callerID]
	if !ok || status != "active" {
		return ErrInvalidForcedCaller
	}
	return nil
}

func (f *fakeStore) InsertAssignment(ctx context.Context, tx pgx.Tx, leadID string, callerID *string, status Status, reason Reason) (Outcome, error) {
	o := Outcome{AssignmentID: "assignment-1", CallerID: callerID, Status: status, Reason: reason, AssignedAt: time.Now()}
	f.assignments = append(f.assignments, o)
	return o, nil
}

type fakeLeadRepo struct {
	unassigned map[string]bool
}

func newFakeLeadRepo() *fakeLeadRepo { return &fakeLeadRepo{unassigned: map[string]bool{}} }

func (f *fakeLeadRepo) MarkUnassigned(ctx context.Context, tx pgx.Tx, id string) error {
	f.unassigned[id] = true
	return nil
}

func (f *fakeLeadRepo) ClearUnassigned(ctx context.Context, tx pgx.Tx, id string) error {
	f.unassigned[id] = false
	return nil
}

func TestEngine_AutomaticStateRoundRobin(t *testing.T) {
	store := newFakeStore()
	store.stateCandidates["CA"] = []Candidate{{ID: "c1"}, {ID: "c2"}}
	leads := newFakeLeadRepo()
	e := NewEngine(store, leads, fakeClock{time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)}, time.UTC)

	outcome, err := e.Assign(context.Background(), nil, "lead-1", "CA", nil, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if outcome.Status != StatusAssigned || outcome.Reason != ReasonStateRoundRobin {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if *outcome.CallerID != "c1" {
		t.Fatalf("expected c1 first, got %s", *outcome.CallerID)
	}
}

func TestEngine_AutomaticFallsBackToGlobal(t *testing.T) {
	store := newFakeStore()
	store.allActive = []Candidate{{ID: "g1"}}
	leads := newFakeLeadRepo()
	e := NewEngine(store, leads, fakeClock{time.Now()}, time.UTC)

	outcome, err := e.Assign(context.Background(), nil, "lead-1", "TX", nil, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if outcome.Reason != ReasonGlobalRoundRobin {
		t.Fatalf("expected global round robin, got %s", outcome.Reason)
	}
}

func TestEngine_UnassignedWhenNoEligible(t *testing.T) {
	store := newFakeStore()
	leads := newFakeLeadRepo()
	e := NewEngine(store, leads, fakeClock{time.Now()}, time.UTC)

	outcome, err := e.Assign(context.Background(), nil, "lead-1", "", nil, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if outcome.Status != StatusUnassigned || outcome.Reason != ReasonUnassignedNoEligible {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !leads.unassigned["lead-1"] {
		t.Fatal("expected lead marked unassigned")
	}
}

func TestEngine_UnassignedWhenCapReached(t *testing.T) {
	store := newFakeStore()
	store.allActive = []Candidate{{ID: "c1", DailyLimit: 1}}
	store.counts["c1"] = 1
	leads := newFakeLeadRepo()
	e := NewEngine(store, leads, fakeClock{time.Now()}, time.UTC)

	outcome, err := e.Assign(context.Background(), nil, "lead-1", "", nil, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if outcome.Reason != ReasonUnassignedCapped {
		t.Fatalf("expected capped reason, got %s", outcome.Reason)
	}
}

func TestEngine_ManualAssignBypassesCapAndState(t *testing.T) {
	store := newFakeStore()
	store.lockedCallers["paused-caller"] = "paused"
	store.lockedCallers["c1"] = "active"
	// c1 is already at its daily cap and serves no state; "CA" is served only by c2.
	store.stateCandidates["CA"] = []Candidate{{ID: "c2"}}
	store.allActive = []Candidate{{ID: "c1", DailyLimit: 1}, {ID: "c2"}}
	store.counts["c1"] = 1
	leads := newFakeLeadRepo()
	e := NewEngine(store, leads, fakeClock{time.Now()}, time.UTC)

	forced := "c1"
	outcome, err := e.Assign(context.Background(), nil, "lead-1", "CA", &forced, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if outcome.Reason != ReasonManualReassign || *outcome.CallerID != "c1" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if store.counts["c1"] != 2 {
		t.Fatalf("expected c1 counter to go past its cap to 2, got %d", store.counts["c1"])
	}

	forcedInvalid := "paused-caller"
	if _, err := e.Assign(context.Background(), nil, "lead-2", "", &forcedInvalid, nil); err != ErrInvalidForcedCaller {
		t.Fatalf("expected ErrInvalidForcedCaller, got %v", err)
	}

	forcedMissing := "ghost"
	if _, err := e.Assign(context.Background(), nil, "lead-3", "", &forcedMissing, nil); err != ErrInvalidForcedCaller {
		t.Fatalf("expected ErrInvalidForcedCaller for missing caller, got %v", err)
	}
}

func TestEngine_ManualReassignReasonOverride(t *testing.T) {
	store := newFakeStore()
	store.lockedCallers["c1"] = "active"
	leads := newFakeLeadRepo()
	e := NewEngine(store, leads, fakeClock{time.Now()}, time.UTC)

	forced := "c1"
	override := "operator_override"
	outcome, err := e.Assign(context.Background(), nil, "lead-1", "", &forced, &override)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if string(outcome.Reason) != override {
		t.Fatalf("expected override reason %q, got %q", override, outcome.Reason)
	}
}
