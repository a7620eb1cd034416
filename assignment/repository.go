package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrInvalidForcedCaller signals a manual reassign named a caller that
// does not exist or is not active.
var ErrInvalidForcedCaller = errors.New("assignment: invalid forced caller")

// Repository performs the locked reads and writes the engine composes
// into one transaction. Every method here is invoked inside the
// caller's open transaction — this package never begins or commits
// one itself, since the HTTP handler composes the lead write, the
// engine call, and (after commit) the event emission as one unit.
type Repository struct{}

// NewRepository builds the assignment repository. It is stateless:
// every method takes the tx it runs within.
func NewRepository() *Repository {
	return &Repository{}
}

// LockStateCandidates returns active callers with a CallerState row
// matching state, locked FOR UPDATE.
func (r *Repository) LockStateCandidates(ctx context.Context, tx pgx.Tx, state string) ([]Candidate, error) {
	const query = `
		SELECT c.id, c.daily_limit
		FROM callers c
		JOIN caller_states cs ON cs.caller_id = c.id
		WHERE cs.state = $1 AND c.status = 'active'
		FOR UPDATE OF c
	`
	return r.queryCandidates(ctx, tx, query, state)
}

// LockAllActiveCandidates returns every active caller, locked FOR UPDATE.
func (r *Repository) LockAllActiveCandidates(ctx context.Context, tx pgx.Tx) ([]Candidate, error) {
	const query = `
		SELECT id, daily_limit
		FROM callers
		WHERE status = 'active'
		FOR UPDATE
	`
	return r.queryCandidates(ctx, tx, query)
}

func (r *Repository) queryCandidates(ctx context.Context, tx pgx.Tx, query string, args ...any) ([]Candidate, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("assignment: query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []Candidate{}
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.DailyLimit); err != nil {
			return nil, fmt.Errorf("assignment: scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// LockCounters locks and returns today's counter value for each
// candidate, defaulting to zero for callers with no row yet.
func (r *Repository) LockCounters(ctx context.Context, tx pgx.Tx, callerIDs []string, businessDate time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(callerIDs))
	for _, id := range callerIDs {
		counts[id] = 0
	}
	if len(callerIDs) == 0 {
		return counts, nil
	}

	const query = `
		SELECT caller_id, count
		FROM caller_daily_counters
		WHERE caller_id = ANY($1) AND business_date = $2
		FOR UPDATE
	`
	rows, err := tx.Query(ctx, query, callerIDs, businessDate)
	if err != nil {
		return nil, fmt.Errorf("assignment: lock counters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("assignment: scan counter: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

// IncrementCounter upserts and increments the chosen caller's counter
// for businessDate, returning the new count.
func (r *Repository) IncrementCounter(ctx context.Context, tx pgx.Tx, callerID string, businessDate time.Time) (int, error) {
	const query = `
		INSERT INTO caller_daily_counters (caller_id, business_date, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (caller_id, business_date)
		DO UPDATE SET count = caller_daily_counters.count + 1
		RETURNING count
	`
	var count int
	if err := tx.QueryRow(ctx, query, callerID, businessDate).Scan(&count); err != nil {
		return 0, fmt.Errorf("assignment: increment counter: %w", err)
	}
	return count, nil
}

// LockPointer returns the last caller id recorded for routingKey, or
// "" if no pointer has been set yet, locked FOR UPDATE.
func (r *Repository) LockPointer(ctx context.Context, tx pgx.Tx, routingKey string) (string, error) {
	const query = `
		SELECT last_caller_id
		FROM round_robin_pointers
		WHERE routing_key = $1
		FOR UPDATE
	`
	var lastCallerID *string
	err := tx.QueryRow(ctx, query, routingKey).Scan(&lastCallerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("assignment: lock pointer: %w", err)
	}
	if lastCallerID == nil {
		return "", nil
	}
	return *lastCallerID, nil
}

// SetPointer upserts the routing key's pointer to callerID.
func (r *Repository) SetPointer(ctx context.Context, tx pgx.Tx, routingKey, callerID string) error {
	const query = `
		INSERT INTO round_robin_pointers (routing_key, last_caller_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (routing_key)
		DO UPDATE SET last_caller_id = $2, updated_at = now()
	`
	if _, err := tx.Exec(ctx, query, routingKey, callerID); err != nil {
		return fmt.Errorf("assignment: set pointer: %w", err)
	}
	return nil
}

// LockCallerForManualAssign validates and locks a forced caller,
// returning ErrInvalidForcedCaller when missing or not active.
func (r *Repository) LockCallerForManualAssign(ctx context.Context, tx pgx.Tx, callerID string) error {
	const query = `SELECT status FROM callers WHERE id = $1 FOR UPDATE`
	var status string
	err := tx.QueryRow(ctx, query, callerID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidForcedCaller
		}
		return fmt.Errorf("assignment: lock forced caller: %w", err)
	}
	if status != "active" {
		return ErrInvalidForcedCaller
	}
	return nil
}

// InsertAssignment records the outcome of one Assign invocation.
func (r *Repository) InsertAssignment(ctx context.Context, tx pgx.Tx, leadID string, callerID *string, status Status, reason Reason) (Outcome, error) {
	const query = `
		INSERT INTO lead_assignments (id, lead_id, caller_id, assigned_at, assignment_reason, status)
		VALUES ($1, $2, $3, now(), $4, $5)
		RETURNING id, assigned_at
	`
	var outcome Outcome
	id := uuid.NewString()
	if err := tx.QueryRow(ctx, query, id, leadID, callerID, reason, status).Scan(&outcome.AssignmentID, &outcome.AssignedAt); err != nil {
		return Outcome{}, fmt.Errorf("assignment: insert: %w", err)
	}
	outcome.CallerID = callerID
	outcome.Status = status
	outcome.Reason = reason
	return outcome, nil
}

// LatestAssignmentForLead returns the most recent assignment row for
// a lead, used to populate the webhook's idempotent-replay response
// when the lead already existed.
func (r *Repository) LatestAssignmentForLead(ctx context.Context, tx pgx.Tx, leadID string) (Outcome, error) {
	const query = `
		SELECT id, caller_id, status, assignment_reason, assigned_at
		FROM lead_assignments
		WHERE lead_id = $1
		ORDER BY assigned_at DESC
		LIMIT 1
	`
	var o Outcome
	var callerID *string
	err := tx.QueryRow(ctx, query, leadID).Scan(&o.AssignmentID, &callerID, &o.Status, &o.Reason, &o.AssignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Outcome{}, nil
		}
		return Outcome{}, fmt.Errorf("assignment: latest for lead: %w", err)
	}
	o.CallerID = callerID
	return o, nil
}
