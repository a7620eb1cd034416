package caller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested caller does not exist.
var ErrNotFound = errors.New("caller: not found")

// Repository is the PostgreSQL-backed caller store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed caller repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a caller and its state affinities in one transaction.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Caller, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Caller{}, fmt.Errorf("caller: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.NewString()
	const insertSQL = `
		INSERT INTO callers (id, name, role, languages, daily_limit, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING id, name, role, languages, daily_limit, status, created_at, updated_at
	`
	var c Caller
	err = tx.QueryRow(ctx, insertSQL, id, params.Name, params.Role, params.Languages, params.DailyLimit).Scan(
		&c.ID, &c.Name, &c.Role, &c.Languages, &c.DailyLimit, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Caller{}, fmt.Errorf("caller: insert: %w", err)
	}

	if err := replaceStates(ctx, tx, id, params.States); err != nil {
		return Caller{}, err
	}
	c.States = params.States

	if err := tx.Commit(ctx); err != nil {
		return Caller{}, fmt.Errorf("caller: commit: %w", err)
	}
	return c, nil
}

// GetByID fetches a caller with its state affinities.
func (r *Repository) GetByID(ctx context.Context, id string) (Caller, error) {
	const query = `
		SELECT id, name, role, languages, daily_limit, status, created_at, updated_at
		FROM callers
		WHERE id = $1
	`
	var c Caller
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Role, &c.Languages, &c.DailyLimit, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Caller{}, ErrNotFound
		}
		return Caller{}, fmt.Errorf("caller: get by id: %w", err)
	}

	states, err := r.statesFor(ctx, id)
	if err != nil {
		return Caller{}, err
	}
	c.States = states
	return c, nil
}

// List returns callers matching filters, ordered by creation time descending.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Caller, error) {
	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT DISTINCT c.id, c.name, c.role, c.languages, c.daily_limit, c.status, c.created_at, c.updated_at
		FROM callers c
	`
	args := []any{}
	where := []string{}

	if filters.State != "" {
		query += ` JOIN caller_states cs ON cs.caller_id = c.id`
		args = append(args, filters.State)
		where = append(where, fmt.Sprintf("cs.state = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	args = append(args, limit, filters.Offset)
	query += fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("caller: list: %w", err)
	}
	defer rows.Close()

	callers := make([]Caller, 0, limit)
	for rows.Next() {
		var c Caller
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.Languages, &c.DailyLimit, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("caller: scan: %w", err)
		}
		callers = append(callers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("caller: iterate: %w", err)
	}

	for i := range callers {
		states, err := r.statesFor(ctx, callers[i].ID)
		if err != nil {
			return nil, err
		}
		callers[i].States = states
	}
	return callers, nil
}

// Update mutates the caller's profile fields and, when States is
// non-nil, replaces its state affinities.
func (r *Repository) Update(ctx context.Context, id string, params UpdateParams) (Caller, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Caller{}, fmt.Errorf("caller: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const updateSQL = `
		UPDATE callers SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			languages = COALESCE($4, languages),
			daily_limit = COALESCE($5, daily_limit),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, role, languages, daily_limit, status, created_at, updated_at
	`
	var c Caller
	var languages []string
	if params.Languages != nil {
		languages = params.Languages
	}
	err = tx.QueryRow(ctx, updateSQL, id, params.Name, params.Role, languages, params.DailyLimit).Scan(
		&c.ID, &c.Name, &c.Role, &c.Languages, &c.DailyLimit, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Caller{}, ErrNotFound
		}
		return Caller{}, fmt.Errorf("caller: update: %w", err)
	}

	if params.States != nil {
		if err := replaceStates(ctx, tx, id, params.States); err != nil {
			return Caller{}, err
		}
		c.States = params.States
	}

	if err := tx.Commit(ctx); err != nil {
		return Caller{}, fmt.Errorf("caller: commit: %w", err)
	}
	if params.States == nil {
		states, err := r.statesFor(ctx, id)
		if err != nil {
			return Caller{}, err
		}
		c.States = states
	}
	return c, nil
}

// SetStatus transitions a caller between active and paused. Deleting a
// caller from the dashboard's point of view means pausing it: its
// history (assignments, counters) must survive.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status) (Caller, error) {
	const updateSQL = `
		UPDATE callers SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, role, languages, daily_limit, status, created_at, updated_at
	`
	var c Caller
	err := r.pool.QueryRow(ctx, updateSQL, id, status).Scan(
		&c.ID, &c.Name, &c.Role, &c.Languages, &c.DailyLimit, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Caller{}, ErrNotFound
		}
		return Caller{}, fmt.Errorf("caller: set status: %w", err)
	}
	states, err := r.statesFor(ctx, id)
	if err != nil {
		return Caller{}, err
	}
	c.States = states
	return c, nil
}

func (r *Repository) statesFor(ctx context.Context, callerID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT state FROM caller_states WHERE caller_id = $1 ORDER BY state`, callerID)
	if err != nil {
		return nil, fmt.Errorf("caller: states: %w", err)
	}
	defer rows.Close()

	states := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("caller: scan state: %w", err)
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

func replaceStates(ctx context.Context, tx pgx.Tx, callerID string, states []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM caller_states WHERE caller_id = $1`, callerID); err != nil {
		return fmt.Errorf("caller: clear states: %w", err)
	}
	for _, state := range states {
		if state == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `INSERT INTO caller_states (caller_id, state) VALUES ($1, $2)`, callerID, state); err != nil {
			return fmt.Errorf("caller: insert state: %w", err)
		}
	}
	return nil
}
