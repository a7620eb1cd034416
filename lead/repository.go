package lead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that the lead does not exist.
var ErrNotFound = errors.New("lead: not found")

// Repository is the PostgreSQL-backed lead store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed lead repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindOrCreate inserts a lead keyed by (phone, source_timestamp) inside
// tx, recovering the existing row on a uniqueness violation so the
// webhook is safe to retry. The bool return reports whether the lead
// already existed.
func (r *Repository) FindOrCreate(ctx context.Context, tx pgx.Tx, params IngestParams) (Lead, bool, error) {
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return Lead{}, false, fmt.Errorf("lead: marshal metadata: %w", err)
	}

	const insertSQL = `
		INSERT INTO leads (id, name, phone, source_timestamp, source, city, state, metadata, unassigned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, false)
		RETURNING id, name, phone, source_timestamp, source, city, state, metadata, created_at, unassigned
	`
	// The insert runs under a savepoint so a uniqueness violation does
	// not abort tx before the existing row is looked up.
	sp, err := tx.Begin(ctx)
	if err != nil {
		return Lead{}, false, fmt.Errorf("lead: savepoint: %w", err)
	}
	row := sp.QueryRow(ctx, insertSQL, uuid.NewString(), params.Name, params.Phone, params.SourceTimestamp,
		params.Source, params.City, params.State, metadata)

	created, err := scanLead(row)
	if err == nil {
		if err := sp.Commit(ctx); err != nil {
			return Lead{}, false, fmt.Errorf("lead: release savepoint: %w", err)
		}
		return created, false, nil
	}
	_ = sp.Rollback(ctx)

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return Lead{}, false, fmt.Errorf("lead: insert: %w", err)
	}

	existing, findErr := r.getByNaturalKeyTx(ctx, tx, params.Phone, params.SourceTimestamp)
	if findErr != nil {
		return Lead{}, false, findErr
	}
	return existing, true, nil
}

func (r *Repository) getByNaturalKeyTx(ctx context.Context, tx pgx.Tx, phone string, ts any) (Lead, error) {
	const query = `
		SELECT id, name, phone, source_timestamp, source, city, state, metadata, created_at, unassigned
		FROM leads
		WHERE phone = $1 AND source_timestamp = $2
	`
	row := tx.QueryRow(ctx, query, phone, ts)
	l, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("lead: get by natural key: %w", err)
	}
	return l, nil
}

// GetByID fetches a single lead.
func (r *Repository) GetByID(ctx context.Context, id string) (Lead, error) {
	const query = `
		SELECT id, name, phone, source_timestamp, source, city, state, metadata, created_at, unassigned
		FROM leads
		WHERE id = $1
	`
	l, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("lead: get by id: %w", err)
	}
	return l, nil
}

// MarkUnassigned flips the lead's unassigned flag to true within tx.
func (r *Repository) MarkUnassigned(ctx context.Context, tx pgx.Tx, id string) error {
	if _, err := tx.Exec(ctx, `UPDATE leads SET unassigned = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("lead: mark unassigned: %w", err)
	}
	return nil
}

// ClearUnassigned flips the lead's unassigned flag to false within tx,
// used when a manual or automatic assignment succeeds for a
// previously-unassigned lead.
func (r *Repository) ClearUnassigned(ctx context.Context, tx pgx.Tx, id string) error {
	if _, err := tx.Exec(ctx, `UPDATE leads SET unassigned = false WHERE id = $1`, id); err != nil {
		return fmt.Errorf("lead: clear unassigned: %w", err)
	}
	return nil
}

// List returns leads matching filters with their latest assignment attached.
func (r *Repository) List(ctx context.Context, filters Filters) ([]WithAssignment, error) {
	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	base := `
		SELECT l.id, l.name, l.phone, l.source_timestamp, l.source, l.city, l.state, l.metadata, l.created_at, l.unassigned,
			la.id, la.caller_id, la.assigned_at, la.assignment_reason, la.status
		FROM leads l
		LEFT JOIN LATERAL (
			SELECT id, caller_id, assigned_at, assignment_reason, status
			FROM lead_assignments
			WHERE lead_id = l.id
			ORDER BY assigned_at DESC
			LIMIT 1
		) la ON true
	`
	where := []string{"1=1"}
	args := []any{}

	if filters.State != "" {
		args = append(args, filters.State)
		where = append(where, fmt.Sprintf("l.state = $%d", len(args)))
	}
	if filters.CallerID != "" {
		args = append(args, filters.CallerID)
		where = append(where, fmt.Sprintf("la.caller_id = $%d", len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, fmt.Sprintf("(l.name ILIKE $%d OR l.phone ILIKE $%d)", len(args), len(args)))
	}

	query := base + " WHERE " + strings.Join(where, " AND ")
	args = append(args, limit, filters.Offset)
	query += fmt.Sprintf(" ORDER BY l.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lead: list: %w", err)
	}
	defer rows.Close()

	out := make([]WithAssignment, 0, limit)
	for rows.Next() {
		var (
			item                                        WithAssignment
			metadataRaw                                  []byte
			assignmentID, callerID, reason, assignStat   *string
			assignedAt                                   *time.Time
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Phone, &item.SourceTimestamp, &item.Source, &item.City, &item.State,
			&metadataRaw, &item.CreatedAt, &item.Unassigned,
			&assignmentID, &callerID, &assignedAt, &reason, &assignStat,
		); err != nil {
			return nil, fmt.Errorf("lead: scan list: %w", err)
		}
		if len(metadataRaw) > 0 {
			_ = json.Unmarshal(metadataRaw, &item.Metadata)
		}
		if assignmentID != nil {
			a := &Assignment{ID: *assignmentID}
			if callerID != nil {
				a.CallerID = *callerID
			}
			if reason != nil {
				a.AssignmentReason = *reason
			}
			if assignStat != nil {
				a.Status = *assignStat
			}
			if assignedAt != nil {
				a.AssignedAt = *assignedAt
			}
			item.LatestAssignment = a
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanLead(row pgx.Row) (Lead, error) {
	var (
		l            Lead
		metadataRaw  []byte
	)
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.SourceTimestamp, &l.Source, &l.City, &l.State, &metadataRaw, &l.CreatedAt, &l.Unassigned)
	if err != nil {
		return Lead{}, err
	}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &l.Metadata); err != nil {
			return Lead{}, fmt.Errorf("lead: unmarshal metadata: %w", err)
		}
	}
	return l, nil
}
