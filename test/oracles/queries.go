package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Oracle is one invariant check: SQL that must return zero rows when
// the system is behaving correctly.
type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_counter_matches_assigned_count",
			SQL: `SELECT c.caller_id, c.business_date, c.count, actual.n
                  FROM caller_daily_counters c
                  JOIN (
                      SELECT caller_id, (assigned_at AT TIME ZONE 'UTC')::date AS business_date, COUNT(*) AS n
                      FROM lead_assignments
                      WHERE status = 'assigned'
                      GROUP BY caller_id, (assigned_at AT TIME ZONE 'UTC')::date
                  ) actual ON actual.caller_id = c.caller_id AND actual.business_date = c.business_date
                  WHERE c.count <> actual.n`,
		},
		{
			// Manual reassignment (assignment_reason = manual_reassign) is
			// specced to bypass the daily cap, so this only counts
			// automatically-routed assignments against the limit.
			Name: "O2_no_cap_overrun",
			SQL: `SELECT c.id, c.daily_limit, auto.n
                  FROM callers c
                  JOIN (
                      SELECT caller_id, (assigned_at AT TIME ZONE 'UTC')::date AS business_date, COUNT(*) AS n
                      FROM lead_assignments
                      WHERE status = 'assigned' AND assignment_reason IN ('state_round_robin', 'global_round_robin')
                      GROUP BY caller_id, (assigned_at AT TIME ZONE 'UTC')::date
                  ) auto ON auto.caller_id = c.id
                  WHERE c.daily_limit > 0 AND auto.n > c.daily_limit`,
		},
		{
			Name: "O3_no_duplicate_assigned_at_per_lead",
			SQL: `SELECT lead_id, assigned_at, COUNT(*)
                  FROM lead_assignments
                  GROUP BY lead_id, assigned_at
                  HAVING COUNT(*) > 1`,
		},
		{
			Name: "O4_no_duplicate_natural_key_leads",
			SQL: `SELECT phone, source_timestamp, COUNT(*)
                  FROM leads
                  GROUP BY phone, source_timestamp
                  HAVING COUNT(*) > 1`,
		},
		{
			Name: "O5_unassigned_status_has_no_caller",
			SQL: `SELECT id, lead_id, caller_id
                  FROM lead_assignments
                  WHERE status = 'unassigned' AND caller_id IS NOT NULL`,
		},
	}
}

// Run executes every oracle and returns the first failure (name and a
// sample offending row) or an empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
