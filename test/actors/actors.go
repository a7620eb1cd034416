package actors

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadrouter/assignment"
	"leadrouter/clock"
	"leadrouter/lead"
)

// Ingestor repeatedly submits webhook-style leads for states and
// drives them through the assignment engine inside one transaction,
// the same composition main.go's webhook handler uses.
func Ingestor(ctx context.Context, pool *pgxpool.Pool, leadRepo *lead.Repository, engine *assignment.Engine, states []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		state := states[rand.Intn(len(states))]
		phone := fmt.Sprintf("+1555%07d", rand.Intn(9999999))

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("ingestor begin: %w", err)
		}

		created, existed, err := leadRepo.FindOrCreate(ctx, tx, lead.IngestParams{
			Name:            "Stress Lead",
			Phone:           phone,
			SourceTimestamp: time.Now(),
			Source:          "stress",
			State:           state,
		})
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("ingestor find-or-create: %w", err)
		}

		if !existed {
			if _, err := engine.Assign(ctx, tx, created.ID, created.State, nil, nil); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("ingestor assign: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("ingestor commit: %w", err)
		}

		time.Sleep(time.Duration(5+rand.Intn(15)) * time.Millisecond)
	}
}

// Reassigner picks a random lead id from the provided pool and forces
// a manual reassignment onto a random caller, contending with
// Ingestor's automatic assignments over the same rows.
func Reassigner(ctx context.Context, pool *pgxpool.Pool, engine *assignment.Engine, leadIDs, callerIDs []string, stop <-chan struct{}) error {
	if len(leadIDs) == 0 || len(callerIDs) == 0 {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		leadID := leadIDs[rand.Intn(len(leadIDs))]
		callerID := callerIDs[rand.Intn(len(callerIDs))]

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("reassigner begin: %w", err)
		}
		if _, err := engine.Assign(ctx, tx, leadID, "", &callerID, nil); err != nil {
			_ = tx.Rollback(ctx)
			if err == assignment.ErrInvalidForcedCaller {
				continue
			}
			return fmt.Errorf("reassigner assign: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("reassigner commit: %w", err)
		}

		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// StatusToggler randomly pauses and reactivates callers concurrently
// with assignment traffic, exercising the eligibility filter's
// interaction with the cap filter and the round-robin pointer under
// churn in the active caller set.
func StatusToggler(ctx context.Context, pool *pgxpool.Pool, callerIDs []string, stop <-chan struct{}) error {
	if len(callerIDs) == 0 {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		callerID := callerIDs[rand.Intn(len(callerIDs))]
		next := "active"
		if rand.Intn(2) == 0 {
			next = "paused"
		}
		_, _ = pool.Exec(ctx, `UPDATE callers SET status = $2, updated_at = now() WHERE id = $1`, callerID, next)

		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}

// BusinessClock lets stress runs pin a fixed instant so every actor's
// engine agrees on the same business date for the run's duration.
func BusinessClock(t time.Time) clock.Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }
