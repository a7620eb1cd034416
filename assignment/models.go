package assignment

import "time"

// Reason is the closed set of assignment/unassignment reason codes.
type Reason string

const (
	ReasonStateRoundRobin     Reason = "state_round_robin"
	ReasonGlobalRoundRobin    Reason = "global_round_robin"
	ReasonManualReassign      Reason = "manual_reassign"
	ReasonUnassignedCapped    Reason = "unassigned_cap_reached"
	ReasonUnassignedNoEligible Reason = "unassigned_no_eligible"
)

// Status is the outcome status recorded on the assignment row.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusUnassigned Status = "unassigned"
)

// Candidate is the slice of caller data the engine needs to make a
// routing decision; it intentionally does not depend on the caller
// package so the engine's repository can query callers directly
// under its own transaction's locks.
type Candidate struct {
	ID         string
	DailyLimit int
}

// Outcome is the result of one Assign invocation.
type Outcome struct {
	AssignmentID string
	CallerID     *string
	Status       Status
	Reason       Reason
	AssignedAt   time.Time
}
