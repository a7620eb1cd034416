package lead

import "time"

// Lead is an inbound sales lead submitted through the webhook.
type Lead struct {
	ID              string
	Name            string
	Phone           string
	SourceTimestamp time.Time
	Source          string
	City            string
	State           string
	Metadata        map[string]any
	CreatedAt       time.Time
	Unassigned      bool
}

// IngestParams are the fields the webhook submits for a new lead.
type IngestParams struct {
	Name            string
	Phone           string
	SourceTimestamp time.Time
	Source          string
	City            string
	State           string
	Metadata        map[string]any
}

// Assignment is the latest assignment outcome attached to a lead in listings.
type Assignment struct {
	ID               string
	CallerID         string
	AssignedAt       time.Time
	AssignmentReason string
	Status           string
}

// WithAssignment pairs a lead with its latest assignment, if any.
type WithAssignment struct {
	Lead
	LatestAssignment *Assignment
}

// Filters narrows a lead listing.
type Filters struct {
	State    string
	CallerID string
	Search   string
	Limit    int
	Offset   int
}
