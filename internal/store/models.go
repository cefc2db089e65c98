package store

import "time"

// Project is a cached copy of a project the signed-in user can see, kept so
// the switcher has names before the context call returns.
type Project struct {
	ID       int64
	Name     string
	CachedAt time.Time
}

// Apply log outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// ApplyLogEntry records one commit attempt from the allocate screen.
type ApplyLogEntry struct {
	ID         int64
	ProjectID  int64
	From       string
	To         string
	Added      int
	Removed    int
	Approved   int
	Unapproved int
	Outcome    string
	HTTPStatus int
	Detail     string
	CreatedAt  time.Time
}

type Setting struct {
	Key   string
	Value string
}

// ApplyLogFilter narrows ListApplyLog.
type ApplyLogFilter struct {
	ProjectID *int64
	Outcome   string
	Limit     int
}
