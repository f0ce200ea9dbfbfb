package history

import "time"

// RunTrigger identifies what started an analysis run.
type RunTrigger string

// Run triggers.
const (
	TriggerManual    RunTrigger = "manual"
	TriggerScheduled RunTrigger = "scheduled"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// EventType categorizes history events.
type EventType string

// Event types.
const (
	EventRunStarted   EventType = "run_started"
	EventRunCompleted EventType = "run_completed"
	EventRunFailed    EventType = "run_failed"
	EventItemDeleted  EventType = "item_deleted"
	EventDeleteFailed EventType = "delete_failed"
	EventUnmonitored  EventType = "unmonitored"
)

// Run is one analysis run, persisted for the dashboard history view.
type Run struct {
	ID            string     `json:"id"`
	Trigger       RunTrigger `json:"trigger"`
	Status        RunStatus  `json:"status"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	TotalItems    int        `json:"totalItems"`
	FlaggedItems  int        `json:"flaggedItems"`
	FlaggedSizeGB float64    `json:"flaggedSizeGb"`
	Error         string     `json:"error,omitempty"`
}

// Event is one history event, optionally tied to a run.
type Event struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"runId,omitempty"`
	EventType  EventType `json:"eventType"`
	ItemTitle  string    `json:"itemTitle,omitempty"`
	ItemPlexID string    `json:"itemPlexId,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListOptions controls event listing.
type ListOptions struct {
	EventType string
	RunID     string
	Page      int
	PageSize  int
}

// ListResponse is a page of events.
type ListResponse struct {
	Events     []*Event `json:"events"`
	TotalCount int64    `json:"totalCount"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
}
