package history

import (
	"time"

	"github.com/slipstream/netcollections/internal/collections"
)

// RunSummary is one row of the run list.
type RunSummary struct {
	ID         string    `json:"id"`
	Config     string    `json:"config"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Cancelled  bool      `json:"cancelled"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Added      int       `json:"added"`
}

// ListOptions contains options for listing runs.
type ListOptions struct {
	Page     int
	PageSize int
}

// ListResponse contains paginated run summaries, newest first.
type ListResponse struct {
	Items      []*RunSummary `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int64         `json:"totalCount"`
	TotalPages int           `json:"totalPages"`
}

// Run is a stored run with its per-network results.
type Run struct {
	RunSummary
	Diagnostics []collections.Diagnostic `json:"diagnostics"`
	Results     []collections.Result     `json:"results"`
}
