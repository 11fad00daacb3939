package writer

import (
	"context"
	"time"
)

// RunEvent announces a completed run to downstream consumers.
type RunEvent struct {
	Event        string           `json:"event"`
	RunID        string           `json:"run_id"`
	RunTimestamp time.Time        `json:"run_timestamp"`
	Version      string           `json:"version,omitempty"`
	RowCounts    map[string]int   `json:"row_counts"`
	Tables       []PublishedTable `json:"tables"`
}

const EventRunCompleted = "run_completed"

// Notifier tells consumers that fresh tables are available.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event RunEvent) error
	Close() error
}
