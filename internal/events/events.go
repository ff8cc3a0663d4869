// Package events publishes sync lifecycle events to Kafka.
package events

import "time"

// EventSyncCompleted is the event type header value of SyncCompleted messages.
const EventSyncCompleted = "runlog.sync_completed"

// SyncCompleted is emitted after every successful sync run.
type SyncCompleted struct {
	RunID       string     `json:"run_id"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	Fetched     int        `json:"fetched"`
	Inserted    int        `json:"inserted"`
	LatestRun   *LatestRun `json:"latest_run,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// LatestRun identifies the newest run written by a sync.
type LatestRun struct {
	StartDate string  `json:"start_date"`
	StartTime string  `json:"start_time"`
	Miles     float64 `json:"miles"`
}
