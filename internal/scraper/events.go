package scraper

import "time"

// Event types, in the order a run emits them.
const (
	EventRunStarted   = "run.started"
	EventCollections  = "run.collections"
	EventPage         = "source.page"
	EventSourceDone   = "source.done"
	EventDeduplicated = "run.deduplicated"
	EventRunFinished  = "run.finished"
	EventRunFailed    = "run.failed"
)

// Event is a progress notification emitted while a run is in flight.
type Event struct {
	Type    string    `json:"type"`
	RunID   string    `json:"run_id,omitempty"`
	Site    string    `json:"site,omitempty"`
	Source  string    `json:"source,omitempty"`
	Page    int       `json:"page,omitempty"`
	Count   int       `json:"count,omitempty"`
	Total   int       `json:"total,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}
