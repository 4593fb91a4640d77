package events

import "time"

// Envelope is the canonical event shape shared across Concord modules.
// Workflow modules wrap side-effect notifications in this envelope before
// handing them to the outbox; the worker relay publishes them unchanged.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceModule   string    `json:"source_module"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	SubjectKind    string    `json:"subject_kind"`
	SubjectID      string    `json:"subject_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        any       `json:"payload"`
}
