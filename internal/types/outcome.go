package types

import "time"

// OutcomeKind classifies what happened to one record (or the whole run).
type OutcomeKind string

const (
	OutcomeSkipped      OutcomeKind = "skipped"
	OutcomeStopped      OutcomeKind = "stopped"
	OutcomeRegistered   OutcomeKind = "registered"
	OutcomeMatched      OutcomeKind = "matched"
	OutcomeServiceAdded OutcomeKind = "service_added"
	OutcomeActionAdded  OutcomeKind = "action_added"
	OutcomeCompleted    OutcomeKind = "completed"
)

// OutcomeKinds lists every kind accepted by the audit trail.
var OutcomeKinds = []OutcomeKind{
	OutcomeSkipped, OutcomeStopped, OutcomeRegistered, OutcomeMatched,
	OutcomeServiceAdded, OutcomeActionAdded, OutcomeCompleted,
}

// Valid reports whether k is one of OutcomeKinds.
func (k OutcomeKind) Valid() bool {
	for _, o := range OutcomeKinds {
		if o == k {
			return true
		}
	}
	return false
}

// Outcome is one audit trail entry. ClientNumber is 1-based; 0 means the
// event concerns the run rather than a single record.
type Outcome struct {
	ID           int64       `json:"id,omitempty"`
	RunID        string      `json:"run_id"`
	ClientNumber int         `json:"client_number"`
	Kind         OutcomeKind `json:"kind"`
	Message      string      `json:"message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
