package model

// OutcomeKind classifies what the resolver did with a record.
type OutcomeKind string

const (
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeResolved OutcomeKind = "resolved"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeFailed   OutcomeKind = "failed"
)

// Outcome is the per-record result of resolution.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Record Record      `json:"record"`
	Query  string      `json:"query,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// Unresolved reports whether the outcome left a record without coordinates.
func (o Outcome) Unresolved() bool {
	return o.Kind == OutcomeNotFound || o.Kind == OutcomeFailed
}
