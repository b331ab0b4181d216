package domain

import "time"

// AuditEvent records one console action for the audit trail.
type AuditEvent struct {
	At      time.Time `json:"at"      bson:"at"`
	Actor   string    `json:"actor"   bson:"actor"`
	Action  string    `json:"action"  bson:"action"`
	Target  string    `json:"target"  bson:"target,omitempty"`
	Outcome string    `json:"outcome" bson:"outcome"`
	Detail  string    `json:"detail"  bson:"detail,omitempty"`
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
