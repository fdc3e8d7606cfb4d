package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Application is the single record for a (event, rider) pair. The unique
// index on that pair is what makes retried applies idempotent.
type Application struct {
	bun.BaseModel `bun:"table:applications"`

	ID        string    `bun:"id,pk" json:"_id"`
	EventID   string    `bun:"event_id,notnull,unique:app_event_rider" json:"eventId"`
	RiderID   string    `bun:"rider_id,notnull,unique:app_event_rider" json:"riderId"`
	Status    string    `bun:"status,notnull" json:"status"`
	AppliedAt time.Time `bun:"applied_at,notnull" json:"appliedAt"`
	DecidedAt time.Time `bun:"decided_at,nullzero" json:"decidedAt,omitempty"`
}

// Decided reports whether the application has reached a terminal state.
func (a *Application) Decided() bool {
	return a.Status != StatusPending
}

// ValidDecision reports whether target is an allowed terminal state.
func ValidDecision(target string) bool {
	return target == StatusAccepted || target == StatusRejected
}
