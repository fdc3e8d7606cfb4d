package models

import "time"

// Request/response shapes for the HTTP surface. Field names follow what the
// web client already sends and renders.

type PostEventRequest struct {
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	Vacancies      int       `json:"vacancies"`
	NegotiatePrice float64   `json:"negotiatePrice"`
}

type UpdateEventRequest struct {
	Title          string     `json:"title"`
	Location       string     `json:"location"`
	Date           *time.Time `json:"date"`
	Description    string     `json:"description"`
	Capacity       *int       `json:"vacancies"`
	NegotiatePrice *float64   `json:"negotiatePrice"`
}

type RespondRequest struct {
	Action string `json:"action"`
}

// EventInfo is the rider-facing detail view: the event plus the owning
// organizer's public profile.
type EventInfo struct {
	Event     *Event     `json:"event"`
	Organizer *Organizer `json:"organizer"`
}

// Applicant is one row of the organizer's "my applicants" view.
type Applicant struct {
	Rider  *Rider `json:"rider"`
	Status string `json:"status"`
}

// AppliedEvent is one row of the rider's "my applications" view.
type AppliedEvent struct {
	Event     *Event    `json:"event"`
	Status    string    `json:"status"`
	AppliedAt time.Time `json:"appliedAt"`
	DecidedAt time.Time `json:"decidedAt,omitempty"`
}
