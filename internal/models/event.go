package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID             string    `bun:"id,pk" json:"_id"`
	OrganizerID    string    `bun:"organizer_id,notnull" json:"organizerId"`
	Title          string    `bun:"title,notnull" json:"title"`
	Location       string    `bun:"location,notnull" json:"location"`
	Date           time.Time `bun:"date,notnull" json:"date"`
	Description    string    `bun:"description" json:"description"`
	NegotiatePrice float64   `bun:"negotiate_price" json:"negotiatePrice"`
	Capacity       int       `bun:"capacity,notnull" json:"capacity"`
	Vacancies      int       `bun:"vacancies,notnull" json:"vacancies"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updatedAt"`
	DeletedAt      time.Time `bun:"deleted_at,nullzero" json:"-"`
}

// Filled is the number of slots currently held by pending or accepted
// applications. Vacancies counts what is still open to new applicants.
func (e *Event) Filled() int {
	return e.Capacity - e.Vacancies
}

func (e *Event) Deleted() bool {
	return !e.DeletedAt.IsZero()
}
