package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Rider is a read model owned by the identity subsystem. The lifecycle core
// only ever reads it for fan-out views.
type Rider struct {
	bun.BaseModel `bun:"table:riders"`

	ID              string    `bun:"id,pk" json:"_id"`
	Name            string    `bun:"name,notnull" json:"name"`
	Email           string    `bun:"email,unique,notnull" json:"email"`
	Phone           string    `bun:"phone" json:"phone"`
	Rating          float64   `bun:"rating" json:"rating"`
	ServesCompleted int       `bun:"serves_completed" json:"servesCompleted"`
	Earnings        float64   `bun:"earnings" json:"earnings"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"createdAt"`
}
