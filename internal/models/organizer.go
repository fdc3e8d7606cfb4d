package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Organizer is a read model owned by the identity subsystem.
type Organizer struct {
	bun.BaseModel `bun:"table:organizers"`

	ID               string    `bun:"id,pk" json:"_id"`
	Name             string    `bun:"name,notnull" json:"name"`
	OrganizationName string    `bun:"organization_name" json:"organizationName"`
	Email            string    `bun:"email,unique,notnull" json:"email"`
	Phone            string    `bun:"phone" json:"phone"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"createdAt"`
}
