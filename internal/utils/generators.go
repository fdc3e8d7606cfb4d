package utils

import "github.com/google/uuid"

// NewEventID returns a fresh event identifier.
func NewEventID() string {
	return uuid.NewString()
}

// NewApplicationID returns a fresh application identifier.
func NewApplicationID() string {
	return uuid.NewString()
}
