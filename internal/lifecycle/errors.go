package lifecycle

import "errors"

// Error taxonomy for the application/vacancy lifecycle. EventFull and
// Conflict are expected negative outcomes under load, not faults; the HTTP
// layer maps them to ordinary 4xx responses.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("rider already applied to this event")
	ErrEventFull         = errors.New("event has no vacancies left")
	ErrForbidden         = errors.New("caller does not own this event")
	ErrInvalidTransition = errors.New("application already decided")
)
