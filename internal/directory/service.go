package directory

import (
	"errors"
	"fmt"
	"time"

	"caterrides-core/internal/lifecycle"
	"caterrides-core/internal/logger"
	"caterrides-core/internal/models"
	"caterrides-core/internal/utils"
)

// ErrInvalidEvent reports a request that cannot produce a well-formed event,
// e.g. a missing title or a capacity below the filled slot count.
var ErrInvalidEvent = errors.New("invalid event data")

type DBLayer interface {
	ListEvents(place, sortColumn, direction string) ([]models.Event, error)
	GetEvent(id string) (*models.Event, error)
	CreateEvent(event models.Event) error
	UpdateEvent(event models.Event) error
	SoftDeleteEvent(id string) error
	DeleteEvent(id string) error
	ListEventsByOrganizer(organizerID string) ([]models.Event, error)
	GetOrganizer(id string) (*models.Organizer, error)
	GetRider(id string) (*models.Rider, error)
}

type VacancyReader interface {
	GetVacanciesBatch(eventIDs []string) (map[string]int, error)
}

type ApplicationStore interface {
	CountAcceptedByEvent(eventID string) (int, error)
	DeleteApplicationsByEvent(eventID string) error
}

// Service is the read path for riders plus the organizer-side event CRUD.
// It never touches the ledger's reserve/release primitives; vacancy numbers
// in listings come straight from storage with a cached overlay that may be
// one write behind.
type Service struct {
	DB           DBLayer
	Cache        VacancyReader
	Applications ApplicationStore
	Logger       *logger.Logger
}

func NewService(db DBLayer, cache VacancyReader, applications ApplicationStore, log *logger.Logger) *Service {
	return &Service{DB: db, Cache: cache, Applications: applications, Logger: log}
}

// ListEvents serves the rider dashboard listing. sortBy accepts "date" or
// "price", order "asc" or "desc"; anything else falls back to date
// ascending.
func (s *Service) ListEvents(place, sortBy, order string) ([]models.Event, error) {
	sortColumn := "date"
	if sortBy == "price" {
		sortColumn = "negotiate_price"
	}
	direction := "ASC"
	if order == "desc" {
		direction = "DESC"
	}

	events, err := s.DB.ListEvents(place, sortColumn, direction)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	s.overlayVacancies(events)
	return events, nil
}

// EventInfo is the rider-facing detail view: the event plus the owning
// organizer's public profile.
func (s *Service) EventInfo(eventID string) (*models.EventInfo, error) {
	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		return nil, err
	}

	organizer, err := s.DB.GetOrganizer(event.OrganizerID)
	if err != nil {
		return nil, fmt.Errorf("organizer for event %s: %w", eventID, err)
	}

	view := []models.Event{*event}
	s.overlayVacancies(view)
	return &models.EventInfo{Event: &view[0], Organizer: organizer}, nil
}

// CreateEvent posts a new event. Capacity and vacancies start equal.
func (s *Service) CreateEvent(organizerID string, req models.PostEventRequest) (*models.Event, error) {
	if req.Title == "" || req.Location == "" {
		return nil, fmt.Errorf("title and location are required: %w", ErrInvalidEvent)
	}
	if req.Vacancies <= 0 {
		return nil, fmt.Errorf("vacancies must be greater than 0: %w", ErrInvalidEvent)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("date is required: %w", ErrInvalidEvent)
	}

	now := time.Now()
	event := models.Event{
		ID:             utils.NewEventID(),
		OrganizerID:    organizerID,
		Title:          req.Title,
		Location:       req.Location,
		Date:           req.Date,
		Description:    req.Description,
		NegotiatePrice: req.NegotiatePrice,
		Capacity:       req.Vacancies,
		Vacancies:      req.Vacancies,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.DB.CreateEvent(event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.Logger.LogDatabase("INSERT", "events", fmt.Sprintf("organizer %s posted event %s", organizerID, event.ID))
	return &event, nil
}

// UpdateEvent edits an owned event. Capacity may change but never drop
// below the filled slot count; vacancies shift by the capacity delta so
// held reservations stay intact.
func (s *Service) UpdateEvent(eventID, organizerID string, req models.UpdateEventRequest) (*models.Event, error) {
	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, lifecycle.ErrForbidden
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Location != "" {
		event.Location = req.Location
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.NegotiatePrice != nil {
		event.NegotiatePrice = *req.NegotiatePrice
	}
	if req.Capacity != nil {
		newCapacity := *req.Capacity
		filled := event.Filled()
		if newCapacity < filled {
			return nil, fmt.Errorf("capacity %d is below the %d slots already held: %w", newCapacity, filled, ErrInvalidEvent)
		}
		event.Capacity = newCapacity
		event.Vacancies = newCapacity - filled
	}
	event.UpdatedAt = time.Now()

	if err := s.DB.UpdateEvent(*event); err != nil {
		return nil, fmt.Errorf("update event %s: %w", eventID, err)
	}

	s.Logger.LogDatabase("UPDATE", "events", fmt.Sprintf("organizer %s updated event %s", organizerID, eventID))
	return event, nil
}

// DeleteEvent removes an owned event. With accepted applications on the
// books the event is archived instead, so accepted riders keep their
// engagement record; pending applications on a fully deleted event vanish
// with it.
func (s *Service) DeleteEvent(eventID, organizerID string) error {
	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != organizerID {
		return lifecycle.ErrForbidden
	}

	accepted, err := s.Applications.CountAcceptedByEvent(eventID)
	if err != nil {
		return fmt.Errorf("count accepted applications for event %s: %w", eventID, err)
	}

	if accepted > 0 {
		if err := s.DB.SoftDeleteEvent(eventID); err != nil {
			return fmt.Errorf("archive event %s: %w", eventID, err)
		}
		s.Logger.LogDatabase("UPDATE", "events", fmt.Sprintf("event %s archived, %d accepted riders on record", eventID, accepted))
		return nil
	}

	if err := s.Applications.DeleteApplicationsByEvent(eventID); err != nil {
		return fmt.Errorf("delete applications for event %s: %w", eventID, err)
	}
	if err := s.DB.DeleteEvent(eventID); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}

	s.Logger.LogDatabase("DELETE", "events", fmt.Sprintf("organizer %s deleted event %s", organizerID, eventID))
	return nil
}

// MyEvents lists the caller's own events.
func (s *Service) MyEvents(organizerID string) ([]models.Event, error) {
	events, err := s.DB.ListEventsByOrganizer(organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events for organizer %s: %w", organizerID, err)
	}
	s.overlayVacancies(events)
	return events, nil
}

// EventDetails returns an owned event for the edit form.
func (s *Service) EventDetails(eventID, organizerID string) (*models.Event, error) {
	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, lifecycle.ErrForbidden
	}
	return event, nil
}

func (s *Service) RiderProfile(riderID string) (*models.Rider, error) {
	return s.DB.GetRider(riderID)
}

func (s *Service) OrganizerProfile(organizerID string) (*models.Organizer, error) {
	return s.DB.GetOrganizer(organizerID)
}

// overlayVacancies swaps in cached counts where present. Best effort; a
// cache error just means the stored numbers are served as-is.
func (s *Service) overlayVacancies(events []models.Event) {
	if s.Cache == nil || len(events) == 0 {
		return
	}

	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}

	cached, err := s.Cache.GetVacanciesBatch(ids)
	if err != nil {
		s.Logger.Warn("DIRECTORY", fmt.Sprintf("vacancy cache read failed: %v", err))
		return
	}

	for i := range events {
		if n, ok := cached[events[i].ID]; ok {
			events[i].Vacancies = n
		}
	}
}
