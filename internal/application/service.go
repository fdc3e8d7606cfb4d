package application

import (
	"errors"
	"fmt"
	"time"

	"caterrides-core/internal/lifecycle"
	"caterrides-core/internal/logger"
	"caterrides-core/internal/models"
	"caterrides-core/internal/utils"
)

type DBLayer interface {
	CreateApplication(app models.Application) error
	GetApplicationByID(id string) (*models.Application, error)
	GetApplicationByEventAndRider(eventID, riderID string) (*models.Application, error)
	DecideApplication(id, target string, decidedAt time.Time) (bool, error)
	DeletePendingApplication(id string) (bool, error)
	ListAppliedEvents(riderID string) ([]models.AppliedEvent, error)
	ListApplicantsByEvent(eventID string) ([]models.Applicant, error)
	GetEvent(eventID string) (*models.Event, error)
}

type VacancyLedger interface {
	Reserve(eventID string) (bool, error)
	Release(eventID string) error
	FlagForReconciliation(eventID string)
}

type Publisher interface {
	PublishApplicationSubmitted(app models.Application) error
	PublishApplicationDecided(app models.Application) error
	PublishApplicationWithdrawn(app models.Application) error
}

// releaseRetries bounds the compensation attempts before an event is flagged
// for reconciliation.
const releaseRetries = 3

// Service composes the ledger and the store so apply and respond behave as
// single business operations.
type Service struct {
	DB     DBLayer
	Ledger VacancyLedger
	Kafka  Publisher
	Logger *logger.Logger
}

func NewService(db DBLayer, ledger VacancyLedger, kafka Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, Ledger: ledger, Kafka: kafka, Logger: log}
}

// Apply reserves a vacancy unit and records a pending application for the
// rider. The reserve-then-create pair is guarded by a compensating release:
// if the record cannot be written after the reservation was granted, the
// unit goes back to the pool. A retried apply finds the existing record via
// the uniqueness constraint and reports Conflict without touching the
// ledger.
func (s *Service) Apply(eventID, riderID string) (*models.Application, error) {
	existing, err := s.DB.GetApplicationByEventAndRider(eventID, riderID)
	if err != nil && !errors.Is(err, lifecycle.ErrNotFound) {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if existing != nil {
		s.Logger.LogApplication("APPLY", existing.ID, "rider already applied, returning existing application")
		return existing, lifecycle.ErrConflict
	}

	granted, err := s.Ledger.Reserve(eventID)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, lifecycle.ErrEventFull
	}

	app := models.Application{
		ID:        utils.NewApplicationID(),
		EventID:   eventID,
		RiderID:   riderID,
		Status:    models.StatusPending,
		AppliedAt: time.Now(),
	}

	if err := s.DB.CreateApplication(app); err != nil {
		// The reservation is already held; give the unit back before
		// reporting the failure.
		s.compensateReservation(eventID)

		if errors.Is(err, lifecycle.ErrConflict) {
			// Lost the duplicate race to a concurrent apply of the
			// same rider.
			if existing, getErr := s.DB.GetApplicationByEventAndRider(eventID, riderID); getErr == nil {
				return existing, lifecycle.ErrConflict
			}
			return nil, lifecycle.ErrConflict
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.Logger.LogApplication("APPLY", app.ID, fmt.Sprintf("rider %s applied to event %s", riderID, eventID))

	if err := s.Kafka.PublishApplicationSubmitted(app); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish application submitted: %v", err))
	}

	return &app, nil
}

// Respond applies the organizer's accept/reject decision. Accept consumes
// the reservation permanently; reject returns the unit so the slot reopens
// for new applicants. Any decision on a non-pending application fails with
// InvalidTransition and changes nothing.
func (s *Service) Respond(eventID, organizerID, riderID, decision string) (*models.Application, error) {
	if !models.ValidDecision(decision) {
		return nil, fmt.Errorf("invalid decision %q: %w", decision, lifecycle.ErrInvalidTransition)
	}

	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, lifecycle.ErrForbidden
	}

	app, err := s.DB.GetApplicationByEventAndRider(eventID, riderID)
	if err != nil {
		return nil, err
	}

	decidedAt := time.Now()
	ok, err := s.DB.DecideApplication(app.ID, decision, decidedAt)
	if err != nil {
		return nil, fmt.Errorf("decide application %s: %w", app.ID, err)
	}
	if !ok {
		return nil, lifecycle.ErrInvalidTransition
	}

	app.Status = decision
	app.DecidedAt = decidedAt

	if decision == models.StatusRejected {
		if err := s.Ledger.Release(eventID); err != nil {
			s.Logger.Error("APPLICATION", fmt.Sprintf("release after rejection of %s failed: %v", app.ID, err))
			s.Ledger.FlagForReconciliation(eventID)
		}
	}

	s.Logger.LogApplication("RESPOND", app.ID, fmt.Sprintf("organizer %s %s rider %s", organizerID, decision, riderID))

	if err := s.Kafka.PublishApplicationDecided(*app); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish application decided: %v", err))
	}

	return app, nil
}

// Withdraw removes the rider's still-pending application and returns the
// reserved unit, symmetric with rejection. Decided applications cannot be
// withdrawn.
func (s *Service) Withdraw(eventID, riderID string) error {
	app, err := s.DB.GetApplicationByEventAndRider(eventID, riderID)
	if err != nil {
		return err
	}
	if app.Decided() {
		return lifecycle.ErrInvalidTransition
	}

	ok, err := s.DB.DeletePendingApplication(app.ID)
	if err != nil {
		return fmt.Errorf("withdraw application %s: %w", app.ID, err)
	}
	if !ok {
		// A decision landed between the lookup and the delete.
		return lifecycle.ErrInvalidTransition
	}

	if err := s.Ledger.Release(eventID); err != nil {
		s.Logger.Error("APPLICATION", fmt.Sprintf("release after withdrawal of %s failed: %v", app.ID, err))
		s.Ledger.FlagForReconciliation(eventID)
	}

	s.Logger.LogApplication("WITHDRAW", app.ID, fmt.Sprintf("rider %s withdrew from event %s", riderID, eventID))

	if err := s.Kafka.PublishApplicationWithdrawn(*app); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish application withdrawn: %v", err))
	}

	return nil
}

// MyApplications is the rider-scoped projection.
func (s *Service) MyApplications(riderID string) ([]models.AppliedEvent, error) {
	return s.DB.ListAppliedEvents(riderID)
}

// Applicants is the organizer-scoped projection for one event.
func (s *Service) Applicants(eventID, organizerID string) ([]models.Applicant, error) {
	event, err := s.DB.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, lifecycle.ErrForbidden
	}
	return s.DB.ListApplicantsByEvent(eventID)
}

// AcceptedApplication returns the rider's application for the event if and
// only if it was accepted. Used for issuing work passes.
func (s *Service) AcceptedApplication(eventID, riderID string) (*models.Application, error) {
	app, err := s.DB.GetApplicationByEventAndRider(eventID, riderID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusAccepted {
		return nil, lifecycle.ErrInvalidTransition
	}
	return app, nil
}

// compensateReservation retries the release a few times and flags the event
// for reconciliation when it cannot be applied. The count then reads
// conservatively low, never oversold.
func (s *Service) compensateReservation(eventID string) {
	var err error
	for attempt := 1; attempt <= releaseRetries; attempt++ {
		if err = s.Ledger.Release(eventID); err == nil {
			return
		}
		s.Logger.Warn("APPLICATION", fmt.Sprintf("compensating release for event %s failed (attempt %d): %v", eventID, attempt, err))
	}
	s.Ledger.FlagForReconciliation(eventID)
}
