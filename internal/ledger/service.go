package ledger

import (
	"fmt"

	"caterrides-core/internal/logger"
)

type DBLayer interface {
	ReserveSlot(eventID string) (bool, error)
	ReleaseSlot(eventID string) error
	GetVacancies(eventID string) (int, int, error)
}

type VacancyCache interface {
	SetVacancies(eventID string, vacancies int) error
	FlagReconcile(eventID string) error
}

// Service is the single writer for vacancy counts. Reserve and Release are
// serialized per event by the storage row, not by anything in here, so two
// services pointing at the same database still cannot oversell.
type Service struct {
	DB     DBLayer
	Cache  VacancyCache
	Logger *logger.Logger
}

func NewService(db DBLayer, cache VacancyCache, log *logger.Logger) *Service {
	return &Service{DB: db, Cache: cache, Logger: log}
}

// Reserve takes one vacancy unit. granted=false means the event is full,
// which is an expected outcome under load.
func (s *Service) Reserve(eventID string) (bool, error) {
	granted, err := s.DB.ReserveSlot(eventID)
	if err != nil {
		return false, fmt.Errorf("reserve slot for event %s: %w", eventID, err)
	}

	if granted {
		s.Logger.LogLedger("RESERVE", eventID, "slot reserved")
		s.refreshCache(eventID)
	} else {
		s.Logger.LogLedger("RESERVE", eventID, "event full, reservation denied")
	}

	return granted, nil
}

// Release returns one vacancy unit to the pool.
func (s *Service) Release(eventID string) error {
	if err := s.DB.ReleaseSlot(eventID); err != nil {
		return fmt.Errorf("release slot for event %s: %w", eventID, err)
	}

	s.Logger.LogLedger("RELEASE", eventID, "slot released")
	s.refreshCache(eventID)
	return nil
}

// FlagForReconciliation records that a compensating release could not be
// applied. The vacancy count for the event may now read lower than it is;
// that is the safe direction, the event just sells one unit short until an
// operator clears the flag.
func (s *Service) FlagForReconciliation(eventID string) {
	s.Logger.Error("LEDGER", fmt.Sprintf("event %s flagged for vacancy reconciliation", eventID))
	if s.Cache == nil {
		return
	}
	if err := s.Cache.FlagReconcile(eventID); err != nil {
		s.Logger.Error("LEDGER", fmt.Sprintf("failed to flag event %s for reconciliation: %v", eventID, err))
	}
}

// refreshCache pushes the post-write count into the read cache. Best effort:
// a cache miss only means one listing shows a slightly stale number.
func (s *Service) refreshCache(eventID string) {
	if s.Cache == nil {
		return
	}
	vacancies, _, err := s.DB.GetVacancies(eventID)
	if err != nil {
		s.Logger.Warn("LEDGER", fmt.Sprintf("failed to read vacancies for cache refresh on event %s: %v", eventID, err))
		return
	}
	if err := s.Cache.SetVacancies(eventID, vacancies); err != nil {
		s.Logger.Warn("LEDGER", fmt.Sprintf("failed to refresh vacancy cache for event %s: %v", eventID, err))
	}
}
