package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"caterrides-core/internal/lifecycle"
	"caterrides-core/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateApplication inserts a new pending application. The unique index on
// (event_id, rider_id) turns a racing duplicate apply into ErrConflict.
func (d *DB) CreateApplication(app models.Application) error {
	_, err := d.Bun.NewInsert().Model(&app).Exec(context.Background())
	if err != nil {
		if isUniqueViolation(err) {
			return lifecycle.ErrConflict
		}
		return err
	}
	return nil
}

func (d *DB) GetApplicationByID(id string) (*models.Application, error) {
	var app models.Application
	err := d.Bun.NewSelect().
		Model(&app).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (d *DB) GetApplicationByEventAndRider(eventID, riderID string) (*models.Application, error) {
	var app models.Application
	err := d.Bun.NewSelect().
		Model(&app).
		Where("event_id = ?", eventID).
		Where("rider_id = ?", riderID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

// DecideApplication moves a pending application into a terminal state. The
// WHERE status = 'pending' clause makes the transition atomic: a second
// decision matches no row and reports false, leaving the first decision
// untouched.
func (d *DB) DecideApplication(id, target string, decidedAt time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Application)(nil)).
		Set("status = ?", target).
		Set("decided_at = ?", decidedAt).
		Where("id = ?", id).
		Where("status = ?", models.StatusPending).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// DeletePendingApplication removes a still-pending application (rider
// withdrawal). Returns false if the application was already decided.
func (d *DB) DeletePendingApplication(id string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Application)(nil)).
		Where("id = ?", id).
		Where("status = ?", models.StatusPending).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (d *DB) CountAcceptedByEvent(eventID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Application)(nil)).
		Where("event_id = ?", eventID).
		Where("status = ?", models.StatusAccepted).
		Count(context.Background())
}

func (d *DB) DeleteApplicationsByEvent(eventID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Application)(nil)).
		Where("event_id = ?", eventID).
		Exec(context.Background())
	return err
}

// ListAppliedEvents is the rider-scoped fan-out view: every application of
// the rider joined with its event. Archived events stay visible so an
// accepted rider keeps a record of the engagement.
func (d *DB) ListAppliedEvents(riderID string) ([]models.AppliedEvent, error) {
	var apps []models.Application
	err := d.Bun.NewSelect().
		Model(&apps).
		Where("rider_id = ?", riderID).
		Order("applied_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return []models.AppliedEvent{}, nil
	}

	eventIDs := make([]string, 0, len(apps))
	for _, app := range apps {
		eventIDs = append(eventIDs, app.EventID)
	}

	var events []models.Event
	err = d.Bun.NewSelect().
		Model(&events).
		Where("id IN (?)", bun.In(eventIDs)).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Event, len(events))
	for i := range events {
		byID[events[i].ID] = &events[i]
	}

	result := make([]models.AppliedEvent, 0, len(apps))
	for _, app := range apps {
		event, ok := byID[app.EventID]
		if !ok {
			continue
		}
		result = append(result, models.AppliedEvent{
			Event:     event,
			Status:    app.Status,
			AppliedAt: app.AppliedAt,
			DecidedAt: app.DecidedAt,
		})
	}
	return result, nil
}

// ListApplicantsByEvent is the organizer-scoped fan-out view: every
// application for the event joined with the rider's public profile.
func (d *DB) ListApplicantsByEvent(eventID string) ([]models.Applicant, error) {
	var apps []models.Application
	err := d.Bun.NewSelect().
		Model(&apps).
		Where("event_id = ?", eventID).
		Order("applied_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return []models.Applicant{}, nil
	}

	riderIDs := make([]string, 0, len(apps))
	for _, app := range apps {
		riderIDs = append(riderIDs, app.RiderID)
	}

	var riders []models.Rider
	err = d.Bun.NewSelect().
		Model(&riders).
		Where("id IN (?)", bun.In(riderIDs)).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Rider, len(riders))
	for i := range riders {
		byID[riders[i].ID] = &riders[i]
	}

	result := make([]models.Applicant, 0, len(apps))
	for _, app := range apps {
		rider, ok := byID[app.RiderID]
		if !ok {
			continue
		}
		result = append(result, models.Applicant{
			Rider:  rider,
			Status: app.Status,
		})
	}
	return result, nil
}

// GetEvent fetches the event an application targets, archived or not.
func (d *DB) GetEvent(eventID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// isUniqueViolation matches both the Postgres and the sqlite wording so the
// same store works in production and under test.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
