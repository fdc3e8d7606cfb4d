package ledger

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"caterrides-core/internal/lifecycle"
	"caterrides-core/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ReserveSlot atomically takes one vacancy unit if any is left. The
// conditional UPDATE is the whole concurrency story: two racing applies hit
// the same row and the row-level write decides who gets the last unit. A
// full event is a normal granted=false, never an error.
func (d *DB) ReserveSlot(eventID string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("vacancies = vacancies - 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", eventID).
		Where("deleted_at IS NULL").
		Where("vacancies > 0").
		Exec(context.Background())
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 1 {
		return true, nil
	}

	// No row matched: either the event is gone or it is full.
	exists, err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Where("deleted_at IS NULL").
		Exists(context.Background())
	if err != nil {
		return false, err
	}
	if !exists {
		return false, lifecycle.ErrNotFound
	}
	return false, nil
}

// ReleaseSlot atomically returns one vacancy unit, capped at capacity so a
// double release cannot push the count past what the event started with.
// Archived events may still release: a rejected applicant on an archived
// event is harmless and keeps the count honest.
func (d *DB) ReleaseSlot(eventID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("vacancies = vacancies + 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", eventID).
		Where("vacancies < capacity").
		Exec(context.Background())
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	exists, err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(context.Background())
	if err != nil {
		return err
	}
	if !exists {
		return lifecycle.ErrNotFound
	}
	// Already at capacity, the cap absorbed a duplicate release.
	return nil
}

// GetVacancies returns the current remaining and capacity for an event.
func (d *DB) GetVacancies(eventID string) (int, int, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Column("vacancies", "capacity").
		Where("id = ?", eventID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return 0, 0, lifecycle.ErrNotFound
	}
	return event.Vacancies, event.Capacity, nil
}
