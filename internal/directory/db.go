package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"caterrides-core/internal/lifecycle"
	"caterrides-core/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ListEvents returns live events filtered by location substring and sorted
// by date or price. sortBy and order arrive pre-validated from the service;
// only whitelisted column names reach the query.
func (d *DB) ListEvents(place, sortColumn, direction string) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().
		Model(&events).
		Where("deleted_at IS NULL")

	if place != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(place)+"%")
	}

	err := q.Order(fmt.Sprintf("%s %s", sortColumn, direction)).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// GetEvent fetches a live event. Archived events are invisible on the read
// path.
func (d *DB) GetEvent(id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
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

func (d *DB) CreateEvent(event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(context.Background())
	return err
}

func (d *DB) UpdateEvent(event models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(&event).
		Column("title", "location", "date", "description", "negotiate_price", "capacity", "vacancies", "updated_at").
		Where("id = ?", event.ID).
		Exec(context.Background())
	return err
}

// SoftDeleteEvent archives an event that still has accepted applications.
func (d *DB) SoftDeleteEvent(id string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("deleted_at = ?", time.Now()).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(context.Background())
	return err
}

func (d *DB) DeleteEvent(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

func (d *DB) ListEventsByOrganizer(organizerID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("organizer_id = ?", organizerID).
		Where("deleted_at IS NULL").
		Order("date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (d *DB) GetOrganizer(id string) (*models.Organizer, error) {
	var organizer models.Organizer
	err := d.Bun.NewSelect().
		Model(&organizer).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &organizer, nil
}

func (d *DB) GetRider(id string) (*models.Rider, error) {
	var rider models.Rider
	err := d.Bun.NewSelect().
		Model(&rider).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &rider, nil
}
