package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"caterrides-core/internal/lifecycle"
	"caterrides-core/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	err = bunDB.ResetModel(context.Background(), (*models.Event)(nil))
	require.NoError(t, err)

	t.Cleanup(func() { bunDB.Close() })
	return &DB{Bun: bunDB}
}

func insertEvent(t *testing.T, d *DB, id string, capacity, vacancies int) {
	event := models.Event{
		ID:          id,
		OrganizerID: "org-1",
		Title:       "Wedding service",
		Location:    "Coimbatore",
		Date:        time.Now().Add(48 * time.Hour),
		Capacity:    capacity,
		Vacancies:   vacancies,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	_, err := d.Bun.NewInsert().Model(&event).Exec(context.Background())
	require.NoError(t, err)
}

func TestReserveSlotUntilFull(t *testing.T) {
	d := setupTestDB(t)
	insertEvent(t, d, "ev-1", 2, 2)

	granted, err := d.ReserveSlot("ev-1")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = d.ReserveSlot("ev-1")
	require.NoError(t, err)
	assert.True(t, granted)

	// Full now: denied, but not an error.
	granted, err = d.ReserveSlot("ev-1")
	require.NoError(t, err)
	assert.False(t, granted)

	vacancies, capacity, err := d.GetVacancies("ev-1")
	require.NoError(t, err)
	assert.Equal(t, 0, vacancies)
	assert.Equal(t, 2, capacity)
}

func TestReserveSlotUnknownEvent(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.ReserveSlot("no-such-event")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestReserveSlotArchivedEvent(t *testing.T) {
	d := setupTestDB(t)
	insertEvent(t, d, "ev-1", 3, 3)

	_, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("deleted_at = ?", time.Now()).
		Where("id = ?", "ev-1").
		Exec(context.Background())
	require.NoError(t, err)

	_, err = d.ReserveSlot("ev-1")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestReleaseSlotCappedAtCapacity(t *testing.T) {
	d := setupTestDB(t)
	insertEvent(t, d, "ev-1", 2, 1)

	require.NoError(t, d.ReleaseSlot("ev-1"))

	// Double release must not push past capacity.
	require.NoError(t, d.ReleaseSlot("ev-1"))

	vacancies, capacity, err := d.GetVacancies("ev-1")
	require.NoError(t, err)
	assert.Equal(t, capacity, vacancies)
}

func TestReleaseSlotUnknownEvent(t *testing.T) {
	d := setupTestDB(t)

	err := d.ReleaseSlot("no-such-event")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestVacanciesNeverNegative(t *testing.T) {
	d := setupTestDB(t)
	insertEvent(t, d, "ev-1", 1, 1)

	granted, err := d.ReserveSlot("ev-1")
	require.NoError(t, err)
	require.True(t, granted)

	for i := 0; i < 5; i++ {
		granted, err := d.ReserveSlot("ev-1")
		require.NoError(t, err)
		assert.False(t, granted)
	}

	vacancies, _, err := d.GetVacancies("ev-1")
	require.NoError(t, err)
	assert.Equal(t, 0, vacancies)
}
