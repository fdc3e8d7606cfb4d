package directory_test

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

	appdb "caterrides-core/internal/application/db"
	"caterrides-core/internal/directory"
	"caterrides-core/internal/lifecycle"
	"caterrides-core/internal/logger"
	"caterrides-core/internal/models"
)

type fixture struct {
	bun     *bun.DB
	svc     *directory.Service
	eventDB *directory.DB
}

func setup(t *testing.T) *fixture {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	err = bunDB.ResetModel(context.Background(),
		(*models.Event)(nil),
		(*models.Application)(nil),
		(*models.Rider)(nil),
		(*models.Organizer)(nil),
	)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	eventDB := &directory.DB{Bun: bunDB}
	store := &appdb.DB{Bun: bunDB}
	svc := directory.NewService(eventDB, nil, store, logger.NewLogger())

	return &fixture{bun: bunDB, svc: svc, eventDB: eventDB}
}

func (f *fixture) seedEvent(t *testing.T, id, organizerID, location string, price float64, date time.Time) {
	event := models.Event{
		ID:             id,
		OrganizerID:    organizerID,
		Title:          "Catering shift",
		Location:       location,
		Date:           date,
		NegotiatePrice: price,
		Capacity:       4,
		Vacancies:      4,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	_, err := f.bun.NewInsert().Model(&event).Exec(context.Background())
	require.NoError(t, err)
}

func (f *fixture) seedOrganizer(t *testing.T, id, name string) {
	organizer := models.Organizer{
		ID:               id,
		Name:             name,
		OrganizationName: name + " Catering Co",
		Email:            name + "@example.com",
		CreatedAt:        time.Now(),
	}
	_, err := f.bun.NewInsert().Model(&organizer).Exec(context.Background())
	require.NoError(t, err)
}

func (f *fixture) seedApplication(t *testing.T, id, eventID, riderID, status string) {
	app := models.Application{
		ID:        id,
		EventID:   eventID,
		RiderID:   riderID,
		Status:    status,
		AppliedAt: time.Now(),
	}
	if status != models.StatusPending {
		app.DecidedAt = time.Now()
	}
	_, err := f.bun.NewInsert().Model(&app).Exec(context.Background())
	require.NoError(t, err)
}

func TestListEventsFilterByPlace(t *testing.T) {
	f := setup(t)
	base := time.Now().Add(24 * time.Hour)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, base)
	f.seedEvent(t, "ev-2", "org-1", "Coimbatore", 400, base)
	f.seedEvent(t, "ev-3", "org-2", "Madurai", 300, base)

	events, err := f.svc.ListEvents("chen", "", "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].ID)
}

func TestListEventsSortByPriceDesc(t *testing.T) {
	f := setup(t)
	base := time.Now().Add(24 * time.Hour)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, base)
	f.seedEvent(t, "ev-2", "org-1", "Chennai", 900, base.Add(time.Hour))
	f.seedEvent(t, "ev-3", "org-1", "Chennai", 200, base.Add(2*time.Hour))

	events, err := f.svc.ListEvents("", "price", "desc")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"ev-2", "ev-1", "ev-3"}, []string{events[0].ID, events[1].ID, events[2].ID})
}

func TestListEventsDefaultSortDateAsc(t *testing.T) {
	f := setup(t)
	base := time.Now().Add(24 * time.Hour)
	f.seedEvent(t, "ev-late", "org-1", "Chennai", 100, base.Add(48*time.Hour))
	f.seedEvent(t, "ev-early", "org-1", "Chennai", 100, base)

	events, err := f.svc.ListEvents("", "", "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-early", events[0].ID)
}

func TestEventInfoIncludesOrganizer(t *testing.T) {
	f := setup(t)
	f.seedOrganizer(t, "org-1", "meera")
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))

	info, err := f.svc.EventInfo("ev-1")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", info.Event.ID)
	assert.Equal(t, "meera", info.Organizer.Name)
}

func TestEventInfoNotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.EventInfo("nope")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestCreateEvent(t *testing.T) {
	f := setup(t)

	event, err := f.svc.CreateEvent("org-1", models.PostEventRequest{
		Title:          "Wedding reception",
		Location:       "Chennai",
		Date:           time.Now().Add(72 * time.Hour),
		NegotiatePrice: 750,
		Vacancies:      6,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, 6, event.Capacity)
	assert.Equal(t, 6, event.Vacancies)

	stored, err := f.eventDB.GetEvent(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wedding reception", stored.Title)
}

func TestCreateEventValidation(t *testing.T) {
	f := setup(t)
	date := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name string
		req  models.PostEventRequest
	}{
		{"missing title", models.PostEventRequest{Location: "Chennai", Date: date, Vacancies: 2}},
		{"missing location", models.PostEventRequest{Title: "Shift", Date: date, Vacancies: 2}},
		{"zero vacancies", models.PostEventRequest{Title: "Shift", Location: "Chennai", Date: date, Vacancies: 0}},
		{"missing date", models.PostEventRequest{Title: "Shift", Location: "Chennai", Vacancies: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateEvent("org-1", tc.req)
			assert.True(t, errors.Is(err, directory.ErrInvalidEvent))
		})
	}
}

func TestUpdateEventGrowsCapacity(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))

	// Two slots held.
	_, err := f.bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("vacancies = 2").
		Where("id = ?", "ev-1").
		Exec(context.Background())
	require.NoError(t, err)

	newCap := 6
	event, err := f.svc.UpdateEvent("ev-1", "org-1", models.UpdateEventRequest{Capacity: &newCap})
	require.NoError(t, err)
	assert.Equal(t, 6, event.Capacity)
	// The two held slots stay held.
	assert.Equal(t, 4, event.Vacancies)
}

func TestUpdateEventCapacityBelowFilled(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))

	_, err := f.bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("vacancies = 1").
		Where("id = ?", "ev-1").
		Exec(context.Background())
	require.NoError(t, err)

	// Three slots held, capacity 2 would strand one of them.
	newCap := 2
	_, err = f.svc.UpdateEvent("ev-1", "org-1", models.UpdateEventRequest{Capacity: &newCap})
	assert.True(t, errors.Is(err, directory.ErrInvalidEvent))
}

func TestUpdateEventForbiddenForNonOwner(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))

	_, err := f.svc.UpdateEvent("ev-1", "org-2", models.UpdateEventRequest{Title: "Hijacked"})
	assert.True(t, errors.Is(err, lifecycle.ErrForbidden))
}

func TestDeleteEventWithoutAcceptedRemovesEverything(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))
	f.seedApplication(t, "app-1", "ev-1", "rider-1", models.StatusPending)

	require.NoError(t, f.svc.DeleteEvent("ev-1", "org-1"))

	_, err := f.eventDB.GetEvent("ev-1")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))

	count, err := f.bun.NewSelect().Model((*models.Application)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteEventWithAcceptedArchives(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))
	f.seedApplication(t, "app-1", "ev-1", "rider-1", models.StatusAccepted)

	require.NoError(t, f.svc.DeleteEvent("ev-1", "org-1"))

	// Gone from the rider-facing read path...
	_, err := f.eventDB.GetEvent("ev-1")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))

	// ...but the row and the accepted application survive.
	count, err := f.bun.NewSelect().Model((*models.Event)(nil)).Where("id = ?", "ev-1").Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = f.bun.NewSelect().Model((*models.Application)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteEventForbiddenForNonOwner(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))

	err := f.svc.DeleteEvent("ev-1", "org-2")
	assert.True(t, errors.Is(err, lifecycle.ErrForbidden))
}

func TestMyEventsScopedToOrganizer(t *testing.T) {
	f := setup(t)
	base := time.Now().Add(24 * time.Hour)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, base)
	f.seedEvent(t, "ev-2", "org-2", "Chennai", 500, base)

	events, err := f.svc.MyEvents("org-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].ID)
}

func TestEventDetailsOwnershipCheck(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))

	event, err := f.svc.EventDetails("ev-1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)

	_, err = f.svc.EventDetails("ev-1", "org-2")
	assert.True(t, errors.Is(err, lifecycle.ErrForbidden))
}

type staticVacancyReader struct {
	counts map[string]int
}

func (r staticVacancyReader) GetVacanciesBatch(ids []string) (map[string]int, error) {
	return r.counts, nil
}

func TestListEventsOverlaysCachedVacancies(t *testing.T) {
	f := setup(t)
	f.seedEvent(t, "ev-1", "org-1", "Chennai", 500, time.Now().Add(24*time.Hour))
	f.svc.Cache = staticVacancyReader{counts: map[string]int{"ev-1": 1}}

	events, err := f.svc.ListEvents("", "", "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Vacancies)
}
