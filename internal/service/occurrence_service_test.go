package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

func float(v float64) *float64 { return &v }

func seedClass(h *harness, id string, capacity int, price *float64, entries ...models.ClassScheduleEntry) {
	h.db.addCourt("C", 0)
	h.db.addInstructor("I", "instructor-user", 0)
	h.db.addClass(models.Class{ID: id, Name: "Class " + id, DurationMinutes: 60, CapacityMax: capacity, UnitPrice: price}, entries...)
}

func entry(day int, start string) models.ClassScheduleEntry {
	return models.ClassScheduleEntry{DayOfWeek: day, StartTime: start, InstructorID: "I", CourtID: "C"}
}

func generate(h *harness, classID, from, to string) (*dto.GenerateOccurrencesResult, error) {
	return h.occurrences.Generate(context.Background(), admin(), dto.GenerateOccurrencesRequest{ClassID: classID, PeriodStart: from, PeriodEnd: to})
}

func TestGenerateIsIdempotent(t *testing.T) {
	h := newHarness(t, bookingNow)
	seedClass(h, "X", 10, nil, entry(1, "18:00"), entry(3, "18:00"))

	first, err := generate(h, "X", "2025-11-01", "2025-11-30")
	require.NoError(t, err)
	assert.Equal(t, 8, first.CreatedCount)
	assert.Equal(t, 0, first.Skipped)
	require.Len(t, first.Created, 8)
	assert.Equal(t, "2025-11-03T18:00:00", first.Created[0].Start)
	assert.Equal(t, "2025-11-03T19:00:00", first.Created[0].End)
	assert.Equal(t, "2025-11-26T18:00:00", first.Created[7].Start)

	second, err := generate(h, "X", "2025-11-01", "2025-11-30")
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	assert.Equal(t, 8, second.Skipped)
	assert.Len(t, h.db.occurrences, 8)
}

func TestGenerateSkipsConflictsAndStartedCandidates(t *testing.T) {
	h := newHarness(t, bookingNow)
	seedClass(h, "X", 10, nil, entry(1, "07:00"), entry(2, "19:00"))
	ctx := context.Background()

	_, err := h.bookings.Create(ctx, student("U1"), courtBooking("C", "2025-10-28T19:30:00", "2025-10-28T20:30:00"))
	require.NoError(t, err)

	res, err := generate(h, "X", "2025-10-20", "2025-10-28")
	require.NoError(t, err)
	// Mon 20th 07:00 already started, Tue 28th collides with the booking,
	// Mon 27th and Tue 21st are created.
	assert.Equal(t, 2, res.CreatedCount)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "2025-10-21T19:00:00", res.Created[0].Start)
	assert.Equal(t, "2025-10-27T07:00:00", res.Created[1].Start)
}

func TestGenerateValidatesRequest(t *testing.T) {
	h := newHarness(t, bookingNow)
	seedClass(h, "X", 10, nil, entry(2, "19:00"))
	h.db.addClass(models.Class{ID: "EMPTY", Name: "Empty", DurationMinutes: 60, CapacityMax: 5})
	h.db.addClass(models.Class{ID: "OFF", Name: "Off", DurationMinutes: 60, CapacityMax: 5, Status: models.ClassInactive}, entry(2, "19:00"))
	ctx := context.Background()

	_, err := generate(h, "X", "2025-10-19", "2025-10-30")
	assert.ErrorIs(t, err, appErrors.ErrPastInterval)

	_, err = generate(h, "X", "2025-11-10", "2025-11-01")
	assert.ErrorIs(t, err, appErrors.ErrInvalidInterval)

	_, err = generate(h, "X", "2025-11-01", "2026-06-01")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = generate(h, "EMPTY", "2025-11-01", "2025-11-30")
	assert.ErrorIs(t, err, appErrors.ErrNoSchedule)

	_, err = generate(h, "OFF", "2025-11-01", "2025-11-30")
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = generate(h, "missing", "2025-11-01", "2025-11-30")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = h.occurrences.Generate(ctx, student("U1"), dto.GenerateOccurrencesRequest{ClassID: "X", PeriodStart: "2025-11-01", PeriodEnd: "2025-11-30"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	assert.Empty(t, h.db.occurrences)
}

func TestCancelOccurrenceCascades(t *testing.T) {
	h := newHarness(t, bookingNow)
	seedClass(h, "X", 10, float(30), entry(2, "19:00"))
	ctx := context.Background()

	res, err := generate(h, "X", "2025-10-21", "2025-10-21")
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	occID := res.Created[0].ID

	for _, user := range []string{"U1", "U2", "U3"} {
		_, err := h.enrollments.Enroll(ctx, student(user), dto.EnrollRequest{OccurrenceID: occID})
		require.NoError(t, err)
	}
	require.Len(t, h.db.charges, 3)

	out, err := h.occurrences.Cancel(ctx, admin(), occID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, out.EnrollmentsCancelled)
	assert.Equal(t, 3, out.ChargesCancelled)
	assert.False(t, out.AlreadyCancelled)
	for _, e := range h.db.enrollments {
		assert.Equal(t, models.EnrollmentCancelled, e.Status)
	}
	for _, c := range h.db.charges {
		assert.Equal(t, models.ChargeCancelled, c.Status)
	}

	cancelled := 0
	for _, typ := range h.notifier.types() {
		if typ == models.NotifyOccurrenceCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 3, cancelled)

	again, err := h.occurrences.Cancel(ctx, admin(), occID, false)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCancelled)
	assert.Zero(t, again.EnrollmentsCancelled)
	assert.Zero(t, again.ChargesCancelled)

	// A cancelled occurrence releases its court.
	_, err = h.bookings.Create(ctx, student("U4"), courtBooking("C", "2025-10-21T19:00:00", "2025-10-21T20:00:00"))
	assert.NoError(t, err)
}

func TestCancelStartedOccurrenceNeedsForce(t *testing.T) {
	h := newHarness(t, bookingNow)
	seedClass(h, "X", 10, nil, entry(1, "09:00"))
	ctx := context.Background()

	res, err := generate(h, "X", "2025-10-20", "2025-10-20")
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	h.clock.Set(at("2025-10-20T09:30"))

	_, err = h.occurrences.Cancel(ctx, admin(), res.Created[0].ID, false)
	assert.ErrorIs(t, err, appErrors.ErrPastOccurrence)

	_, err = h.occurrences.Cancel(ctx, admin(), res.Created[0].ID, true)
	assert.NoError(t, err)
}

func TestConfirmOccurrence(t *testing.T) {
	h := newHarness(t, bookingNow)
	seedClass(h, "X", 10, nil, entry(2, "19:00"))
	ctx := context.Background()

	res, err := generate(h, "X", "2025-10-21", "2025-10-21")
	require.NoError(t, err)
	id := res.Created[0].ID

	out, err := h.occurrences.Confirm(ctx, admin(), id)
	require.NoError(t, err)
	assert.Equal(t, string(models.OccurrenceConfirmed), out.Status)

	_, err = h.occurrences.Confirm(ctx, admin(), id)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	list, page, err := h.occurrences.List(ctx, dto.OccurrenceListQuery{ClassID: "X"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Class X", list[0].ClassName)
	assert.Equal(t, 1, page.TotalCount)
}
