package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 12, day, hour, minute, 0, 0, time.UTC)
}

func TestNewTimeIntervalRejectsEmptyOrInverted(t *testing.T) {
	_, err := NewTimeInterval(at(1, 10, 0), at(1, 10, 0))
	require.ErrorIs(t, err, appErrors.ErrInvalidInterval)

	_, err = NewTimeInterval(at(1, 11, 0), at(1, 10, 0))
	require.ErrorIs(t, err, appErrors.ErrInvalidInterval)

	i, err := NewTimeInterval(at(1, 10, 0), at(1, 11, 30))
	require.NoError(t, err)
	assert.Equal(t, 90, i.DurationMinutes())
	assert.InDelta(t, 1.5, i.Hours(), 0.0001)
}

func TestOverlaps(t *testing.T) {
	base := TimeInterval{Start: at(1, 10, 0), End: at(1, 11, 0)}
	cases := []struct {
		name  string
		other TimeInterval
		want  bool
	}{
		{"identical", base, true},
		{"touching after", TimeInterval{Start: at(1, 11, 0), End: at(1, 12, 0)}, false},
		{"touching before", TimeInterval{Start: at(1, 9, 0), End: at(1, 10, 0)}, false},
		{"partial start", TimeInterval{Start: at(1, 9, 30), End: at(1, 10, 30)}, true},
		{"partial end", TimeInterval{Start: at(1, 10, 59), End: at(1, 12, 0)}, true},
		{"contained", TimeInterval{Start: at(1, 10, 15), End: at(1, 10, 45)}, true},
		{"containing", TimeInterval{Start: at(1, 8, 0), End: at(1, 13, 0)}, true},
		{"disjoint", TimeInterval{Start: at(2, 10, 0), End: at(2, 11, 0)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestContainsAndSameDay(t *testing.T) {
	window := TimeInterval{Start: at(1, 8, 0), End: at(1, 12, 0)}
	assert.True(t, window.Contains(TimeInterval{Start: at(1, 8, 0), End: at(1, 12, 0)}))
	assert.True(t, window.Contains(TimeInterval{Start: at(1, 9, 0), End: at(1, 10, 0)}))
	assert.False(t, window.Contains(TimeInterval{Start: at(1, 11, 30), End: at(1, 12, 30)}))

	assert.True(t, TimeInterval{Start: at(1, 22, 0), End: at(2, 0, 0)}.SameDay())
	assert.False(t, TimeInterval{Start: at(1, 23, 0), End: at(2, 1, 0)}.SameDay())
}

func TestWeeklyAvailabilityIntervalOn(t *testing.T) {
	w := WeeklyAvailability{DayOfWeek: 1, StartTime: "08:00:00", EndTime: "12:00"}
	i, err := w.IntervalOn(at(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, at(1, 8, 0), i.Start)
	assert.Equal(t, at(1, 12, 0), i.End)

	bad := WeeklyAvailability{StartTime: "8h", EndTime: "12:00"}
	_, err = bad.IntervalOn(at(1, 0, 0))
	require.Error(t, err)
}

func TestISOWeekday(t *testing.T) {
	assert.Equal(t, 1, ISOWeekday(at(1, 0, 0))) // 2025-12-01 is a Monday
	assert.Equal(t, 7, ISOWeekday(at(7, 0, 0)))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, BookingPending.CanTransitionTo(BookingConfirmed))
	assert.True(t, BookingConfirmed.CanTransitionTo(BookingCancelled))
	assert.False(t, BookingCancelled.CanTransitionTo(BookingPending))
	assert.False(t, BookingConfirmed.CanTransitionTo(BookingPending))

	assert.True(t, OccurrenceScheduled.CanTransitionTo(OccurrenceCancelled))
	assert.False(t, OccurrenceCancelled.CanTransitionTo(OccurrenceScheduled))

	assert.True(t, EnrollmentCancelled.CanTransitionTo(EnrollmentEnrolled))
	assert.False(t, EnrollmentEnrolled.CanTransitionTo(EnrollmentEnrolled))

	assert.True(t, ChargePending.CanTransitionTo(ChargeCancelled))
	assert.False(t, ChargePaid.CanTransitionTo(ChargeCancelled))
	assert.True(t, ChargePartiallyPaid.Open())
	assert.False(t, ChargePaid.Open())
}

func TestBookingResources(t *testing.T) {
	court := "court-1"
	instructor := "inst-1"

	b := Booking{Kind: BookingKindCourt, CourtID: &court}
	assert.Equal(t, []ResourceRef{{Type: ResourceCourt, ID: court}}, b.Resources())

	p := Booking{Kind: BookingKindPersonal, InstructorID: &instructor, CourtID: &court}
	assert.Equal(t, []ResourceRef{
		{Type: ResourceInstructor, ID: instructor},
		{Type: ResourceCourt, ID: court},
	}, p.Resources())
	assert.Equal(t, ChargeRefPersonalSession, p.Kind.ChargeReference())
}
