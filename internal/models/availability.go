package models

import (
	"fmt"
	"time"
)

// TimeOfDayLayout is the HH:MM representation used for weekly windows.
const TimeOfDayLayout = "15:04"

// WeeklyAvailability is the recurring daily window during which a resource
// accepts bookings. DayOfWeek follows ISO numbering, 1 = Monday .. 7 = Sunday.
type WeeklyAvailability struct {
	ID           string       `db:"id" json:"id"`
	ResourceType ResourceType `db:"resource_type" json:"resource_type"`
	ResourceID   string       `db:"resource_id" json:"resource_id"`
	DayOfWeek    int          `db:"day_of_week" json:"day_of_week"`
	StartTime    string       `db:"start_time" json:"start_time"`
	EndTime      string       `db:"end_time" json:"end_time"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// IntervalOn anchors the window to date.
func (w WeeklyAvailability) IntervalOn(date time.Time) (TimeInterval, error) {
	start, err := AtTimeOfDay(date, w.StartTime)
	if err != nil {
		return TimeInterval{}, err
	}
	end, err := AtTimeOfDay(date, w.EndTime)
	if err != nil {
		return TimeInterval{}, err
	}
	return NewTimeInterval(start, end)
}

// ISOWeekday maps Go's Sunday-first weekday to ISO 1..7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// AtTimeOfDay combines the calendar date of day with an HH:MM clock reading.
func AtTimeOfDay(day time.Time, clock string) (time.Time, error) {
	tod, err := time.Parse(TimeOfDayLayout, trimSeconds(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time of day %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, day.Location()), nil
}

// trimSeconds accepts HH:MM:SS values coming back from TIME columns.
func trimSeconds(clock string) string {
	if len(clock) == len("15:04:05") {
		return clock[:5]
	}
	return clock
}

// Slot is a fixed-size piece of a day's availability window.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Interval returns the slot range.
func (s Slot) Interval() TimeInterval {
	return TimeInterval{Start: s.Start, End: s.End}
}
