package models

import "time"

// ClassStatus toggles whether a class accepts new occurrences.
type ClassStatus string

const (
	ClassActive   ClassStatus = "active"
	ClassInactive ClassStatus = "inactive"
)

// Class is a recurring group session template.
type Class struct {
	ID              string      `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	Sport           *string     `db:"sport" json:"sport,omitempty"`
	DurationMinutes int         `db:"duration_minutes" json:"duration_minutes"`
	CapacityMax     int         `db:"capacity_max" json:"capacity_max"`
	UnitPrice       *float64    `db:"unit_price" json:"unit_price,omitempty"`
	Status          ClassStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// Duration returns the session length.
func (c Class) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// Price returns the per-seat price, zero when none is set.
func (c Class) Price() float64 {
	if c.UnitPrice == nil {
		return 0
	}
	return *c.UnitPrice
}

// ClassScheduleEntry places a class on a weekday with its instructor and court.
type ClassScheduleEntry struct {
	ID           string `db:"id" json:"id"`
	ClassID      string `db:"class_id" json:"class_id"`
	DayOfWeek    int    `db:"day_of_week" json:"day_of_week"`
	StartTime    string `db:"start_time" json:"start_time"`
	InstructorID string `db:"instructor_id" json:"instructor_id"`
	CourtID      string `db:"court_id" json:"court_id"`
}

// Resources returns the instructor and court the entry occupies.
func (e ClassScheduleEntry) Resources() []ResourceRef {
	return []ResourceRef{
		{Type: ResourceInstructor, ID: e.InstructorID},
		{Type: ResourceCourt, ID: e.CourtID},
	}
}
