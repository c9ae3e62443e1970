package models

import "time"

// ClassOccurrence is a dated instance of a class.
type ClassOccurrence struct {
	ID           string           `db:"id" json:"id"`
	ClassID      string           `db:"class_id" json:"class_id"`
	InstructorID string           `db:"instructor_id" json:"instructor_id"`
	CourtID      string           `db:"court_id" json:"court_id"`
	StartsAt     time.Time        `db:"starts_at" json:"starts_at"`
	EndsAt       time.Time        `db:"ends_at" json:"ends_at"`
	Status       OccurrenceStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// Interval returns the session range.
func (o ClassOccurrence) Interval() TimeInterval {
	return TimeInterval{Start: o.StartsAt, End: o.EndsAt}
}

// Resources returns the instructor and court the session occupies.
func (o ClassOccurrence) Resources() []ResourceRef {
	return []ResourceRef{
		{Type: ResourceInstructor, ID: o.InstructorID},
		{Type: ResourceCourt, ID: o.CourtID},
	}
}

// OccurrenceSummary decorates an occurrence with class data and seat usage.
type OccurrenceSummary struct {
	ClassOccurrence
	ClassName     string `db:"class_name" json:"class_name"`
	CapacityMax   int    `db:"capacity_max" json:"capacity_max"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
}

// OccurrenceFilter narrows occurrence listings.
type OccurrenceFilter struct {
	ClassID      string
	InstructorID string
	CourtID      string
	Status       OccurrenceStatus
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}
