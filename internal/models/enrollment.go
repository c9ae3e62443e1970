package models

import "time"

// Enrollment is a user's seat in a class occurrence. A user holds at most one
// row per occurrence; re-enrolling reactivates it.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	OccurrenceID string           `db:"occurrence_id" json:"occurrence_id"`
	ClassID      string           `db:"class_id" json:"class_id"`
	UserID       string           `db:"user_id" json:"user_id"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail joins an enrollment with its occurrence timing.
type EnrollmentDetail struct {
	Enrollment
	ClassName        string           `db:"class_name" json:"class_name"`
	StartsAt         time.Time        `db:"starts_at" json:"starts_at"`
	EndsAt           time.Time        `db:"ends_at" json:"ends_at"`
	OccurrenceStatus OccurrenceStatus `db:"occurrence_status" json:"occurrence_status"`
}
