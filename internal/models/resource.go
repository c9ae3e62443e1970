package models

import "time"

// ResourceType identifies what a schedule commitment occupies.
type ResourceType string

const (
	ResourceCourt      ResourceType = "court"
	ResourceInstructor ResourceType = "instructor"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	return t == ResourceCourt || t == ResourceInstructor
}

// ResourceRef points at a single court or instructor.
type ResourceRef struct {
	Type ResourceType `json:"type"`
	ID   string       `json:"id"`
}

// Key is a stable textual identity used for cache keys and lock ordering.
func (r ResourceRef) Key() string {
	return string(r.Type) + ":" + r.ID
}

// Resource is the bookable view of a court or instructor. UserID is the
// instructor's account and is nil for courts.
type Resource struct {
	ID         string       `db:"id" json:"id"`
	Type       ResourceType `db:"resource_type" json:"type"`
	Name       string       `db:"name" json:"name"`
	HourlyRate float64      `db:"hourly_rate" json:"hourly_rate"`
	Active     bool         `db:"active" json:"active"`
	UserID     *string      `db:"user_id" json:"user_id,omitempty"`
}

// Ref returns the resource reference.
func (r Resource) Ref() ResourceRef {
	return ResourceRef{Type: r.Type, ID: r.ID}
}

// CommitmentSource tells which table a commitment came from.
type CommitmentSource string

const (
	CommitmentBooking    CommitmentSource = "booking"
	CommitmentOccurrence CommitmentSource = "occurrence"
)

// Commitment is any active booking or class occurrence holding a resource.
type Commitment struct {
	ID       string           `db:"id" json:"id"`
	Source   CommitmentSource `db:"source" json:"source"`
	StartsAt time.Time        `db:"starts_at" json:"starts_at"`
	EndsAt   time.Time        `db:"ends_at" json:"ends_at"`
}

// Interval returns the occupied range.
func (c Commitment) Interval() TimeInterval {
	return TimeInterval{Start: c.StartsAt, End: c.EndsAt}
}
