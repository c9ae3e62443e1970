package models

import "time"

// BookingKind distinguishes court reservations from personal-training sessions.
type BookingKind string

const (
	BookingKindCourt    BookingKind = "court"
	BookingKindPersonal BookingKind = "personal"
)

// Valid reports whether k is a known kind.
func (k BookingKind) Valid() bool {
	return k == BookingKindCourt || k == BookingKindPersonal
}

// ChargeReference returns the billing reference type for bookings of kind k.
func (k BookingKind) ChargeReference() ChargeReferenceType {
	if k == BookingKindPersonal {
		return ChargeRefPersonalSession
	}
	return ChargeRefCourtBooking
}

// Booking reserves a court, or an instructor plus an optional court, for one interval.
type Booking struct {
	ID           string        `db:"id" json:"id"`
	Kind         BookingKind   `db:"kind" json:"kind"`
	OwnerID      string        `db:"owner_id" json:"owner_id"`
	CourtID      *string       `db:"court_id" json:"court_id,omitempty"`
	InstructorID *string       `db:"instructor_id" json:"instructor_id,omitempty"`
	StartsAt     time.Time     `db:"starts_at" json:"starts_at"`
	EndsAt       time.Time     `db:"ends_at" json:"ends_at"`
	Price        float64       `db:"price" json:"price"`
	Status       BookingStatus `db:"status" json:"status"`
	Note         *string       `db:"note" json:"note,omitempty"`
	CancelledAt  *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Interval returns the booked range.
func (b Booking) Interval() TimeInterval {
	return TimeInterval{Start: b.StartsAt, End: b.EndsAt}
}

// Resources lists every resource the booking occupies, primary first.
func (b Booking) Resources() []ResourceRef {
	refs := make([]ResourceRef, 0, 2)
	if b.Kind == BookingKindPersonal && b.InstructorID != nil {
		refs = append(refs, ResourceRef{Type: ResourceInstructor, ID: *b.InstructorID})
	}
	if b.CourtID != nil && *b.CourtID != "" {
		refs = append(refs, ResourceRef{Type: ResourceCourt, ID: *b.CourtID})
	}
	return refs
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	OwnerID      string
	Kind         BookingKind
	CourtID      string
	InstructorID string
	Status       BookingStatus
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
	SortOrder    string
}
