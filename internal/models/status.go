package models

// transitions lists the statuses reachable from each status.
type transitions[S ~string] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingStatus is the lifecycle state of a court or personal booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = transitions[BookingStatus]{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
}

// CanTransitionTo reports whether next is reachable from s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return bookingTransitions.allows(s, next)
}

// Active reports whether the booking still holds its resources.
func (s BookingStatus) Active() bool {
	return s != BookingCancelled
}

// OccurrenceStatus is the lifecycle state of a dated class session.
type OccurrenceStatus string

const (
	OccurrenceScheduled OccurrenceStatus = "scheduled"
	OccurrenceConfirmed OccurrenceStatus = "confirmed"
	OccurrenceCancelled OccurrenceStatus = "cancelled"
)

var occurrenceTransitions = transitions[OccurrenceStatus]{
	OccurrenceScheduled: {OccurrenceConfirmed, OccurrenceCancelled},
	OccurrenceConfirmed: {OccurrenceCancelled},
}

// CanTransitionTo reports whether next is reachable from s.
func (s OccurrenceStatus) CanTransitionTo(next OccurrenceStatus) bool {
	return occurrenceTransitions.allows(s, next)
}

// EnrollmentStatus is the state of a user's seat in an occurrence.
type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// cancelled -> enrolled is only taken when a user re-enrolls on the same row.
var enrollmentTransitions = transitions[EnrollmentStatus]{
	EnrollmentEnrolled:  {EnrollmentCancelled},
	EnrollmentCancelled: {EnrollmentEnrolled},
}

// CanTransitionTo reports whether next is reachable from s.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	return enrollmentTransitions.allows(s, next)
}

// ChargeStatus is the billing state of a charge.
type ChargeStatus string

const (
	ChargePending       ChargeStatus = "pending"
	ChargePartiallyPaid ChargeStatus = "partially_paid"
	ChargePaid          ChargeStatus = "paid"
	ChargeCancelled     ChargeStatus = "cancelled"
	ChargeRefunded      ChargeStatus = "refunded"
)

var chargeTransitions = transitions[ChargeStatus]{
	ChargePending:       {ChargePartiallyPaid, ChargePaid, ChargeCancelled},
	ChargePartiallyPaid: {ChargePaid, ChargeCancelled},
	ChargePaid:          {ChargeRefunded},
}

// CanTransitionTo reports whether next is reachable from s.
func (s ChargeStatus) CanTransitionTo(next ChargeStatus) bool {
	return chargeTransitions.allows(s, next)
}

// Open reports whether the charge is still awaiting settlement and may be cancelled.
func (s ChargeStatus) Open() bool {
	return s == ChargePending || s == ChargePartiallyPaid
}
