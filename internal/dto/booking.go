package dto

// BookingRequest describes a court reservation or a personal session.
// CourtID is required for court bookings and optional for personal sessions.
type BookingRequest struct {
	Kind         string `json:"kind" validate:"required,oneof=court personal"`
	CourtID      string `json:"courtId" validate:"required_if=Kind court"`
	InstructorID string `json:"instructorId" validate:"required_if=Kind personal"`
	OwnerID      string `json:"ownerId"`
	Start        string `json:"start" validate:"required"`
	End          string `json:"end" validate:"required"`
	Note         string `json:"note" validate:"max=500"`
}

// AvailabilityCheckResponse answers a pre-flight booking check.
type AvailabilityCheckResponse struct {
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
	Price     float64 `json:"price"`
}

// RescheduleBookingRequest moves a booking to a new interval.
type RescheduleBookingRequest struct {
	Start   string  `json:"start" validate:"required"`
	End     string  `json:"end" validate:"required"`
	CourtID *string `json:"courtId"`
	Note    *string `json:"note" validate:"omitempty,max=500"`
}

// CancelRequest carries the admin force flag for cancellations.
type CancelRequest struct {
	Force bool `json:"force"`
}

// BookingListQuery filters booking listings.
type BookingListQuery struct {
	Kind         string `form:"kind"`
	Status       string `form:"status"`
	CourtID      string `form:"courtId" binding:"omitempty,uuid"`
	InstructorID string `form:"instructorId" binding:"omitempty,uuid"`
	OwnerID      string `form:"ownerId"`
	From         string `form:"from"`
	To           string `form:"to"`
	Page         int    `form:"page"`
	PageSize     int    `form:"pageSize"`
}

// BookingResponse is the wire form of a booking.
type BookingResponse struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	OwnerID      string  `json:"ownerId"`
	CourtID      *string `json:"courtId,omitempty"`
	InstructorID *string `json:"instructorId,omitempty"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Price        float64 `json:"price"`
	Status       string  `json:"status"`
	Note         *string `json:"note,omitempty"`
	CancelledAt  *string `json:"cancelledAt,omitempty"`
}

// BookingResult is returned after creating or rescheduling a booking.
type BookingResult struct {
	Booking BookingResponse `json:"booking"`
	Charge  *ChargeResponse `json:"charge,omitempty"`
}

// CancelBookingResult reports a booking cancellation.
type CancelBookingResult struct {
	BookingID        string `json:"bookingId"`
	Status           string `json:"status"`
	ChargeCancelled  bool   `json:"chargeCancelled"`
	AlreadyCancelled bool   `json:"alreadyCancelled"`
}

// ChargeResponse is the wire form of a charge.
type ChargeResponse struct {
	ID            string  `json:"id"`
	ReferenceType string  `json:"referenceType"`
	ReferenceID   string  `json:"referenceId"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	DueDate       string  `json:"dueDate"`
	Status        string  `json:"status"`
}
