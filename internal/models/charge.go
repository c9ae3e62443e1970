package models

import "time"

// ChargeReferenceType names the kind of record a charge bills for.
type ChargeReferenceType string

const (
	ChargeRefCourtBooking    ChargeReferenceType = "court_booking"
	ChargeRefPersonalSession ChargeReferenceType = "personal_session"
	ChargeRefEnrollment      ChargeReferenceType = "class_enrollment"
)

// Charge is a billing record linked to a booking or enrollment.
type Charge struct {
	ID            string              `db:"id" json:"id"`
	OwnerID       string              `db:"owner_id" json:"owner_id"`
	ReferenceType ChargeReferenceType `db:"reference_type" json:"reference_type"`
	ReferenceID   string              `db:"reference_id" json:"reference_id"`
	Amount        float64             `db:"amount" json:"amount"`
	Description   string              `db:"description" json:"description"`
	DueDate       time.Time           `db:"due_date" json:"due_date"`
	Status        ChargeStatus        `db:"status" json:"status"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// ChargeRequest asks billing to open a charge.
type ChargeRequest struct {
	OwnerID       string              `validate:"required"`
	ReferenceType ChargeReferenceType `validate:"required"`
	ReferenceID   string              `validate:"required"`
	Amount        float64             `validate:"gt=0"`
	Description   string              `validate:"required"`
	DueDate       time.Time           `validate:"required"`
}
