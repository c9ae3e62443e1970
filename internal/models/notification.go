package models

import "time"

// NotificationType selects the message template.
type NotificationType string

const (
	NotifyBookingCreated      NotificationType = "booking_created"
	NotifyBookingConfirmed    NotificationType = "booking_confirmed"
	NotifyBookingCancelled    NotificationType = "booking_cancelled"
	NotifySessionScheduled    NotificationType = "session_scheduled"
	NotifyEnrollmentCreated   NotificationType = "enrollment_created"
	NotifyEnrollmentCancelled NotificationType = "enrollment_cancelled"
	NotifyOccurrenceCancelled NotificationType = "occurrence_cancelled"
	NotifyChargeCreated       NotificationType = "charge_created"
)

// NotificationEvent is what domain services emit after a commit.
type NotificationEvent struct {
	UserID string            `json:"user_id"`
	Type   NotificationType  `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// Notification is a persisted in-app message.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Link      *string          `db:"link" json:"link,omitempty"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
