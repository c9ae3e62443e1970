package dto

// EnrollRequest asks for a seat in an occurrence. UserID is honoured for admins only.
type EnrollRequest struct {
	OccurrenceID string `json:"occurrenceId" validate:"required"`
	UserID       string `json:"userId"`
}

// EnrollmentResponse is the wire form of an enrollment.
type EnrollmentResponse struct {
	ID               string `json:"id"`
	OccurrenceID     string `json:"occurrenceId"`
	ClassID          string `json:"classId"`
	UserID           string `json:"userId"`
	Status           string `json:"status"`
	ClassName        string `json:"className,omitempty"`
	Start            string `json:"start,omitempty"`
	End              string `json:"end,omitempty"`
	OccurrenceStatus string `json:"occurrenceStatus,omitempty"`
}

// EnrollmentResult is returned after a successful enrollment.
type EnrollmentResult struct {
	Enrollment  EnrollmentResponse `json:"enrollment"`
	Charge      *ChargeResponse    `json:"charge,omitempty"`
	Reactivated bool               `json:"reactivated"`
}

// CancelEnrollmentResult reports an enrollment cancellation.
type CancelEnrollmentResult struct {
	EnrollmentID     string `json:"enrollmentId"`
	Status           string `json:"status"`
	ChargeCancelled  bool   `json:"chargeCancelled"`
	AlreadyCancelled bool   `json:"alreadyCancelled"`
}

// NotificationResponse is the wire form of an in-app notification.
type NotificationResponse struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Link      *string `json:"link,omitempty"`
	Read      bool    `json:"read"`
	CreatedAt string  `json:"createdAt"`
}
