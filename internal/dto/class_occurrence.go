package dto

// GenerateOccurrencesRequest expands a class schedule over a date range, both ends inclusive.
type GenerateOccurrencesRequest struct {
	ClassID     string `json:"classId" validate:"required"`
	PeriodStart string `json:"periodStart" validate:"required"`
	PeriodEnd   string `json:"periodEnd" validate:"required"`
}

// GenerateOccurrencesResult reports created occurrences and skipped candidates.
type GenerateOccurrencesResult struct {
	Created      []OccurrenceResponse `json:"created"`
	CreatedCount int                  `json:"createdCount"`
	Skipped      int                  `json:"skipped"`
}

// OccurrenceResponse is the wire form of a class occurrence.
type OccurrenceResponse struct {
	ID            string `json:"id"`
	ClassID       string `json:"classId"`
	ClassName     string `json:"className,omitempty"`
	InstructorID  string `json:"instructorId"`
	CourtID       string `json:"courtId"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Status        string `json:"status"`
	CapacityMax   int    `json:"capacityMax,omitempty"`
	EnrolledCount int    `json:"enrolledCount"`
}

// OccurrenceListQuery filters occurrence listings.
type OccurrenceListQuery struct {
	ClassID      string `form:"classId" binding:"omitempty,uuid"`
	InstructorID string `form:"instructorId" binding:"omitempty,uuid"`
	CourtID      string `form:"courtId" binding:"omitempty,uuid"`
	Status       string `form:"status"`
	From         string `form:"from"`
	To           string `form:"to"`
	Page         int    `form:"page"`
	PageSize     int    `form:"pageSize"`
}

// CancelOccurrenceResult reports an occurrence cancellation and its cascade.
type CancelOccurrenceResult struct {
	OccurrenceID         string `json:"occurrenceId"`
	Status               string `json:"status"`
	EnrollmentsCancelled int    `json:"enrollmentsCancelled"`
	ChargesCancelled     int    `json:"chargesCancelled"`
	AlreadyCancelled     bool   `json:"alreadyCancelled"`
}

// RosterResponse lists the enrolled users of an occurrence with seat usage.
type RosterResponse struct {
	Occurrence  OccurrenceResponse   `json:"occurrence"`
	Enrollments []EnrollmentResponse `json:"enrollments"`
	Capacity    int                  `json:"capacity"`
	Enrolled    int                  `json:"enrolled"`
	Remaining   int                  `json:"remaining"`
}
