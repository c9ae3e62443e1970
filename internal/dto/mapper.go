package dto

import "github.com/noah-isme/sports-facility-api/internal/models"

// NewBookingResponse maps a booking to its wire form.
func NewBookingResponse(b models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:           b.ID,
		Kind:         string(b.Kind),
		OwnerID:      b.OwnerID,
		CourtID:      b.CourtID,
		InstructorID: b.InstructorID,
		Start:        FormatDateTime(b.StartsAt),
		End:          FormatDateTime(b.EndsAt),
		Price:        b.Price,
		Status:       string(b.Status),
		Note:         b.Note,
	}
	if b.CancelledAt != nil {
		at := FormatDateTime(*b.CancelledAt)
		resp.CancelledAt = &at
	}
	return resp
}

// NewChargeResponse maps a charge; nil stays nil.
func NewChargeResponse(c *models.Charge) *ChargeResponse {
	if c == nil {
		return nil
	}
	return &ChargeResponse{
		ID:            c.ID,
		ReferenceType: string(c.ReferenceType),
		ReferenceID:   c.ReferenceID,
		Amount:        c.Amount,
		Description:   c.Description,
		DueDate:       FormatDate(c.DueDate),
		Status:        string(c.Status),
	}
}

// NewOccurrenceResponse maps a bare occurrence.
func NewOccurrenceResponse(o models.ClassOccurrence) OccurrenceResponse {
	return OccurrenceResponse{
		ID:           o.ID,
		ClassID:      o.ClassID,
		InstructorID: o.InstructorID,
		CourtID:      o.CourtID,
		Start:        FormatDateTime(o.StartsAt),
		End:          FormatDateTime(o.EndsAt),
		Status:       string(o.Status),
	}
}

// NewOccurrenceSummaryResponse maps an occurrence with seat usage.
func NewOccurrenceSummaryResponse(s models.OccurrenceSummary) OccurrenceResponse {
	resp := NewOccurrenceResponse(s.ClassOccurrence)
	resp.ClassName = s.ClassName
	resp.CapacityMax = s.CapacityMax
	resp.EnrolledCount = s.EnrolledCount
	return resp
}

// NewEnrollmentResponse maps a bare enrollment.
func NewEnrollmentResponse(e models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:           e.ID,
		OccurrenceID: e.OccurrenceID,
		ClassID:      e.ClassID,
		UserID:       e.UserID,
		Status:       string(e.Status),
	}
}

// NewEnrollmentDetailResponse maps an enrollment with its session timing.
func NewEnrollmentDetailResponse(d models.EnrollmentDetail) EnrollmentResponse {
	resp := NewEnrollmentResponse(d.Enrollment)
	resp.ClassName = d.ClassName
	resp.Start = FormatDateTime(d.StartsAt)
	resp.End = FormatDateTime(d.EndsAt)
	resp.OccurrenceStatus = string(d.OccurrenceStatus)
	return resp
}

// NewWindowResponse maps a weekly availability row.
func NewWindowResponse(w models.WeeklyAvailability) WindowResponse {
	return WindowResponse{
		ID:        w.ID,
		DayOfWeek: w.DayOfWeek,
		StartTime: trimClock(w.StartTime),
		EndTime:   trimClock(w.EndTime),
	}
}

// NewNotificationResponse maps a persisted notification.
func NewNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: FormatDateTime(n.CreatedAt),
	}
}

func trimClock(v string) string {
	if len(v) > 5 {
		return v[:5]
	}
	return v
}
