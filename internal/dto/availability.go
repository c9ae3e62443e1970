package dto

// SlotResponse is one fixed-size slot of a day.
type SlotResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

// WindowResponse is a resource's weekly availability row.
type WindowResponse struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// DailyAvailabilityResponse lists the slots of one resource for one day.
type DailyAvailabilityResponse struct {
	ResourceType   string          `json:"resourceType"`
	ResourceID     string          `json:"resourceId"`
	Date           string          `json:"date"`
	DayOfWeek      int             `json:"dayOfWeek"`
	SlotMinutes    int             `json:"slotMinutes"`
	Window         *WindowResponse `json:"window,omitempty"`
	Slots          []SlotResponse  `json:"slots"`
	TotalSlots     int             `json:"totalSlots"`
	AvailableSlots int             `json:"availableSlots"`
}

// SetWindowRequest creates or replaces a resource's window for one weekday.
type SetWindowRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}
