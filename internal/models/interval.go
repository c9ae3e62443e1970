package models

import (
	"time"

	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

// TimeInterval is a half-open wall-clock range [Start, End).
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeInterval validates start < end.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if !start.Before(end) {
		return TimeInterval{}, appErrors.Clone(appErrors.ErrInvalidInterval, "")
	}
	return TimeInterval{Start: start, End: end}, nil
}

// Overlaps reports whether the two intervals share any instant. Touching
// intervals ([a,b) and [b,c)) do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether other lies entirely within i.
func (i TimeInterval) Contains(other TimeInterval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Duration returns End - Start.
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// DurationMinutes returns the whole minutes between Start and End.
func (i TimeInterval) DurationMinutes() int {
	return int(i.Duration() / time.Minute)
}

// Hours returns the duration as fractional hours, used for pricing.
func (i TimeInterval) Hours() float64 {
	return i.Duration().Hours()
}

// SameDay reports whether the interval starts and ends on one calendar day.
// An interval ending exactly at the following midnight counts as same-day.
func (i TimeInterval) SameDay() bool {
	y1, m1, d1 := i.Start.Date()
	last := i.End.Add(-time.Nanosecond)
	y2, m2, d2 := last.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
