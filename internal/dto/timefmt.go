package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/sports-facility-api/pkg/clock"
)

const (
	// DateTimeLayout is the naive wall-clock layout used on the wire.
	DateTimeLayout = "2006-01-02T15:04:05"
	// DateLayout is the calendar-day layout used on the wire.
	DateLayout = "2006-01-02"
	// TimeLayout renders slot boundaries.
	TimeLayout = "15:04"
)

var dateTimeInputs = []string{
	DateTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime reads a wall-clock timestamp. Zone suffixes are not accepted.
func ParseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateTimeInputs {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q, expected %s", raw, DateTimeLayout)
}

// ParseDate reads a calendar day.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", raw, DateLayout)
	}
	return t, nil
}

// FormatDateTime renders t without zone information.
func FormatDateTime(t time.Time) string {
	return clock.Naive(t).Format(DateTimeLayout)
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
