package clock

import (
	"sync"
	"time"
)

// Clock reports the facility's wall-clock time.
//
// Times are naive: the facility-local reading is carried in a UTC-tagged
// time.Time so values compare and persist without any zone conversion.
type Clock interface {
	Now() time.Time
}

// System reads the host clock in the configured facility location.
type System struct {
	Location *time.Location
}

// NewSystem resolves the named location. Empty or "Local" uses the host zone.
func NewSystem(name string) (*System, error) {
	if name == "" || name == "Local" {
		return &System{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return &System{Location: loc}, nil
}

// Now returns the current wall-clock time truncated to the second.
func (s *System) Now() time.Time {
	loc := time.Local
	if s != nil && s.Location != nil {
		loc = s.Location
	}
	return Naive(time.Now().In(loc)).Truncate(time.Second)
}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: Naive(t)}
}

// Now implements Clock.
func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = Naive(t)
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Naive keeps the wall-clock fields of t and drops its zone.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// StartOfDay returns midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
