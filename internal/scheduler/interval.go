package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the wall-clock date format accepted at the service boundary.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24-hour wall-clock time format accepted at the service boundary.
	ClockLayout = "15:04"
)

var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("scheduler: invalid date")
	// ErrInvalidClock is returned when a time string is not HH:mm.
	ErrInvalidClock = errors.New("scheduler: invalid time")
)

// Interval is a half-open time span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval returns the interval starting at start and lasting the given minutes.
func NewInterval(start time.Time, minutes int) Interval {
	return Interval{Start: start, End: AddMinutes(start, minutes)}
}

// Overlaps reports whether i and other share any instant. Touching intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i, other)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Valid reports whether the interval has a positive length.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether a.start < b.end and b.start < a.end.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// AddMinutes shifts t by the given number of minutes.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// Combine parses a YYYY-MM-DD date and an HH:mm time into an instant in loc.
// A nil location means UTC.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	offset, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return atOffset(day, offset), nil
}

// atOffset returns the wall-clock instant offset from midnight of day, so DST
// transitions do not shift the requested time.
func atOffset(day time.Time, offset time.Duration) time.Time {
	hour := int(offset / time.Hour)
	minute := int(offset % time.Hour / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return day, nil
}

// ParseClock parses an HH:mm string as an offset from midnight.
func ParseClock(clock string) (time.Duration, error) {
	value := strings.TrimSpace(clock)
	parsed, err := time.Parse(ClockLayout, value)
	if err != nil || len(value) != len(ClockLayout) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// Split formats an instant back into its date and HH:mm parts in loc.
func Split(t time.Time, loc *time.Location) (date, clock string) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Format(DateLayout), local.Format(ClockLayout)
}
