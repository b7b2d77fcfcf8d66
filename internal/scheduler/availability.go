package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDuration is returned when a requested duration is not positive.
var ErrInvalidDuration = errors.New("scheduler: duration must be positive")

// IsAvailable reports whether roomID is free for the whole window. Cancelled
// reservations and the reservation identified by excludeID never block.
func IsAvailable(roomID string, window Interval, reservations []Reservation, excludeID string) bool {
	for _, reservation := range reservations {
		if reservation.Holds(roomID, excludeID) && Overlaps(window, reservation.Interval()) {
			return false
		}
	}
	return true
}

// AvailabilityQuery is the wall-clock form of an availability check.
type AvailabilityQuery struct {
	RoomID          string
	Date            string
	Start           string
	DurationMinutes int
	ExcludeID       string
}

// Window resolves the query into an interval in loc.
func (q AvailabilityQuery) Window(loc *time.Location) (Interval, error) {
	if q.DurationMinutes <= 0 {
		return Interval{}, fmt.Errorf("%w: %d", ErrInvalidDuration, q.DurationMinutes)
	}
	start, err := Combine(q.Date, q.Start, loc)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(start, q.DurationMinutes), nil
}

// CheckAvailability combines the query's date and time and tests the room against reservations.
func CheckAvailability(q AvailabilityQuery, reservations []Reservation, loc *time.Location) (bool, error) {
	window, err := q.Window(loc)
	if err != nil {
		return false, err
	}
	return IsAvailable(q.RoomID, window, reservations, q.ExcludeID), nil
}
