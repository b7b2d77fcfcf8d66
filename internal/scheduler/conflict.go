package scheduler

import "time"

// ReservationStatus tracks whether a reservation still holds its room.
type ReservationStatus string

const (
	StatusActive    ReservationStatus = "active"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation is the scheduling view of a committed room booking.
type Reservation struct {
	ID     string
	RoomID string
	Start  time.Time
	End    time.Time
	Status ReservationStatus
}

// Interval returns the time span held by the reservation.
func (r Reservation) Interval() Interval {
	return Interval{Start: r.Start, End: r.End}
}

// Holds reports whether the reservation blocks roomID, ignoring the reservation identified by excludeID.
func (r Reservation) Holds(roomID, excludeID string) bool {
	if r.RoomID != roomID || r.Status != StatusActive {
		return false
	}
	return excludeID == "" || r.ID != excludeID
}

// Conflict describes an existing reservation that collides with a requested window.
type Conflict struct {
	ReservationID string
	RoomID        string
	Window        Interval
}

// DetectConflicts lists the active reservations on roomID overlapping window,
// skipping the reservation identified by excludeID. Order follows the input.
func DetectConflicts(roomID string, window Interval, existing []Reservation, excludeID string) []Conflict {
	var conflicts []Conflict
	for _, reservation := range existing {
		if !reservation.Holds(roomID, excludeID) {
			continue
		}
		if !Overlaps(window, reservation.Interval()) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ReservationID: reservation.ID,
			RoomID:        reservation.RoomID,
			Window:        reservation.Interval(),
		})
	}
	return conflicts
}
