package scheduler

import (
	"fmt"
	"time"
)

// GridLayout fixes the time axis of the schedule grid.
type GridLayout struct {
	DayStart string
	DayEnd   string
	Slot     time.Duration
}

// DefaultGridLayout spans 08:00 to 20:00 in half-hour slots.
func DefaultGridLayout() GridLayout {
	return GridLayout{DayStart: "08:00", DayEnd: "20:00", Slot: 30 * time.Minute}
}

// Bounds returns the offsets from midnight of the first slot and of the grid end.
func (l GridLayout) Bounds() (start, end time.Duration, err error) {
	if l.Slot <= 0 {
		return 0, 0, fmt.Errorf("scheduler: grid slot must be positive")
	}
	if start, err = ParseClock(l.DayStart); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(l.DayEnd); err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("scheduler: grid end %s must be after start %s", l.DayEnd, l.DayStart)
	}
	return start, end, nil
}

// Labels lists the HH:mm start of every slot. The end bound is exclusive.
func (l GridLayout) Labels() ([]string, error) {
	start, end, err := l.Bounds()
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, int((end-start)/l.Slot))
	for offset := start; offset+l.Slot <= end; offset += l.Slot {
		labels = append(labels, formatOffset(offset))
	}
	return labels, nil
}

func formatOffset(offset time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}

// SlotState is the rendered state of one grid cell.
type SlotState string

const (
	// SlotBooked marks a cell covered by an active reservation.
	SlotBooked SlotState = "booked"
	// SlotAvailable marks a cell where the pending booking fits for its whole duration.
	SlotAvailable SlotState = "available"
	// SlotUnavailable marks a free cell that cannot host the pending booking.
	SlotUnavailable SlotState = "unavailable"
	// SlotNone marks a free cell when no booking is being arranged.
	SlotNone SlotState = "none"
)

// BookingContext describes the booking being arranged while the grid is viewed.
type BookingContext struct {
	Attendees       int
	DurationMinutes int
	ExcludeID       string
}

// GridRequest selects the day, rooms and optional booking context to render.
type GridRequest struct {
	Date    string
	Rooms   []Room
	Booking *BookingContext
}

// Cell is one room by slot position in the grid.
type Cell struct {
	Label         string
	Start         time.Time
	State         SlotState
	ReservationID string
	// Current is set on slots held by the reservation under edit.
	Current bool
}

// GridRow holds the cells of one room.
type GridRow struct {
	Room  Room
	Cells []Cell
}

// Grid is the projection of a day's reservations onto the slot axis.
type Grid struct {
	Date   string
	Labels []string
	Rows   []GridRow
}

// BuildGrid renders one row per active room. A cell is booked when an active
// reservation overlaps its slot. Otherwise, with a booking context, it is
// available only when the room fits the attendees and the full duration
// starting at the slot is conflict free and ends by the grid end.
func BuildGrid(req GridRequest, layout GridLayout, reservations []Reservation, loc *time.Location) (Grid, error) {
	if loc == nil {
		loc = time.UTC
	}
	startOffset, endOffset, err := layout.Bounds()
	if err != nil {
		return Grid{}, err
	}
	day, err := ParseDate(req.Date, loc)
	if err != nil {
		return Grid{}, err
	}
	if req.Booking != nil && req.Booking.DurationMinutes <= 0 {
		return Grid{}, fmt.Errorf("%w: %d", ErrInvalidDuration, req.Booking.DurationMinutes)
	}

	labels, err := layout.Labels()
	if err != nil {
		return Grid{}, err
	}
	dayEnd := atOffset(day, endOffset)

	grid := Grid{Date: req.Date, Labels: labels}
	for _, room := range req.Rooms {
		if !room.IsActive {
			continue
		}
		row := GridRow{Room: room, Cells: make([]Cell, 0, len(labels))}
		for i, label := range labels {
			slotStart := atOffset(day, startOffset+time.Duration(i)*layout.Slot)
			slot := Interval{Start: slotStart, End: slotStart.Add(layout.Slot)}
			cell := Cell{Label: label, Start: slotStart, State: SlotNone}

			if holder, ok := occupant(room.ID, slot, reservations, req.Booking); ok {
				cell.State = SlotBooked
				cell.ReservationID = holder
			} else if req.Booking != nil {
				cell.State = bookableState(room, slotStart, dayEnd, reservations, *req.Booking)
				cell.Current = heldByEdit(room.ID, slot, reservations, req.Booking.ExcludeID)
			}
			row.Cells = append(row.Cells, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

// occupant returns the reservation blocking slot. The reservation under edit
// is not treated as an occupant so the booker can move within it.
func occupant(roomID string, slot Interval, reservations []Reservation, booking *BookingContext) (string, bool) {
	exclude := ""
	if booking != nil {
		exclude = booking.ExcludeID
	}
	conflicts := DetectConflicts(roomID, slot, reservations, exclude)
	if len(conflicts) == 0 {
		return "", false
	}
	return conflicts[0].ReservationID, true
}

func heldByEdit(roomID string, slot Interval, reservations []Reservation, excludeID string) bool {
	if excludeID == "" {
		return false
	}
	for _, reservation := range reservations {
		if reservation.ID == excludeID && reservation.Holds(roomID, "") && Overlaps(slot, reservation.Interval()) {
			return true
		}
	}
	return false
}

func bookableState(room Room, start, dayEnd time.Time, reservations []Reservation, booking BookingContext) SlotState {
	if !room.Accommodates(booking.Attendees) {
		return SlotUnavailable
	}
	window := NewInterval(start, booking.DurationMinutes)
	if window.End.After(dayEnd) {
		return SlotUnavailable
	}
	if !IsAvailable(room.ID, window, reservations, booking.ExcludeID) {
		return SlotUnavailable
	}
	return SlotAvailable
}
