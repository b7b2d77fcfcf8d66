// Package calendar renders room schedules as iCalendar feeds.
package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/c4sa/Unido-sub000/internal/application"
)

const (
	productID = "-//c4sa//venued//EN"
	uidDomain = "venued"
)

// Feed is the input of one room calendar export.
type Feed struct {
	Room         application.Room
	Reservations []application.Reservation
	GeneratedAt  time.Time
}

// Render builds the VCALENDAR for feed. Redacted reservations appear as
// "Booked" without description.
func Render(feed Feed) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(feed.Room.Name)

	stamp := feed.GeneratedAt.UTC()
	for _, reservation := range feed.Reservations {
		event := cal.AddEvent(fmt.Sprintf("%s@%s", reservation.ID, uidDomain))
		event.SetDtStampTime(stamp)
		event.SetStartAt(reservation.Start.UTC())
		event.SetEndAt(reservation.End.UTC())
		event.SetSummary(summaryOf(reservation))
		event.SetLocation(locationOf(feed.Room))
		if !reservation.UpdatedAt.IsZero() {
			event.SetModifiedAt(reservation.UpdatedAt.UTC())
		}
		if reservation.Status == application.ReservationCancelled {
			event.SetStatus(ical.ObjectStatusCancelled)
		} else {
			event.SetStatus(ical.ObjectStatusConfirmed)
		}
		if reservation.BookedBy != "" {
			event.SetDescription(fmt.Sprintf("Booked by %s (%s)", reservation.BookedBy, reservation.BookingType))
		}
	}
	return cal
}

// Write serializes the feed to w.
func Write(w io.Writer, feed Feed) error {
	_, err := io.WriteString(w, Render(feed).Serialize())
	return err
}

func summaryOf(reservation application.Reservation) string {
	if reservation.Topic != nil && *reservation.Topic != "" {
		return *reservation.Topic
	}
	return "Booked"
}

func locationOf(room application.Room) string {
	return fmt.Sprintf("%s, floor %d", room.Name, room.Floor)
}
