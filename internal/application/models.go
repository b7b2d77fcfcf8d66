package application

import (
	"time"

	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Capacity  int      `json:"capacity" validate:"min=1,max=10000"`
	Floor     int      `json:"floor" validate:"min=-10,max=300"`
	Type      string   `json:"type" validate:"required,oneof=small large"`
	Equipment []string `json:"equipment" validate:"dive,oneof=projector screen whiteboard video_conference microphone speakers"`
	// IsActive defaults to true when nil.
	IsActive *bool `json:"is_active"`
}

// Room represents a bookable venue.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Floor     int
	Type      string
	Equipment []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Room) toScheduler() scheduler.Room {
	return scheduler.Room{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Floor:     r.Floor,
		Type:      scheduler.RoomType(r.Type),
		Equipment: r.Equipment,
		IsActive:  r.IsActive,
	}
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Reservation statuses and booking types.
const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"

	BookingTypeMeeting = "meeting"
	BookingTypePrivate = "private"
)

// Reservation holds a room for a time range. Cancellation flips Status and
// never removes the record.
type Reservation struct {
	ID          string
	RoomID      string
	Start       time.Time
	End         time.Time
	Status      string
	BookingType string
	MeetingID   *string
	Topic       *string
	BookedBy    string
	RoomName    string
	RoomFloor   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CancelledAt *time.Time
}

func (r Reservation) toScheduler() scheduler.Reservation {
	return scheduler.Reservation{
		ID:     r.ID,
		RoomID: r.RoomID,
		Start:  r.Start,
		End:    r.End,
		Status: scheduler.ReservationStatus(r.Status),
	}
}

// DurationMinutes is the reserved length in whole minutes.
func (r Reservation) DurationMinutes() int {
	return int(r.End.Sub(r.Start) / time.Minute)
}

// Meeting statuses as reported by the platform.
const (
	MeetingPending   = "pending"
	MeetingAccepted  = "accepted"
	MeetingDeclined  = "declined"
	MeetingCancelled = "cancelled"
)

// Meeting is the platform meeting request a venue is booked for.
type Meeting struct {
	ID              string
	RequesterID     string
	RecipientIDs    []string
	DurationMinutes int
	Topic           string
	Status          string
	VenueBookingID  *string
}

// Participants lists the requester followed by the recipients.
func (m Meeting) Participants() []string {
	participants := make([]string, 0, len(m.RecipientIDs)+1)
	participants = append(participants, m.RequesterID)
	return append(participants, m.RecipientIDs...)
}

// AttendeeCount is the requester plus every recipient.
func (m Meeting) AttendeeCount() int {
	return 1 + len(m.RecipientIDs)
}

// HasParticipant reports whether userID takes part in the meeting.
func (m Meeting) HasParticipant(userID string) bool {
	for _, participant := range m.Participants() {
		if participant == userID {
			return true
		}
	}
	return false
}

// User is the slice of a platform account the venue service reads.
type User struct {
	ID                     string
	DisplayName            string
	IsAdmin                bool
	NotifyBookingConfirmed *bool
}

// WantsBookingNotifications is false only when the user explicitly opted out.
func (u User) WantsBookingNotifications() bool {
	return u.NotifyBookingConfirmed == nil || *u.NotifyBookingConfirmed
}

// Notification types emitted by the booking service.
const (
	NotificationVenueConfirmed = "venue_confirmed"
	NotificationVenueUpdated   = "venue_updated"
	NotificationVenueCancelled = "venue_cancelled"
)

// Notification is an in-app message for one user.
type Notification struct {
	UserID          string
	Type            string
	Title           string
	Body            string
	Link            string
	RelatedEntityID string
}

// BookMeetingParams requests a venue for a meeting. An existing booking of
// the meeting is moved instead of duplicated.
type BookMeetingParams struct {
	Principal Principal `json:"-"`
	MeetingID string    `json:"meeting_id" validate:"required"`
	RoomID    string    `json:"room_id" validate:"required"`
	Date      string    `json:"date" validate:"required,date"`
	Start     string    `json:"time" validate:"required,clock"`
}

// Suggestion is an alternative slot offered when the requested one is taken.
type Suggestion struct {
	RoomID   string
	RoomName string
	Date     string
	Start    string
}

// SuggestionOutcome carries a suggestion or the reason none exists.
type SuggestionOutcome struct {
	Suggestion *Suggestion
	Reason     string
	Message    string
}

// BookingResult reports whether a booking was written. When it was not, the
// slot was unavailable and Alternative holds the forward search result.
type BookingResult struct {
	Committed   bool
	Created     bool
	Reservation *Reservation
	Alternative SuggestionOutcome
}

// AvailabilityParams asks whether a room is free for a window.
type AvailabilityParams struct {
	Principal       Principal `json:"-"`
	RoomID          string    `json:"room_id" validate:"required"`
	Date            string    `json:"date" validate:"required,date"`
	Start           string    `json:"time" validate:"required,clock"`
	DurationMinutes int       `json:"duration" validate:"min=1"`
	ExcludeID       string    `json:"exclude"`
}

// SuggestParams asks for the first free slot at or after a preferred start.
// With a MeetingID the attendee count and duration come from the meeting and
// its current booking is not treated as a conflict.
type SuggestParams struct {
	Principal       Principal `json:"-"`
	MeetingID       string    `json:"meeting_id"`
	Attendees       int       `json:"attendees" validate:"min=0"`
	DurationMinutes int       `json:"duration" validate:"min=0"`
	Date            string    `json:"date" validate:"required,date"`
	Start           string    `json:"time" validate:"required,clock"`
}

// ReservePrivateParams requests an administrative private reservation.
type ReservePrivateParams struct {
	Principal       Principal `json:"-"`
	RoomID          string    `json:"room_id" validate:"required"`
	Date            string    `json:"date" validate:"required,date"`
	Start           string    `json:"time" validate:"required,clock"`
	DurationMinutes int       `json:"duration" validate:"min=1"`
	Topic           string    `json:"topic" validate:"required,max=200"`
}

// ListReservationsParams filters reservation listings. Date limits results
// to reservations overlapping that local day.
type ListReservationsParams struct {
	Principal Principal `json:"-"`
	RoomID    string    `json:"room_id"`
	Status    string    `json:"status" validate:"omitempty,oneof=active cancelled"`
	Date      string    `json:"date" validate:"omitempty,date"`
}

// GridParams selects the day to render. MeetingID turns on the booking
// context for that meeting; ReservationID marks a reservation under edit.
type GridParams struct {
	Principal     Principal `json:"-"`
	Date          string    `json:"date" validate:"required,date"`
	MeetingID     string    `json:"meeting_id"`
	ReservationID string    `json:"reservation_id"`
}

// GridCell is one rendered slot. Detail is only set for viewers allowed to
// see who holds the booking.
type GridCell struct {
	Label         string
	Start         time.Time
	State         string
	ReservationID string
	Current       bool
	Detail        *ReservationDetail
}

// ReservationDetail exposes the owner of a booked cell.
type ReservationDetail struct {
	BookingType string
	BookedBy    string
	Topic       *string
	MeetingID   *string
}

// GridRow holds the cells of one room.
type GridRow struct {
	Room  Room
	Cells []GridCell
}

// DayGrid is the schedule of every active room for one day.
type DayGrid struct {
	Date   string
	Labels []string
	Rows   []GridRow
}
