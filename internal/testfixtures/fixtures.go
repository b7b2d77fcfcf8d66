package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/c4sa/Unido-sub000/internal/application"
	"github.com/c4sa/Unido-sub000/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	meetingCounter     uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It is the start of the default schedule grid on a Friday.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic platform user.
type UserFixture struct {
	ID          string
	DisplayName string
	IsAdmin     bool
	// NotifyBooking nil means the user never chose and receives notifications.
	NotifyBooking *bool
	CreatedAt     time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:          fmt.Sprintf("user-%03d", idx),
		DisplayName: fmt.Sprintf("User %03d", idx),
		CreatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithBookingNotifications records the user's notification preference.
func WithBookingNotifications(enabled bool) UserOption {
	return func(f *UserFixture) {
		f.NotifyBooking = &enabled
	}
}

func (f UserFixture) Application() application.User {
	return application.User{
		ID:                     f.ID,
		DisplayName:            f.DisplayName,
		IsAdmin:                f.IsAdmin,
		NotifyBookingConfirmed: cloneBool(f.NotifyBooking),
	}
}

func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:                     f.ID,
		DisplayName:            f.DisplayName,
		IsAdmin:                f.IsAdmin,
		NotifyBookingConfirmed: cloneBool(f.NotifyBooking),
		CreatedAt:              f.CreatedAt,
		UpdatedAt:              f.CreatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic venue room.
type RoomFixture struct {
	ID        string
	Name      string
	Capacity  int
	Floor     int
	Type      string
	Equipment []string
	IsActive  bool
	CreatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns an active small room for six people.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  6,
		Floor:     1,
		Type:      "small",
		Equipment: []string{"screen"},
		IsActive:  true,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomCapacity sets the capacity and derives the size class from it.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
		if capacity > 10 {
			f.Type = "large"
		} else {
			f.Type = "small"
		}
	}
}

// WithRoomFloor overrides the floor.
func WithRoomFloor(floor int) RoomOption {
	return func(f *RoomFixture) {
		f.Floor = floor
	}
}

// WithRoomEquipment replaces the equipment tags.
func WithRoomEquipment(tags ...string) RoomOption {
	return func(f *RoomFixture) {
		f.Equipment = append([]string(nil), tags...)
	}
}

// InactiveRoom marks the room as withdrawn from booking.
func InactiveRoom() RoomOption {
	return func(f *RoomFixture) {
		f.IsActive = false
	}
}

func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		Floor:     f.Floor,
		Type:      f.Type,
		Equipment: append([]string(nil), f.Equipment...),
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		Floor:     f.Floor,
		Type:      f.Type,
		Equipment: append([]string(nil), f.Equipment...),
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// Input returns the room as a create/update payload.
func (f RoomFixture) Input() application.RoomInput {
	active := f.IsActive
	return application.RoomInput{
		Name:      f.Name,
		Capacity:  f.Capacity,
		Floor:     f.Floor,
		Type:      f.Type,
		Equipment: append([]string(nil), f.Equipment...),
		IsActive:  &active,
	}
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingFixture represents a platform meeting request.
type MeetingFixture struct {
	ID              string
	RequesterID     string
	RecipientIDs    []string
	DurationMinutes int
	Topic           string
	Status          string
	VenueBookingID  *string
}

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns an accepted one hour meeting between two people.
func NewMeetingFixture(opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	fixture := MeetingFixture{
		ID:              fmt.Sprintf("meeting-%03d", idx),
		RequesterID:     "user-a",
		RecipientIDs:    []string{"user-b"},
		DurationMinutes: 60,
		Topic:           fmt.Sprintf("Meeting %03d", idx),
		Status:          application.MeetingAccepted,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeetingID overrides the generated meeting ID.
func WithMeetingID(id string) MeetingOption {
	return func(f *MeetingFixture) {
		f.ID = id
	}
}

// WithMeetingParticipants sets the requester and recipients.
func WithMeetingParticipants(requester string, recipients ...string) MeetingOption {
	return func(f *MeetingFixture) {
		f.RequesterID = requester
		f.RecipientIDs = append([]string(nil), recipients...)
	}
}

// WithMeetingDuration overrides the meeting length in minutes.
func WithMeetingDuration(minutes int) MeetingOption {
	return func(f *MeetingFixture) {
		f.DurationMinutes = minutes
	}
}

// WithMeetingStatus overrides the meeting status.
func WithMeetingStatus(status string) MeetingOption {
	return func(f *MeetingFixture) {
		f.Status = status
	}
}

func (f MeetingFixture) Application() application.Meeting {
	return application.Meeting{
		ID:              f.ID,
		RequesterID:     f.RequesterID,
		RecipientIDs:    append([]string(nil), f.RecipientIDs...),
		DurationMinutes: f.DurationMinutes,
		Topic:           f.Topic,
		Status:          f.Status,
		VenueBookingID:  cloneString(f.VenueBookingID),
	}
}

func (f MeetingFixture) Persistence() persistence.Meeting {
	return persistence.Meeting{
		ID:              f.ID,
		RequesterID:     f.RequesterID,
		RecipientIDs:    append([]string(nil), f.RecipientIDs...),
		DurationMinutes: f.DurationMinutes,
		Topic:           f.Topic,
		Status:          f.Status,
		VenueBookingID:  cloneString(f.VenueBookingID),
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a room booking.
type ReservationFixture struct {
	ID          string
	Room        RoomFixture
	Start       time.Time
	Duration    time.Duration
	Status      string
	BookingType string
	MeetingID   *string
	Topic       *string
	BookedBy    string
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns an active private hour in room starting at
// ReferenceTime plus one hour.
func NewReservationFixture(room RoomFixture, opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	topic := "Maintenance"
	fixture := ReservationFixture{
		ID:          fmt.Sprintf("res-%03d", idx),
		Room:        room,
		Start:       referenceTime.Add(time.Hour),
		Duration:    time.Hour,
		Status:      application.ReservationActive,
		BookingType: application.BookingTypePrivate,
		Topic:       &topic,
		BookedBy:    "admin",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationWindow sets the start and length.
func WithReservationWindow(start time.Time, duration time.Duration) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.Duration = duration
	}
}

// ForMeeting turns the fixture into the venue booking of meeting.
func ForMeeting(meeting MeetingFixture) ReservationOption {
	return func(f *ReservationFixture) {
		id := meeting.ID
		f.BookingType = application.BookingTypeMeeting
		f.MeetingID = &id
		f.Topic = nil
		f.BookedBy = meeting.RequesterID
		f.Duration = time.Duration(meeting.DurationMinutes) * time.Minute
	}
}

// CancelledReservation marks the fixture as released.
func CancelledReservation() ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = application.ReservationCancelled
	}
}

func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:          f.ID,
		RoomID:      f.Room.ID,
		Start:       f.Start,
		End:         f.Start.Add(f.Duration),
		Status:      f.Status,
		BookingType: f.BookingType,
		MeetingID:   cloneString(f.MeetingID),
		Topic:       cloneString(f.Topic),
		BookedBy:    f.BookedBy,
		RoomName:    f.Room.Name,
		RoomFloor:   f.Room.Floor,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
}

func (f ReservationFixture) Persistence() persistence.Reservation {
	var cancelledAt *time.Time
	if f.Status == application.ReservationCancelled {
		at := referenceTime
		cancelledAt = &at
	}
	return persistence.Reservation{
		ID:          f.ID,
		RoomID:      f.Room.ID,
		Start:       f.Start,
		End:         f.Start.Add(f.Duration),
		Status:      f.Status,
		BookingType: f.BookingType,
		MeetingID:   cloneString(f.MeetingID),
		Topic:       cloneString(f.Topic),
		BookedBy:    f.BookedBy,
		RoomName:    f.Room.Name,
		RoomFloor:   f.Room.Floor,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
		CancelledAt: cancelledAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
