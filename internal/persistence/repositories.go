package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries. Zero values do not filter.
// StartsBefore and EndsAfter select reservations overlapping a window.
type ReservationFilter struct {
	RoomID       string
	Status       string
	MeetingID    string
	StartsBefore *time.Time
	EndsAfter    *time.Time
}

// ReservationRepository stores reservations. Writes that would overlap an
// active reservation of the same room fail with ErrOverlap.
type ReservationRepository interface {
	// CreateReservation inserts the reservation and, when MeetingID is set,
	// points the meeting's venue booking at it in the same transaction.
	CreateReservation(ctx context.Context, reservation Reservation) error
	// UpdateReservation rewrites the reservation. Cancelling a meeting
	// reservation clears the meeting's venue booking in the same transaction.
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// MeetingRepository reads meetings and accepts upserts from the platform.
type MeetingRepository interface {
	UpsertMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
}

// UserRepository reads platform users and stores API token hashes.
type UserRepository interface {
	UpsertUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	SetTokenHash(ctx context.Context, userID, hash string, at time.Time) error
}

// NotificationRepository is the notification outbox.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListUnpublished(ctx context.Context, limit int) ([]Notification, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}
