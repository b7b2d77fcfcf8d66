package persistence

import "time"

// Room represents a bookable venue in the inventory.
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

// Reservation represents a room held for a time range. Rows are never deleted;
// cancellation only flips Status.
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

// Meeting is the slice of a meeting request the venue service reads and links to.
type Meeting struct {
	ID              string
	RequesterID     string
	RecipientIDs    []string
	DurationMinutes int
	Topic           string
	Status          string
	VenueBookingID  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// User is the slice of a platform account the venue service reads.
type User struct {
	ID                     string
	DisplayName            string
	IsAdmin                bool
	NotifyBookingConfirmed *bool
	TokenHash              *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Notification is an in-app notification held in the outbox until relayed.
type Notification struct {
	ID              string
	UserID          string
	Type            string
	Title           string
	Body            string
	Link            string
	RelatedEntityID string
	CreatedAt       time.Time
	PublishedAt     *time.Time
}
