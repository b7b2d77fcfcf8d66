package scheduler

// RoomType classifies rooms by size.
type RoomType string

const (
	RoomTypeSmall RoomType = "small"
	RoomTypeLarge RoomType = "large"
)

// Equipment tags a room may carry.
const (
	EquipmentProjector       = "projector"
	EquipmentScreen          = "screen"
	EquipmentWhiteboard      = "whiteboard"
	EquipmentVideoConference = "video_conference"
	EquipmentMicrophone      = "microphone"
	EquipmentSpeakers        = "speakers"
)

// Room is the scheduling view of a bookable venue.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Floor     int
	Type      RoomType
	Equipment []string
	IsActive  bool
}

// Accommodates reports whether the room can be offered for the attendee count.
// A count of zero or less skips the capacity check.
func (r Room) Accommodates(attendees int) bool {
	if !r.IsActive {
		return false
	}
	return attendees <= 0 || r.Capacity >= attendees
}

// FilterRooms returns the active rooms large enough for attendees, preserving input order.
func FilterRooms(rooms []Room, attendees int) []Room {
	candidates := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Accommodates(attendees) {
			candidates = append(candidates, room)
		}
	}
	return candidates
}
