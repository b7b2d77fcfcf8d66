package notify

import (
	"encoding/json"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

// Header keys set on every published message.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"

	eventSource = "venued"
)

// Event is the published form of an outbox record.
type Event struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Link            string    `json:"link,omitempty"`
	RelatedEntityID string    `json:"related_entity_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// EventFromRecord converts an outbox record.
func EventFromRecord(record persistence.Notification) Event {
	return Event{
		ID:              record.ID,
		UserID:          record.UserID,
		Type:            record.Type,
		Title:           record.Title,
		Body:            record.Body,
		Link:            record.Link,
		RelatedEntityID: record.RelatedEntityID,
		CreatedAt:       record.CreatedAt.UTC(),
	}
}

// Encode returns the JSON payload.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
