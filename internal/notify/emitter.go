package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c4sa/Unido-sub000/internal/application"
	"github.com/c4sa/Unido-sub000/internal/persistence"
)

// Emitter records notifications in the outbox. Records become visible to
// users immediately and are published later by a Relay.
type Emitter struct {
	store       persistence.NotificationRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEmitter constructs an Emitter. A nil idGenerator uses random UUIDs.
func NewEmitter(store persistence.NotificationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Emitter {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{store: store, idGenerator: idGenerator, now: now, logger: logger}
}

// Notify writes one notification to the outbox.
func (e *Emitter) Notify(ctx context.Context, notification application.Notification) error {
	if e == nil || e.store == nil {
		return fmt.Errorf("notify: emitter not configured")
	}
	if notification.UserID == "" || notification.Type == "" {
		return fmt.Errorf("notify: user and type are required")
	}

	record := persistence.Notification{
		ID:              e.idGenerator(),
		UserID:          notification.UserID,
		Type:            notification.Type,
		Title:           notification.Title,
		Body:            notification.Body,
		Link:            notification.Link,
		RelatedEntityID: notification.RelatedEntityID,
		CreatedAt:       e.now().UTC(),
	}
	if err := e.store.CreateNotification(ctx, record); err != nil {
		return fmt.Errorf("notify: store notification: %w", err)
	}
	e.logger.DebugContext(ctx, "notification queued",
		"notification_id", record.ID,
		"recipient_id", record.UserID,
		"notification_type", record.Type,
	)
	return nil
}
