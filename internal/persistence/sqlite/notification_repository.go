package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

// NotificationRepository is the SQLite notification outbox.
type NotificationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewNotificationRepository creates a new SQLite notification outbox.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

// CreateNotification appends a notification to the outbox.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n persistence.Notification) error {
	if n.ID == "" || n.UserID == "" || n.Type == "" {
		return persistence.ErrConstraintViolation
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, link, related_entity_id, created_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.Link, n.RelatedEntityID,
		formatTime(n.CreatedAt), nullTime(n.PublishedAt),
	)
	return r.mapper.MapError(err)
}

// ListUnpublished returns up to limit notifications not yet relayed, oldest first.
func (r *NotificationRepository) ListUnpublished(ctx context.Context, limit int) ([]persistence.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.helper.Query(ctx, `
		SELECT id, user_id, type, title, body, link, related_entity_id, created_at
		FROM notifications
		WHERE published_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var (
			n       persistence.Notification
			created string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Link, &n.RelatedEntityID, &created); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if n.CreatedAt, err = parseTime("created_at", created); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return notifications, nil
}

// MarkPublished stamps the given notifications as relayed.
func (r *NotificationRepository) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := r.helper.ExecTx(ctx, tx,
				`UPDATE notifications SET published_at = ? WHERE id = ? AND published_at IS NULL`,
				formatTime(at), id,
			); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}
