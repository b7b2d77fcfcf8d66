package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite.
type MeetingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewMeetingRepository creates a new SQLite meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

// UpsertMeeting stores the platform's view of a meeting and replaces its
// recipient list. An existing venue_booking_id is kept unless the meeting
// carries one.
func (r *MeetingRepository) UpsertMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.RequesterID == "" {
		return persistence.ErrConstraintViolation
	}
	now := r.now()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	if meeting.UpdatedAt.IsZero() {
		meeting.UpdatedAt = now
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO meetings (id, requester_id, duration_minutes, topic, status, venue_booking_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				requester_id = excluded.requester_id,
				duration_minutes = excluded.duration_minutes,
				topic = excluded.topic,
				status = excluded.status,
				venue_booking_id = COALESCE(excluded.venue_booking_id, meetings.venue_booking_id),
				updated_at = excluded.updated_at`,
			meeting.ID,
			meeting.RequesterID,
			meeting.DurationMinutes,
			meeting.Topic,
			meeting.Status,
			nullString(meeting.VenueBookingID),
			formatTime(meeting.CreatedAt),
			formatTime(meeting.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM meeting_recipients WHERE meeting_id = ?`, meeting.ID); err != nil {
			return r.mapper.MapError(err)
		}
		for position, userID := range meeting.RecipientIDs {
			if _, err := r.helper.ExecTx(ctx, tx,
				`INSERT INTO meeting_recipients (meeting_id, user_id, position) VALUES (?, ?, ?)`,
				meeting.ID, userID, position,
			); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetMeeting retrieves a meeting and its recipients in insertion order.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	var (
		meeting          persistence.Meeting
		venueBookingID   sql.NullString
		created, updated string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT id, requester_id, duration_minutes, topic, status, venue_booking_id, created_at, updated_at
		FROM meetings WHERE id = ?`, id,
	).Scan(
		&meeting.ID,
		&meeting.RequesterID,
		&meeting.DurationMinutes,
		&meeting.Topic,
		&meeting.Status,
		&venueBookingID,
		&created,
		&updated,
	)
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	meeting.VenueBookingID = stringPtr(venueBookingID)
	if meeting.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.Meeting{}, err
	}

	rows, err := r.helper.Query(ctx,
		`SELECT user_id FROM meeting_recipients WHERE meeting_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return persistence.Meeting{}, r.mapper.MapError(err)
		}
		meeting.RecipientIDs = append(meeting.RecipientIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	return meeting, nil
}
