package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using SQLite.
// The overlap triggers of the schema reject conflicting writes with
// persistence.ErrOverlap.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

const reservationColumns = `id, room_id, start_time, end_time, status, booking_type, meeting_request_id,
	topic, booked_by, room_name, room_floor, created_at, updated_at, cancelled_at`

// CreateReservation inserts the reservation. When it belongs to a meeting the
// meeting's venue_booking_id is pointed at it in the same transaction, so
// neither write is visible without the other.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if err := validateReservation(reservation); err != nil {
		return err
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = r.now()
	}
	if reservation.UpdatedAt.IsZero() {
		reservation.UpdatedAt = reservation.CreatedAt
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := r.helper.ExecTx(ctx, tx, `
				INSERT INTO reservations (`+reservationColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				reservationArgs(reservation)...,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if reservation.MeetingID == nil {
				return nil
			}

			result, err := r.helper.ExecTx(ctx, tx,
				`UPDATE meetings SET venue_booking_id = ?, updated_at = ? WHERE id = ?`,
				reservation.ID, formatTime(reservation.UpdatedAt), *reservation.MeetingID,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			return requireRow(result)
		})
	})
}

// UpdateReservation rewrites an existing reservation. Cancelling a meeting
// reservation also clears the meeting's venue_booking_id when it still points
// here.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if err := validateReservation(reservation); err != nil {
		return err
	}
	if reservation.UpdatedAt.IsZero() {
		reservation.UpdatedAt = r.now()
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			result, err := r.helper.ExecTx(ctx, tx, `
				UPDATE reservations
				SET room_id = ?, start_time = ?, end_time = ?, status = ?, booking_type = ?,
					meeting_request_id = ?, topic = ?, booked_by = ?, room_name = ?, room_floor = ?,
					updated_at = ?, cancelled_at = ?
				WHERE id = ?`,
				reservation.RoomID,
				formatTime(reservation.Start),
				formatTime(reservation.End),
				reservation.Status,
				reservation.BookingType,
				nullString(reservation.MeetingID),
				nullString(reservation.Topic),
				reservation.BookedBy,
				reservation.RoomName,
				reservation.RoomFloor,
				formatTime(reservation.UpdatedAt),
				nullTime(reservation.CancelledAt),
				reservation.ID,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if err := requireRow(result); err != nil {
				return err
			}

			if reservation.Status != "cancelled" || reservation.MeetingID == nil {
				return nil
			}
			_, err = r.helper.ExecTx(ctx, tx,
				`UPDATE meetings SET venue_booking_id = NULL, updated_at = ? WHERE id = ? AND venue_booking_id = ?`,
				formatTime(reservation.UpdatedAt), *reservation.MeetingID, reservation.ID,
			)
			return r.mapper.MapError(err)
		})
	})
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return reservation, nil
}

// ListReservations returns reservations matching filter ordered by start time.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.MeetingID != "" {
		clauses = append(clauses, "meeting_request_id = ?")
		args = append(args, filter.MeetingID)
	}
	if filter.StartsBefore != nil {
		clauses = append(clauses, "start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if filter.EndsAfter != nil {
		clauses = append(clauses, "end_time > ?")
		args = append(args, formatTime(*filter.EndsAfter))
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_time ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reservations, nil
}

func validateReservation(reservation persistence.Reservation) error {
	if reservation.ID == "" || reservation.RoomID == "" {
		return persistence.ErrConstraintViolation
	}
	if !reservation.End.After(reservation.Start) {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func reservationArgs(reservation persistence.Reservation) []any {
	return []any{
		reservation.ID,
		reservation.RoomID,
		formatTime(reservation.Start),
		formatTime(reservation.End),
		reservation.Status,
		reservation.BookingType,
		nullString(reservation.MeetingID),
		nullString(reservation.Topic),
		reservation.BookedBy,
		reservation.RoomName,
		reservation.RoomFloor,
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
		nullTime(reservation.CancelledAt),
	}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation                   persistence.Reservation
		start, end, created, updated  string
		meetingID, topic, cancelledAt sql.NullString
	)
	if err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&start,
		&end,
		&reservation.Status,
		&reservation.BookingType,
		&meetingID,
		&topic,
		&reservation.BookedBy,
		&reservation.RoomName,
		&reservation.RoomFloor,
		&created,
		&updated,
		&cancelledAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	var err error
	if reservation.Start, err = parseTime("start_time", start); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.End, err = parseTime("end_time", end); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CancelledAt, err = parseNullTime("cancelled_at", cancelledAt); err != nil {
		return persistence.Reservation{}, err
	}
	reservation.MeetingID = stringPtr(meetingID)
	reservation.Topic = stringPtr(topic)
	return reservation, nil
}
