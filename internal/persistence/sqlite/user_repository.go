package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

// UpsertUser stores the platform's view of a user. The API token hash is
// only changed through SetTokenHash.
func (r *UserRepository) UpsertUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}
	now := r.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	var notify sql.NullBool
	if user.NotifyBookingConfirmed != nil {
		notify = sql.NullBool{Bool: *user.NotifyBookingConfirmed, Valid: true}
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO users (id, display_name, is_admin, notify_booking_confirmed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			is_admin = excluded.is_admin,
			notify_booking_confirmed = excluded.notify_booking_confirmed,
			updated_at = excluded.updated_at`,
		user.ID,
		user.DisplayName,
		user.IsAdmin,
		notify,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	var (
		user             persistence.User
		notify           sql.NullBool
		tokenHash        sql.NullString
		created, updated string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT id, display_name, is_admin, notify_booking_confirmed, api_token_hash, created_at, updated_at
		FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.DisplayName, &user.IsAdmin, &notify, &tokenHash, &created, &updated)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	if notify.Valid {
		value := notify.Bool
		user.NotifyBookingConfirmed = &value
	}
	user.TokenHash = stringPtr(tokenHash)
	if user.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

// SetTokenHash replaces the stored API token hash of a user.
func (r *UserRepository) SetTokenHash(ctx context.Context, userID, hash string, at time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE users SET api_token_hash = ?, updated_at = ? WHERE id = ?`,
		hash, formatTime(at), userID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}
