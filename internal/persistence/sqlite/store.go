package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/c4sa/Unido-sub000/internal/persistence/sqlite/migration"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const schemaDir = "schema"

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Rooms         *RoomRepository
	Reservations  *ReservationRepository
	Meetings      *MeetingRepository
	Users         *UserRepository
	Notifications *NotificationRepository
}

// Open connects to the database described by config. Call Migrate before use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:          pool,
		logger:        logger,
		Rooms:         NewRoomRepository(pool),
		Reservations:  NewReservationRepository(pool),
		Meetings:      NewMeetingRepository(pool),
		Users:         NewUserRepository(pool),
		Notifications: NewNotificationRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewFileScanner(schemaFS),
		migration.NewSQLiteExecutor(s.pool.DB()),
		schemaDir,
		s.logger,
	)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
