package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/c4sa/Unido-sub000/internal/persistence/sqlite"
	"github.com/c4sa/Unido-sub000/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides a migrated store backed by a temporary database file
// for integration-style tests.
type SQLiteHarness struct {
	Store *sqlite.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a store under tb.TempDir. Callers may
// invoke Close, but the helper also registers it with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "venue.db")
	store, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedUsers stores the users.
func (h *SQLiteHarness) SeedUsers(tb testing.TB, users ...UserFixture) {
	tb.Helper()
	for _, user := range users {
		if err := h.Store.Users.UpsertUser(context.Background(), user.Persistence()); err != nil {
			tb.Fatalf("failed to seed user %s: %v", user.ID, err)
		}
	}
}

// SeedRooms stores the rooms.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, rooms ...RoomFixture) {
	tb.Helper()
	for _, room := range rooms {
		if err := h.Store.Rooms.CreateRoom(context.Background(), room.Persistence()); err != nil {
			tb.Fatalf("failed to seed room %s: %v", room.ID, err)
		}
	}
}

// SeedMeetings stores the meetings.
func (h *SQLiteHarness) SeedMeetings(tb testing.TB, meetings ...MeetingFixture) {
	tb.Helper()
	for _, meeting := range meetings {
		if err := h.Store.Meetings.UpsertMeeting(context.Background(), meeting.Persistence()); err != nil {
			tb.Fatalf("failed to seed meeting %s: %v", meeting.ID, err)
		}
	}
}

// SeedReservations stores the reservations. Meeting reservations link their
// meeting as a side effect.
func (h *SQLiteHarness) SeedReservations(tb testing.TB, reservations ...ReservationFixture) {
	tb.Helper()
	for _, reservation := range reservations {
		if err := h.Store.Reservations.CreateReservation(context.Background(), reservation.Persistence()); err != nil {
			tb.Fatalf("failed to seed reservation %s: %v", reservation.ID, err)
		}
	}
}
