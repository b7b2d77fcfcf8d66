package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

func TestReservationRepository_OverlapGuard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Reservations
	seedRoom(t, store, "room-1")
	seedRoom(t, store, "room-2")

	if err := repo.CreateReservation(ctx, reservationAt("res-1", "room-1", baseTime, 60)); err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	tests := []struct {
		name        string
		reservation persistence.Reservation
		wantErr     error
	}{
		{
			name:        "overlapping same room",
			reservation: reservationAt("res-2", "room-1", baseTime.Add(30*time.Minute), 60),
			wantErr:     persistence.ErrOverlap,
		},
		{
			name:        "enclosing same room",
			reservation: reservationAt("res-3", "room-1", baseTime.Add(-30*time.Minute), 120),
			wantErr:     persistence.ErrOverlap,
		},
		{
			name:        "touching end boundary",
			reservation: reservationAt("res-4", "room-1", baseTime.Add(time.Hour), 30),
		},
		{
			name:        "touching start boundary",
			reservation: reservationAt("res-5", "room-1", baseTime.Add(-30*time.Minute), 30),
		},
		{
			name:        "same time other room",
			reservation: reservationAt("res-6", "room-2", baseTime, 60),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.CreateReservation(ctx, tt.reservation)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReservationRepository_CancelledDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Reservations
	seedRoom(t, store, "room-1")

	first := reservationAt("res-1", "room-1", baseTime, 60)
	if err := repo.CreateReservation(ctx, first); err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}
	cancelledAt := baseTime.Add(-time.Hour)
	first.Status = "cancelled"
	first.CancelledAt = &cancelledAt
	if err := repo.UpdateReservation(ctx, first); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if err := repo.CreateReservation(ctx, reservationAt("res-2", "room-1", baseTime, 60)); err != nil {
		t.Fatalf("expected cancelled reservation not to block, got %v", err)
	}

	// Reactivating the cancelled one would now overlap.
	first.Status = "active"
	first.CancelledAt = nil
	if err := repo.UpdateReservation(ctx, first); !errors.Is(err, persistence.ErrOverlap) {
		t.Fatalf("expected ErrOverlap on reactivation, got %v", err)
	}
}

func TestReservationRepository_MoveWithinOwnWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Reservations
	seedRoom(t, store, "room-1")

	reservation := reservationAt("res-1", "room-1", baseTime, 60)
	if err := repo.CreateReservation(ctx, reservation); err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}
	reservation.Start = baseTime.Add(30 * time.Minute)
	reservation.End = reservation.Start.Add(time.Hour)
	if err := repo.UpdateReservation(ctx, reservation); err != nil {
		t.Fatalf("moving a reservation over its own slot should succeed: %v", err)
	}

	got, err := repo.GetReservation(ctx, "res-1")
	if err != nil {
		t.Fatalf("GetReservation failed: %v", err)
	}
	if !got.Start.Equal(reservation.Start) || !got.End.Equal(reservation.End) {
		t.Fatalf("unexpected window %v-%v", got.Start, got.End)
	}
}

func TestReservationRepository_MeetingLink(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Reservations
	seedRoom(t, store, "room-1")
	seedMeeting(t, store, "meeting-1")

	reservation := reservationAt("res-1", "room-1", baseTime, 60)
	reservation.MeetingID = strPtr("meeting-1")
	if err := repo.CreateReservation(ctx, reservation); err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	meeting, err := store.Meetings.GetMeeting(ctx, "meeting-1")
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if meeting.VenueBookingID == nil || *meeting.VenueBookingID != "res-1" {
		t.Fatalf("expected meeting linked to res-1, got %v", meeting.VenueBookingID)
	}

	cancelledAt := baseTime
	reservation.Status = "cancelled"
	reservation.CancelledAt = &cancelledAt
	if err := repo.UpdateReservation(ctx, reservation); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	meeting, err = store.Meetings.GetMeeting(ctx, "meeting-1")
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if meeting.VenueBookingID != nil {
		t.Fatalf("expected link cleared, got %v", *meeting.VenueBookingID)
	}

	got, err := repo.GetReservation(ctx, "res-1")
	if err != nil {
		t.Fatalf("GetReservation failed: %v", err)
	}
	if got.Status != "cancelled" || got.CancelledAt == nil || !got.CancelledAt.Equal(cancelledAt) {
		t.Fatalf("unexpected cancelled reservation: %#v", got)
	}
}

func TestReservationRepository_FailedLinkRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Reservations
	seedRoom(t, store, "room-1")

	reservation := reservationAt("res-1", "room-1", baseTime, 60)
	reservation.MeetingID = strPtr("missing-meeting")
	if err := repo.CreateReservation(ctx, reservation); err == nil {
		t.Fatal("expected failure for unknown meeting")
	}
	if _, err := repo.GetReservation(ctx, "res-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected no reservation after rollback, got %v", err)
	}
}

func TestReservationRepository_PrivateRequiresTopic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedRoom(t, store, "room-1")

	reservation := reservationAt("res-1", "room-1", baseTime, 60)
	reservation.BookingType = "private"
	if err := store.Reservations.CreateReservation(ctx, reservation); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
	reservation.Topic = strPtr("Board prep")
	if err := store.Reservations.CreateReservation(ctx, reservation); err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}
}

func TestReservationRepository_ListReservations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Reservations
	seedRoom(t, store, "room-1")
	seedRoom(t, store, "room-2")

	for _, reservation := range []persistence.Reservation{
		reservationAt("res-late", "room-1", baseTime.Add(4*time.Hour), 60),
		reservationAt("res-early", "room-1", baseTime, 60),
		reservationAt("res-other", "room-2", baseTime, 60),
		reservationAt("res-next-day", "room-1", baseTime.Add(24*time.Hour), 60),
	} {
		if err := repo.CreateReservation(ctx, reservation); err != nil {
			t.Fatalf("CreateReservation(%s) failed: %v", reservation.ID, err)
		}
	}

	dayStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	tests := []struct {
		name   string
		filter persistence.ReservationFilter
		want   []string
	}{
		{"all", persistence.ReservationFilter{}, []string{"res-early", "res-other", "res-late", "res-next-day"}},
		{"room", persistence.ReservationFilter{RoomID: "room-1"}, []string{"res-early", "res-late", "res-next-day"}},
		{"day window", persistence.ReservationFilter{RoomID: "room-1", StartsBefore: &dayEnd, EndsAfter: &dayStart}, []string{"res-early", "res-late"}},
		{"status", persistence.ReservationFilter{Status: "cancelled"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListReservations(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListReservations failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d reservations, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}
