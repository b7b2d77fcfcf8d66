package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Users

	optOut := false
	user := persistence.User{ID: "user-1", DisplayName: "Alex", IsAdmin: true, NotifyBookingConfirmed: &optOut}
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	if err := repo.SetTokenHash(ctx, "user-1", "hash-value", baseTime); err != nil {
		t.Fatalf("SetTokenHash failed: %v", err)
	}

	user.DisplayName = "Alex R."
	user.NotifyBookingConfirmed = nil
	if err := repo.UpsertUser(ctx, user); err != nil {
		t.Fatalf("second UpsertUser failed: %v", err)
	}

	got, err := repo.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.DisplayName != "Alex R." || !got.IsAdmin {
		t.Fatalf("unexpected user: %#v", got)
	}
	if got.NotifyBookingConfirmed != nil {
		t.Fatalf("expected preference unset, got %v", *got.NotifyBookingConfirmed)
	}
	if got.TokenHash == nil || *got.TokenHash != "hash-value" {
		t.Fatalf("expected token hash to survive upsert, got %v", got.TokenHash)
	}

	if err := repo.SetTokenHash(ctx, "missing", "x", baseTime); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
