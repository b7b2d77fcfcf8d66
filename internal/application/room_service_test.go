package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

type roomRepoStub struct {
	createErr error
	created   Room

	getRoom Room
	getErr  error

	updateErr error
	updated   Room

	deleteErr error
	deletedID string

	list    []Room
	listErr error
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	if r.createErr != nil {
		return Room{}, r.createErr
	}
	r.created = room
	return room, nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	if r.getErr != nil {
		return Room{}, r.getErr
	}
	if r.getRoom.ID == "" || r.getRoom.ID != id {
		return Room{}, ErrNotFound
	}
	return r.getRoom, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	if r.updateErr != nil {
		return Room{}, r.updateErr
	}
	r.updated = room
	return room, nil
}

func (r *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context) ([]Room, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	if len(r.list) == 0 {
		return nil, nil
	}
	out := make([]Room, len(r.list))
	copy(out, r.list)
	return out, nil
}

func validRoomInput() RoomInput {
	return RoomInput{
		Name:      "Majlis A",
		Capacity:  8,
		Floor:     2,
		Type:      "small",
		Equipment: []string{"screen"},
	}
}

func TestRoomService_CreateRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{IsAdmin: false},
			Input:     validRoomInput(),
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewRoomService(nil, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{IsAdmin: true},
			Input: RoomInput{
				Name:      "   ",
				Capacity:  0,
				Type:      "huge",
				Equipment: []string{"laser"},
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "capacity", "type"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
		if len(vErr.FieldErrors) != 4 {
			t.Fatalf("expected equipment error as well, got %v", vErr.FieldErrors)
		}
	})

	t.Run("persists rooms for administrators", func(t *testing.T) {
		repo := &roomRepoStub{}
		now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
		svc := NewRoomService(repo, func() string { return "room-1" }, func() time.Time { return now })

		input := validRoomInput()
		input.Name = "  Majlis A  "
		input.Equipment = []string{"screen", "whiteboard", "screen"}
		created, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{UserID: "admin", IsAdmin: true},
			Input:     input,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if repo.created.ID != "room-1" {
			t.Fatalf("expected repository to receive generated ID, got %q", repo.created.ID)
		}
		if repo.created.Name != "Majlis A" {
			t.Fatalf("expected name to be trimmed, got %q", repo.created.Name)
		}
		if len(repo.created.Equipment) != 2 {
			t.Fatalf("expected duplicate equipment removed, got %v", repo.created.Equipment)
		}
		if !repo.created.IsActive {
			t.Fatalf("expected rooms to default to active")
		}
		if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
			t.Fatalf("expected timestamps to be %v, got %v/%v", now, created.CreatedAt, created.UpdatedAt)
		}
	})

	t.Run("maps duplicate names", func(t *testing.T) {
		repo := &roomRepoStub{createErr: fmt.Errorf("%w: UNIQUE constraint failed", persistence.ErrDuplicate)}
		svc := NewRoomService(repo, nil, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: Principal{IsAdmin: true},
			Input:     validRoomInput(),
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestRoomService_UpdateRoom(t *testing.T) {
	existing := Room{ID: "room-1", Name: "Old", Capacity: 4, Type: "small", IsActive: true}

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{getRoom: existing}, nil, nil)
		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{RoomID: "room-1", Input: validRoomInput()})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("returns not found for unknown rooms", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil, nil)
		_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: Principal{IsAdmin: true},
			RoomID:    "missing",
			Input:     validRoomInput(),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deactivates a room", func(t *testing.T) {
		repo := &roomRepoStub{getRoom: existing}
		now := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
		svc := NewRoomService(repo, nil, func() time.Time { return now })

		inactive := false
		input := validRoomInput()
		input.IsActive = &inactive
		updated, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
			Principal: Principal{IsAdmin: true},
			RoomID:    "room-1",
			Input:     input,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.IsActive {
			t.Fatalf("expected room to be inactive")
		}
		if updated.ID != "room-1" || updated.Name != "Majlis A" {
			t.Fatalf("unexpected update %#v", updated)
		}
		if !repo.updated.UpdatedAt.Equal(now) {
			t.Fatalf("expected UpdatedAt %v, got %v", now, repo.updated.UpdatedAt)
		}
	})
}

func TestRoomService_DeleteRoom(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewRoomService(&roomRepoStub{}, nil, nil)
		if err := svc.DeleteRoom(context.Background(), Principal{}, "room-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rooms with reservations must be deactivated", func(t *testing.T) {
		repo := &roomRepoStub{deleteErr: fmt.Errorf("%w: FOREIGN KEY constraint failed", persistence.ErrForeignKeyViolation)}
		svc := NewRoomService(repo, nil, nil)

		err := svc.DeleteRoom(context.Background(), Principal{IsAdmin: true}, "room-1")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["room"]; !ok {
			t.Fatalf("expected room field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("deletes unused rooms", func(t *testing.T) {
		repo := &roomRepoStub{}
		svc := NewRoomService(repo, nil, nil)
		if err := svc.DeleteRoom(context.Background(), Principal{IsAdmin: true}, "room-1"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.deletedID != "room-1" {
			t.Fatalf("expected room-1 deleted, got %q", repo.deletedID)
		}
	})
}

func TestRoomService_ListRooms(t *testing.T) {
	repo := &roomRepoStub{list: []Room{
		{ID: "r3", Name: "Zeta", Floor: 1, IsActive: true},
		{ID: "r2", Name: "alpha", Floor: 2, IsActive: true},
		{ID: "r1", Name: "Beta", Floor: 1, IsActive: false},
	}}
	svc := NewRoomService(repo, nil, nil)

	t.Run("orders by floor then name", func(t *testing.T) {
		rooms, err := svc.ListRooms(context.Background(), Principal{UserID: "u"}, false)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		got := []string{rooms[0].ID, rooms[1].ID, rooms[2].ID}
		want := []string{"r1", "r3", "r2"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	})

	t.Run("filters inactive rooms", func(t *testing.T) {
		rooms, err := svc.ListRooms(context.Background(), Principal{UserID: "u"}, true)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(rooms) != 2 {
			t.Fatalf("expected 2 active rooms, got %d", len(rooms))
		}
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		boom := errors.New("boom")
		failing := NewRoomService(&roomRepoStub{listErr: boom}, nil, nil)
		if _, err := failing.ListRooms(context.Background(), Principal{}, false); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
}
