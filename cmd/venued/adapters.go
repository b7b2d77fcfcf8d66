package main

import (
	"context"
	"time"

	"github.com/c4sa/Unido-sub000/internal/application"
	"github.com/c4sa/Unido-sub000/internal/persistence"
)

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, reservation.ID)
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, query application.ReservationQuery) ([]application.Reservation, error) {
	models, err := a.repo.ListReservations(ctx, persistence.ReservationFilter{
		RoomID:       query.RoomID,
		Status:       query.Status,
		MeetingID:    query.MeetingID,
		StartsBefore: cloneTime(query.To),
		EndsAfter:    cloneTime(query.From),
	})
	if err != nil {
		return nil, err
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations, nil
}

type meetingDirectoryAdapter struct {
	repo persistence.MeetingRepository
}

func newMeetingDirectoryAdapter(repo persistence.MeetingRepository) *meetingDirectoryAdapter {
	return &meetingDirectoryAdapter{repo: repo}
}

func (a *meetingDirectoryAdapter) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := a.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, err
	}
	return application.Meeting{
		ID:              stored.ID,
		RequesterID:     stored.RequesterID,
		RecipientIDs:    append([]string(nil), stored.RecipientIDs...),
		DurationMinutes: stored.DurationMinutes,
		Topic:           stored.Topic,
		Status:          stored.Status,
		VenueBookingID:  cloneString(stored.VenueBookingID),
	}, nil
}

type userDirectoryAdapter struct {
	repo persistence.UserRepository
}

func newUserDirectoryAdapter(repo persistence.UserRepository) *userDirectoryAdapter {
	return &userDirectoryAdapter{repo: repo}
}

func (a *userDirectoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetCredentials(ctx context.Context, userID string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		return application.UserCredentials{}, err
	}
	creds := application.UserCredentials{User: toApplicationUser(stored)}
	if stored.TokenHash != nil {
		creds.TokenHash = *stored.TokenHash
	}
	return creds, nil
}

func (a *credentialStoreAdapter) SetTokenHash(ctx context.Context, userID, hash string, at time.Time) error {
	return a.repo.SetTokenHash(ctx, userID, hash, at)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:                     model.ID,
		DisplayName:            model.DisplayName,
		IsAdmin:                model.IsAdmin,
		NotifyBookingConfirmed: cloneBool(model.NotifyBookingConfirmed),
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Capacity:  model.Capacity,
		Floor:     model.Floor,
		Type:      model.Type,
		Equipment: append([]string(nil), model.Equipment...),
		IsActive:  model.IsActive,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Capacity:  room.Capacity,
		Floor:     room.Floor,
		Type:      room.Type,
		Equipment: append([]string(nil), room.Equipment...),
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:          model.ID,
		RoomID:      model.RoomID,
		Start:       model.Start,
		End:         model.End,
		Status:      model.Status,
		BookingType: model.BookingType,
		MeetingID:   cloneString(model.MeetingID),
		Topic:       cloneString(model.Topic),
		BookedBy:    model.BookedBy,
		RoomName:    model.RoomName,
		RoomFloor:   model.RoomFloor,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		CancelledAt: cloneTime(model.CancelledAt),
	}
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:          reservation.ID,
		RoomID:      reservation.RoomID,
		Start:       reservation.Start,
		End:         reservation.End,
		Status:      reservation.Status,
		BookingType: reservation.BookingType,
		MeetingID:   cloneString(reservation.MeetingID),
		Topic:       cloneString(reservation.Topic),
		BookedBy:    reservation.BookedBy,
		RoomName:    reservation.RoomName,
		RoomFloor:   reservation.RoomFloor,
		CreatedAt:   reservation.CreatedAt,
		UpdatedAt:   reservation.UpdatedAt,
		CancelledAt: cloneTime(reservation.CancelledAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
