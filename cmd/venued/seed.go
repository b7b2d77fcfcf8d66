package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c4sa/Unido-sub000/internal/persistence"
	"github.com/c4sa/Unido-sub000/internal/persistence/sqlite"
)

// seedFile mirrors the platform records the venue service reads. It lets a
// fresh installation be populated before the platform sync is connected.
type seedFile struct {
	Users []struct {
		ID            string `yaml:"id"`
		DisplayName   string `yaml:"display_name"`
		IsAdmin       bool   `yaml:"is_admin"`
		NotifyBooking *bool  `yaml:"notify_booking_confirmed"`
	} `yaml:"users"`
	Rooms []struct {
		ID        string   `yaml:"id"`
		Name      string   `yaml:"name"`
		Capacity  int      `yaml:"capacity"`
		Floor     int      `yaml:"floor"`
		Type      string   `yaml:"type"`
		Equipment []string `yaml:"equipment"`
		Inactive  bool     `yaml:"inactive"`
	} `yaml:"rooms"`
	Meetings []struct {
		ID              string   `yaml:"id"`
		RequesterID     string   `yaml:"requester_id"`
		RecipientIDs    []string `yaml:"recipient_ids"`
		DurationMinutes int      `yaml:"duration_minutes"`
		Topic           string   `yaml:"topic"`
		Status          string   `yaml:"status"`
	} `yaml:"meetings"`
}

// seedFromFile upserts users and meetings and creates rooms that do not exist
// yet. Existing rooms are left untouched.
func seedFromFile(ctx context.Context, store *sqlite.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	written := 0
	for _, user := range seed.Users {
		if err := store.Users.UpsertUser(ctx, persistence.User{
			ID:                     user.ID,
			DisplayName:            user.DisplayName,
			IsAdmin:                user.IsAdmin,
			NotifyBookingConfirmed: user.NotifyBooking,
		}); err != nil {
			return written, fmt.Errorf("seed user %q: %w", user.ID, err)
		}
		written++
	}

	for _, room := range seed.Rooms {
		_, err := store.Rooms.GetRoom(ctx, room.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, persistence.ErrNotFound) {
			return written, fmt.Errorf("seed room %q: %w", room.ID, err)
		}
		roomType := room.Type
		if roomType == "" {
			roomType = "small"
		}
		if err := store.Rooms.CreateRoom(ctx, persistence.Room{
			ID:        room.ID,
			Name:      room.Name,
			Capacity:  room.Capacity,
			Floor:     room.Floor,
			Type:      roomType,
			Equipment: room.Equipment,
			IsActive:  !room.Inactive,
		}); err != nil {
			return written, fmt.Errorf("seed room %q: %w", room.ID, err)
		}
		written++
	}

	for _, meeting := range seed.Meetings {
		if err := store.Meetings.UpsertMeeting(ctx, persistence.Meeting{
			ID:              meeting.ID,
			RequesterID:     meeting.RequesterID,
			RecipientIDs:    meeting.RecipientIDs,
			DurationMinutes: meeting.DurationMinutes,
			Topic:           meeting.Topic,
			Status:          meeting.Status,
		}); err != nil {
			return written, fmt.Errorf("seed meeting %q: %w", meeting.ID, err)
		}
		written++
	}
	return written, nil
}
