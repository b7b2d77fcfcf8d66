package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

var bookingDay = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return bookingDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type roomCatalogStub struct {
	rooms []Room
	err   error
}

func (r *roomCatalogStub) GetRoom(ctx context.Context, id string) (Room, error) {
	for _, room := range r.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return Room{}, persistence.ErrNotFound
}

func (r *roomCatalogStub) ListRooms(ctx context.Context) ([]Room, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]Room, len(r.rooms))
	copy(out, r.rooms)
	return out, nil
}

type reservationStoreStub struct {
	items     map[string]Reservation
	meetings  *meetingDirectoryStub
	createErr error
	creates   int
	updates   int
}

func newReservationStoreStub(meetings *meetingDirectoryStub, seed ...Reservation) *reservationStoreStub {
	store := &reservationStoreStub{items: make(map[string]Reservation), meetings: meetings}
	for _, reservation := range seed {
		store.items[reservation.ID] = reservation
	}
	return store
}

func (r *reservationStoreStub) CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	if r.createErr != nil {
		return Reservation{}, r.createErr
	}
	r.creates++
	r.items[reservation.ID] = reservation
	if reservation.MeetingID != nil && r.meetings != nil {
		r.meetings.link(*reservation.MeetingID, reservation.ID)
	}
	return reservation, nil
}

func (r *reservationStoreStub) UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	if _, ok := r.items[reservation.ID]; !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	r.updates++
	r.items[reservation.ID] = reservation
	if reservation.Status == ReservationCancelled && reservation.MeetingID != nil && r.meetings != nil {
		r.meetings.unlink(*reservation.MeetingID, reservation.ID)
	}
	return reservation, nil
}

func (r *reservationStoreStub) GetReservation(ctx context.Context, id string) (Reservation, error) {
	reservation, ok := r.items[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

func (r *reservationStoreStub) ListReservations(ctx context.Context, query ReservationQuery) ([]Reservation, error) {
	var out []Reservation
	for _, reservation := range r.items {
		if query.RoomID != "" && reservation.RoomID != query.RoomID {
			continue
		}
		if query.Status != "" && reservation.Status != query.Status {
			continue
		}
		if query.MeetingID != "" && (reservation.MeetingID == nil || *reservation.MeetingID != query.MeetingID) {
			continue
		}
		if query.To != nil && !reservation.Start.Before(*query.To) {
			continue
		}
		if query.From != nil && !reservation.End.After(*query.From) {
			continue
		}
		out = append(out, reservation)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type meetingDirectoryStub struct {
	meetings map[string]Meeting
}

func newMeetingDirectoryStub(meetings ...Meeting) *meetingDirectoryStub {
	stub := &meetingDirectoryStub{meetings: make(map[string]Meeting)}
	for _, meeting := range meetings {
		stub.meetings[meeting.ID] = meeting
	}
	return stub
}

func (m *meetingDirectoryStub) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	meeting, ok := m.meetings[id]
	if !ok {
		return Meeting{}, persistence.ErrNotFound
	}
	return meeting, nil
}

func (m *meetingDirectoryStub) link(meetingID, reservationID string) {
	meeting := m.meetings[meetingID]
	id := reservationID
	meeting.VenueBookingID = &id
	m.meetings[meetingID] = meeting
}

func (m *meetingDirectoryStub) unlink(meetingID, reservationID string) {
	meeting := m.meetings[meetingID]
	if meeting.VenueBookingID != nil && *meeting.VenueBookingID == reservationID {
		meeting.VenueBookingID = nil
	}
	m.meetings[meetingID] = meeting
}

type userDirectoryStub struct {
	users map[string]User
}

func (u *userDirectoryStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := u.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

type notifierStub struct {
	sent []Notification
	err  error
}

func (n *notifierStub) Notify(ctx context.Context, notification Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *notifierStub) recipients() []string {
	out := make([]string, len(n.sent))
	for i, notification := range n.sent {
		out[i] = notification.UserID
	}
	sort.Strings(out)
	return out
}

type bookingFixture struct {
	svc          *BookingService
	rooms        *roomCatalogStub
	reservations *reservationStoreStub
	meetings     *meetingDirectoryStub
	users        *userDirectoryStub
	notifier     *notifierStub
}

func sampleMeeting() Meeting {
	return Meeting{
		ID:              "meeting-1",
		RequesterID:     "user-a",
		RecipientIDs:    []string{"user-b", "user-c"},
		DurationMinutes: 60,
		Topic:           "Partnership",
		Status:          MeetingAccepted,
	}
}

func newBookingFixture(t *testing.T, meetings []Meeting, reservations ...Reservation) *bookingFixture {
	t.Helper()

	f := &bookingFixture{
		rooms: &roomCatalogStub{rooms: []Room{
			{ID: "room-s", Name: "Majlis", Capacity: 4, Floor: 1, Type: "small", IsActive: true},
			{ID: "room-l", Name: "Hall", Capacity: 20, Floor: 2, Type: "large", IsActive: true},
			{ID: "room-x", Name: "Closed", Capacity: 50, Floor: 3, Type: "large", IsActive: false},
		}},
		meetings: newMeetingDirectoryStub(meetings...),
		users:    &userDirectoryStub{users: map[string]User{}},
		notifier: &notifierStub{},
	}
	f.reservations = newReservationStoreStub(f.meetings, reservations...)

	seq := 0
	f.svc = NewBookingService(BookingDeps{
		Rooms:        f.rooms,
		Reservations: f.reservations,
		Meetings:     f.meetings,
		Users:        f.users,
		Notifier:     f.notifier,
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("res-%d", seq)
		},
		Now: func() time.Time { return at(8, 0) },
	})
	return f
}

func activeReservation(id, roomID string, start time.Time, minutes int) Reservation {
	return Reservation{
		ID:          id,
		RoomID:      roomID,
		Start:       start,
		End:         start.Add(time.Duration(minutes) * time.Minute),
		Status:      ReservationActive,
		BookingType: BookingTypePrivate,
		BookedBy:    "admin",
	}
}

func TestBookingService_BookMeeting(t *testing.T) {
	t.Run("creates reservation and notifies other participants", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{sampleMeeting()})
		optOut := false
		f.users.users["user-c"] = User{ID: "user-c", NotifyBookingConfirmed: &optOut}

		result, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "user-a"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:00",
		})
		if err != nil {
			t.Fatalf("BookMeeting failed: %v", err)
		}
		if !result.Committed || !result.Created {
			t.Fatalf("expected committed create, got %#v", result)
		}
		saved := result.Reservation
		if !saved.Start.Equal(at(10, 0)) || !saved.End.Equal(at(11, 0)) {
			t.Fatalf("unexpected window %v-%v", saved.Start, saved.End)
		}
		if saved.BookingType != BookingTypeMeeting || saved.BookedBy != "user-a" || saved.RoomName != "Majlis" {
			t.Fatalf("unexpected reservation %#v", saved)
		}
		if saved.Topic == nil || *saved.Topic != "Partnership" {
			t.Fatalf("expected meeting topic, got %v", saved.Topic)
		}
		if id := f.meetings.meetings["meeting-1"].VenueBookingID; id == nil || *id != saved.ID {
			t.Fatalf("expected meeting linked to %s, got %v", saved.ID, id)
		}
		if got := f.notifier.recipients(); len(got) != 1 || got[0] != "user-b" {
			t.Fatalf("expected only user-b notified, got %v", got)
		}
		sent := f.notifier.sent[0]
		if sent.Type != NotificationVenueConfirmed || sent.Link != "/meetings/meeting-1" || sent.RelatedEntityID != "meeting-1" {
			t.Fatalf("unexpected notification %#v", sent)
		}
	})

	t.Run("taken slot writes nothing and suggests an alternative", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{sampleMeeting()}, activeReservation("busy", "room-s", at(10, 0), 60))

		result, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "user-b"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:30",
		})
		if err != nil {
			t.Fatalf("BookMeeting failed: %v", err)
		}
		if result.Committed || result.Reservation != nil {
			t.Fatalf("expected no write, got %#v", result)
		}
		if f.reservations.creates != 0 || len(f.notifier.sent) != 0 {
			t.Fatalf("expected no side effects")
		}
		suggestion := result.Alternative.Suggestion
		if suggestion == nil {
			t.Fatalf("expected suggestion, got reason %q", result.Alternative.Reason)
		}
		if suggestion.RoomID != "room-l" || suggestion.RoomName != "Hall" || suggestion.Date != "2024-03-01" || suggestion.Start != "10:30" {
			t.Fatalf("unexpected suggestion %#v", suggestion)
		}
	})

	t.Run("back to back bookings are allowed", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{sampleMeeting()}, activeReservation("busy", "room-s", at(9, 0), 60))

		result, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "user-a"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:00",
		})
		if err != nil || !result.Committed {
			t.Fatalf("expected commit, got %#v, %v", result, err)
		}
	})

	t.Run("moves the existing booking within its own window", func(t *testing.T) {
		meeting := sampleMeeting()
		current := activeReservation("res-old", "room-s", at(10, 0), 60)
		current.BookingType = BookingTypeMeeting
		current.BookedBy = "user-b"
		current.MeetingID = &meeting.ID
		meeting.VenueBookingID = &current.ID
		f := newBookingFixture(t, []Meeting{meeting}, current)

		result, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "user-a"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:30",
		})
		if err != nil {
			t.Fatalf("BookMeeting failed: %v", err)
		}
		if !result.Committed || result.Created {
			t.Fatalf("expected in-place update, got %#v", result)
		}
		if result.Reservation.ID != "res-old" || !result.Reservation.Start.Equal(at(10, 30)) {
			t.Fatalf("unexpected moved reservation %#v", result.Reservation)
		}
		if result.Reservation.BookedBy != "user-b" {
			t.Fatalf("expected original booker kept, got %q", result.Reservation.BookedBy)
		}
		if f.reservations.creates != 0 || len(f.reservations.items) != 1 {
			t.Fatalf("expected no duplicate reservation")
		}
		got := f.notifier.recipients()
		if len(got) != 2 || got[0] != "user-b" || got[1] != "user-c" {
			t.Fatalf("expected user-b and user-c notified, got %v", got)
		}
		for _, sent := range f.notifier.sent {
			if sent.Type != NotificationVenueUpdated {
				t.Fatalf("expected venue_updated, got %q", sent.Type)
			}
		}
	})

	t.Run("lost race maps to ErrSlotTaken", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{sampleMeeting()})
		f.reservations.createErr = fmt.Errorf("%w: reservation overlap", persistence.ErrOverlap)

		_, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "user-a"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:00",
		})
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}
		if len(f.notifier.sent) != 0 {
			t.Fatalf("expected no notifications after a failed write")
		}
	})

	t.Run("notification failures do not undo the booking", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{sampleMeeting()})
		f.notifier.err = errors.New("bell offline")

		result, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "user-a"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:00",
		})
		if err != nil || !result.Committed {
			t.Fatalf("expected commit despite notifier failure, got %#v, %v", result, err)
		}
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		short := sampleMeeting()
		short.ID = "meeting-odd"
		short.DurationMinutes = 50
		crowded := sampleMeeting()
		crowded.ID = "meeting-big"
		crowded.RecipientIDs = []string{"b", "c", "d", "e"}
		declined := sampleMeeting()
		declined.ID = "meeting-declined"
		declined.Status = MeetingDeclined

		tests := []struct {
			name   string
			params BookMeetingParams
			field  string
			err    error
		}{
			{"bad date", BookMeetingParams{MeetingID: "meeting-1", RoomID: "room-s", Date: "2024-02-30", Start: "10:00"}, "date", nil},
			{"bad time", BookMeetingParams{MeetingID: "meeting-1", RoomID: "room-s", Date: "2024-03-01", Start: "25:00"}, "time", nil},
			{"duration not allowed", BookMeetingParams{MeetingID: "meeting-odd", RoomID: "room-s", Date: "2024-03-01", Start: "10:00"}, "duration", nil},
			{"room too small", BookMeetingParams{MeetingID: "meeting-big", RoomID: "room-s", Date: "2024-03-01", Start: "10:00"}, "room_id", nil},
			{"inactive room", BookMeetingParams{MeetingID: "meeting-1", RoomID: "room-x", Date: "2024-03-01", Start: "10:00"}, "room_id", nil},
			{"unknown room", BookMeetingParams{MeetingID: "meeting-1", RoomID: "nope", Date: "2024-03-01", Start: "10:00"}, "room_id", nil},
			{"declined meeting", BookMeetingParams{MeetingID: "meeting-declined", RoomID: "room-s", Date: "2024-03-01", Start: "10:00"}, "meeting_id", nil},
			{"unknown meeting", BookMeetingParams{MeetingID: "ghost", RoomID: "room-s", Date: "2024-03-01", Start: "10:00"}, "", ErrNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newBookingFixture(t, []Meeting{sampleMeeting(), short, crowded, declined})
				tt.params.Principal = Principal{UserID: "user-a"}

				_, err := f.svc.BookMeeting(context.Background(), tt.params)
				if tt.err != nil {
					if !errors.Is(err, tt.err) {
						t.Fatalf("expected %v, got %v", tt.err, err)
					}
					return
				}
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if _, ok := vErr.FieldErrors[tt.field]; !ok {
					t.Fatalf("expected %s error, got %v", tt.field, vErr.FieldErrors)
				}
				if f.reservations.creates != 0 {
					t.Fatalf("expected nothing written")
				}
			})
		}
	})

	t.Run("outsiders cannot book", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{sampleMeeting()})
		_, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "stranger"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:00",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestBookingService_ReservePrivate(t *testing.T) {
	t.Run("requires administrator", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		_, err := f.svc.ReservePrivate(context.Background(), ReservePrivateParams{
			Principal: Principal{UserID: "user-a"}, RoomID: "room-s", Date: "2024-03-01", Start: "10:00", DurationMinutes: 60, Topic: "x",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("requires a topic", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		_, err := f.svc.ReservePrivate(context.Background(), ReservePrivateParams{
			Principal: Principal{UserID: "admin", IsAdmin: true}, RoomID: "room-s", Date: "2024-03-01", Start: "10:00", DurationMinutes: 60, Topic: "   ",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["topic"] == "" {
			t.Fatalf("expected topic validation error, got %v", err)
		}
	})

	t.Run("rejects lengths off the slot grid", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		_, err := f.svc.ReservePrivate(context.Background(), ReservePrivateParams{
			Principal: Principal{UserID: "admin", IsAdmin: true}, RoomID: "room-s", Date: "2024-03-01", Start: "10:00", DurationMinutes: 7, Topic: "Cleaning",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["duration"] == "" {
			t.Fatalf("expected duration validation error, got %v", err)
		}
		if f.reservations.creates != 0 {
			t.Fatalf("expected nothing written")
		}
	})

	t.Run("holds the room", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		result, err := f.svc.ReservePrivate(context.Background(), ReservePrivateParams{
			Principal: Principal{UserID: "admin", IsAdmin: true}, RoomID: "room-l", Date: "2024-03-01", Start: "13:00", DurationMinutes: 120, Topic: " Board ",
		})
		if err != nil || !result.Committed {
			t.Fatalf("expected commit, got %#v, %v", result, err)
		}
		if result.Reservation.BookingType != BookingTypePrivate || *result.Reservation.Topic != "Board" {
			t.Fatalf("unexpected reservation %#v", result.Reservation)
		}
		if !result.Reservation.End.Equal(at(15, 0)) {
			t.Fatalf("unexpected end %v", result.Reservation.End)
		}
	})
}

func TestBookingService_CancelReservation(t *testing.T) {
	meeting := sampleMeeting()
	booked := activeReservation("res-1", "room-s", at(10, 0), 60)
	booked.BookingType = BookingTypeMeeting
	booked.BookedBy = "user-a"
	booked.MeetingID = &meeting.ID
	meeting.VenueBookingID = &booked.ID

	t.Run("participants may cancel once", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{meeting}, booked)

		cancelled, err := f.svc.CancelReservation(context.Background(), Principal{UserID: "user-c"}, "res-1")
		if err != nil {
			t.Fatalf("CancelReservation failed: %v", err)
		}
		if cancelled.Status != ReservationCancelled || cancelled.CancelledAt == nil {
			t.Fatalf("expected cancelled reservation, got %#v", cancelled)
		}
		if f.meetings.meetings["meeting-1"].VenueBookingID != nil {
			t.Fatalf("expected meeting unlinked")
		}
		if got := f.notifier.recipients(); len(got) != 2 || got[0] != "user-a" || got[1] != "user-b" {
			t.Fatalf("expected user-a and user-b notified, got %v", got)
		}

		again, err := f.svc.CancelReservation(context.Background(), Principal{UserID: "user-c"}, "res-1")
		if err != nil {
			t.Fatalf("second cancel failed: %v", err)
		}
		if again.Status != ReservationCancelled {
			t.Fatalf("expected status to stay cancelled")
		}
		if f.reservations.updates != 1 || len(f.notifier.sent) != 2 {
			t.Fatalf("expected no second write or notification, got %d writes and %d notifications", f.reservations.updates, len(f.notifier.sent))
		}
	})

	t.Run("outsiders cannot cancel", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{meeting}, booked)
		if _, err := f.svc.CancelReservation(context.Background(), Principal{UserID: "stranger"}, "res-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		if _, err := f.svc.CancelReservation(context.Background(), Principal{IsAdmin: true}, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_SyncMeeting(t *testing.T) {
	linked := func(mutate func(*Meeting)) (Meeting, Reservation) {
		meeting := sampleMeeting()
		reservation := activeReservation("res-1", "room-s", at(10, 0), 60)
		reservation.BookingType = BookingTypeMeeting
		reservation.MeetingID = &meeting.ID
		meeting.VenueBookingID = &reservation.ID
		mutate(&meeting)
		return meeting, reservation
	}

	tests := []struct {
		name      string
		mutate    func(*Meeting)
		cancelled bool
		reason    string
		notified  int
	}{
		{"unchanged meeting keeps its venue", func(*Meeting) {}, false, "", 0},
		{"cancelled meeting releases venue", func(m *Meeting) { m.Status = MeetingCancelled }, true, SyncReasonMeetingCancelled, 0},
		{"declined meeting releases venue", func(m *Meeting) { m.Status = MeetingDeclined }, true, SyncReasonMeetingDeclined, 0},
		{"duration change asks for re-booking", func(m *Meeting) { m.DurationMinutes = 90 }, true, SyncReasonDurationChanged, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meeting, reservation := linked(tt.mutate)
			f := newBookingFixture(t, []Meeting{meeting}, reservation)

			outcome, err := f.svc.SyncMeeting(context.Background(), Principal{UserID: "user-a"}, "meeting-1")
			if err != nil {
				t.Fatalf("SyncMeeting failed: %v", err)
			}
			if outcome.Cancelled != tt.cancelled || outcome.Reason != tt.reason {
				t.Fatalf("unexpected outcome %#v", outcome)
			}
			wantStatus := ReservationActive
			if tt.cancelled {
				wantStatus = ReservationCancelled
			}
			if got := f.reservations.items["res-1"].Status; got != wantStatus {
				t.Fatalf("expected status %s, got %s", wantStatus, got)
			}
			if len(f.notifier.sent) != tt.notified {
				t.Fatalf("expected %d notifications, got %d", tt.notified, len(f.notifier.sent))
			}
		})
	}

	t.Run("meeting without venue is a no-op", func(t *testing.T) {
		f := newBookingFixture(t, []Meeting{sampleMeeting()})
		outcome, err := f.svc.SyncMeeting(context.Background(), Principal{UserID: "user-a"}, "meeting-1")
		if err != nil || outcome.Cancelled || outcome.Reservation != nil {
			t.Fatalf("expected no-op, got %#v, %v", outcome, err)
		}
	})
}

func TestNewBookingService_PolicyDefaults(t *testing.T) {
	svc := NewBookingService(BookingDeps{})
	policy := svc.Policy()
	def := DefaultBookingPolicy()

	if policy.Location != def.Location {
		t.Fatalf("expected default location, got %v", policy.Location)
	}
	if policy.Search != def.Search || policy.Grid != def.Grid {
		t.Fatalf("expected default search and grid, got %+v", policy)
	}
	if len(policy.AllowedDurations) != len(def.AllowedDurations) {
		t.Fatalf("expected default durations, got %v", policy.AllowedDurations)
	}

	t.Run("unset durations still reject odd lengths", func(t *testing.T) {
		odd := sampleMeeting()
		odd.DurationMinutes = 50
		f := newBookingFixture(t, []Meeting{odd})
		_, err := f.svc.BookMeeting(context.Background(), BookMeetingParams{
			Principal: Principal{UserID: "user-a"},
			MeetingID: "meeting-1",
			RoomID:    "room-s",
			Date:      "2024-03-01",
			Start:     "10:00",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if f.reservations.creates != 0 {
			t.Fatalf("expected nothing written")
		}
	})
}
