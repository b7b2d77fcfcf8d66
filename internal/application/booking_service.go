package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c4sa/Unido-sub000/internal/persistence"
	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

// ReservationQuery filters reservation reads. From and To select
// reservations overlapping [From, To).
type ReservationQuery struct {
	RoomID    string
	Status    string
	MeetingID string
	From      *time.Time
	To        *time.Time
}

// ReservationRepository stores reservations. Creating a meeting reservation
// links the meeting to it atomically; cancelling one unlinks it.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, query ReservationQuery) ([]Reservation, error)
}

// RoomCatalog exposes the room reads needed for booking.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// MeetingDirectory resolves platform meetings.
type MeetingDirectory interface {
	GetMeeting(ctx context.Context, id string) (Meeting, error)
}

// UserDirectory resolves platform users.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// Notifier delivers in-app notifications. Failures are logged by the caller
// and never undo a booking.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// BookingPolicy holds the venue's scheduling rules.
type BookingPolicy struct {
	Location         *time.Location
	Search           scheduler.SearchPolicy
	Grid             scheduler.GridLayout
	AllowedDurations []int
}

// DefaultBookingPolicy searches eight hours ahead in half-hour steps, renders
// 08:00 to 20:00 and accepts 30, 45, 60 and 90 minute meetings.
func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		Location:         time.UTC,
		Search:           scheduler.DefaultSearchPolicy(),
		Grid:             scheduler.DefaultGridLayout(),
		AllowedDurations: []int{30, 45, 60, 90},
	}
}

// BookingDeps wires a BookingService.
type BookingDeps struct {
	Rooms        RoomCatalog
	Reservations ReservationRepository
	Meetings     MeetingDirectory
	Users        UserDirectory
	Notifier     Notifier
	Policy       BookingPolicy
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// BookingService checks availability, suggests slots, renders the day grid
// and writes reservations without ever leaving two active reservations of a
// room overlapping.
type BookingService struct {
	rooms        RoomCatalog
	reservations ReservationRepository
	meetings     MeetingDirectory
	users        UserDirectory
	notifier     Notifier
	policy       BookingPolicy
	validator    *inputValidator
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewBookingService constructs a booking service. Zero policy fields fall
// back to DefaultBookingPolicy.
func NewBookingService(deps BookingDeps) *BookingService {
	policy := deps.Policy
	def := DefaultBookingPolicy()
	if policy.Location == nil {
		policy.Location = def.Location
	}
	if policy.Search.Step <= 0 || policy.Search.Steps <= 0 {
		policy.Search = def.Search
	}
	if policy.Grid.Slot <= 0 || policy.Grid.DayStart == "" || policy.Grid.DayEnd == "" {
		policy.Grid = def.Grid
	}
	if len(policy.AllowedDurations) == 0 {
		policy.AllowedDurations = def.AllowedDurations
	}
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		rooms:        deps.Rooms,
		reservations: deps.Reservations,
		meetings:     deps.Meetings,
		users:        deps.Users,
		notifier:     deps.Notifier,
		policy:       policy,
		validator:    newInputValidator(),
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(deps.Logger),
	}
}

// Policy returns the effective scheduling rules.
func (s *BookingService) Policy() BookingPolicy {
	return s.policy
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.rooms == nil || s.reservations == nil || s.meetings == nil {
		return fmt.Errorf("booking repositories not configured")
	}
	return nil
}

// BookMeeting reserves a room for a meeting, or moves the meeting's current
// reservation. When the slot is taken nothing is written and the result
// carries the first alternative found by the forward search.
func (s *BookingService) BookMeeting(ctx context.Context, params BookMeetingParams) (result BookingResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "BookMeeting",
		"principal_id", params.Principal.UserID,
		"meeting_id", params.MeetingID,
		"room_id", params.RoomID,
		"date", params.Date,
		"time", params.Start,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book venue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if !result.Committed {
			logger.InfoContext(ctx, "requested slot unavailable",
				"reason", result.Alternative.Reason,
				"suggested", result.Alternative.Suggestion != nil,
			)
			return
		}
		logger.InfoContext(ctx, "venue booked",
			"reservation_id", result.Reservation.ID,
			"created", result.Created,
		)
	}()

	if err = s.validator.Struct(params); err != nil {
		return
	}

	var meeting Meeting
	if meeting, err = s.meetingFor(ctx, params.Principal, params.MeetingID); err != nil {
		return
	}
	if meeting.Status != MeetingPending && meeting.Status != MeetingAccepted {
		err = newValidationError("meeting_id", fmt.Sprintf("meeting is %s", meeting.Status))
		return
	}
	if vErr := checkDuration(meeting.DurationMinutes, s.policy.AllowedDurations); vErr != nil {
		err = vErr
		return
	}

	var room Room
	if room, err = s.bookableRoom(ctx, params.RoomID, meeting.AttendeeCount()); err != nil {
		return
	}

	existing, err := s.currentBooking(ctx, meeting)
	if err != nil {
		return
	}
	excludeID := ""
	if existing != nil {
		excludeID = existing.ID
	}

	window, err := scheduler.AvailabilityQuery{
		RoomID:          room.ID,
		Date:            params.Date,
		Start:           params.Start,
		DurationMinutes: meeting.DurationMinutes,
	}.Window(s.policy.Location)
	if err != nil {
		err = newValidationError("time", err.Error())
		return
	}

	var available bool
	if available, err = s.roomFree(ctx, room.ID, window, excludeID); err != nil {
		return
	}
	if !available {
		result.Alternative, err = s.suggest(ctx, suggestInput{
			attendees: meeting.AttendeeCount(),
			duration:  meeting.DurationMinutes,
			date:      params.Date,
			start:     params.Start,
			excludeID: excludeID,
		})
		return
	}

	now := s.now()
	var saved Reservation
	if existing != nil {
		moved := *existing
		moved.RoomID = room.ID
		moved.Start = window.Start
		moved.End = window.End
		moved.RoomName = room.Name
		moved.RoomFloor = room.Floor
		moved.UpdatedAt = now
		saved, err = s.reservations.UpdateReservation(ctx, moved)
	} else {
		meetingID := meeting.ID
		reservation := Reservation{
			ID:          s.idGenerator(),
			RoomID:      room.ID,
			Start:       window.Start,
			End:         window.End,
			Status:      ReservationActive,
			BookingType: BookingTypeMeeting,
			MeetingID:   &meetingID,
			BookedBy:    params.Principal.UserID,
			RoomName:    room.Name,
			RoomFloor:   room.Floor,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if topic := strings.TrimSpace(meeting.Topic); topic != "" {
			reservation.Topic = &topic
		}
		saved, err = s.reservations.CreateReservation(ctx, reservation)
	}
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	result = BookingResult{Committed: true, Created: existing == nil, Reservation: &saved}

	kind := NotificationVenueConfirmed
	var extra []string
	if existing != nil {
		kind = NotificationVenueUpdated
		extra = append(extra, existing.BookedBy)
	}
	s.notifyParticipants(ctx, logger, meeting, saved, params.Principal.UserID, kind, extra...)
	return
}

// ReservePrivate lets an administrator hold a room for a topic outside any
// meeting. Taken slots are answered with an alternative, as in BookMeeting.
// The length is any whole number of grid slots rather than a meeting length.
func (s *BookingService) ReservePrivate(ctx context.Context, params ReservePrivateParams) (result BookingResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ReservePrivate",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", params.Date,
		"time", params.Start,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reserve room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if result.Committed {
			logger.InfoContext(ctx, "private reservation created", "reservation_id", result.Reservation.ID)
		}
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	params.Topic = strings.TrimSpace(params.Topic)
	if err = s.validator.Struct(params); err != nil {
		return
	}
	if vErr := checkSlotMultiple(params.DurationMinutes, s.policy.Grid.Slot); vErr != nil {
		err = vErr
		return
	}

	var room Room
	if room, err = s.bookableRoom(ctx, params.RoomID, 0); err != nil {
		return
	}

	window, err := scheduler.AvailabilityQuery{
		RoomID:          room.ID,
		Date:            params.Date,
		Start:           params.Start,
		DurationMinutes: params.DurationMinutes,
	}.Window(s.policy.Location)
	if err != nil {
		err = newValidationError("time", err.Error())
		return
	}

	var available bool
	if available, err = s.roomFree(ctx, room.ID, window, ""); err != nil {
		return
	}
	if !available {
		result.Alternative, err = s.suggest(ctx, suggestInput{
			duration: params.DurationMinutes,
			date:     params.Date,
			start:    params.Start,
		})
		return
	}

	now := s.now()
	topic := params.Topic
	reservation := Reservation{
		ID:          s.idGenerator(),
		RoomID:      room.ID,
		Start:       window.Start,
		End:         window.End,
		Status:      ReservationActive,
		BookingType: BookingTypePrivate,
		Topic:       &topic,
		BookedBy:    params.Principal.UserID,
		RoomName:    room.Name,
		RoomFloor:   room.Floor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var saved Reservation
	if saved, err = s.reservations.CreateReservation(ctx, reservation); err != nil {
		err = mapReservationRepoError(err)
		return
	}
	result = BookingResult{Committed: true, Created: true, Reservation: &saved}
	return
}

// CancelReservation releases a reservation. The booker, a participant of its
// meeting or an administrator may cancel. Cancelling twice returns the
// reservation unchanged and notifies nobody.
func (s *BookingService) CancelReservation(ctx context.Context, principal Principal, reservationID string) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if reservation, err = s.reservations.GetReservation(ctx, reservationID); err != nil {
		err = mapReservationRepoError(err)
		return
	}

	var meeting *Meeting
	if reservation.MeetingID != nil {
		found, lookupErr := s.meetings.GetMeeting(ctx, *reservation.MeetingID)
		switch {
		case lookupErr == nil:
			meeting = &found
		case !isNotFound(lookupErr):
			err = lookupErr
			return
		}
	}
	if !canManage(principal, reservation, meeting) {
		err = ErrUnauthorized
		return
	}

	if reservation.Status == ReservationCancelled {
		logger.InfoContext(ctx, "reservation already cancelled")
		return
	}

	if reservation, err = s.cancel(ctx, reservation); err != nil {
		return
	}
	logger.InfoContext(ctx, "reservation cancelled")

	if meeting != nil {
		s.notifyParticipants(ctx, logger, *meeting, reservation, principal.UserID, NotificationVenueCancelled)
	}
	return
}

// SyncOutcome reports what SyncMeeting did.
type SyncOutcome struct {
	Cancelled   bool
	Reason      string
	Reservation *Reservation
}

// Reasons for releasing a meeting's venue.
const (
	SyncReasonMeetingCancelled = "meeting_cancelled"
	SyncReasonMeetingDeclined  = "meeting_declined"
	SyncReasonDurationChanged  = "duration_changed"
)

// SyncMeeting reconciles a meeting's venue after the meeting changed. The
// reservation is cancelled when the meeting was cancelled or declined, or when
// its duration no longer matches the reserved length; in the latter case the
// participants are asked to re-book.
func (s *BookingService) SyncMeeting(ctx context.Context, principal Principal, meetingID string) (outcome SyncOutcome, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SyncMeeting",
		"principal_id", principal.UserID,
		"meeting_id", meetingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to sync meeting venue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if outcome.Cancelled {
			logger.InfoContext(ctx, "meeting venue released", "reason", outcome.Reason)
		}
	}()

	var meeting Meeting
	if meeting, err = s.meetingFor(ctx, principal, meetingID); err != nil {
		return
	}

	var current *Reservation
	if current, err = s.currentBooking(ctx, meeting); err != nil || current == nil {
		return
	}
	outcome.Reservation = current

	switch {
	case meeting.Status == MeetingCancelled:
		outcome.Reason = SyncReasonMeetingCancelled
	case meeting.Status == MeetingDeclined:
		outcome.Reason = SyncReasonMeetingDeclined
	case meeting.DurationMinutes != current.DurationMinutes():
		outcome.Reason = SyncReasonDurationChanged
	default:
		return
	}

	var cancelled Reservation
	if cancelled, err = s.cancel(ctx, *current); err != nil {
		return
	}
	outcome.Cancelled = true
	outcome.Reservation = &cancelled

	if outcome.Reason == SyncReasonDurationChanged {
		s.notifyParticipants(ctx, logger, meeting, cancelled, principal.UserID, NotificationVenueCancelled)
	}
	return
}

func (s *BookingService) cancel(ctx context.Context, reservation Reservation) (Reservation, error) {
	now := s.now()
	reservation.Status = ReservationCancelled
	reservation.CancelledAt = &now
	reservation.UpdatedAt = now
	saved, err := s.reservations.UpdateReservation(ctx, reservation)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}
	return saved, nil
}

// meetingFor loads a meeting the principal takes part in.
func (s *BookingService) meetingFor(ctx context.Context, principal Principal, meetingID string) (Meeting, error) {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		if isNotFound(err) {
			return Meeting{}, ErrNotFound
		}
		return Meeting{}, err
	}
	if !principal.IsAdmin && !meeting.HasParticipant(principal.UserID) {
		return Meeting{}, ErrUnauthorized
	}
	return meeting, nil
}

// currentBooking returns the meeting's active reservation, if any.
func (s *BookingService) currentBooking(ctx context.Context, meeting Meeting) (*Reservation, error) {
	if meeting.VenueBookingID == nil || *meeting.VenueBookingID == "" {
		return nil, nil
	}
	reservation, err := s.reservations.GetReservation(ctx, *meeting.VenueBookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if reservation.Status != ReservationActive {
		return nil, nil
	}
	return &reservation, nil
}

// bookableRoom loads a room and checks it can host attendees.
func (s *BookingService) bookableRoom(ctx context.Context, roomID string, attendees int) (Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if isNotFound(err) {
			return Room{}, newValidationError("room_id", "room does not exist")
		}
		return Room{}, err
	}
	if !room.IsActive {
		return Room{}, newValidationError("room_id", "room is not active")
	}
	if !room.toScheduler().Accommodates(attendees) {
		return Room{}, newValidationError("room_id",
			fmt.Sprintf("room capacity %d is below the %d attendees", room.Capacity, attendees))
	}
	return room, nil
}

// roomFree reads the room's active reservations around window and checks it.
func (s *BookingService) roomFree(ctx context.Context, roomID string, window scheduler.Interval, excludeID string) (bool, error) {
	snapshot, err := s.activeSnapshot(ctx, roomID, window.Start, window.End)
	if err != nil {
		return false, err
	}
	return scheduler.IsAvailable(roomID, window, snapshot, excludeID), nil
}

// activeSnapshot lists active reservations overlapping [from, to), limited to
// roomID when set.
func (s *BookingService) activeSnapshot(ctx context.Context, roomID string, from, to time.Time) ([]scheduler.Reservation, error) {
	reservations, err := s.reservations.ListReservations(ctx, ReservationQuery{
		RoomID: roomID,
		Status: ReservationActive,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		return nil, err
	}
	snapshot := make([]scheduler.Reservation, len(reservations))
	for i, reservation := range reservations {
		snapshot[i] = reservation.toScheduler()
	}
	return snapshot, nil
}

func canManage(principal Principal, reservation Reservation, meeting *Meeting) bool {
	if principal.IsAdmin || reservation.BookedBy == principal.UserID {
		return true
	}
	return meeting != nil && meeting.HasParticipant(principal.UserID)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrOverlap):
		return ErrSlotTaken
	case isNotFound(err):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("reservation", "reservation references a missing room or meeting")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("reservation", "reservation violates a storage constraint")
	}
	return err
}
