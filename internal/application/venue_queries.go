package application

import (
	"context"
	"time"

	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

// CheckAvailability reports whether the room is free for the whole window.
// Cancelled reservations and ExcludeID never block.
func (s *BookingService) CheckAvailability(ctx context.Context, params AvailabilityParams) (available bool, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CheckAvailability",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", params.Date,
		"time", params.Start,
		"duration", params.DurationMinutes,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "availability check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "availability checked", "available", available)
	}()

	if err = s.validator.Struct(params); err != nil {
		return
	}
	if vErr := checkDuration(params.DurationMinutes, s.policy.AllowedDurations); vErr != nil {
		err = vErr
		return
	}
	if _, err = s.rooms.GetRoom(ctx, params.RoomID); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	window, err := scheduler.AvailabilityQuery{
		RoomID:          params.RoomID,
		Date:            params.Date,
		Start:           params.Start,
		DurationMinutes: params.DurationMinutes,
	}.Window(s.policy.Location)
	if err != nil {
		err = newValidationError("time", err.Error())
		return
	}
	return s.roomFree(ctx, params.RoomID, window, params.ExcludeID)
}

// SuggestSlot runs the forward search from the preferred start. Running out
// of rooms or time is reported in the outcome, not as an error.
func (s *BookingService) SuggestSlot(ctx context.Context, params SuggestParams) (outcome SuggestionOutcome, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SuggestSlot",
		"principal_id", params.Principal.UserID,
		"meeting_id", params.MeetingID,
		"date", params.Date,
		"time", params.Start,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "slot search failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "slot search finished", "found", outcome.Suggestion != nil, "reason", outcome.Reason)
	}()

	if err = s.validator.Struct(params); err != nil {
		return
	}

	input := suggestInput{
		attendees: params.Attendees,
		duration:  params.DurationMinutes,
		date:      params.Date,
		start:     params.Start,
	}
	if params.MeetingID != "" {
		var meeting Meeting
		if meeting, err = s.meetingFor(ctx, params.Principal, params.MeetingID); err != nil {
			return
		}
		input.attendees = meeting.AttendeeCount()
		input.duration = meeting.DurationMinutes
		if meeting.VenueBookingID != nil {
			input.excludeID = *meeting.VenueBookingID
		}
	}
	if vErr := checkDuration(input.duration, s.policy.AllowedDurations); vErr != nil {
		err = vErr
		return
	}
	return s.suggest(ctx, input)
}

type suggestInput struct {
	attendees int
	duration  int
	date      string
	start     string
	excludeID string
}

func (s *BookingService) suggest(ctx context.Context, input suggestInput) (SuggestionOutcome, error) {
	preferred, err := scheduler.Combine(input.date, input.start, s.policy.Location)
	if err != nil {
		return SuggestionOutcome{}, newValidationError("time", err.Error())
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return SuggestionOutcome{}, err
	}
	candidates := make([]scheduler.Room, len(rooms))
	names := make(map[string]string, len(rooms))
	for i, room := range rooms {
		candidates[i] = room.toScheduler()
		names[room.ID] = room.Name
	}

	horizonEnd := preferred.Add(s.policy.Search.Horizon() + time.Duration(input.duration)*time.Minute)
	snapshot, err := s.activeSnapshot(ctx, "", preferred, horizonEnd)
	if err != nil {
		return SuggestionOutcome{}, err
	}

	found, err := scheduler.Suggest(scheduler.SuggestRequest{
		Rooms:           candidates,
		Attendees:       input.attendees,
		Date:            input.date,
		Start:           input.start,
		DurationMinutes: input.duration,
		ExcludeID:       input.excludeID,
	}, snapshot, s.policy.Search, s.policy.Location)
	if err != nil {
		return SuggestionOutcome{}, newValidationError("time", err.Error())
	}

	outcome := SuggestionOutcome{Reason: string(found.Reason), Message: found.Message}
	if found.Suggestion != nil {
		outcome.Suggestion = &Suggestion{
			RoomID:   found.Suggestion.Room.ID,
			RoomName: names[found.Suggestion.Room.ID],
			Date:     found.Suggestion.Date,
			Start:    found.Suggestion.Start,
		}
	}
	return outcome, nil
}

// DayGrid renders the schedule of every active room for a day. With a
// meeting the cells show where that meeting could be booked.
func (s *BookingService) DayGrid(ctx context.Context, params GridParams) (grid DayGrid, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DayGrid",
		"principal_id", params.Principal.UserID,
		"date", params.Date,
		"meeting_id", params.MeetingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to render grid", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "grid rendered", "rooms", len(grid.Rows))
	}()

	if err = s.validator.Struct(params); err != nil {
		return
	}

	meetings := newMeetingCache(s.meetings)
	var booking *scheduler.BookingContext
	switch {
	case params.MeetingID != "":
		var meeting Meeting
		if meeting, err = s.meetingFor(ctx, params.Principal, params.MeetingID); err != nil {
			return
		}
		meetings.put(meeting)
		// Only the meeting's own booking may be moved through, matching BookMeeting.
		if params.ReservationID != "" && (meeting.VenueBookingID == nil || *meeting.VenueBookingID != params.ReservationID) {
			err = newValidationError("reservation_id", "reservation_id must be the meeting's current venue booking")
			return
		}
		booking = &scheduler.BookingContext{
			Attendees:       meeting.AttendeeCount(),
			DurationMinutes: meeting.DurationMinutes,
		}
		if meeting.VenueBookingID != nil {
			booking.ExcludeID = *meeting.VenueBookingID
		}
	case params.ReservationID != "":
		var editing Reservation
		if editing, err = s.reservations.GetReservation(ctx, params.ReservationID); err != nil {
			err = mapReservationRepoError(err)
			return
		}
		if !s.mayView(ctx, params.Principal, editing, meetings) {
			err = ErrUnauthorized
			return
		}
		booking = &scheduler.BookingContext{
			DurationMinutes: editing.DurationMinutes(),
			ExcludeID:       editing.ID,
		}
	}

	day, err := scheduler.ParseDate(params.Date, s.policy.Location)
	if err != nil {
		err = newValidationError("date", err.Error())
		return
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return
	}
	candidates := make([]scheduler.Room, len(rooms))
	byID := make(map[string]Room, len(rooms))
	for i, room := range rooms {
		candidates[i] = room.toScheduler()
		byID[room.ID] = room
	}

	from, to := day, day.AddDate(0, 0, 1)
	reservations, err := s.reservations.ListReservations(ctx, ReservationQuery{Status: ReservationActive, From: &from, To: &to})
	if err != nil {
		return
	}
	snapshot := make([]scheduler.Reservation, len(reservations))
	byReservation := make(map[string]Reservation, len(reservations))
	for i, reservation := range reservations {
		snapshot[i] = reservation.toScheduler()
		byReservation[reservation.ID] = reservation
	}

	rendered, err := scheduler.BuildGrid(scheduler.GridRequest{
		Date:    params.Date,
		Rooms:   candidates,
		Booking: booking,
	}, s.policy.Grid, snapshot, s.policy.Location)
	if err != nil {
		return
	}

	grid = DayGrid{Date: rendered.Date, Labels: rendered.Labels}
	for _, row := range rendered.Rows {
		out := GridRow{Room: byID[row.Room.ID], Cells: make([]GridCell, len(row.Cells))}
		for i, cell := range row.Cells {
			out.Cells[i] = GridCell{
				Label:         cell.Label,
				Start:         cell.Start,
				State:         string(cell.State),
				ReservationID: cell.ReservationID,
				Current:       cell.Current,
			}
			if holder, ok := byReservation[cell.ReservationID]; ok && s.mayView(ctx, params.Principal, holder, meetings) {
				out.Cells[i].Detail = detailOf(holder)
			}
		}
		grid.Rows = append(grid.Rows, out)
	}
	return
}

// ListReservations returns reservations ordered by start time. Owner details
// are cleared on reservations the principal may not view.
func (s *BookingService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListReservations",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", params.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "reservations listed", "result_count", len(reservations))
	}()

	if err = s.validator.Struct(params); err != nil {
		return
	}

	query := ReservationQuery{RoomID: params.RoomID, Status: params.Status}
	if params.Date != "" {
		var day time.Time
		if day, err = scheduler.ParseDate(params.Date, s.policy.Location); err != nil {
			err = newValidationError("date", err.Error())
			return
		}
		next := day.AddDate(0, 0, 1)
		query.From, query.To = &day, &next
	}

	if reservations, err = s.reservations.ListReservations(ctx, query); err != nil {
		return
	}
	meetings := newMeetingCache(s.meetings)
	for i := range reservations {
		if !s.mayView(ctx, params.Principal, reservations[i], meetings) {
			reservations[i] = redact(reservations[i])
		}
	}
	return
}

// ReservationsForRoom lists a room's active reservations overlapping
// [from, to) for calendar export.
func (s *BookingService) ReservationsForRoom(ctx context.Context, principal Principal, roomID string, from, to time.Time) (room Room, reservations []Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if room, err = s.rooms.GetRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		return
	}
	reservations, err = s.reservations.ListReservations(ctx, ReservationQuery{
		RoomID: roomID,
		Status: ReservationActive,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		return
	}
	meetings := newMeetingCache(s.meetings)
	for i := range reservations {
		if !s.mayView(ctx, principal, reservations[i], meetings) {
			reservations[i] = redact(reservations[i])
		}
	}
	return
}

// mayView reports whether principal may see who holds a reservation.
func (s *BookingService) mayView(ctx context.Context, principal Principal, reservation Reservation, meetings *meetingCache) bool {
	if principal.IsAdmin || reservation.BookedBy == principal.UserID {
		return true
	}
	if reservation.MeetingID == nil {
		return false
	}
	meeting, ok := meetings.get(ctx, *reservation.MeetingID)
	return ok && meeting.HasParticipant(principal.UserID)
}

func detailOf(reservation Reservation) *ReservationDetail {
	return &ReservationDetail{
		BookingType: reservation.BookingType,
		BookedBy:    reservation.BookedBy,
		Topic:       reservation.Topic,
		MeetingID:   reservation.MeetingID,
	}
}

func redact(reservation Reservation) Reservation {
	reservation.BookedBy = ""
	reservation.Topic = nil
	reservation.MeetingID = nil
	return reservation
}

// meetingCache memoises meeting lookups for one request.
type meetingCache struct {
	directory MeetingDirectory
	entries   map[string]*Meeting
}

func newMeetingCache(directory MeetingDirectory) *meetingCache {
	return &meetingCache{directory: directory, entries: make(map[string]*Meeting)}
}

func (c *meetingCache) put(meeting Meeting) {
	c.entries[meeting.ID] = &meeting
}

func (c *meetingCache) get(ctx context.Context, id string) (Meeting, bool) {
	if cached, ok := c.entries[id]; ok {
		if cached == nil {
			return Meeting{}, false
		}
		return *cached, true
	}
	meeting, err := c.directory.GetMeeting(ctx, id)
	if err != nil {
		c.entries[id] = nil
		return Meeting{}, false
	}
	c.put(meeting)
	return meeting, true
}
