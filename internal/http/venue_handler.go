package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/c4sa/Unido-sub000/internal/application"
	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

type bookingService interface {
	CheckAvailability(ctx context.Context, params application.AvailabilityParams) (bool, error)
	SuggestSlot(ctx context.Context, params application.SuggestParams) (application.SuggestionOutcome, error)
	DayGrid(ctx context.Context, params application.GridParams) (application.DayGrid, error)
	BookMeeting(ctx context.Context, params application.BookMeetingParams) (application.BookingResult, error)
	SyncMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.SyncOutcome, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	ReservePrivate(ctx context.Context, params application.ReservePrivateParams) (application.BookingResult, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	ReservationsForRoom(ctx context.Context, principal application.Principal, roomID string, from, to time.Time) (application.Room, []application.Reservation, error)
}

// VenueHandler serves availability, suggestions, the day grid and meeting
// venue booking.
type VenueHandler struct {
	service   bookingService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

func NewVenueHandler(service bookingService, location *time.Location, logger *slog.Logger) *VenueHandler {
	base := defaultLogger(logger)
	if location == nil {
		location = time.UTC
	}
	return &VenueHandler{service: service, location: location, responder: newResponder(base), logger: base}
}

func (h *VenueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "VenueHandler", operation, attrs...)
}

func (h *VenueHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID := strings.TrimSpace(pathParam(r.Context(), "id"))
	query := r.URL.Query()
	logger := h.log(r.Context(), "Availability", "principal_id", principal.UserID, "room_id", roomID)

	duration, err := queryInt(query, "duration")
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid duration", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	available, err := h.service.CheckAvailability(r.Context(), application.AvailabilityParams{
		Principal:       principal,
		RoomID:          roomID,
		Date:            strings.TrimSpace(query.Get("date")),
		Start:           strings.TrimSpace(query.Get("time")),
		DurationMinutes: duration,
		ExcludeID:       strings.TrimSpace(query.Get("exclude")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{RoomID: roomID, Available: available})
}

func (h *VenueHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	logger := h.log(r.Context(), "Suggestions", "principal_id", principal.UserID)

	attendees, err := queryInt(query, "attendees")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	duration, err := queryInt(query, "duration")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	outcome, err := h.service.SuggestSlot(r.Context(), application.SuggestParams{
		Principal:       principal,
		MeetingID:       strings.TrimSpace(query.Get("meeting_id")),
		Attendees:       attendees,
		DurationMinutes: duration,
		Date:            strings.TrimSpace(query.Get("date")),
		Start:           strings.TrimSpace(query.Get("time")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "slot search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSuggestionResponse(outcome))
}

func (h *VenueHandler) Grid(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	logger := h.log(r.Context(), "Grid", "principal_id", principal.UserID)

	grid, err := h.service.DayGrid(r.Context(), application.GridParams{
		Principal:     principal,
		Date:          strings.TrimSpace(query.Get("date")),
		MeetingID:     strings.TrimSpace(query.Get("meeting_id")),
		ReservationID: strings.TrimSpace(query.Get("reservation_id")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "grid render failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGridDTO(grid, h.location))
}

func (h *VenueHandler) Book(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID := strings.TrimSpace(pathParam(r.Context(), "id"))
	if meetingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Book", "principal_id", principal.UserID, "meeting_id", meetingID)

	var req bookVenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode booking request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.BookMeeting(r.Context(), application.BookMeetingParams{
		Principal: principal,
		MeetingID: meetingID,
		RoomID:    strings.TrimSpace(req.RoomID),
		Date:      strings.TrimSpace(req.Date),
		Start:     strings.TrimSpace(req.Time),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "venue booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.writeBookingResult(r.Context(), w, result)
}

func (h *VenueHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID := strings.TrimSpace(pathParam(r.Context(), "id"))
	if meetingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Sync", "principal_id", principal.UserID, "meeting_id", meetingID)

	outcome, err := h.service.SyncMeeting(r.Context(), principal, meetingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "venue sync failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := syncResponse{Cancelled: outcome.Cancelled, Reason: outcome.Reason}
	if outcome.Reservation != nil {
		dto := toReservationDTO(*outcome.Reservation, h.location)
		resp.Reservation = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// writeBookingResult answers 201 for a new reservation, 200 for a move and
// 409 with the alternative when nothing was written.
func (h *VenueHandler) writeBookingResult(ctx context.Context, w http.ResponseWriter, result application.BookingResult) {
	writeBookingResult(ctx, h.responder, w, result, h.location)
}

func writeBookingResult(ctx context.Context, resp responder, w http.ResponseWriter, result application.BookingResult, loc *time.Location) {
	if !result.Committed || result.Reservation == nil {
		payload := toSuggestionResponse(result.Alternative)
		message := "The requested slot is unavailable."
		if payload.Suggestion == nil && result.Alternative.Message != "" {
			message = result.Alternative.Message
		}
		resp.writeJSON(ctx, w, http.StatusConflict, slotUnavailableResponse{
			ErrorCode:  codeSlotUnavailable,
			Message:    message,
			Reason:     payload.Reason,
			Suggestion: payload.Suggestion,
		})
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	resp.writeJSON(ctx, w, status, reservationResponse{Reservation: toReservationDTO(*result.Reservation, loc)})
}

func queryInt(values url.Values, name string) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

type bookVenueRequest struct {
	RoomID string `json:"room_id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

type availabilityResponse struct {
	RoomID    string `json:"room_id"`
	Available bool   `json:"available"`
}

type suggestionDTO struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

type suggestionResponse struct {
	Suggestion *suggestionDTO `json:"suggestion"`
	Reason     string         `json:"reason,omitempty"`
	Message    string         `json:"message,omitempty"`
}

type slotUnavailableResponse struct {
	ErrorCode  string         `json:"error_code"`
	Message    string         `json:"message"`
	Reason     string         `json:"reason,omitempty"`
	Suggestion *suggestionDTO `json:"suggestion"`
}

func toSuggestionResponse(outcome application.SuggestionOutcome) suggestionResponse {
	resp := suggestionResponse{Reason: outcome.Reason, Message: outcome.Message}
	if outcome.Suggestion != nil {
		resp.Suggestion = &suggestionDTO{
			RoomID:   outcome.Suggestion.RoomID,
			RoomName: outcome.Suggestion.RoomName,
			Date:     outcome.Suggestion.Date,
			Time:     outcome.Suggestion.Start,
		}
	}
	return resp
}

type syncResponse struct {
	Cancelled   bool            `json:"cancelled"`
	Reason      string          `json:"reason,omitempty"`
	Reservation *reservationDTO `json:"reservation,omitempty"`
}

type gridDTO struct {
	Date   string       `json:"date"`
	Labels []string     `json:"labels"`
	Rows   []gridRowDTO `json:"rows"`
}

type gridRowDTO struct {
	Room  roomDTO       `json:"room"`
	Cells []gridCellDTO `json:"cells"`
}

type gridCellDTO struct {
	Label         string     `json:"label"`
	Start         string     `json:"start"`
	State         string     `json:"state"`
	ReservationID string     `json:"reservation_id,omitempty"`
	Current       bool       `json:"current,omitempty"`
	Detail        *detailDTO `json:"detail,omitempty"`
}

type detailDTO struct {
	BookingType string  `json:"booking_type"`
	BookedBy    string  `json:"booked_by"`
	Topic       *string `json:"topic,omitempty"`
	MeetingID   *string `json:"meeting_id,omitempty"`
}

func toGridDTO(grid application.DayGrid, loc *time.Location) gridDTO {
	dto := gridDTO{Date: grid.Date, Labels: grid.Labels, Rows: make([]gridRowDTO, 0, len(grid.Rows))}
	for _, row := range grid.Rows {
		out := gridRowDTO{Room: toRoomDTO(row.Room), Cells: make([]gridCellDTO, 0, len(row.Cells))}
		for _, cell := range row.Cells {
			c := gridCellDTO{
				Label:         cell.Label,
				Start:         cell.Start.In(loc).Format(time.RFC3339),
				State:         cell.State,
				ReservationID: cell.ReservationID,
				Current:       cell.Current,
			}
			if cell.Detail != nil {
				c.Detail = &detailDTO{
					BookingType: cell.Detail.BookingType,
					BookedBy:    cell.Detail.BookedBy,
					Topic:       cell.Detail.Topic,
					MeetingID:   cell.Detail.MeetingID,
				}
			}
			out.Cells = append(out.Cells, c)
		}
		dto.Rows = append(dto.Rows, out)
	}
	return dto
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID          string  `json:"id"`
	RoomID      string  `json:"room_id"`
	RoomName    string  `json:"room_name"`
	RoomFloor   int     `json:"room_floor"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Duration    int     `json:"duration"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Status      string  `json:"status"`
	BookingType string  `json:"booking_type"`
	MeetingID   *string `json:"meeting_id,omitempty"`
	Topic       *string `json:"topic,omitempty"`
	BookedBy    string  `json:"booked_by,omitempty"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

func toReservationDTO(reservation application.Reservation, loc *time.Location) reservationDTO {
	date, clock := scheduler.Split(reservation.Start, loc)
	dto := reservationDTO{
		ID:          reservation.ID,
		RoomID:      reservation.RoomID,
		RoomName:    reservation.RoomName,
		RoomFloor:   reservation.RoomFloor,
		Date:        date,
		Time:        clock,
		Duration:    reservation.DurationMinutes(),
		Start:       reservation.Start.In(loc).Format(time.RFC3339),
		End:         reservation.End.In(loc).Format(time.RFC3339),
		Status:      reservation.Status,
		BookingType: reservation.BookingType,
		MeetingID:   reservation.MeetingID,
		Topic:       reservation.Topic,
		BookedBy:    reservation.BookedBy,
	}
	if reservation.CancelledAt != nil {
		cancelled := reservation.CancelledAt.UTC().Format(time.RFC3339)
		dto.CancelledAt = &cancelled
	}
	return dto
}
