package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/c4sa/Unido-sub000/internal/application"
	"github.com/c4sa/Unido-sub000/internal/calendar"
	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

// calendarSpan is the default window of the room calendar feed.
const calendarSpan = 30 * 24 * time.Hour

type ReservationHandler struct {
	service   bookingService
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service bookingService, location *time.Location, now func() time.Time, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationHandler{service: service, location: location, now: now, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	reservations, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		Principal: principal,
		RoomID:    strings.TrimSpace(query.Get("room_id")),
		Status:    strings.TrimSpace(query.Get("status")),
		Date:      strings.TrimSpace(query.Get("date")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := listReservationsResponse{Reservations: make([]reservationDTO, 0, len(reservations))}
	for _, reservation := range reservations {
		resp.Reservations = append(resp.Reservations, toReservationDTO(reservation, h.location))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *ReservationHandler) ReservePrivate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ReservePrivate", "principal_id", principal.UserID)

	var req privateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode reservation request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.ReservePrivate(r.Context(), application.ReservePrivateParams{
		Principal:       principal,
		RoomID:          strings.TrimSpace(req.RoomID),
		Date:            strings.TrimSpace(req.Date),
		Start:           strings.TrimSpace(req.Time),
		DurationMinutes: req.Duration,
		Topic:           strings.TrimSpace(req.Topic),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "private reservation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	writeBookingResult(r.Context(), h.responder, w, result, h.location)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID := strings.TrimSpace(pathParam(r.Context(), "id"))
	if reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.UserID, "reservation_id", reservationID)

	reservation, err := h.service.CancelReservation(r.Context(), principal, reservationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation, h.location)})
}

// Calendar exports the reservations of one room as an iCalendar feed. The
// optional from and to query values are local dates; to is exclusive.
func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := strings.TrimSpace(pathParam(r.Context(), "id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Calendar", "principal_id", principal.UserID, "room_id", roomID)

	from, to, err := h.calendarWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	room, reservations, err := h.service.ReservationsForRoom(r.Context(), principal, roomID, from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+room.ID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if err := calendar.Write(w, calendar.Feed{Room: room, Reservations: reservations, GeneratedAt: h.now()}); err != nil {
		logger.ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func (h *ReservationHandler) calendarWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	fromRaw, toRaw = strings.TrimSpace(fromRaw), strings.TrimSpace(toRaw)

	var from time.Time
	if fromRaw == "" {
		now := h.now().In(h.location)
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)
	} else {
		parsed, err := scheduler.ParseDate(fromRaw, h.location)
		if err != nil {
			return time.Time{}, time.Time{}, &application.ValidationError{FieldErrors: map[string]string{"from": err.Error()}}
		}
		from = parsed
	}

	to := from.Add(calendarSpan)
	if toRaw != "" {
		parsed, err := scheduler.ParseDate(toRaw, h.location)
		if err != nil {
			return time.Time{}, time.Time{}, &application.ValidationError{FieldErrors: map[string]string{"to": err.Error()}}
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, &application.ValidationError{FieldErrors: map[string]string{"to": "must be after from"}}
	}
	return from, to, nil
}

type privateReservationRequest struct {
	RoomID   string `json:"room_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Topic    string `json:"topic"`
}
