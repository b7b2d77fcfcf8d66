package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type RouterConfig struct {
	Rooms        *RoomHandler
	Venue        *VenueHandler
	Reservations *ReservationHandler
	Health       *HealthHandler
	// Authenticate wraps every route except the health check.
	Authenticate func(http.Handler) http.Handler
	// Idempotency wraps mutating routes inside Authenticate.
	Idempotency func(http.Handler) http.Handler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newResponder(nil).writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	read := func(h http.HandlerFunc) http.Handler {
		return wrap(h, cfg.Authenticate)
	}
	write := func(h http.HandlerFunc) http.Handler {
		return wrap(h, cfg.Idempotency, cfg.Authenticate)
	}

	if cfg.Health != nil {
		router.Handler(http.MethodGet, "/healthz", http.HandlerFunc(cfg.Health.Check))
	}

	if cfg.Rooms != nil {
		router.Handler(http.MethodGet, "/rooms", read(cfg.Rooms.List))
		router.Handler(http.MethodPost, "/rooms", write(cfg.Rooms.Create))
		router.Handler(http.MethodPut, "/rooms/:id", write(cfg.Rooms.Update))
		router.Handler(http.MethodDelete, "/rooms/:id", write(cfg.Rooms.Delete))
	}

	if cfg.Venue != nil {
		router.Handler(http.MethodGet, "/rooms/:id/availability", read(cfg.Venue.Availability))
		router.Handler(http.MethodGet, "/venue/suggestions", read(cfg.Venue.Suggestions))
		router.Handler(http.MethodGet, "/venue/grid", read(cfg.Venue.Grid))
		router.Handler(http.MethodPost, "/meetings/:id/venue", write(cfg.Venue.Book))
		router.Handler(http.MethodPost, "/meetings/:id/venue/sync", write(cfg.Venue.Sync))
	}

	if cfg.Reservations != nil {
		router.Handler(http.MethodGet, "/rooms/:id/calendar.ics", read(cfg.Reservations.Calendar))
		router.Handler(http.MethodGet, "/reservations", read(cfg.Reservations.List))
		router.Handler(http.MethodPost, "/reservations/private", write(cfg.Reservations.ReservePrivate))
		router.Handler(http.MethodDelete, "/reservations/:id", write(cfg.Reservations.Cancel))
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// wrap applies middleware innermost first, so the last one runs first.
func wrap(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for _, mw := range middleware {
		if mw != nil {
			h = mw(h)
		}
	}
	return h
}
