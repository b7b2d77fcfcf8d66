// Package http exposes the venue booking API.
//
// Every route except GET /healthz requires an `Authorization: Bearer
// <user-id>.<secret>` header. Mutating routes honour an `Idempotency-Key`
// header: a repeated request with the same key replays the first response.
//
//   - GET /rooms[?active=true], POST /rooms, PUT /rooms/:id, DELETE /rooms/:id:
//     room inventory. Mutations require administrator privileges.
//   - GET /rooms/:id/availability?date=&time=&duration=[&exclude=]: reports
//     {"available": bool} for the window.
//   - GET /rooms/:id/calendar.ics?from=&to=: the room's active reservations as
//     an iCalendar feed, defaulting to the next 30 days.
//   - GET /venue/suggestions?date=&time=&meeting_id= or
//     ?date=&time=&attendees=&duration=: first free slot at or after the
//     preferred start.
//   - GET /venue/grid?date=[&meeting_id=][&reservation_id=]: the day grid.
//   - POST /meetings/:id/venue {"room_id","date","time"}: books or moves the
//     meeting's venue. An unavailable slot answers 409 with error_code
//     SLOT_UNAVAILABLE and the suggestion; a lost race answers 409 SLOT_TAKEN.
//   - POST /meetings/:id/venue/sync: releases the venue of a cancelled,
//     declined or resized meeting.
//   - GET /reservations?room_id=&status=&date=, POST /reservations/private,
//     DELETE /reservations/:id.
//
// Request/response DTOs live alongside their respective handlers.
package http
