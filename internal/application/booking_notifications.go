package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

// notifyParticipants tells every meeting participant except the actor about a
// venue change. extra names further users to inform, such as the original
// booker of a moved reservation. Delivery failures are logged and dropped.
func (s *BookingService) notifyParticipants(ctx context.Context, logger *slog.Logger, meeting Meeting, reservation Reservation, actorID, kind string, extra ...string) {
	if s.notifier == nil {
		return
	}

	seen := map[string]struct{}{actorID: {}}
	recipients := make([]string, 0, meeting.AttendeeCount()+len(extra))
	for _, userID := range append(meeting.Participants(), extra...) {
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		recipients = append(recipients, userID)
	}

	title, body := s.notificationText(kind, reservation)
	for _, userID := range recipients {
		if !s.wantsNotification(ctx, logger, userID) {
			continue
		}
		notification := Notification{
			UserID:          userID,
			Type:            kind,
			Title:           title,
			Body:            body,
			Link:            "/meetings/" + meeting.ID,
			RelatedEntityID: meeting.ID,
		}
		if err := s.notifier.Notify(ctx, notification); err != nil {
			logger.WarnContext(ctx, "failed to emit notification",
				"recipient_id", userID,
				"notification_type", kind,
				"error", err,
			)
		}
	}
}

// wantsNotification reads the recipient's booking preference. An unknown
// user or a failed lookup falls back to notifying.
func (s *BookingService) wantsNotification(ctx context.Context, logger *slog.Logger, userID string) bool {
	if s.users == nil {
		return true
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			logger.WarnContext(ctx, "failed to read notification preference", "recipient_id", userID, "error", err)
		}
		return true
	}
	return user.WantsBookingNotifications()
}

func (s *BookingService) notificationText(kind string, reservation Reservation) (title, body string) {
	date, clock := scheduler.Split(reservation.Start, s.policy.Location)
	where := reservation.RoomName
	if where == "" {
		where = "the venue"
	}
	switch kind {
	case NotificationVenueUpdated:
		return "Venue updated", fmt.Sprintf("Your meeting moved to %s on %s at %s.", where, date, clock)
	case NotificationVenueCancelled:
		return "Venue cancelled", fmt.Sprintf("The booking of %s on %s at %s was cancelled. Please book a new venue.", where, date, clock)
	default:
		return "Venue confirmed", fmt.Sprintf("Your meeting is booked in %s on %s at %s.", where, date, clock)
	}
}
