package scheduler

import (
	"fmt"
	"time"
)

// SearchPolicy bounds the forward slot search.
type SearchPolicy struct {
	Step  time.Duration
	Steps int
}

// DefaultSearchPolicy walks 16 half-hour steps, eight hours in total.
func DefaultSearchPolicy() SearchPolicy {
	return SearchPolicy{Step: 30 * time.Minute, Steps: 16}
}

func (p SearchPolicy) normalized() SearchPolicy {
	def := DefaultSearchPolicy()
	if p.Step <= 0 {
		p.Step = def.Step
	}
	if p.Steps <= 0 {
		p.Steps = def.Steps
	}
	return p
}

// Horizon is the total span covered by the search.
func (p SearchPolicy) Horizon() time.Duration {
	p = p.normalized()
	return time.Duration(p.Steps) * p.Step
}

// SuggestionReason explains why no suggestion was produced.
type SuggestionReason string

const (
	ReasonNoCapacity     SuggestionReason = "no_capacity"
	ReasonNoAvailability SuggestionReason = "no_availability"
)

// MessageNoCapacity is reported when no active room fits the attendee count.
const MessageNoCapacity = "No rooms large enough for this meeting."

// SuggestRequest describes the preferred slot and the rooms that may host it.
type SuggestRequest struct {
	Rooms           []Room
	Attendees       int
	Date            string
	Start           string
	DurationMinutes int
	ExcludeID       string
}

// Suggestion is a proposed room and wall-clock start that is free for the whole duration.
type Suggestion struct {
	Room   Room
	Date   string
	Start  string
	Window Interval
}

// SuggestionResult carries either a suggestion or the reason none exists.
type SuggestionResult struct {
	Suggestion *Suggestion
	Reason     SuggestionReason
	Message    string
}

// Found reports whether a suggestion was produced.
func (r SuggestionResult) Found() bool {
	return r.Suggestion != nil
}

// Suggest walks forward from the preferred start in policy steps and returns
// the first free (room, time) pair. Earlier times win; rooms at the same time
// are tried in input order. Running out of rooms or steps is reported in the
// result, while malformed input is returned as an error.
func Suggest(req SuggestRequest, reservations []Reservation, policy SearchPolicy, loc *time.Location) (SuggestionResult, error) {
	policy = policy.normalized()
	if loc == nil {
		loc = time.UTC
	}

	query := AvailabilityQuery{Date: req.Date, Start: req.Start, DurationMinutes: req.DurationMinutes}
	preferred, err := query.Window(loc)
	if err != nil {
		return SuggestionResult{}, err
	}

	candidates := FilterRooms(req.Rooms, req.Attendees)
	if len(candidates) == 0 {
		return SuggestionResult{Reason: ReasonNoCapacity, Message: MessageNoCapacity}, nil
	}

	for step := 0; step < policy.Steps; step++ {
		start := preferred.Start.Add(time.Duration(step) * policy.Step)
		window := NewInterval(start, req.DurationMinutes)
		for _, room := range candidates {
			if !IsAvailable(room.ID, window, reservations, req.ExcludeID) {
				continue
			}
			date, clock := Split(start, loc)
			return SuggestionResult{Suggestion: &Suggestion{
				Room:   room,
				Date:   date,
				Start:  clock,
				Window: window,
			}}, nil
		}
	}

	return SuggestionResult{
		Reason:  ReasonNoAvailability,
		Message: NoAvailabilityMessage(policy),
	}, nil
}

// NoAvailabilityMessage describes an exhausted search horizon.
func NoAvailabilityMessage(policy SearchPolicy) string {
	return fmt.Sprintf("No alternative slots found in the next %s.", describeSpan(policy.Horizon()))
}

func describeSpan(span time.Duration) string {
	if span%time.Hour == 0 {
		hours := int(span / time.Hour)
		if hours == 1 {
			return "hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(span/time.Minute))
}
