// ABOUTME: Read-only view over stored Google Calendar event payloads
// ABOUTME: Decides whether an event should be reflected as an interaction
package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

const (
	EventStatusConfirmed = "confirmed"
	EventStatusCancelled = "cancelled"

	// CalendarEventDescription is the description of every meeting interaction.
	CalendarEventDescription = "Google Calendar Event"
)

type CalendarEvent struct {
	ev *calendar.Event
}

func NewCalendarEvent(ev *calendar.Event) *CalendarEvent {
	return &CalendarEvent{ev: ev}
}

// ParseCalendarEvent decodes a payload stored by the Calendar importer.
func ParseCalendarEvent(data []byte) (*CalendarEvent, error) {
	var ev calendar.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode calendar event: %w", err)
	}
	return NewCalendarEvent(&ev), nil
}

func (e *CalendarEvent) ID() string      { return e.ev.Id }
func (e *CalendarEvent) Status() string  { return e.ev.Status }
func (e *CalendarEvent) Summary() string { return e.ev.Summary }

// Attendees returns the attendee addresses, lowercased, skipping blanks.
func (e *CalendarEvent) Attendees() []string {
	var emails []string
	for _, a := range e.ev.Attendees {
		if a == nil {
			continue
		}
		if email := normalizeEmail(a.Email); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// Qualifies reports whether the event should have an interaction.
func (e *CalendarEvent) Qualifies() bool {
	return e.ev.Status == EventStatusConfirmed && len(e.Attendees()) > 0
}

// End returns the end time in loc. All-day events end at midnight of their end date in loc.
func (e *CalendarEvent) End(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if e.ev.End == nil {
		return time.Time{}, fmt.Errorf("failed to read end of event %s: missing end", e.ev.Id)
	}
	if e.ev.End.DateTime != "" {
		t, err := time.Parse(time.RFC3339, e.ev.End.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse end of event %s: %w", e.ev.Id, err)
		}
		return t.In(loc), nil
	}
	if e.ev.End.Date != "" {
		t, err := time.ParseInLocation(time.DateOnly, e.ev.End.Date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse end date of event %s: %w", e.ev.Id, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("failed to read end of event %s: empty end", e.ev.Id)
}
