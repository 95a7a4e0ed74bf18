package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func TestNewCalendarClient(t *testing.T) {
	service, err := NewCalendarClient(context.Background(), staticCredentials().HTTPClient())
	require.NoError(t, err)
	assert.NotNil(t, service)
}

func TestNewClientsRejectNilHTTPClient(t *testing.T) {
	service, err := NewCalendarClient(context.Background(), nil)
	assert.Error(t, err)
	assert.Nil(t, service)

	gmailService, err := NewGmailClient(context.Background(), nil)
	assert.Error(t, err)
	assert.Nil(t, gmailService)
}

func TestCalendarEventQualifies(t *testing.T) {
	end := time.Now()
	tests := []struct {
		name string
		ev   *calendar.Event
		want bool
	}{
		{"confirmed with attendee", testEvent("e", EventStatusConfirmed, "x", end, "a@example.com"), true},
		{"confirmed without attendees", testEvent("e", EventStatusConfirmed, "x", end), false},
		{"cancelled with attendee", testEvent("e", EventStatusCancelled, "x", end, "a@example.com"), false},
		{"tentative with attendee", testEvent("e", "tentative", "x", end, "a@example.com"), false},
		{"blank attendee email", testEvent("e", EventStatusConfirmed, "x", end, " "), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCalendarEvent(tt.ev).Qualifies())
		})
	}
}

func TestCalendarEventEnd(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)

	ev := NewCalendarEvent(&calendar.Event{Id: "e", End: &calendar.EventDateTime{DateTime: "2024-06-01T10:00:00Z"}})
	end, err := ev.End(berlin)
	require.NoError(t, err)
	assert.Equal(t, 12, end.Hour())
	assert.Equal(t, berlin, end.Location())

	allDay := NewCalendarEvent(&calendar.Event{Id: "e", End: &calendar.EventDateTime{Date: "2024-06-02"}})
	end, err = allDay.End(berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, berlin), end)

	_, err = NewCalendarEvent(&calendar.Event{Id: "e"}).End(berlin)
	assert.Error(t, err)
}
