package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/logging"
	"github.com/harperreed/touchbase/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func createTestAccount(t *testing.T, database *sql.DB, email string) *models.SocialAccount {
	t.Helper()
	ctx := context.Background()
	user, err := db.GetOrCreateUser(ctx, database, email, "Test User")
	require.NoError(t, err)
	acct := &models.SocialAccount{
		UserID:       user.ID,
		Provider:     models.ProviderGoogle,
		UID:          email,
		AccessToken:  "token-1",
		RefreshToken: "refresh-1",
	}
	require.NoError(t, db.UpsertSocialAccount(ctx, database, acct))
	return acct
}

type gmailPage struct {
	ids  []string
	next string
}

type calendarPage struct {
	events []*calendar.Event
	next   string
}

type peoplePage struct {
	persons []*people.Person
	next    string
}

// fakeGoogle serves the Gmail and Calendar endpoints used by the importers.
type fakeGoogle struct {
	mu            gosync.Mutex
	gmailPages    map[string]gmailPage
	messages      map[string]*gmail.Message
	calendarPages map[string]calendarPage
	peoplePages   map[string]peoplePage
	failPages     map[string]bool
	gets          int
	lists         int
	listTokens    []string
	authHeaders   []string
}

func newFakeGoogle() *fakeGoogle {
	return &fakeGoogle{
		gmailPages:    map[string]gmailPage{},
		messages:      map[string]*gmail.Message{},
		calendarPages: map[string]calendarPage{},
		peoplePages:   map[string]peoplePage{},
		failPages:     map[string]bool{},
	}
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

	token := r.URL.Query().Get("pageToken")
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/users/me/messages"):
		f.lists++
		f.listTokens = append(f.listTokens, "gmail:"+token)
		if f.failPages["gmail:"+token] {
			writeGoogleError(w)
			return
		}
		page := f.gmailPages[token]
		resp := gmail.ListMessagesResponse{NextPageToken: page.next}
		for _, id := range page.ids {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		writeJSON(w, resp)
	case strings.Contains(path, "/users/me/messages/"):
		f.gets++
		id := path[strings.LastIndex(path, "/")+1:]
		if f.failPages["get:"+id] {
			writeGoogleStatus(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		msg, ok := f.messages[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, msg)
	case strings.HasSuffix(path, "/calendars/primary/events"):
		f.lists++
		f.listTokens = append(f.listTokens, "calendar:"+token)
		if f.failPages["calendar:"+token] {
			writeGoogleError(w)
			return
		}
		page := f.calendarPages[token]
		writeJSON(w, calendar.Events{Items: page.events, NextPageToken: page.next})
	case strings.HasSuffix(path, "/people/me/connections"):
		f.lists++
		f.listTokens = append(f.listTokens, "contacts:"+token)
		if f.failPages["contacts:"+token] {
			writeGoogleError(w)
			return
		}
		page := f.peoplePages[token]
		writeJSON(w, people.ListConnectionsResponse{Connections: page.persons, NextPageToken: page.next})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGoogle) counts() (lists, gets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists, f.gets
}

func (f *fakeGoogle) listed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listTokens...)
}

func (f *fakeGoogle) auth() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

func (f *fakeGoogle) setMessage(msg *gmail.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.Id] = msg
}

func (f *fakeGoogle) setGmailPage(token string, page gmailPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gmailPages[token] = page
}

func (f *fakeGoogle) setCalendarPage(token string, page calendarPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calendarPages[token] = page
}

func (f *fakeGoogle) setFail(key string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPages[key] = fail
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeGoogleError(w http.ResponseWriter) {
	writeGoogleStatus(w, http.StatusBadRequest, "page failed")
}

func writeGoogleStatus(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, message)
}

func startFakeGoogle(t *testing.T, f *fakeGoogle) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return server
}

// rotatingSource hands out token-1 until call rotateAt, then token-2.
type rotatingSource struct {
	mu       gosync.Mutex
	calls    int
	rotateAt int
}

func (s *rotatingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	access := "token-1"
	if s.rotateAt > 0 && s.calls >= s.rotateAt {
		access = "token-2"
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func staticCredentials() *Credentials {
	token := &oauth2.Token{AccessToken: "token-1", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	return NewCredentialsFromSource(oauth2.StaticTokenSource(token), token, 5*time.Second)
}

func newTestGmailService(t *testing.T, server *httptest.Server, creds *Credentials) *gmail.Service {
	t.Helper()
	svc, err := NewGmailClient(context.Background(), creds.HTTPClient(), option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)
	return svc
}

func newTestCalendarService(t *testing.T, server *httptest.Server, creds *Credentials) *calendar.Service {
	t.Helper()
	svc, err := NewCalendarClient(context.Background(), creds.HTTPClient(), option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)
	return svc
}

func newTestPeopleService(t *testing.T, server *httptest.Server, creds *Credentials) *people.Service {
	t.Helper()
	svc, err := NewPeopleClient(context.Background(), creds.HTTPClient(), option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)
	return svc
}

func testPerson(resource, name string, emails []string, phones ...string) *people.Person {
	p := &people.Person{ResourceName: resource}
	if name != "" {
		p.Names = []*people.Name{{DisplayName: name}}
	}
	for _, e := range emails {
		p.EmailAddresses = append(p.EmailAddresses, &people.EmailAddress{Value: e})
	}
	for _, ph := range phones {
		p.PhoneNumbers = append(p.PhoneNumbers, &people.PhoneNumber{Value: ph})
	}
	return p
}

func testMessage(id, from, to, subject string, at time.Time) *gmail.Message {
	headers := []*gmail.MessagePartHeader{{Name: "From", Value: from}}
	if to != "" {
		headers = append(headers, &gmail.MessagePartHeader{Name: "To", Value: to})
	}
	if subject != "" {
		headers = append(headers, &gmail.MessagePartHeader{Name: "Subject", Value: subject})
	}
	return &gmail.Message{
		Id:           id,
		Snippet:      "snippet of " + id,
		InternalDate: at.UnixMilli(),
		Payload:      &gmail.MessagePart{Headers: headers},
	}
}

func testEvent(id, status, summary string, end time.Time, attendees ...string) *calendar.Event {
	ev := &calendar.Event{
		Kind:    "calendar#event",
		Id:      id,
		Status:  status,
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: end.Add(-time.Hour).Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	for _, a := range attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: a})
	}
	return ev
}

var testLogger = logging.Discard()
