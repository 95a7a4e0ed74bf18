// ABOUTME: Tests for the multi-account sync runner
// ABOUTME: Uses fake token and Google endpoints to cover refresh, failure isolation, and resume
package sync

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

// startTokenServer refreshes every refresh token except "bad".
func startTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("refresh_token") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}
}

func createExpiredAccount(t *testing.T, database *sql.DB, email, refresh string) models.SocialAccount {
	t.Helper()
	acct := createTestAccount(t, database, email)
	past := time.Now().Add(-time.Hour).UTC()
	acct.RefreshToken = refresh
	acct.TokenExpiry = &past
	require.NoError(t, db.UpsertSocialAccount(context.Background(), database, acct))
	return *acct
}

func TestRunnerSyncsAndPersistsRefreshedToken(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createExpiredAccount(t, database, "me@example.com", "refresh-1")

	fake := newFakeGoogle()
	at := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	fake.setCalendarPage("", calendarPage{events: []*calendar.Event{
		testEvent("e1", EventStatusConfirmed, "Standup", at, "alice@example.com"),
	}})
	fake.gmailPages[""] = gmailPage{ids: []string{"m1"}}
	fake.setMessage(testMessage("m1", "bob@example.com", "me@example.com", "Hi", at))
	server := startFakeGoogle(t, fake)
	tokens := startTokenServer(t)

	reconciler := NewReconciler(database, nil, testLogger, time.UTC)
	runner := NewRunner(database, testOAuthConfig(tokens.URL), reconciler, testLogger, 5*time.Second,
		option.WithEndpoint(server.URL+"/"))

	results, err := runner.Run(ctx, []models.SocialAccount{acct})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Calendar.Stored)
	assert.Equal(t, 1, results[0].Gmail.Stored)
	assert.Equal(t, 1, results[0].Reconcile.EventsCreated)
	assert.Equal(t, 1, results[0].Reconcile.EmailsCreated)

	for _, h := range fake.auth() {
		assert.Equal(t, "Bearer fresh-token", h)
	}

	stored, err := db.GetSocialAccount(ctx, database, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
	require.NotNil(t, stored.TokenExpiry)
	assert.True(t, stored.TokenExpiry.After(time.Now()))

	for _, service := range []string{models.ServiceCalendar, models.ServiceGmail} {
		state, err := db.GetSyncState(ctx, database, acct.ID, service)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, models.SyncStatusIdle, state.Status)
		assert.NotNil(t, state.LastSyncTime)
	}

	runs, err := db.ListSyncRuns(ctx, database, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunnerContinuesAfterFailingAccount(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	broken := createExpiredAccount(t, database, "broken@example.com", "bad")
	healthy := createExpiredAccount(t, database, "healthy@example.com", "refresh-1")

	fake := newFakeGoogle()
	fake.setCalendarPage("", calendarPage{})
	fake.gmailPages[""] = gmailPage{}
	server := startFakeGoogle(t, fake)
	tokens := startTokenServer(t)

	runner := NewRunner(database, testOAuthConfig(tokens.URL), nil, testLogger, 5*time.Second,
		option.WithEndpoint(server.URL+"/"))

	results, err := runner.Run(ctx, []models.SocialAccount{broken, healthy})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken@example.com")
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)

	state, err := db.GetSyncState(ctx, database, broken.ID, models.ServiceCalendar)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.NotEmpty(t, state.ErrorMessage)

	state, err = db.GetSyncState(ctx, database, healthy.ID, models.ServiceGmail)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
}

func TestRunnerResumesFromFailedPage(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")
	future := time.Now().Add(time.Hour)
	acct.TokenExpiry = &future

	fake := newFakeGoogle()
	fake.setCalendarPage("", calendarPage{})
	fake.gmailPages[""] = gmailPage{ids: []string{"m1"}, next: "p2"}
	fake.gmailPages["p2"] = gmailPage{ids: []string{"m2"}}
	at := time.Now()
	fake.setMessage(testMessage("m1", "a@example.com", "me@example.com", "one", at))
	fake.setMessage(testMessage("m2", "b@example.com", "me@example.com", "two", at))
	fake.setFail("gmail:p2", true)
	server := startFakeGoogle(t, fake)

	runner := NewRunner(database, testOAuthConfig("http://127.0.0.1:1/token"), nil, testLogger, 5*time.Second,
		option.WithEndpoint(server.URL+"/"))

	_, err := runner.Run(ctx, []models.SocialAccount{*acct})
	require.Error(t, err)

	state, err := db.GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Equal(t, "p2", state.ResumeToken)

	fake.setFail("gmail:p2", false)
	_, err = runner.Run(ctx, []models.SocialAccount{*acct})
	require.NoError(t, err)

	listed := fake.listed()
	require.GreaterOrEqual(t, len(listed), 2)
	assert.Equal(t, []string{"calendar:", "gmail:p2"}, listed[len(listed)-2:])

	state, err = db.GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Empty(t, state.ResumeToken)

	exists, err := db.GoogleEmailExists(ctx, database, "m2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunnerDropsResumeTokenThatKeepsFailing(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")
	future := time.Now().Add(time.Hour)
	acct.TokenExpiry = &future

	fake := newFakeGoogle()
	fake.setCalendarPage("", calendarPage{})
	fake.setGmailPage("", gmailPage{ids: []string{"m1"}, next: "p2"})
	at := time.Now()
	fake.setMessage(testMessage("m1", "a@example.com", "me@example.com", "one", at))
	fake.setMessage(testMessage("m3", "c@example.com", "me@example.com", "three", at))
	fake.setFail("gmail:p2", true)
	server := startFakeGoogle(t, fake)

	runner := NewRunner(database, testOAuthConfig("http://127.0.0.1:1/token"), nil, testLogger, 5*time.Second,
		option.WithEndpoint(server.URL+"/"))

	_, err := runner.Run(ctx, []models.SocialAccount{*acct})
	require.Error(t, err)
	state, err := db.GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	assert.Equal(t, "p2", state.ResumeToken)

	// new mail lands on the first page while the stored token has expired upstream
	fake.setGmailPage("", gmailPage{ids: []string{"m3", "m1"}, next: "p2"})

	_, err = runner.Run(ctx, []models.SocialAccount{*acct})
	require.Error(t, err)
	state, err = db.GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	assert.Empty(t, state.ResumeToken)

	_, err = runner.Run(ctx, []models.SocialAccount{*acct})
	require.Error(t, err)

	assert.Equal(t, []string{
		"calendar:", "gmail:", "gmail:p2",
		"calendar:", "gmail:p2",
		"calendar:", "gmail:", "gmail:p2",
	}, fake.listed())

	exists, err := db.GoogleEmailExists(ctx, database, "m3")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunnerRestartsCalendarFromFirstPage(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")
	future := time.Now().Add(time.Hour)
	acct.TokenExpiry = &future

	fake := newFakeGoogle()
	at := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	fake.setCalendarPage("", calendarPage{events: []*calendar.Event{
		testEvent("e1", EventStatusConfirmed, "Standup", at, "alice@example.com"),
	}, next: "c2"})
	fake.setCalendarPage("c2", calendarPage{})
	fake.setGmailPage("", gmailPage{})
	fake.setFail("calendar:c2", true)
	server := startFakeGoogle(t, fake)

	runner := NewRunner(database, testOAuthConfig("http://127.0.0.1:1/token"), nil, testLogger, 5*time.Second,
		option.WithEndpoint(server.URL+"/"))

	_, err := runner.Run(ctx, []models.SocialAccount{*acct})
	require.Error(t, err)
	state, err := db.GetSyncState(ctx, database, acct.ID, models.ServiceCalendar)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Empty(t, state.ResumeToken)

	// the event changed upstream; a full pass must rewrite it
	fake.setCalendarPage("", calendarPage{events: []*calendar.Event{
		testEvent("e1", EventStatusCancelled, "Standup", at, "alice@example.com"),
	}, next: "c2"})
	fake.setFail("calendar:c2", false)

	_, err = runner.Run(ctx, []models.SocialAccount{*acct})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"calendar:", "calendar:c2",
		"calendar:", "calendar:c2", "gmail:",
	}, fake.listed())

	raw, err := db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)
	ev, err := ParseCalendarEvent(raw.Data)
	require.NoError(t, err)
	assert.Equal(t, EventStatusCancelled, ev.Status())
}

func TestRunnerImportsContactsBeforeReconcile(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")
	future := time.Now().Add(time.Hour)
	acct.TokenExpiry = &future

	fake := newFakeGoogle()
	fake.setCalendarPage("", calendarPage{})
	fake.gmailPages[""] = gmailPage{ids: []string{"m1"}}
	fake.setMessage(testMessage("m1", "bob@example.com", "", "Lunch?", time.Now()))
	fake.peoplePages[""] = peoplePage{persons: []*people.Person{
		testPerson("people/1", "Bob Brown", []string{"bob@example.com"}),
	}}
	server := startFakeGoogle(t, fake)

	reconciler := NewReconciler(database, nil, testLogger, time.UTC)
	runner := NewRunner(database, testOAuthConfig("http://127.0.0.1:1/token"), reconciler, testLogger, 5*time.Second,
		option.WithEndpoint(server.URL+"/")).WithContacts(true)

	results, err := runner.Run(ctx, []models.SocialAccount{*acct})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Contacts.Stored)
	assert.Equal(t, 1, results[0].Reconcile.EmailsCreated)
	assert.Equal(t, 0, results[0].Reconcile.ContactsCreated)

	addr, err := db.FindEmailAddress(ctx, database, acct.UserID, "bob@example.com")
	require.NoError(t, err)
	bob, err := db.GetContact(ctx, database, acct.UserID, addr.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "Bob Brown", bob.Name)

	state, err := db.GetSyncState(ctx, database, acct.ID, models.ServiceContacts)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
}
