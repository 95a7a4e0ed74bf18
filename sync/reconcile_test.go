// ABOUTME: Tests for turning raw Google records into interactions
// ABOUTME: Covers the calendar state machine, email creation, and analysis triggering
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"

	"github.com/harperreed/touchbase/analysis"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

type countingAnalyzer struct {
	calls []uuid.UUID
	err   error
}

func (a *countingAnalyzer) AnalyzeInteraction(ctx context.Context, userID, interactionID uuid.UUID) (*analysis.Result, error) {
	a.calls = append(a.calls, interactionID)
	if a.err != nil {
		return nil, a.err
	}
	return &analysis.Result{Analysis: &models.InteractionAnalysis{InteractionID: interactionID}}, nil
}

func storeEvent(t *testing.T, database *sql.DB, acct *models.SocialAccount, ev *calendar.Event) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	_, err = db.UpsertCalendarEvent(context.Background(), database, acct.ID, ev.Id, data)
	require.NoError(t, err)
}

func storeEmail(t *testing.T, database *sql.DB, acct *models.SocialAccount, msg *gmail.Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	_, err = db.InsertEmailIfAbsent(context.Background(), database, acct.ID, msg.Id, data)
	require.NoError(t, err)
}

func TestReconcileFirstConfirmedEventCreatesOneInteraction(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")
	loc := time.FixedZone("EST", -5*60*60)

	end := time.Date(2024, 4, 10, 16, 0, 0, 0, time.UTC)
	storeEvent(t, database, acct, testEvent("e1", EventStatusConfirmed, "Coffee", end, "Alice@Example.com"))

	analyzer := &countingAnalyzer{}
	r := NewReconciler(database, analyzer, testLogger, loc)
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EventsCreated)
	assert.Equal(t, 1, stats.ContactsCreated)

	contacts, err := db.ListContacts(ctx, database, acct.UserID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "alice@example.com", contacts[0].Name)

	raw, err := db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)
	require.NotNil(t, raw.InteractionID)

	it, err := db.GetInteraction(ctx, database, acct.UserID, *raw.InteractionID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", it.Title)
	assert.Equal(t, CalendarEventDescription, it.Description)
	require.NotNil(t, it.Type)
	assert.Equal(t, models.InteractionMeeting, *it.Type)
	assert.True(t, it.WasAt.Equal(end))
	assert.Equal(t, []uuid.UUID{contacts[0].ID}, it.ContactIDs)

	assert.Equal(t, []uuid.UUID{it.ID}, analyzer.calls)
}

func TestReconcileTwiceUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	end := time.Date(2024, 4, 10, 16, 0, 0, 0, time.UTC)
	storeEvent(t, database, acct, testEvent("e1", EventStatusConfirmed, "Coffee", end, "alice@example.com"))

	analyzer := &countingAnalyzer{}
	r := NewReconciler(database, analyzer, testLogger, time.UTC)
	_, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	first, err := db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)

	storeEvent(t, database, acct, testEvent("e1", EventStatusConfirmed, "Coffee at noon", end, "alice@example.com"))
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.EventsCreated)
	assert.Equal(t, 1, stats.EventsUpdated)

	second, err := db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)
	assert.Equal(t, *first.InteractionID, *second.InteractionID)

	contacts, err := db.ListContacts(ctx, database, acct.UserID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	interactions, err := db.ListContactInteractions(ctx, database, acct.UserID, contacts[0].ID)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, "Coffee at noon", interactions[0].Title)

	// participant set unchanged, so no second analysis
	assert.Len(t, analyzer.calls, 1)
}

func TestReconcileCancelledEventDeletesInteraction(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	end := time.Now().UTC().Truncate(time.Second)
	storeEvent(t, database, acct, testEvent("e1", EventStatusConfirmed, "Sync", end, "alice@example.com"))

	r := NewReconciler(database, nil, testLogger, time.UTC)
	_, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	raw, err := db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)
	require.NotNil(t, raw.InteractionID)
	interactionID := *raw.InteractionID

	storeEvent(t, database, acct, testEvent("e1", EventStatusCancelled, "Sync", end, "alice@example.com"))
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EventsDeleted)

	_, err = db.GetInteraction(ctx, database, acct.UserID, interactionID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	raw, err = db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)
	assert.Nil(t, raw.InteractionID)

	// the placeholder contact stays
	contacts, err := db.ListContacts(ctx, database, acct.UserID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestReconcileNonQualifyingEventIsNoop(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	storeEvent(t, database, acct, testEvent("e1", EventStatusConfirmed, "Focus time", time.Now()))

	r := NewReconciler(database, nil, testLogger, time.UTC)
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Zero(t, stats.EventsCreated)

	raw, err := db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)
	assert.Nil(t, raw.InteractionID)
}

func TestReconcileEmails(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	storeEmail(t, database, acct, testMessage("m1", "Alice <alice@example.com>", "me@example.com, bob@example.com", "", at))
	storeEmail(t, database, acct, testMessage("m2", "no address here", "me@example.com", "Broken", at))

	analyzer := &countingAnalyzer{}
	r := NewReconciler(database, analyzer, testLogger, time.UTC)
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EmailsCreated)
	assert.Equal(t, 1, stats.EmailsFailed)
	assert.Equal(t, 3, stats.ContactsCreated)

	raw, err := db.GetGoogleEmail(ctx, database, "m1")
	require.NoError(t, err)
	require.NotNil(t, raw.InteractionID)
	it, err := db.GetInteraction(ctx, database, acct.UserID, *raw.InteractionID)
	require.NoError(t, err)
	assert.Equal(t, DefaultEmailSubject, it.Title)
	assert.Equal(t, "snippet of m1", it.Description)
	assert.True(t, it.WasAt.Equal(at))
	require.NotNil(t, it.Type)
	assert.Equal(t, models.InteractionEmail, *it.Type)
	assert.Len(t, it.ContactIDs, 3)

	broken, err := db.GetGoogleEmail(ctx, database, "m2")
	require.NoError(t, err)
	assert.Nil(t, broken.InteractionID)

	// linked emails are not reconciled again
	stats, err = r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Zero(t, stats.EmailsCreated)
	assert.Len(t, analyzer.calls, 1)
}

func TestReconcileSkipsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	at := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	noEnd := testEvent("a-bad", EventStatusConfirmed, "Mystery", at, "alice@example.com")
	noEnd.End = nil
	storeEvent(t, database, acct, noEnd)
	storeEvent(t, database, acct, testEvent("b-good", EventStatusConfirmed, "Lunch", at, "bob@example.com"))

	_, err := db.InsertEmailIfAbsent(ctx, database, acct.ID, "m-garbage", []byte("{not json"))
	require.NoError(t, err)
	storeEmail(t, database, acct, testMessage("m-good", "carol@example.com", "me@example.com", "Hello", at))

	r := NewReconciler(database, nil, testLogger, time.UTC)
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EventsCreated)
	assert.Equal(t, 1, stats.EventsFailed)
	assert.Equal(t, 1, stats.EmailsCreated)
	assert.Equal(t, 1, stats.EmailsFailed)

	good, err := db.GetCalendarEvent(ctx, database, "b-good")
	require.NoError(t, err)
	assert.NotNil(t, good.InteractionID)

	bad, err := db.GetCalendarEvent(ctx, database, "a-bad")
	require.NoError(t, err)
	assert.Nil(t, bad.InteractionID)

	email, err := db.GetGoogleEmail(ctx, database, "m-good")
	require.NoError(t, err)
	assert.NotNil(t, email.InteractionID)

	// the broken rows stay behind and keep being skipped
	stats, err = r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EventsFailed)
	assert.Equal(t, 1, stats.EventsUpdated)
	assert.Equal(t, 1, stats.EmailsFailed)
}

func TestReconcileAnalysisFailureKeepsInteraction(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	storeEvent(t, database, acct, testEvent("e1", EventStatusConfirmed, "Coffee", time.Now(), "alice@example.com"))

	analyzer := &countingAnalyzer{err: &analysis.AnalysisError{Message: "Analysis failed", Err: errors.New("api down")}}
	r := NewReconciler(database, analyzer, testLogger, time.UTC)
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AnalysesFailed)

	raw, err := db.GetCalendarEvent(ctx, database, "e1")
	require.NoError(t, err)
	require.NotNil(t, raw.InteractionID)
	_, err = db.GetInteraction(ctx, database, acct.UserID, *raw.InteractionID)
	assert.NoError(t, err)
}

func TestReconcileSharedAttendeeResolvesToOneContact(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	now := time.Now()
	storeEvent(t, database, acct, testEvent("e1", EventStatusConfirmed, "One", now, "alice@example.com"))
	storeEvent(t, database, acct, testEvent("e2", EventStatusConfirmed, "Two", now, "ALICE@example.com", "bob@example.com"))

	r := NewReconciler(database, nil, testLogger, time.UTC)
	stats, err := r.ReconcileAccount(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EventsCreated)
	assert.Equal(t, 2, stats.ContactsCreated)
}
