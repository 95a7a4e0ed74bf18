package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/touchbase/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertEmailIfAbsentNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	user := createTestUser(t, database, "me@example.com")
	acct := &models.SocialAccount{UserID: user.ID, Provider: models.ProviderGoogle, UID: "me@example.com"}
	require.NoError(t, UpsertSocialAccount(ctx, database, acct))

	inserted, err := InsertEmailIfAbsent(ctx, database, acct.ID, "m1", []byte(`{"id":"m1","snippet":"first"}`))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = InsertEmailIfAbsent(ctx, database, acct.ID, "m1", []byte(`{"id":"m1","snippet":"second"}`))
	require.NoError(t, err)
	assert.False(t, inserted)

	e, err := GetGoogleEmail(ctx, database, "m1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m1","snippet":"first"}`, string(e.Data))

	exists, err := GoogleEmailExists(ctx, database, "m1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpsertCalendarEventOverwrites(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	user := createTestUser(t, database, "me@example.com")
	acct := &models.SocialAccount{UserID: user.ID, Provider: models.ProviderGoogle, UID: "me@example.com"}
	require.NoError(t, UpsertSocialAccount(ctx, database, acct))

	created, err := UpsertCalendarEvent(ctx, database, acct.ID, "e1", []byte(`{"summary":"v1"}`))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = UpsertCalendarEvent(ctx, database, acct.ID, "e1", []byte(`{"summary":"v2"}`))
	require.NoError(t, err)
	assert.False(t, created)

	events, err := ListCalendarEvents(ctx, database, acct.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"summary":"v2"}`, string(events[0].Data))
}

func TestAnalysisOnePerInteraction(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	user := createTestUser(t, database, "me@example.com")
	it := createTestInteraction(t, database, user, "Call", time.Now())

	score := 0.4
	follow := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	a := &models.InteractionAnalysis{
		InteractionID:         it.ID,
		TopicsDiscussed:       []string{"hiring"},
		SentimentScore:        &score,
		FollowUpNeeded:        true,
		SuggestedFollowUpDate: &follow,
		PersonalInfoMentioned: map[string]string{"kids": "two"},
		AnalysisVersion:       "test-model",
	}
	require.NoError(t, CreateAnalysis(ctx, database, a))

	exists, err := AnalysisExists(ctx, database, it.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := GetAnalysis(ctx, database, it.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hiring"}, got.TopicsDiscussed)
	assert.Equal(t, []string{}, got.ActionItems)
	assert.Equal(t, "two", got.PersonalInfoMentioned["kids"])
	require.NotNil(t, got.SuggestedFollowUpDate)
	assert.True(t, got.SuggestedFollowUpDate.Equal(follow))
	assert.True(t, got.FollowUpNeeded)

	err = CreateAnalysis(ctx, database, &models.InteractionAnalysis{InteractionID: it.ID})
	assert.True(t, errors.Is(err, ErrAnalysisExists))

	followUps, err := ListFollowUps(ctx, database, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, followUps, 1)
	assert.Equal(t, "Call", followUps[0].InteractionTitle)
}

func TestSyncStateAndRuns(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	user := createTestUser(t, database, "me@example.com")
	acct := &models.SocialAccount{UserID: user.ID, Provider: models.ProviderGoogle, UID: "me@example.com"}
	require.NoError(t, UpsertSocialAccount(ctx, database, acct))

	state, err := GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	assert.Nil(t, state)

	msg := "boom"
	require.NoError(t, UpdateSyncStatus(ctx, database, acct.ID, models.ServiceGmail, models.SyncStatusError, &msg))
	state, err = GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Equal(t, "boom", state.ErrorMessage)

	require.NoError(t, SetResumeToken(ctx, database, acct.ID, models.ServiceGmail, "page-2"))
	state, err = GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	assert.Equal(t, "page-2", state.ResumeToken)
	assert.ErrorIs(t, SetResumeToken(ctx, database, acct.ID, models.ServiceCalendar, "x"), ErrNotFound)

	require.NoError(t, MarkSyncComplete(ctx, database, acct.ID, models.ServiceGmail, time.Now()))
	state, err = GetSyncState(ctx, database, acct.ID, models.ServiceGmail)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Empty(t, state.ErrorMessage)
	assert.Empty(t, state.ResumeToken)
	assert.NotNil(t, state.LastSyncTime)

	first, err := StartSyncRun(ctx, database, acct.ID, models.ServiceGmail, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	first.ItemsFetched = 3
	require.NoError(t, FinishSyncRun(ctx, database, first, nil))

	second, err := StartSyncRun(ctx, database, acct.ID, models.ServiceCalendar, time.Now())
	require.NoError(t, err)
	require.NoError(t, FinishSyncRun(ctx, database, second, errors.New("page failed")))

	runs, err := ListSyncRuns(ctx, database, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, models.SyncStatusError, runs[0].Status)
	assert.Equal(t, "page failed", runs[0].ErrorMessage)
	assert.Equal(t, 3, runs[1].ItemsFetched)
}
