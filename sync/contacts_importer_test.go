// ABOUTME: Tests for the Google Contacts importer against a fake People API
// ABOUTME: Covers naming placeholder contacts, attaching addresses, re-import, and resume
package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

func TestContactsImportCreatesContacts(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	fake := newFakeGoogle()
	fake.peoplePages[""] = peoplePage{persons: []*people.Person{
		testPerson("people/1", "Alice Smith", []string{"Alice@Example.com", "alice@work.example"}, "555-1234"),
		testPerson("people/2", "No Address", nil, "555-0000"),
	}, next: "p2"}
	fake.peoplePages["p2"] = peoplePage{persons: []*people.Person{
		testPerson("people/3", "", []string{"bob@example.com"}),
	}}
	server := startFakeGoogle(t, fake)

	creds := staticCredentials()
	importer := NewContactsImporter(database, newTestPeopleService(t, server, creds), creds, nil, testLogger)

	stats, err := importer.Import(ctx, acct, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 2, stats.Stored)
	assert.Equal(t, 1, stats.Skipped)

	addr, err := db.FindEmailAddress(ctx, database, acct.UserID, "alice@example.com")
	require.NoError(t, err)
	alice, err := db.GetContact(ctx, database, acct.UserID, addr.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", alice.Name)

	work, err := db.FindEmailAddress(ctx, database, acct.UserID, "alice@work.example")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, work.ContactID)

	phones, err := db.ListPhoneNumbers(ctx, database, alice.ID)
	require.NoError(t, err)
	require.Len(t, phones, 1)
	assert.Equal(t, "555-1234", phones[0].PhoneNumber)

	// Without a display name the address stays the name
	addr, err = db.FindEmailAddress(ctx, database, acct.UserID, "bob@example.com")
	require.NoError(t, err)
	bob, err := db.GetContact(ctx, database, acct.UserID, addr.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", bob.Name)
}

func TestContactsImportKeepsNamesTypedByUser(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	placeholder, _, err := db.GetOrCreateContactEmail(ctx, database, acct.UserID, "carol@example.com")
	require.NoError(t, err)

	named := &models.Contact{UserID: acct.UserID, Name: "Dave from climbing", Description: "Belay partner"}
	require.NoError(t, db.CreateContact(ctx, database, named))
	require.NoError(t, db.AddEmailAddress(ctx, database, &models.EmailAddress{
		ContactID: named.ID, UserID: acct.UserID, Email: "dave@example.com",
	}))

	fake := newFakeGoogle()
	dave := testPerson("people/2", "David Jones", []string{"dave@example.com"})
	dave.Biographies = []*people.Biography{{Value: "Met at the gym"}}
	fake.peoplePages[""] = peoplePage{persons: []*people.Person{
		testPerson("people/1", "Carol King", []string{"carol@example.com"}),
		dave,
	}}
	server := startFakeGoogle(t, fake)

	creds := staticCredentials()
	importer := NewContactsImporter(database, newTestPeopleService(t, server, creds), creds, nil, testLogger)

	stats, err := importer.Import(ctx, acct, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 1, stats.Skipped)

	carol, err := db.GetContact(ctx, database, acct.UserID, placeholder.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "Carol King", carol.Name)

	got, err := db.GetContact(ctx, database, acct.UserID, named.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dave from climbing", got.Name)
	assert.Equal(t, "Belay partner", got.Description)
}

func TestContactsReimportIsNoop(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	fake := newFakeGoogle()
	fake.peoplePages[""] = peoplePage{persons: []*people.Person{
		testPerson("people/1", "Alice Smith", []string{"alice@example.com"}, "555-1234"),
	}}
	server := startFakeGoogle(t, fake)

	creds := staticCredentials()
	importer := NewContactsImporter(database, newTestPeopleService(t, server, creds), creds, nil, testLogger)

	_, err := importer.Import(ctx, acct, "")
	require.NoError(t, err)
	stats, err := importer.Import(ctx, acct, "")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Stored)
	assert.Equal(t, 1, stats.Skipped)

	contacts, err := db.ListContacts(ctx, database, acct.UserID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	phones, err := db.ListPhoneNumbers(ctx, database, contacts[0].ID)
	require.NoError(t, err)
	assert.Len(t, phones, 1)
}

func TestContactsImportPageFailureResumes(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	acct := createTestAccount(t, database, "me@example.com")

	fake := newFakeGoogle()
	fake.peoplePages[""] = peoplePage{persons: []*people.Person{
		testPerson("people/1", "Alice Smith", []string{"alice@example.com"}),
	}, next: "p2"}
	fake.peoplePages["p2"] = peoplePage{persons: []*people.Person{
		testPerson("people/2", "Bob Brown", []string{"bob@example.com"}),
	}}
	fake.setFail("contacts:p2", true)
	server := startFakeGoogle(t, fake)

	creds := staticCredentials()
	importer := NewContactsImporter(database, newTestPeopleService(t, server, creds), creds, nil, testLogger)

	stats, err := importer.Import(ctx, acct, "")
	require.Error(t, err)
	assert.Equal(t, "p2", stats.Resume)
	assert.Equal(t, 1, stats.Stored)

	fake.setFail("contacts:p2", false)
	stats, err = importer.Import(ctx, acct, stats.Resume)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, []string{"contacts:", "contacts:p2", "contacts:p2"}, fake.listed())
}

func TestConvertPersonPutsPrimaryFirst(t *testing.T) {
	p := &people.Person{
		ResourceName: "people/9",
		Names:        []*people.Name{{DisplayName: "  Erin  "}},
		EmailAddresses: []*people.EmailAddress{
			{Value: "erin@old.example"},
			{Value: "Erin@Example.com", Metadata: &people.FieldMetadata{Primary: true}},
			{Value: "erin@old.example"},
			{Value: ""},
		},
		PhoneNumbers: []*people.PhoneNumber{
			{Value: "555-1"},
			{Value: "555-2", Metadata: &people.FieldMetadata{Primary: true}},
		},
	}

	gc := ConvertPerson(p)
	assert.Equal(t, "people/9", gc.ResourceName)
	assert.Equal(t, "Erin", gc.Name)
	assert.Equal(t, []string{"erin@example.com", "erin@old.example"}, gc.Emails)
	assert.Equal(t, []string{"555-2", "555-1"}, gc.Phones)
	assert.Empty(t, gc.Notes)
}
