// ABOUTME: Google Contacts importer backed by the People API
// ABOUTME: Names placeholder contacts and attaches addresses and phones by email match
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/metrics"
	"github.com/harperreed/touchbase/models"
)

const (
	maxPeoplePageSize = 1000 // People API max per page
	personFields      = "names,emailAddresses,phoneNumbers,biographies"
)

type ContactsImporter struct {
	db      *sql.DB
	svc     *people.Service
	creds   *Credentials
	persist TokenPersister
	logger  *log.Logger
}

// GoogleContact is the part of a Google person touchbase keeps.
type GoogleContact struct {
	ResourceName string
	Name         string
	// Emails lists the primary address first.
	Emails []string
	Phones []string
	Notes  string
}

func NewContactsImporter(database *sql.DB, svc *people.Service, creds *Credentials, persist TokenPersister, logger *log.Logger) *ContactsImporter {
	return &ContactsImporter{db: database, svc: svc, creds: creds, persist: persist, logger: logger}
}

// Import walks the account's connections. People without an email address are skipped;
// everyone else is matched to a contact through their primary address.
func (ci *ContactsImporter) Import(ctx context.Context, acct *models.SocialAccount, startPage string) (Stats, error) {
	var stats Stats
	pager := NewPager(ci.listPage, startPage)

	for persons, err := range pager.Pages(ctx) {
		if err != nil {
			metrics.SyncPagesTotal.WithLabelValues(models.ServiceContacts, metrics.OutcomeError).Inc()
			stats.Resume = pager.Resume()
			return stats, fmt.Errorf("failed to list google contacts: %w", err)
		}
		metrics.SyncPagesTotal.WithLabelValues(models.ServiceContacts, metrics.OutcomeOK).Inc()
		stats.Pages++

		for _, p := range persons {
			gc := ConvertPerson(p)
			if len(gc.Emails) == 0 {
				stats.Skipped++
				metrics.SyncItemsTotal.WithLabelValues(models.ServiceContacts, metrics.OutcomeSkipped).Inc()
				continue
			}
			stats.Fetched++

			changed, err := ci.ImportContact(ctx, acct.UserID, gc)
			if err != nil {
				stats.Resume = pager.Resume()
				return stats, fmt.Errorf("failed to import %s: %w", gc.ResourceName, err)
			}
			if changed {
				stats.Stored++
				metrics.SyncItemsTotal.WithLabelValues(models.ServiceContacts, metrics.OutcomeStored).Inc()
			} else {
				stats.Skipped++
				metrics.SyncItemsTotal.WithLabelValues(models.ServiceContacts, metrics.OutcomeSkipped).Inc()
			}
		}
		ci.logger.Debug("contacts page stored", "account", acct.UID, "page", stats.Pages, "people", len(persons))
	}
	return stats, nil
}

func (ci *ContactsImporter) listPage(ctx context.Context, token string) ([]*people.Person, string, error) {
	var resp *people.ListConnectionsResponse
	err := ci.creds.Track(ctx, ci.persist, func() error {
		call := ci.svc.People.Connections.List("people/me").
			PersonFields(personFields).
			PageSize(maxPeoplePageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		var err error
		resp, err = call.Do()
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return resp.Connections, resp.NextPageToken, nil
}

// ImportContact merges gc into the contact owning its primary address and reports
// whether anything was written. Names and notes typed into touchbase are kept.
func (ci *ContactsImporter) ImportContact(ctx context.Context, userID uuid.UUID, gc GoogleContact) (bool, error) {
	if len(gc.Emails) == 0 {
		return false, fmt.Errorf("contact %s has no email address", gc.ResourceName)
	}

	addr, created, err := db.GetOrCreateContactEmail(ctx, ci.db, userID, gc.Emails[0])
	if err != nil {
		return false, err
	}
	contact, err := db.GetContact(ctx, ci.db, userID, addr.ContactID)
	if err != nil {
		return false, err
	}

	changed := created
	dirty := false
	if gc.Name != "" && isPlaceholderName(contact.Name, addr.Email) && contact.Name != gc.Name {
		contact.Name = gc.Name
		dirty = true
	}
	if gc.Notes != "" && contact.Description == "" {
		contact.Description = gc.Notes
		dirty = true
	}
	if dirty {
		if err := db.UpdateContact(ctx, ci.db, contact); err != nil {
			return false, err
		}
		changed = true
	}

	for _, email := range gc.Emails[1:] {
		added, err := ci.attachEmail(ctx, userID, contact.ID, email)
		if err != nil {
			return false, err
		}
		changed = changed || added
	}

	added, err := ci.attachPhones(ctx, contact.ID, gc.Phones)
	if err != nil {
		return false, err
	}
	return changed || added, nil
}

// attachEmail adds email to the contact unless some contact already owns it.
func (ci *ContactsImporter) attachEmail(ctx context.Context, userID, contactID uuid.UUID, email string) (bool, error) {
	_, err := db.FindEmailAddress(ctx, ci.db, userID, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return false, err
	}
	err = db.AddEmailAddress(ctx, ci.db, &models.EmailAddress{ContactID: contactID, UserID: userID, Email: email})
	if errors.Is(err, db.ErrDuplicateEmail) {
		return false, nil
	}
	return err == nil, err
}

func (ci *ContactsImporter) attachPhones(ctx context.Context, contactID uuid.UUID, phones []string) (bool, error) {
	if len(phones) == 0 {
		return false, nil
	}
	existing, err := db.ListPhoneNumbers(ctx, ci.db, contactID)
	if err != nil {
		return false, err
	}
	known := make([]string, 0, len(existing))
	for _, p := range existing {
		known = append(known, p.PhoneNumber)
	}

	added := false
	for _, phone := range phones {
		if slices.Contains(known, phone) {
			continue
		}
		if err := db.AddPhoneNumber(ctx, ci.db, &models.PhoneNumber{ContactID: contactID, PhoneNumber: phone}); err != nil {
			return false, err
		}
		known = append(known, phone)
		added = true
	}
	return added, nil
}

// isPlaceholderName reports whether name is the address a contact was auto-created with.
func isPlaceholderName(name, email string) bool {
	return strings.EqualFold(strings.TrimSpace(name), email)
}

// ConvertPerson extracts the display name, addresses, phones, and notes of p.
func ConvertPerson(p *people.Person) GoogleContact {
	gc := GoogleContact{ResourceName: p.ResourceName}

	if len(p.Names) > 0 {
		gc.Name = strings.TrimSpace(p.Names[0].DisplayName)
	}

	for _, e := range p.EmailAddresses {
		value := strings.ToLower(strings.TrimSpace(e.Value))
		if value == "" || slices.Contains(gc.Emails, value) {
			continue
		}
		if e.Metadata != nil && e.Metadata.Primary {
			gc.Emails = append([]string{value}, gc.Emails...)
		} else {
			gc.Emails = append(gc.Emails, value)
		}
	}

	for _, ph := range p.PhoneNumbers {
		value := strings.TrimSpace(ph.Value)
		if value == "" || slices.Contains(gc.Phones, value) {
			continue
		}
		if ph.Metadata != nil && ph.Metadata.Primary {
			gc.Phones = append([]string{value}, gc.Phones...)
		} else {
			gc.Phones = append(gc.Phones, value)
		}
	}

	if len(p.Biographies) > 0 {
		gc.Notes = strings.TrimSpace(p.Biographies[0].Value)
	}
	return gc
}
