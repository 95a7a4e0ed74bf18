// ABOUTME: Contact operations of the application service
// ABOUTME: Creation with addresses, detail with urgency, and the status overview
package crm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

type ContactInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	FrequencyInDays *int     `json:"frequency_in_days,omitempty" validate:"omitempty,min=0,max=3650"`
	Description     string   `json:"description,omitempty" validate:"max=4000"`
	LinkedInURL     string   `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	TwitterURL      string   `json:"twitter_url,omitempty" validate:"omitempty,url"`
	Emails          []string `json:"emails,omitempty" validate:"dive,email"`
	Phones          []string `json:"phones,omitempty" validate:"dive,min=3,max=40"`
}

// CreateContact stores a contact with its addresses and phone numbers.
// Addresses already owned by another contact are rejected before anything is written.
func (s *Service) CreateContact(ctx context.Context, userID uuid.UUID, in ContactInput) (*models.Contact, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	for _, email := range in.Emails {
		_, err := db.FindEmailAddress(ctx, s.db, userID, email)
		if err == nil {
			return nil, fmt.Errorf("%w: %s", db.ErrDuplicateEmail, email)
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
	}

	contact := &models.Contact{
		UserID:          userID,
		Name:            in.Name,
		FrequencyInDays: in.FrequencyInDays,
		Description:     in.Description,
		LinkedInURL:     in.LinkedInURL,
		TwitterURL:      in.TwitterURL,
	}
	if err := db.CreateContact(ctx, s.db, contact); err != nil {
		return nil, err
	}
	for _, email := range in.Emails {
		if _, err := s.addEmail(ctx, userID, contact.ID, email); err != nil {
			return nil, err
		}
	}
	for _, phone := range in.Phones {
		if _, err := s.addPhone(ctx, contact.ID, phone); err != nil {
			return nil, err
		}
	}
	s.logger.Info("contact created", "contact", contact.ID, "name", contact.Name)
	return contact, nil
}

// UpdateContact replaces the editable fields; addresses and phones are managed separately.
func (s *Service) UpdateContact(ctx context.Context, userID, contactID uuid.UUID, in ContactInput) (*models.Contact, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	contact, err := db.GetContact(ctx, s.db, userID, contactID)
	if err != nil {
		return nil, err
	}
	contact.Name = in.Name
	contact.FrequencyInDays = in.FrequencyInDays
	contact.Description = in.Description
	contact.LinkedInURL = in.LinkedInURL
	contact.TwitterURL = in.TwitterURL
	if err := db.UpdateContact(ctx, s.db, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) DeleteContact(ctx context.Context, userID, contactID uuid.UUID) error {
	return db.DeleteContact(ctx, s.db, userID, contactID)
}

type emailInput struct {
	Email string `validate:"required,email"`
}

type phoneInput struct {
	Phone string `validate:"required,min=3,max=40"`
}

func (s *Service) AddEmailAddress(ctx context.Context, userID, contactID uuid.UUID, email string) (*models.EmailAddress, error) {
	if err := validateInput(emailInput{Email: email}); err != nil {
		return nil, err
	}
	if _, err := db.GetContact(ctx, s.db, userID, contactID); err != nil {
		return nil, err
	}
	return s.addEmail(ctx, userID, contactID, email)
}

func (s *Service) addEmail(ctx context.Context, userID, contactID uuid.UUID, email string) (*models.EmailAddress, error) {
	addr := &models.EmailAddress{ContactID: contactID, UserID: userID, Email: email}
	if err := db.AddEmailAddress(ctx, s.db, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

// RemoveEmailAddress deletes an address and returns the contact that owned it.
func (s *Service) RemoveEmailAddress(ctx context.Context, userID, emailID uuid.UUID) (uuid.UUID, error) {
	return db.DeleteEmailAddress(ctx, s.db, userID, emailID)
}

func (s *Service) AddPhoneNumber(ctx context.Context, userID, contactID uuid.UUID, phone string) (*models.PhoneNumber, error) {
	if err := validateInput(phoneInput{Phone: phone}); err != nil {
		return nil, err
	}
	if _, err := db.GetContact(ctx, s.db, userID, contactID); err != nil {
		return nil, err
	}
	return s.addPhone(ctx, contactID, phone)
}

func (s *Service) addPhone(ctx context.Context, contactID uuid.UUID, phone string) (*models.PhoneNumber, error) {
	p := &models.PhoneNumber{ContactID: contactID, PhoneNumber: phone}
	if err := db.AddPhoneNumber(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) FindContacts(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Contact, error) {
	return db.FindContacts(ctx, s.db, userID, query, limit)
}

// ContactDetail is everything shown on a contact page.
type ContactDetail struct {
	Contact      models.Contact
	Urgency      models.ContactUrgency
	Interactions []models.Interaction
	Emails       []models.EmailAddress
	Phones       []models.PhoneNumber
}

func (s *Service) ContactDetail(ctx context.Context, userID, contactID uuid.UUID) (*ContactDetail, error) {
	contact, err := db.GetContact(ctx, s.db, userID, contactID)
	if err != nil {
		return nil, err
	}
	last, err := db.LastInteractionAt(ctx, s.db, contactID)
	if err != nil {
		return nil, err
	}
	interactions, err := db.ListContactInteractions(ctx, s.db, userID, contactID)
	if err != nil {
		return nil, err
	}
	emails, err := db.ListEmailAddresses(ctx, s.db, contactID)
	if err != nil {
		return nil, err
	}
	phones, err := db.ListPhoneNumbers(ctx, s.db, contactID)
	if err != nil {
		return nil, err
	}
	return &ContactDetail{
		Contact:      *contact,
		Urgency:      models.ComputeUrgency(contact, last, s.now()),
		Interactions: interactions,
		Emails:       emails,
		Phones:       phones,
	}, nil
}

// Overview is the contact list with counts per status.
type Overview struct {
	Counts   db.StatusCounts
	Contacts []db.DueContact
}

// ContactOverview lists contacts with the given status, most overdue first; nil lists every tracked contact.
func (s *Service) ContactOverview(ctx context.Context, userID uuid.UUID, status *models.ContactStatus) (*Overview, error) {
	all, err := db.ContactUrgencies(ctx, s.db, userID, s.now())
	if err != nil {
		return nil, err
	}
	out := &Overview{Counts: db.CountStatuses(all)}
	for _, dc := range all {
		if status == nil && dc.Contact.Tracked() || status != nil && dc.Status == *status {
			out.Contacts = append(out.Contacts, dc)
		}
	}
	sort.SliceStable(out.Contacts, func(i, j int) bool {
		return out.Contacts[i].Urgency > out.Contacts[j].Urgency
	})
	return out, nil
}

// Dashboard is the landing view: who is due, who was seen lately, who is seen most.
type Dashboard struct {
	Due       []db.DueContact
	Recent    []models.ContactCount
	Frequent  []models.ContactCount
	FollowUps []db.FollowUp
}

func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	now := s.now()
	due, err := db.GetDueContacts(ctx, s.db, userID, now)
	if err != nil {
		return nil, err
	}
	recent, err := db.GetRecentContacts(ctx, s.db, userID, now, db.DefaultRecentWindow, db.DefaultListingLimit)
	if err != nil {
		return nil, err
	}
	frequent, err := db.GetFrequentContacts(ctx, s.db, userID, db.DefaultListingLimit)
	if err != nil {
		return nil, err
	}
	followUps, err := db.ListFollowUps(ctx, s.db, userID, db.DefaultListingLimit)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Due: due, Recent: recent, Frequent: frequent, FollowUps: followUps}, nil
}
