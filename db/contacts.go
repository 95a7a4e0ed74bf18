// ABOUTME: Contact database operations
// ABOUTME: Handles CRUD, search, and phone numbers for a user's contacts
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/touchbase/models"
)

const contactColumns = `c.id, c.user_id, c.name, c.frequency_in_days, c.description, c.linkedin_url, c.twitter_url, c.created_at, c.updated_at`

func scanContact(row interface{ Scan(...any) error }, extra ...any) (*models.Contact, error) {
	var c models.Contact
	var freq sql.NullInt64
	dest := []any{&c.ID, &c.UserID, &c.Name, &freq, &c.Description, &c.LinkedInURL, &c.TwitterURL, &c.CreatedAt, &c.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if freq.Valid {
		f := int(freq.Int64)
		c.FrequencyInDays = &f
	}
	return &c, nil
}

func nullableInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func insertContact(ctx context.Context, q interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, contact *models.Contact) error {
	contact.ID = uuid.New()
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := q.ExecContext(ctx, `
		INSERT INTO contacts (id, user_id, name, frequency_in_days, description, linkedin_url, twitter_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.UserID.String(), contact.Name, nullableInt(contact.FrequencyInDays),
		contact.Description, contact.LinkedInURL, contact.TwitterURL, contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func CreateContact(ctx context.Context, db *sql.DB, contact *models.Contact) error {
	return insertContact(ctx, db, contact)
}

func GetContact(ctx context.Context, db *sql.DB, userID, id uuid.UUID) (*models.Contact, error) {
	c, err := scanContact(db.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contacts c WHERE c.id = ? AND c.user_id = ?
	`, id.String(), userID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

func UpdateContact(ctx context.Context, db *sql.DB, contact *models.Contact) error {
	contact.UpdatedAt = time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		UPDATE contacts
		SET name = ?, frequency_in_days = ?, description = ?, linkedin_url = ?, twitter_url = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, contact.Name, nullableInt(contact.FrequencyInDays), contact.Description, contact.LinkedInURL,
		contact.TwitterURL, contact.UpdatedAt, contact.ID.String(), contact.UserID.String())
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes a contact with its addresses, phones, and participations.
func DeleteContact(ctx context.Context, db *sql.DB, userID, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListContacts returns all of a user's contacts ordered by name.
func ListContacts(ctx context.Context, db *sql.DB, userID uuid.UUID) ([]models.Contact, error) {
	return queryContacts(ctx, db, `
		SELECT `+contactColumns+` FROM contacts c WHERE c.user_id = ? ORDER BY c.name, c.id
	`, userID.String())
}

// FindContacts matches query against names and email addresses.
func FindContacts(ctx context.Context, db *sql.DB, userID uuid.UUID, query string, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 10
	}
	if query == "" {
		return queryContacts(ctx, db, `
			SELECT `+contactColumns+` FROM contacts c WHERE c.user_id = ? ORDER BY c.name, c.id LIMIT ?
		`, userID.String(), limit)
	}

	pattern := "%" + strings.ToLower(query) + "%"
	return queryContacts(ctx, db, `
		SELECT `+contactColumns+` FROM contacts c
		WHERE c.user_id = ? AND (
			LOWER(c.name) LIKE ?
			OR EXISTS (SELECT 1 FROM email_addresses e WHERE e.contact_id = c.id AND e.email LIKE ?)
		)
		ORDER BY c.name, c.id
		LIMIT ?
	`, userID.String(), pattern, pattern, limit)
}

func queryContacts(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Contact, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// GetContactsByIDs loads the given contacts of one user, ordered by name.
func GetContactsByIDs(ctx context.Context, db *sql.DB, userID uuid.UUID, ids []uuid.UUID) ([]models.Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := []any{userID.String()}
	for _, id := range ids {
		args = append(args, id.String())
	}
	return queryContacts(ctx, db, `
		SELECT `+contactColumns+` FROM contacts c
		WHERE c.user_id = ? AND c.id IN (`+placeholders(len(ids))+`)
		ORDER BY c.name, c.id
	`, args...)
}

func AddPhoneNumber(ctx context.Context, db *sql.DB, phone *models.PhoneNumber) error {
	phone.ID = uuid.New()
	phone.CreatedAt = time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO phone_numbers (id, contact_id, phone_number, created_at) VALUES (?, ?, ?, ?)
	`, phone.ID.String(), phone.ContactID.String(), phone.PhoneNumber, phone.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add phone number: %w", err)
	}
	return nil
}

func ListPhoneNumbers(ctx context.Context, db *sql.DB, contactID uuid.UUID) ([]models.PhoneNumber, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, contact_id, phone_number, created_at FROM phone_numbers WHERE contact_id = ? ORDER BY created_at
	`, contactID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list phone numbers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var phones []models.PhoneNumber
	for rows.Next() {
		var p models.PhoneNumber
		if err := rows.Scan(&p.ID, &p.ContactID, &p.PhoneNumber, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan phone number: %w", err)
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}
