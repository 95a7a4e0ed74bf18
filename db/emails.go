// ABOUTME: Email address database operations
// ABOUTME: Lowercased lookups and race-safe placeholder contact creation during sync
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/touchbase/models"
)

// AddEmailAddress attaches an address to a contact; ErrDuplicateEmail if the user already has it.
func AddEmailAddress(ctx context.Context, db *sql.DB, addr *models.EmailAddress) error {
	addr.ID = uuid.New()
	addr.Email = normalizeEmail(addr.Email)
	addr.CreatedAt = time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		INSERT INTO email_addresses (id, contact_id, user_id, email, created_at) VALUES (?, ?, ?, ?, ?)
	`, addr.ID.String(), addr.ContactID.String(), addr.UserID.String(), addr.Email, addr.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to add email address: %w", err)
	}
	return nil
}

func ListEmailAddresses(ctx context.Context, db *sql.DB, contactID uuid.UUID) ([]models.EmailAddress, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, contact_id, user_id, email, created_at FROM email_addresses WHERE contact_id = ? ORDER BY email
	`, contactID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list email addresses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var addrs []models.EmailAddress
	for rows.Next() {
		var a models.EmailAddress
		if err := rows.Scan(&a.ID, &a.ContactID, &a.UserID, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email address: %w", err)
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

// FindEmailAddress looks an address up case-insensitively within one user's contacts.
func FindEmailAddress(ctx context.Context, db *sql.DB, userID uuid.UUID, email string) (*models.EmailAddress, error) {
	var a models.EmailAddress
	err := db.QueryRowContext(ctx, `
		SELECT id, contact_id, user_id, email, created_at FROM email_addresses WHERE user_id = ? AND email = ?
	`, userID.String(), normalizeEmail(email)).Scan(&a.ID, &a.ContactID, &a.UserID, &a.Email, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find email address: %w", err)
	}
	return &a, nil
}

// GetOrCreateContactEmail resolves an address to its EmailAddress, creating a
// placeholder contact named after the address when the user has never seen it.
// The boolean reports whether a new contact was created.
func GetOrCreateContactEmail(ctx context.Context, db *sql.DB, userID uuid.UUID, email string) (*models.EmailAddress, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, fmt.Errorf("failed to resolve email address: empty address")
	}

	addr, err := FindEmailAddress(ctx, db, userID, email)
	if err == nil {
		return addr, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	addr = &models.EmailAddress{UserID: userID, Email: email}
	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		contact := &models.Contact{UserID: userID, Name: email}
		if err := insertContact(ctx, tx, contact); err != nil {
			return err
		}
		addr.ID = uuid.New()
		addr.ContactID = contact.ID
		addr.CreatedAt = time.Now().UTC()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO email_addresses (id, contact_id, user_id, email, created_at) VALUES (?, ?, ?, ?, ?)
		`, addr.ID.String(), addr.ContactID.String(), userID.String(), email, addr.CreatedAt)
		return err
	})
	if isUniqueViolation(err) {
		// Another writer created it first; the transaction rolled back our contact.
		winner, ferr := FindEmailAddress(ctx, db, userID, email)
		if ferr != nil {
			return nil, false, ferr
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create placeholder contact: %w", err)
	}
	return addr, true, nil
}

// DeleteEmailAddress removes one of the user's addresses and returns the contact it belonged to.
func DeleteEmailAddress(ctx context.Context, db *sql.DB, userID, id uuid.UUID) (uuid.UUID, error) {
	var contactID uuid.UUID
	err := db.QueryRowContext(ctx, `
		DELETE FROM email_addresses WHERE id = ? AND user_id = ? RETURNING contact_id
	`, id.String(), userID.String()).Scan(&contactID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to delete email address: %w", err)
	}
	return contactID, nil
}
