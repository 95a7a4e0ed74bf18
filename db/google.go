// ABOUTME: Raw Google provider records awaiting reconciliation
// ABOUTME: Gmail messages insert once; calendar events overwrite on every sync
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/touchbase/models"
)

// InsertEmailIfAbsent stores a Gmail payload; an existing message id is left untouched.
// Returns whether a row was inserted.
func InsertEmailIfAbsent(ctx context.Context, db *sql.DB, accountID uuid.UUID, messageID string, data json.RawMessage) (bool, error) {
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO google_emails (id, social_account_id, gmail_message_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(gmail_message_id) DO NOTHING
	`, uuid.New().String(), accountID.String(), messageID, string(data), now, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert email: %w", err)
	}
	return n > 0, nil
}

func GoogleEmailExists(ctx context.Context, db *sql.DB, messageID string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM google_emails WHERE gmail_message_id = ?`, messageID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

// UpsertCalendarEvent stores or overwrites an event payload, returning true when the row is new.
func UpsertCalendarEvent(ctx context.Context, db *sql.DB, accountID uuid.UUID, eventID string, data json.RawMessage) (bool, error) {
	var exists int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM google_calendar_events WHERE google_calendar_id = ?
	`, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check calendar event: %w", err)
	}

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO google_calendar_events (id, social_account_id, google_calendar_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(google_calendar_id) DO UPDATE SET
			data = excluded.data,
			social_account_id = excluded.social_account_id,
			updated_at = excluded.updated_at
	`, uuid.New().String(), accountID.String(), eventID, string(data), now, now)
	if err != nil {
		return false, fmt.Errorf("failed to upsert calendar event: %w", err)
	}
	return exists == 0, nil
}

// ListGoogleEmails returns an account's raw emails; unlinkedOnly skips those already reconciled.
func ListGoogleEmails(ctx context.Context, db *sql.DB, accountID uuid.UUID, unlinkedOnly bool) ([]models.GoogleEmail, error) {
	query := `
		SELECT id, social_account_id, interaction_id, gmail_message_id, data, created_at, updated_at
		FROM google_emails WHERE social_account_id = ?`
	if unlinkedOnly {
		query += ` AND interaction_id IS NULL`
	}
	query += ` ORDER BY created_at, gmail_message_id`

	rows, err := db.QueryContext(ctx, query, accountID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.GoogleEmail
	for rows.Next() {
		var e models.GoogleEmail
		var interactionID sql.NullString
		var data string
		if err := rows.Scan(&e.ID, &e.SocialAccountID, &interactionID, &e.GmailMessageID, &data, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		e.InteractionID = uuidPtr(interactionID)
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}

func GetGoogleEmail(ctx context.Context, db *sql.DB, messageID string) (*models.GoogleEmail, error) {
	var e models.GoogleEmail
	var interactionID sql.NullString
	var data string
	err := db.QueryRowContext(ctx, `
		SELECT id, social_account_id, interaction_id, gmail_message_id, data, created_at, updated_at
		FROM google_emails WHERE gmail_message_id = ?
	`, messageID).Scan(&e.ID, &e.SocialAccountID, &interactionID, &e.GmailMessageID, &data, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	e.InteractionID = uuidPtr(interactionID)
	e.Data = json.RawMessage(data)
	return &e, nil
}

// ListCalendarEvents returns every raw event of an account.
func ListCalendarEvents(ctx context.Context, db *sql.DB, accountID uuid.UUID) ([]models.GoogleCalendarEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, social_account_id, interaction_id, google_calendar_id, data, created_at, updated_at
		FROM google_calendar_events WHERE social_account_id = ?
		ORDER BY created_at, google_calendar_id
	`, accountID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.GoogleCalendarEvent
	for rows.Next() {
		ev, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

func GetCalendarEvent(ctx context.Context, db *sql.DB, eventID string) (*models.GoogleCalendarEvent, error) {
	ev, err := scanCalendarEvent(db.QueryRowContext(ctx, `
		SELECT id, social_account_id, interaction_id, google_calendar_id, data, created_at, updated_at
		FROM google_calendar_events WHERE google_calendar_id = ?
	`, eventID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func scanCalendarEvent(row interface{ Scan(...any) error }) (*models.GoogleCalendarEvent, error) {
	var ev models.GoogleCalendarEvent
	var interactionID sql.NullString
	var data string
	if err := row.Scan(&ev.ID, &ev.SocialAccountID, &interactionID, &ev.GoogleCalendarID, &data, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan calendar event: %w", err)
	}
	ev.InteractionID = uuidPtr(interactionID)
	ev.Data = json.RawMessage(data)
	return &ev, nil
}

// LinkEmailInteraction sets or clears the interaction produced by a raw email.
func LinkEmailInteraction(ctx context.Context, db *sql.DB, id uuid.UUID, interactionID *uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		UPDATE google_emails SET interaction_id = ?, updated_at = ? WHERE id = ?
	`, nullableUUID(interactionID), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to link email interaction: %w", err)
	}
	return nil
}

// LinkCalendarInteraction sets or clears the interaction produced by a raw event.
func LinkCalendarInteraction(ctx context.Context, db *sql.DB, id uuid.UUID, interactionID *uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		UPDATE google_calendar_events SET interaction_id = ?, updated_at = ? WHERE id = ?
	`, nullableUUID(interactionID), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to link calendar interaction: %w", err)
	}
	return nil
}
