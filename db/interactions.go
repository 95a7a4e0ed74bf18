// ABOUTME: Interaction database operations
// ABOUTME: Handles interaction rows, participant sets, and per-contact history
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

const interactionColumns = `i.id, i.user_id, i.type, i.title, i.description, i.was_at, i.created_at, i.updated_at`

func scanInteraction(row interface{ Scan(...any) error }) (*models.Interaction, error) {
	var it models.Interaction
	var typ sql.NullString
	if err := row.Scan(&it.ID, &it.UserID, &typ, &it.Title, &it.Description, &it.WasAt, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if typ.Valid {
		it.Type = &typ.String
	}
	it.WasAt = it.WasAt.UTC()
	return &it, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateInteraction inserts the row only; participants are set separately.
func CreateInteraction(ctx context.Context, db *sql.DB, it *models.Interaction) error {
	it.ID = uuid.New()
	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now
	it.WasAt = it.WasAt.UTC()

	_, err := db.ExecContext(ctx, `
		INSERT INTO interactions (id, user_id, type, title, description, was_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID.String(), it.UserID.String(), nullableString(it.Type), it.Title, it.Description, it.WasAt, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}
	return nil
}

func UpdateInteraction(ctx context.Context, db *sql.DB, it *models.Interaction) error {
	it.UpdatedAt = time.Now().UTC()
	it.WasAt = it.WasAt.UTC()
	res, err := db.ExecContext(ctx, `
		UPDATE interactions SET type = ?, title = ?, description = ?, was_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, nullableString(it.Type), it.Title, it.Description, it.WasAt, it.UpdatedAt, it.ID.String(), it.UserID.String())
	if err != nil {
		return fmt.Errorf("failed to update interaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInteraction removes the interaction; raw provider rows keep existing with a cleared link.
func DeleteInteraction(ctx context.Context, db *sql.DB, userID, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM interactions WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInteractionContacts replaces the participant set and returns the contacts newly added.
func SetInteractionContacts(ctx context.Context, db *sql.DB, interactionID uuid.UUID, contactIDs []uuid.UUID) ([]uuid.UUID, error) {
	var added []uuid.UUID
	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		existing, err := interactionContactIDs(ctx, tx, interactionID)
		if err != nil {
			return err
		}
		current := make(map[uuid.UUID]bool, len(existing))
		for _, id := range existing {
			current[id] = true
		}

		wanted := make(map[uuid.UUID]bool, len(contactIDs))
		for _, id := range contactIDs {
			if wanted[id] {
				continue
			}
			wanted[id] = true
			if current[id] {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO interaction_contacts (interaction_id, contact_id) VALUES (?, ?)
			`, interactionID.String(), id.String()); err != nil {
				return fmt.Errorf("failed to add participant: %w", err)
			}
			added = append(added, id)
		}

		for _, id := range existing {
			if wanted[id] {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM interaction_contacts WHERE interaction_id = ? AND contact_id = ?
			`, interactionID.String(), id.String()); err != nil {
				return fmt.Errorf("failed to remove participant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func interactionContactIDs(ctx context.Context, q queryer, interactionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT contact_id FROM interaction_contacts WHERE interaction_id = ? ORDER BY contact_id
	`, interactionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetInteraction loads one interaction of the user together with its participant ids.
func GetInteraction(ctx context.Context, db *sql.DB, userID, id uuid.UUID) (*models.Interaction, error) {
	it, err := scanInteraction(db.QueryRowContext(ctx, `
		SELECT `+interactionColumns+` FROM interactions i WHERE i.id = ? AND i.user_id = ?
	`, id.String(), userID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}

	it.ContactIDs, err = interactionContactIDs(ctx, db, it.ID)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func queryInteractions(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Interaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}

	var out []models.Interaction
	for rows.Next() {
		it, err := scanInteraction(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Single connection pool: participants are read after the cursor is released.
	for i := range out {
		out[i].ContactIDs, err = interactionContactIDs(ctx, db, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListPastInteractions returns interactions before now involving at least one
// tracked contact, newest first.
func ListPastInteractions(ctx context.Context, db *sql.DB, userID uuid.UUID, now time.Time, limit int) ([]models.Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return queryInteractions(ctx, db, `
		SELECT `+interactionColumns+` FROM interactions i
		WHERE i.user_id = ? AND i.was_at < ?
		AND EXISTS (
			SELECT 1 FROM interaction_contacts ic JOIN contacts c ON c.id = ic.contact_id
			WHERE ic.interaction_id = i.id AND c.frequency_in_days IS NOT NULL AND c.frequency_in_days != 0
		)
		ORDER BY i.was_at DESC
		LIMIT ?
	`, userID.String(), now.UTC(), limit)
}

// ListContactInteractions returns every interaction a contact took part in, newest first.
func ListContactInteractions(ctx context.Context, db *sql.DB, userID, contactID uuid.UUID) ([]models.Interaction, error) {
	return queryInteractions(ctx, db, `
		SELECT `+interactionColumns+` FROM interactions i
		JOIN interaction_contacts ic ON ic.interaction_id = i.id
		WHERE i.user_id = ? AND ic.contact_id = ?
		ORDER BY i.was_at DESC
	`, userID.String(), contactID.String())
}

// RecentInteractionsForContact returns up to limit prior interactions of a contact, excluding one id.
func RecentInteractionsForContact(ctx context.Context, db *sql.DB, contactID, excludeID uuid.UUID, limit int) ([]models.Interaction, error) {
	return queryInteractions(ctx, db, `
		SELECT `+interactionColumns+` FROM interactions i
		JOIN interaction_contacts ic ON ic.interaction_id = i.id
		WHERE ic.contact_id = ? AND i.id != ?
		ORDER BY i.was_at DESC
		LIMIT ?
	`, contactID.String(), excludeID.String(), limit)
}

// ListInteractionsWithoutAnalysis returns a user's interactions that have participants but no analysis.
func ListInteractionsWithoutAnalysis(ctx context.Context, db *sql.DB, userID uuid.UUID, limit int) ([]models.Interaction, error) {
	if limit <= 0 {
		limit = 100
	}
	return queryInteractions(ctx, db, `
		SELECT `+interactionColumns+` FROM interactions i
		WHERE i.user_id = ?
		AND NOT EXISTS (SELECT 1 FROM interaction_analyses a WHERE a.interaction_id = i.id)
		AND EXISTS (SELECT 1 FROM interaction_contacts ic WHERE ic.interaction_id = i.id)
		ORDER BY i.was_at DESC
		LIMIT ?
	`, userID.String(), limit)
}

// LastInteractionAt is the was_at of the newest interaction the contact took part in.
func LastInteractionAt(ctx context.Context, db *sql.DB, contactID uuid.UUID) (*time.Time, error) {
	var last time.Time
	err := db.QueryRowContext(ctx, `
		SELECT i.was_at FROM interactions i
		JOIN interaction_contacts ic ON ic.interaction_id = i.id
		WHERE ic.contact_id = ?
		ORDER BY i.was_at DESC
		LIMIT 1
	`, contactID.String()).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last interaction: %w", err)
	}
	last = last.UTC()
	return &last, nil
}

// CoParticipation counts how often two contacts appear in the same interaction.
type CoParticipation struct {
	ContactA uuid.UUID
	ContactB uuid.UUID
	Count    int
}

func ListCoParticipations(ctx context.Context, db *sql.DB, userID uuid.UUID) ([]CoParticipation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT a.contact_id, b.contact_id, COUNT(*)
		FROM interaction_contacts a
		JOIN interaction_contacts b ON a.interaction_id = b.interaction_id AND a.contact_id < b.contact_id
		JOIN interactions i ON i.id = a.interaction_id
		WHERE i.user_id = ?
		GROUP BY a.contact_id, b.contact_id
		ORDER BY COUNT(*) DESC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query co-participation: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CoParticipation
	for rows.Next() {
		var cp CoParticipation
		if err := rows.Scan(&cp.ContactA, &cp.ContactB, &cp.Count); err != nil {
			return nil, fmt.Errorf("failed to scan co-participation: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}
