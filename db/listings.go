// ABOUTME: Dashboard listings built on the urgency calculator
// ABOUTME: Due, recent, and frequent contacts plus status counts for the overview
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/touchbase/models"
)

// DueContact is a tracked contact with its urgency at the time of listing.
type DueContact struct {
	Contact models.Contact
	models.ContactUrgency
}

const (
	DefaultRecentWindow = 14 * 24 * time.Hour
	DefaultListingLimit = 5
)

// ContactUrgencies evaluates every contact of the user at now.
func ContactUrgencies(ctx context.Context, db *sql.DB, userID uuid.UUID, now time.Time) ([]DueContact, error) {
	contacts, err := ListContacts(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	out := make([]DueContact, 0, len(contacts))
	for i := range contacts {
		last, err := LastInteractionAt(ctx, db, contacts[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, DueContact{
			Contact:        contacts[i],
			ContactUrgency: models.ComputeUrgency(&contacts[i], last, now),
		})
	}
	return out, nil
}

// GetDueContacts returns contacts with urgency > 0, most overdue first, ties by name.
func GetDueContacts(ctx context.Context, db *sql.DB, userID uuid.UUID, now time.Time) ([]DueContact, error) {
	all, err := ContactUrgencies(ctx, db, userID, now)
	if err != nil {
		return nil, err
	}

	var due []DueContact
	for _, dc := range all {
		if dc.Urgency > 0 {
			due = append(due, dc)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Urgency != due[j].Urgency {
			return due[i].Urgency > due[j].Urgency
		}
		return due[i].Contact.Name < due[j].Contact.Name
	})
	return due, nil
}

// GetRecentContacts ranks contacts by interactions inside the trailing window.
func GetRecentContacts(ctx context.Context, db *sql.DB, userID uuid.UUID, now time.Time, window time.Duration, limit int) ([]models.ContactCount, error) {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	if limit <= 0 {
		limit = DefaultListingLimit
	}
	return queryContactCounts(ctx, db, `
		SELECT `+contactColumns+`, COUNT(i.id) AS n
		FROM contacts c
		JOIN interaction_contacts ic ON ic.contact_id = c.id
		JOIN interactions i ON i.id = ic.interaction_id
		WHERE c.user_id = ? AND i.was_at > ?
		GROUP BY c.id
		ORDER BY n DESC, c.name
		LIMIT ?
	`, userID.String(), now.Add(-window).UTC(), limit)
}

// GetFrequentContacts ranks contacts by all-time interaction count.
func GetFrequentContacts(ctx context.Context, db *sql.DB, userID uuid.UUID, limit int) ([]models.ContactCount, error) {
	if limit <= 0 {
		limit = DefaultListingLimit
	}
	return queryContactCounts(ctx, db, `
		SELECT `+contactColumns+`, COUNT(ic.interaction_id) AS n
		FROM contacts c
		JOIN interaction_contacts ic ON ic.contact_id = c.id
		WHERE c.user_id = ?
		GROUP BY c.id
		ORDER BY n DESC, c.name
		LIMIT ?
	`, userID.String(), limit)
}

func queryContactCounts(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.ContactCount, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ContactCount
	for rows.Next() {
		var n int
		c, err := scanContact(rows, &n)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact count: %w", err)
		}
		out = append(out, models.ContactCount{Contact: *c, InteractionCount: n})
	}
	return out, rows.Err()
}

// StatusCounts summarizes the contact overview.
type StatusCounts struct {
	Selected   int `json:"selected"`
	OutOfTouch int `json:"out_of_touch"`
	InTouch    int `json:"in_touch"`
	Hidden     int `json:"hidden"`
}

// ContactStatusCounts tallies contacts by status at now; Selected counts tracked contacts.
func ContactStatusCounts(ctx context.Context, db *sql.DB, userID uuid.UUID, now time.Time) (StatusCounts, error) {
	all, err := ContactUrgencies(ctx, db, userID, now)
	if err != nil {
		return StatusCounts{}, err
	}
	return CountStatuses(all), nil
}

func CountStatuses(all []DueContact) StatusCounts {
	var counts StatusCounts
	for _, dc := range all {
		switch dc.Status {
		case models.StatusHidden:
			counts.Hidden++
		case models.StatusInTouch:
			counts.InTouch++
			counts.Selected++
		case models.StatusOutOfTouch:
			counts.OutOfTouch++
			counts.Selected++
		}
	}
	return counts
}
