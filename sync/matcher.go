// ABOUTME: Participant resolution from email addresses to contacts
// ABOUTME: Memoizes lookups so one reconciliation pass resolves each address once
package sync

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/touchbase/db"
)

// ParticipantResolver maps addresses to contact ids for one user, creating
// placeholder contacts for unknown addresses.
type ParticipantResolver struct {
	db      *sql.DB
	userID  uuid.UUID
	byEmail map[string]uuid.UUID
	created int
}

func NewParticipantResolver(database *sql.DB, userID uuid.UUID) *ParticipantResolver {
	return &ParticipantResolver{
		db:      database,
		userID:  userID,
		byEmail: make(map[string]uuid.UUID),
	}
}

// Resolve returns the distinct contact ids for emails, in first-seen order.
func (r *ParticipantResolver) Resolve(ctx context.Context, emails []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, email := range emails {
		id, err := r.resolveOne(ctx, email)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *ParticipantResolver) resolveOne(ctx context.Context, email string) (uuid.UUID, error) {
	normalized := normalizeEmail(email)
	if id, ok := r.byEmail[normalized]; ok {
		return id, nil
	}

	addr, created, err := db.GetOrCreateContactEmail(ctx, r.db, r.userID, normalized)
	if err != nil {
		return uuid.Nil, err
	}
	if created {
		r.created++
	}
	r.byEmail[normalized] = addr.ContactID
	return addr.ContactID, nil
}

// Created counts placeholder contacts created by this resolver.
func (r *ParticipantResolver) Created() int {
	return r.created
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
