// ABOUTME: Reconciliation of raw Google records into interactions
// ABOUTME: Creates email interactions and keeps meeting interactions in step with their events
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/touchbase/analysis"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/metrics"
	"github.com/harperreed/touchbase/models"
)

// InteractionAnalyzer is called after an interaction gained participants.
type InteractionAnalyzer interface {
	AnalyzeInteraction(ctx context.Context, userID, interactionID uuid.UUID) (*analysis.Result, error)
}

// ReconcileStats counts what one pass did.
type ReconcileStats struct {
	EmailsCreated   int
	EmailsFailed    int
	EventsCreated   int
	EventsUpdated   int
	EventsDeleted   int
	EventsFailed    int
	ContactsCreated int
	AnalysesFailed  int
	AnalysesDone    int
}

type Reconciler struct {
	db       *sql.DB
	analyzer InteractionAnalyzer
	logger   *log.Logger
	location *time.Location
}

// NewReconciler builds a reconciler; a nil analyzer disables analysis.
func NewReconciler(database *sql.DB, analyzer InteractionAnalyzer, logger *log.Logger, location *time.Location) *Reconciler {
	if location == nil {
		location = time.Local
	}
	return &Reconciler{db: database, analyzer: analyzer, logger: logger, location: location}
}

// ReconcileAccount turns unlinked emails into interactions and re-evaluates every event.
// A record that cannot be reconciled is logged and skipped; only listing the stored
// records or a cancelled context ends the pass early.
func (r *Reconciler) ReconcileAccount(ctx context.Context, acct *models.SocialAccount) (ReconcileStats, error) {
	var stats ReconcileStats
	resolver := NewParticipantResolver(r.db, acct.UserID)

	emails, err := db.ListGoogleEmails(ctx, r.db, acct.ID, true)
	if err != nil {
		return stats, err
	}
	for i := range emails {
		_, err := r.CreateEmailInteraction(ctx, acct.UserID, &emails[i], resolver, &stats)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			stats.EmailsFailed++
			metrics.ReconcileTotal.WithLabelValues(models.ServiceGmail, metrics.ActionFailed).Inc()
			if errors.Is(err, ErrHeaderParsing) {
				r.logger.Warn("parsing email failed", "message", emails[i].GmailMessageID, "error", err)
			} else {
				r.logger.Error("reconciling email failed", "message", emails[i].GmailMessageID, "error", err)
			}
			continue
		}
		stats.EmailsCreated++
	}

	events, err := db.ListCalendarEvents(ctx, r.db, acct.ID)
	if err != nil {
		return stats, err
	}
	for i := range events {
		action, err := r.UpdateCalendarInteraction(ctx, acct.UserID, &events[i], resolver, &stats)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			stats.EventsFailed++
			metrics.ReconcileTotal.WithLabelValues(models.ServiceCalendar, metrics.ActionFailed).Inc()
			r.logger.Error("reconciling event failed", "event", events[i].GoogleCalendarID, "error", err)
			continue
		}
		switch action {
		case metrics.ActionCreated:
			stats.EventsCreated++
		case metrics.ActionUpdated:
			stats.EventsUpdated++
		case metrics.ActionDeleted:
			stats.EventsDeleted++
		}
	}

	stats.ContactsCreated = resolver.Created()
	return stats, nil
}

// CreateEmailInteraction creates the interaction for a raw email and links it back.
func (r *Reconciler) CreateEmailInteraction(ctx context.Context, userID uuid.UUID, raw *models.GoogleEmail, resolver *ParticipantResolver, stats *ReconcileStats) (*models.Interaction, error) {
	msg, err := ParseGmailMessage(raw.Data)
	if err != nil {
		return nil, err
	}
	participants, err := msg.Participants()
	if err != nil {
		return nil, err
	}
	if _, all, _ := msg.From(); len(all) > 1 {
		r.logger.Warn("unexpected from header", "message", raw.GmailMessageID, "emails", all)
	}

	typ := models.InteractionEmail
	it := &models.Interaction{
		UserID:      userID,
		Type:        &typ,
		Title:       msg.Subject(),
		Description: msg.Snippet(),
		WasAt:       msg.Date(),
	}
	if err := db.CreateInteraction(ctx, r.db, it); err != nil {
		return nil, err
	}
	if err := db.LinkEmailInteraction(ctx, r.db, raw.ID, &it.ID); err != nil {
		return nil, err
	}
	metrics.ReconcileTotal.WithLabelValues(models.ServiceGmail, metrics.ActionCreated).Inc()

	if err := r.setParticipants(ctx, userID, it, participants, resolver, stats); err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateCalendarInteraction creates, updates or deletes the interaction of one event
// and returns the metrics action taken.
func (r *Reconciler) UpdateCalendarInteraction(ctx context.Context, userID uuid.UUID, raw *models.GoogleCalendarEvent, resolver *ParticipantResolver, stats *ReconcileStats) (string, error) {
	ev, err := ParseCalendarEvent(raw.Data)
	if err != nil {
		return "", err
	}

	var existing *models.Interaction
	if raw.InteractionID != nil {
		existing, err = db.GetInteraction(ctx, r.db, userID, *raw.InteractionID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return "", err
		}
	}

	if !ev.Qualifies() {
		if existing == nil {
			metrics.ReconcileTotal.WithLabelValues(models.ServiceCalendar, metrics.ActionNoop).Inc()
			return metrics.ActionNoop, nil
		}
		if err := db.DeleteInteraction(ctx, r.db, userID, existing.ID); err != nil {
			return "", err
		}
		if err := db.LinkCalendarInteraction(ctx, r.db, raw.ID, nil); err != nil {
			return "", err
		}
		raw.InteractionID = nil
		r.logger.Debug("meeting interaction removed", "event", raw.GoogleCalendarID, "status", ev.Status())
		metrics.ReconcileTotal.WithLabelValues(models.ServiceCalendar, metrics.ActionDeleted).Inc()
		return metrics.ActionDeleted, nil
	}

	end, err := ev.End(r.location)
	if err != nil {
		return "", err
	}

	typ := models.InteractionMeeting
	action := metrics.ActionUpdated
	it := existing
	if it == nil {
		action = metrics.ActionCreated
		it = &models.Interaction{UserID: userID}
	}
	it.Type = &typ
	it.Title = ev.Summary()
	it.Description = CalendarEventDescription
	it.WasAt = end

	if action == metrics.ActionCreated {
		if err := db.CreateInteraction(ctx, r.db, it); err != nil {
			return "", err
		}
		if err := db.LinkCalendarInteraction(ctx, r.db, raw.ID, &it.ID); err != nil {
			return "", err
		}
		raw.InteractionID = &it.ID
	} else if err := db.UpdateInteraction(ctx, r.db, it); err != nil {
		return "", err
	}
	metrics.ReconcileTotal.WithLabelValues(models.ServiceCalendar, action).Inc()

	if err := r.setParticipants(ctx, userID, it, ev.Attendees(), resolver, stats); err != nil {
		return "", err
	}
	return action, nil
}

// setParticipants replaces the participant set and analyzes the interaction when it gained any.
func (r *Reconciler) setParticipants(ctx context.Context, userID uuid.UUID, it *models.Interaction, emails []string, resolver *ParticipantResolver, stats *ReconcileStats) error {
	ids, err := resolver.Resolve(ctx, emails)
	if err != nil {
		return fmt.Errorf("failed to resolve participants: %w", err)
	}
	added, err := db.SetInteractionContacts(ctx, r.db, it.ID, ids)
	if err != nil {
		return err
	}
	it.ContactIDs = ids

	if len(added) == 0 || r.analyzer == nil {
		return nil
	}
	res, err := r.analyzer.AnalyzeInteraction(ctx, userID, it.ID)
	if err != nil {
		stats.AnalysesFailed++
		r.logger.Warn("interaction analysis failed", "interaction", it.ID, "error", err)
		return nil
	}
	if !res.Skipped {
		stats.AnalysesDone++
	}
	return nil
}
