// ABOUTME: Interaction operations of the application service
// ABOUTME: Logging, editing, touchpoints, and analysis presentation
package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/touchbase/analysis"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

const (
	NoticeSaved             = "Interaction saved successfully."
	NoticeAnalysisMissing   = "Analysis for this interaction is not available."
	touchpointTitle         = "Interaction"
	touchpointDescription   = "..."
	interactionListingLimit = 100
)

type InteractionInput struct {
	Title       string      `json:"title" validate:"required,max=500"`
	Description string      `json:"description,omitempty"`
	WasAt       time.Time   `json:"was_at"`
	Type        string      `json:"type,omitempty" validate:"omitempty,oneof=email meeting touchpoint note"`
	ContactIDs  []uuid.UUID `json:"contact_ids,omitempty"`
}

// LogResult reports a saved interaction and what happened to its analysis.
type LogResult struct {
	Interaction *models.Interaction
	Analysis    *models.InteractionAnalysis
	AnalysisErr error
	Notice      string
}

// LogInteraction stores a new interaction and analyzes it when participants were added.
// An analysis failure never undoes the save; it is reported in the result.
func (s *Service) LogInteraction(ctx context.Context, userID uuid.UUID, in InteractionInput) (*LogResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.checkContacts(ctx, userID, in.ContactIDs); err != nil {
		return nil, err
	}

	it := &models.Interaction{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		WasAt:       in.WasAt,
	}
	if it.WasAt.IsZero() {
		it.WasAt = s.now()
	}
	if in.Type != "" {
		it.Type = &in.Type
	}
	if err := db.CreateInteraction(ctx, s.db, it); err != nil {
		return nil, err
	}
	return s.applyParticipants(ctx, userID, it, in.ContactIDs)
}

// UpdateInteraction rewrites an interaction and its participant set.
func (s *Service) UpdateInteraction(ctx context.Context, userID, interactionID uuid.UUID, in InteractionInput) (*LogResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.checkContacts(ctx, userID, in.ContactIDs); err != nil {
		return nil, err
	}
	it, err := db.GetInteraction(ctx, s.db, userID, interactionID)
	if err != nil {
		return nil, err
	}
	it.Title = in.Title
	it.Description = in.Description
	if !in.WasAt.IsZero() {
		it.WasAt = in.WasAt
	}
	if in.Type != "" {
		it.Type = &in.Type
	}
	if err := db.UpdateInteraction(ctx, s.db, it); err != nil {
		return nil, err
	}
	return s.applyParticipants(ctx, userID, it, in.ContactIDs)
}

func (s *Service) DeleteInteraction(ctx context.Context, userID, interactionID uuid.UUID) error {
	return db.DeleteInteraction(ctx, s.db, userID, interactionID)
}

// AddTouchpoint records a bare "we talked" with one contact, happening now.
func (s *Service) AddTouchpoint(ctx context.Context, userID, contactID uuid.UUID) (*LogResult, error) {
	return s.LogInteraction(ctx, userID, InteractionInput{
		Title:       touchpointTitle,
		Description: touchpointDescription,
		WasAt:       s.now(),
		Type:        models.InteractionTouchpoint,
		ContactIDs:  []uuid.UUID{contactID},
	})
}

func (s *Service) checkContacts(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := db.GetContactsByIDs(ctx, s.db, userID, ids)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, c := range found {
		known[c.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return fmt.Errorf("contact %s: %w", id, db.ErrNotFound)
		}
	}
	return nil
}

func (s *Service) applyParticipants(ctx context.Context, userID uuid.UUID, it *models.Interaction, contactIDs []uuid.UUID) (*LogResult, error) {
	added, err := db.SetInteractionContacts(ctx, s.db, it.ID, contactIDs)
	if err != nil {
		return nil, err
	}
	it.ContactIDs = contactIDs

	res := &LogResult{Interaction: it, Notice: NoticeSaved}
	if len(added) == 0 || s.analyzer == nil {
		return res, nil
	}
	out, err := s.analyzer.AnalyzeInteraction(ctx, userID, it.ID)
	if err != nil {
		res.AnalysisErr = err
		res.Notice = "Interaction saved but analysis failed: " + analysisMessage(err)
		return res, nil
	}
	if out != nil {
		res.Analysis = out.Analysis
	}
	return res, nil
}

func analysisMessage(err error) string {
	var aerr *analysis.AnalysisError
	if errors.As(err, &aerr) {
		return aerr.Message
	}
	return err.Error()
}

// InteractionView is an interaction with its analysis rendered for display.
type InteractionView struct {
	Interaction         models.Interaction
	Contacts            []models.Contact
	Analysis            *models.InteractionAnalysis
	SentimentPercentage float64
	SentimentCategory   string
	SentimentLabel      string
	NeedsAttention      bool
	Notice              string
}

func (s *Service) InteractionDetail(ctx context.Context, userID, interactionID uuid.UUID) (*InteractionView, error) {
	it, err := db.GetInteraction(ctx, s.db, userID, interactionID)
	if err != nil {
		return nil, err
	}
	contacts, err := db.GetContactsByIDs(ctx, s.db, userID, it.ContactIDs)
	if err != nil {
		return nil, err
	}
	view := &InteractionView{Interaction: *it, Contacts: contacts}

	a, err := db.GetAnalysis(ctx, s.db, interactionID)
	if errors.Is(err, db.ErrNotFound) {
		view.Notice = NoticeAnalysisMissing
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	view.Analysis = a
	view.SentimentPercentage = a.SentimentPercentage()
	view.SentimentCategory = a.SentimentCategory()
	view.SentimentLabel = a.SentimentLabel()
	view.NeedsAttention = a.NeedsAttention()
	return view, nil
}

// ListInteractions returns past interactions involving tracked contacts, newest first.
func (s *Service) ListInteractions(ctx context.Context, userID uuid.UUID) ([]models.Interaction, error) {
	return db.ListPastInteractions(ctx, s.db, userID, s.now(), interactionListingLimit)
}

// BatchStats counts the outcomes of AnalyzePending.
type BatchStats struct {
	Analyzed int
	Skipped  int
	Failed   int
}

// AnalyzePending analyzes up to limit interactions that have none yet.
// Failures are counted and logged; the batch keeps going.
func (s *Service) AnalyzePending(ctx context.Context, userID uuid.UUID, limit int) (BatchStats, error) {
	var stats BatchStats
	if s.analyzer == nil {
		return stats, errors.New("no analyzer configured")
	}
	pending, err := db.ListInteractionsWithoutAnalysis(ctx, s.db, userID, limit)
	if err != nil {
		return stats, err
	}
	for _, it := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		res, err := s.analyzer.AnalyzeInteraction(ctx, userID, it.ID)
		switch {
		case err != nil:
			stats.Failed++
			s.logger.Warn("analysis failed", "interaction", it.ID, "err", err)
		case res != nil && res.Skipped:
			stats.Skipped++
		default:
			stats.Analyzed++
		}
	}
	return stats, nil
}
