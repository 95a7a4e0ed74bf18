// ABOUTME: Interaction analyzer that asks the model for structured insights
// ABOUTME: One analysis per interaction; failures surface as AnalysisError
package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/metrics"
	"github.com/harperreed/touchbase/models"
)

const recentContextLimit = 3

// AnalysisError wraps any failure of an analysis run with its cause.
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Result reports what AnalyzeInteraction did.
type Result struct {
	Analysis *models.InteractionAnalysis
	Skipped  bool
	Reason   string
}

type Analyzer struct {
	db     *sql.DB
	gen    TextGenerator
	logger *log.Logger
}

func NewAnalyzer(database *sql.DB, gen TextGenerator, logger *log.Logger) *Analyzer {
	return &Analyzer{db: database, gen: gen, logger: logger}
}

// AnalyzeInteraction analyzes the interaction once. It is skipped when an analysis
// already exists or the interaction has no participants yet.
func (a *Analyzer) AnalyzeInteraction(ctx context.Context, userID, interactionID uuid.UUID) (*Result, error) {
	res, err := a.analyze(ctx, userID, interactionID)
	switch {
	case err != nil:
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		a.logger.Error("failed to analyze interaction", "interaction", interactionID, "err", err)
	case res.Skipped:
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		a.logger.Debug("analysis skipped", "interaction", interactionID, "reason", res.Reason)
	default:
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeStored).Inc()
		a.logger.Info("analyzed interaction", "interaction", interactionID)
	}
	return res, err
}

func (a *Analyzer) analyze(ctx context.Context, userID, interactionID uuid.UUID) (*Result, error) {
	exists, err := db.AnalysisExists(ctx, a.db, interactionID)
	if err != nil {
		return nil, &AnalysisError{Message: "Analysis failed", Err: err}
	}
	if exists {
		return &Result{Skipped: true, Reason: "already analyzed"}, nil
	}

	it, err := db.GetInteraction(ctx, a.db, userID, interactionID)
	if err != nil {
		return nil, &AnalysisError{Message: "Analysis failed", Err: err}
	}
	if len(it.ContactIDs) == 0 {
		return &Result{Skipped: true, Reason: "no participants"}, nil
	}
	if a.gen == nil {
		return nil, &AnalysisError{Message: "Missing Anthropic API key"}
	}

	contacts, err := db.GetContactsByIDs(ctx, a.db, userID, it.ContactIDs)
	if err != nil {
		return nil, &AnalysisError{Message: "Analysis failed", Err: err}
	}
	promptContacts := make([]PromptContact, 0, len(contacts))
	for _, c := range contacts {
		recent, err := db.RecentInteractionsForContact(ctx, a.db, c.ID, it.ID, recentContextLimit)
		if err != nil {
			return nil, &AnalysisError{Message: "Analysis failed", Err: err}
		}
		promptContacts = append(promptContacts, PromptContact{Name: c.Name, Recent: recent})
	}

	text, err := a.gen.Generate(ctx, BuildPrompt(it, promptContacts))
	if err != nil {
		return nil, &AnalysisError{Message: "Analysis failed", Err: err}
	}

	parsed, err := parseAnalysis(text, it.WasAt)
	if err != nil {
		return nil, &AnalysisError{Message: "Failed to parse Claude response as JSON", Err: err}
	}
	if parsed.dateErr != nil {
		a.logger.Warn("follow-up date defaulted to a week out", "interaction", it.ID, "err", parsed.dateErr)
	}
	analysis := parsed.analysis

	analysis.InteractionID = it.ID
	analysis.AnalysisVersion = a.gen.Model()
	if err := db.CreateAnalysis(ctx, a.db, analysis); err != nil {
		if errors.Is(err, db.ErrAnalysisExists) {
			return &Result{Skipped: true, Reason: "already analyzed"}, nil
		}
		return nil, &AnalysisError{Message: "Analysis failed", Err: err}
	}
	return &Result{Analysis: analysis}, nil
}
